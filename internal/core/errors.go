package core

import (
	"context"
	"errors"
	"reflect"

	"github.com/JonMunkholm/carbot/internal/logging"
	"github.com/jackc/pgx/v5/pgconn"
)

// Domain error kinds. Executors return exactly these values and never wrap
// the underlying driver error; diagnostic detail goes to the log instead.
var (
	// ErrNotFound is returned when a filtered lookup matches no row or fails.
	ErrNotFound = errors.New("not found")

	// ErrInsertFailed is returned when an insert does not return exactly one row.
	ErrInsertFailed = errors.New("insert failed")

	// ErrUpdateFailed is returned when an update statement fails.
	ErrUpdateFailed = errors.New("update failed")

	// ErrQueryError is returned when a read or raw query fails.
	ErrQueryError = errors.New("query error")
)

// KindOf returns the name of the domain error kind carried by err,
// or "" if err is not one of them.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrInsertFailed):
		return "InsertFailed"
	case errors.Is(err, ErrUpdateFailed):
		return "UpdateFailed"
	case errors.Is(err, ErrQueryError):
		return "QueryError"
	default:
		return ""
	}
}

// ErrorKind returns the fully qualified type name of err,
// e.g. "github.com/jackc/pgx/v5/pgconn.PgError".
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// failure carries the diagnostic context of one failed statement.
type failure struct {
	op    string
	opID  string
	stmt  Statement
	cause error
}

// translate logs f once and returns kind. The returned error carries no
// reference to the cause, the SQL text or the arguments.
func translate(ctx context.Context, kind error, f failure) error {
	attrs := []any{
		"op", f.op,
		"op_id", f.opID,
		"error_kind", ErrorKind(f.cause),
		"error", f.cause.Error(),
		"query", f.stmt.SQL(),
		"args", f.stmt.Args(),
	}

	var pgErr *pgconn.PgError
	if errors.As(f.cause, &pgErr) {
		attrs = append(attrs,
			"sqlstate", pgErr.Code,
			"severity", pgErr.Severity,
		)
		if pgErr.ConstraintName != "" {
			attrs = append(attrs, "constraint", pgErr.ConstraintName)
		}
	}

	logging.FromContext(ctx).Error(KindOf(kind), attrs...)
	return kind
}
