package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrNotFound, "NotFound"},
		{ErrInsertFailed, "InsertFailed"},
		{ErrUpdateFailed, "UpdateFailed"},
		{ErrQueryError, "QueryError"},
		{fmt.Errorf("wrapped: %w", ErrQueryError), "QueryError"},
		{errors.New("other"), ""},
		{nil, ""},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"errors.New", errors.New("x"), "errors.errorString"},
		{"pg error", &pgconn.PgError{Code: "23505"}, "github.com/jackc/pgx/v5/pgconn.PgError"},
		{"fmt wrap", fmt.Errorf("x: %w", pgx.ErrNoRows), "fmt.wrapError"},
		{"context deadline", context.DeadlineExceeded, "context.deadlineExceededError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorKind(tt.err); got != tt.want {
				t.Errorf("ErrorKind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTranslate_ReturnsBareKind(t *testing.T) {
	ctx, logs := captureLogs()
	cause := &pgconn.PgError{Code: "42P01", Severity: "ERROR", Message: `relation "cars" does not exist`}

	err := translate(ctx, ErrQueryError, failure{
		op:    "query",
		opID:  "op-1",
		stmt:  Raw(`SELECT * FROM "cars" WHERE "brand" = $1`, "kia"),
		cause: cause,
	})

	if err != ErrQueryError {
		t.Fatalf("translate() = %v, want ErrQueryError", err)
	}
	if errors.As(err, new(*pgconn.PgError)) {
		t.Error("returned error must not expose the driver error")
	}
	if strings.Contains(err.Error(), "SELECT") || strings.Contains(err.Error(), "kia") {
		t.Errorf("returned error leaks statement detail: %q", err.Error())
	}

	out := logs.String()
	for _, want := range []string{"msg=QueryError", "op_id=op-1", "sqlstate=42P01", "kia", "does not exist"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}
