// Package core is a table-agnostic data-access layer over a PostgreSQL
// connection pool.
//
// It turns a table name and ordered column/value pairs into parameterized
// SQL, runs each statement on exactly one pooled connection, and reduces
// every driver failure to one of four domain error kinds.
//
// # Tables
//
// Tables are registered at init time using [Register]. Only registered
// tables and their allowlisted columns can appear in generated SQL:
//
//	core.Register(core.TableDefinition{
//	    Name:    "cars",
//	    Columns: []core.Column{"brand", "price", "create_date", "update_date"},
//	})
//
// # Statements
//
// [BuildInsert], [BuildSelect] and [BuildUpdate] are pure functions that
// return a [Statement]. Identifiers are quoted; values are always
// positional arguments ($1, $2, ...).
//
// # Execution
//
// [Executor] acquires a connection per statement and always releases it:
//
//	exec := core.NewExecutor(pool)
//	row, err := exec.Insert(ctx, "cars", core.F("brand", "toyota"), core.F("price", 10))
//	rows, err := exec.SelectWhere(ctx, "cars", core.SelectOptions{}, core.F("brand", "toyota"))
//
// # Errors
//
// Executors return exactly one of [ErrNotFound], [ErrInsertFailed],
// [ErrUpdateFailed] or [ErrQueryError]. The underlying error, SQL text and
// arguments are logged (with an op_id) but never returned. [MapError] turns
// a kind into a user-facing message with a support code.
package core
