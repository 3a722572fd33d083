package repository

import (
    "context"
    "database/sql"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so read queries can run
// inside or outside a transaction.
type dbtx interface {
    ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
    QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
    if n <= 0 {
        return ""
    }
    b := make([]byte, 0, n*3)
    for i := 0; i < n; i++ {
        if i > 0 {
            b = append(b, ", "...)
        }
        b = append(b, '?')
    }
    return string(b)
}
