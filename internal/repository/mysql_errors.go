package repository

import (
    "errors"
    "fmt"

    "github.com/go-sql-driver/mysql"
)

// MySQL server error numbers that signal a collision with a concurrent
// transaction rather than a broken statement.
const (
    mysqlDuplicateEntry  = 1062
    mysqlLockWaitTimeout = 1205
    mysqlDeadlock        = 1213
)

// classify wraps conflict-class MySQL errors with ErrConflict and returns
// everything else unchanged.
func classify(err error) error {
    if err == nil {
        return nil
    }
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        switch me.Number {
        case mysqlDuplicateEntry, mysqlLockWaitTimeout, mysqlDeadlock:
            return fmt.Errorf("%w: %v", ErrConflict, err)
        }
    }
    return err
}
