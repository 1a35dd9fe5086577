package database

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/kanehiroyuu/blog-api/internal/domain"
)

// MySQL server error numbers surfaced as domain errors.
const (
	mysqlErrDuplicateEntry   = 1062 // ER_DUP_ENTRY
	mysqlErrForeignKeyNoRow  = 1452 // ER_NO_REFERENCED_ROW_2
)

// mapWriteError converts driver-level failures into the domain taxonomy.
// Anything that is not a recognized integrity violation stays a wrapped
// store error.
func mapWriteError(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrDuplicateEntry:
			return domain.ErrDuplicateEmail
		case mysqlErrForeignKeyNoRow:
			return domain.ErrOwnerNotFound
		}
	}
	return fmt.Errorf("store error: %w", err)
}
