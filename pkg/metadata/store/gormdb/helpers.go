package gormdb

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/marmos91/servr/pkg/metadata"
)

// isUniqueConstraintError checks if the error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	errStr := err.Error()
	// SQLite or PostgreSQL unique constraint errors
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "duplicate key value violates unique constraint")
}

// isForeignKeyError checks if the error is a foreign key violation, raised
// when a folder with children is deleted or a node is inserted under a
// parent that no longer exists.
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "FOREIGN KEY constraint failed") ||
		strings.Contains(errStr, "violates foreign key constraint")
}

// convertError maps a GORM error onto the metadata error model. Domain
// errors pass through, gorm.ErrRecordNotFound becomes notFound and anything
// else is a node store failure.
func convertError(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	var me *metadata.Error
	if errors.As(err, &me) {
		return err
	}
	if notFound != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return metadata.NewNodeStoreError(op, err)
}
