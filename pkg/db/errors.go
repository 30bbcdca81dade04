package db

import (
	"errors"
	"strings"

	pkgerrors "github.com/angelmondragon/stn-picking/pkg/errors"
	"gorm.io/gorm"
)

// IsUniqueViolation reports whether err is a unique-key failure, optionally on
// a specific constraint. SQLite (tests) has no SQLSTATE, so the error text
// decides there.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if pg, ok := pkgerrors.AsPostgres(err); ok {
		return pg.Code == pkgerrors.PGUniqueViolation &&
			(constraintName == "" || pg.Constraint == constraintName)
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return constraintName == "" || strings.Contains(err.Error(), constraintName)
	}

	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	if constraintName == "" {
		return true
	}
	return strings.Contains(msg, constraintName)
}

// IsNotFound reports whether err is GORM's missing-row sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
