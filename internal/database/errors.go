package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"FakedIn-backend/internal/apperror"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translate turns a gorm or postgres error into an apperror. uniqueRule is
// reported when a unique index is violated.
func translate(err error, what string, uniqueRule apperror.Rule) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(what + " not found")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if uniqueRule == apperror.RuleNone {
				uniqueRule = apperror.RuleDuplicate
			}
			return &apperror.Error{Kind: apperror.KindConflict, Rule: uniqueRule, Message: what + " already exists", Err: err}
		case pgForeignKeyViolation:
			return &apperror.Error{Kind: apperror.KindNotFound, Message: "referenced record of " + what + " not found", Err: err}
		}
	}
	return apperror.Internal("failed to access "+what, err)
}

// IsUniqueViolation reports whether err is a postgres unique violation
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
