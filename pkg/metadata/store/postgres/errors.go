package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/marmos91/servr/pkg/metadata"
)

// mapPgError maps PostgreSQL errors onto the metadata error model.
// notFound is returned for pgx.ErrNoRows; when nil, ErrNoRows is a store
// failure like any other error.
func mapPgError(err error, operation string, notFound error) error {
	if err == nil {
		return nil
	}

	var me *metadata.Error
	if errors.As(err, &me) {
		return err
	}

	if notFound != nil && errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// https://www.postgresql.org/docs/current/errcodes-appendix.html
		switch pgErr.Code {
		case "23505": // unique_violation
			return metadata.NewAlreadyExistsError(constraintSubject(pgErr.ConstraintName))
		case "23503": // foreign_key_violation
			return metadata.NewConflictError("%s: %s", operation, pgErr.Message)
		case "23514", "22P02": // check_violation, invalid_text_representation
			return metadata.NewValidationError("%s: %s", operation, pgErr.Message)
		}
	}

	return metadata.NewNodeStoreError(operation, err)
}

func constraintSubject(constraint string) string {
	switch constraint {
	case "accounts_pkey":
		return "account"
	case "accounts_email_key":
		return "account email"
	case "nodes_pkey":
		return "node"
	default:
		return "record"
	}
}
