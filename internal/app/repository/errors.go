package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotConfigured signals that no database is configured or it cannot be reached.
	ErrNotConfigured = errors.New("link backend is not configured")
	// ErrTableMissing signals that an association table has not been provisioned yet.
	ErrTableMissing = errors.New("association table is not provisioned")
	// ErrSchemaDrift signals a column the application expects is missing; run migrations.
	ErrSchemaDrift = errors.New("database schema is behind the application")
	// ErrSlugConflict signals a concurrent writer took the slug first. Retrying is safe.
	ErrSlugConflict = errors.New("slug already taken in portal")
	// ErrHighlightTaken signals a concurrent writer gave the highlight
	// position to another article first. Retrying is safe.
	ErrHighlightTaken = errors.New("highlight position taken concurrently")
	// ErrLinkNotFound signals that the entity is not linked to the portal.
	ErrLinkNotFound = errors.New("link not found")
	// ErrEntityNotFound signals that the referenced entity does not exist.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrPortalNotFound signals that the referenced portal does not exist.
	ErrPortalNotFound = errors.New("portal not found")
)

// Postgres SQLSTATE codes we react to.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgUndefinedTable      = "42P01"
	pgUndefinedColumn     = "42703"
)

// highlightIndex keeps one article per highlight position per portal.
const highlightIndex = "ux_article_portals_portal_highlight"

// classify maps driver errors onto the package sentinels. The driver error
// stays in the chain so its message reaches the operator.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{
		ErrNotConfigured, ErrTableMissing, ErrSchemaDrift, ErrSlugConflict,
		ErrHighlightTaken, ErrLinkNotFound, ErrEntityNotFound, ErrPortalNotFound,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if pgErr.ConstraintName == highlightIndex {
				return fmt.Errorf("%w: %w", ErrHighlightTaken, err)
			}
			return fmt.Errorf("%w: %w", ErrSlugConflict, err)
		case pgForeignKeyViolation:
			if strings.HasSuffix(pgErr.ConstraintName, "_portal") {
				return fmt.Errorf("%w: %w", ErrPortalNotFound, err)
			}
			return fmt.Errorf("%w: %w", ErrEntityNotFound, err)
		case pgUndefinedTable:
			return fmt.Errorf("%w: %w", ErrTableMissing, err)
		case pgUndefinedColumn:
			return fmt.Errorf("%w: %w", ErrSchemaDrift, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %w", ErrNotConfigured, err)
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", ErrSlugConflict, err)
	}

	// sqlite reports constraint and schema problems only through the message.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed") &&
		(strings.Contains(msg, highlightIndex) || strings.Contains(msg, ".highlight_position")):
		return fmt.Errorf("%w: %w", ErrHighlightTaken, err)
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %w", ErrSlugConflict, err)
	case strings.Contains(msg, "no such table"):
		return fmt.Errorf("%w: %w", ErrTableMissing, err)
	case strings.Contains(msg, "no such column"):
		return fmt.Errorf("%w: %w", ErrSchemaDrift, err)
	}
	return err
}
