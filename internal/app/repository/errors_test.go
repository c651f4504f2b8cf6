package repository

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "ux_article_portals_portal_slug"}, ErrSlugConflict},
		{"unique highlight", &pgconn.PgError{Code: "23505", ConstraintName: "ux_article_portals_portal_highlight"}, ErrHighlightTaken},
		{"fk portal", &pgconn.PgError{Code: "23503", ConstraintName: "fk_article_portals_portal"}, ErrPortalNotFound},
		{"fk entity", &pgconn.PgError{Code: "23503", ConstraintName: "fk_article_portals_article"}, ErrEntityNotFound},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, ErrTableMissing},
		{"undefined column", &pgconn.PgError{Code: "42703"}, ErrSchemaDrift},
		{"bad conn", fmt.Errorf("query: %w", driver.ErrBadConn), ErrNotConfigured},
		{"gorm duplicate", gorm.ErrDuplicatedKey, ErrSlugConflict},
		{"sqlite unique", errors.New("UNIQUE constraint failed: article_portals.portal_id, article_portals.slug"), ErrSlugConflict},
		{"sqlite unique highlight", errors.New("UNIQUE constraint failed: article_portals.portal_id, article_portals.highlight_position"), ErrHighlightTaken},
		{"sqlite table", errors.New("no such table: event_portals"), ErrTableMissing},
		{"sqlite column", errors.New("no such column: l.highlight_position"), ErrSchemaDrift},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			assert.ErrorIs(t, got, tt.want)
			// The driver error stays reachable.
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassify_Passthrough(t *testing.T) {
	assert.NoError(t, classify(nil))

	wrapped := fmt.Errorf("lookup: %w", ErrLinkNotFound)
	assert.Same(t, wrapped, classify(wrapped))

	other := &pgconn.PgError{Code: "22001"}
	assert.Equal(t, error(other), classify(other))

	plain := errors.New("something else")
	assert.Equal(t, plain, classify(plain))
}

func TestClassify_SlugAndHighlightAreDistinct(t *testing.T) {
	got := classify(&pgconn.PgError{Code: "23505", ConstraintName: "ux_article_portals_portal_highlight"})
	assert.NotErrorIs(t, got, ErrSlugConflict)

	got = classify(&pgconn.PgError{Code: "23505", ConstraintName: "ux_article_portals_portal_slug"})
	assert.NotErrorIs(t, got, ErrHighlightTaken)
}
