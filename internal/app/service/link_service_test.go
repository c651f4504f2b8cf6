package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sifan077/PortalLink/internal/app/model"
	"github.com/sifan077/PortalLink/internal/app/repository"
	"github.com/sifan077/PortalLink/internal/tester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkService_Link(t *testing.T) {
	f := newFixture(t)
	tester.Seed(t, f.db, &model.Article{ID: "a1", Title: "ACME Corp!!"})
	ctx := context.Background()

	links, err := f.links.Link(ctx, model.KindArticle, "a1", 1, "")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "a1", links[0].EntityID)
	assert.Equal(t, int64(1), links[0].PortalID)
	assert.Equal(t, "Alpha", links[0].PortalName)
	assert.Equal(t, "acme-corp", links[0].Slug)
	assert.Equal(t, model.StatusPublished, links[0].Status)
	assert.Equal(t, []string{model.LinkActionLinked}, f.events.actions())
}

func TestLinkService_Link_Idempotent(t *testing.T) {
	f := newFixture(t)
	tester.Seed(t, f.db, &model.Article{ID: "a1", Title: "News"})
	ctx := context.Background()

	first, err := f.links.Link(ctx, model.KindArticle, "a1", 1, "")
	require.NoError(t, err)

	second, err := f.links.Link(ctx, model.KindArticle, "a1", 1, "Another Title")
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Slug, second[0].Slug)

	// Only the first call writes and announces.
	assert.Equal(t, []string{model.LinkActionLinked}, f.events.actions())
}

func TestLinkService_Link_SlugCollisions(t *testing.T) {
	f := newFixture(t)
	tester.Seed(t, f.db,
		&model.Article{ID: "a1", Title: "ACME Corp"},
		&model.Article{ID: "a2", Title: "acme corp"},
		&model.Article{ID: "a3", Title: "Acme   Corp!"},
	)
	ctx := context.Background()

	for _, id := range []string{"a1", "a2", "a3"} {
		_, err := f.links.Link(ctx, model.KindArticle, id, 1, "")
		require.NoError(t, err)
	}

	slugs := map[string]string{}
	for _, id := range []string{"a1", "a2", "a3"} {
		link, err := f.repo.Get(ctx, model.KindArticle, id, 1)
		require.NoError(t, err)
		slugs[id] = link.Slug
	}
	assert.Equal(t, map[string]string{"a1": "acme-corp", "a2": "acme-corp-1", "a3": "acme-corp-2"}, slugs)

	// Another portal is a separate namespace.
	links, err := f.links.Link(ctx, model.KindArticle, "a2", 2, "")
	require.NoError(t, err)
	var beta model.Link
	for _, l := range links {
		if l.PortalID == 2 {
			beta = l
		}
	}
	assert.Equal(t, "acme-corp", beta.Slug)
}

func TestLinkService_Link_SeedFallbacks(t *testing.T) {
	f := newFixture(t)
	tester.Seed(t, f.db,
		&model.Article{ID: "art_42", Title: ""},
		&model.Article{ID: "a2", Title: "Stored Title"},
	)
	ctx := context.Background()

	links, err := f.links.Link(ctx, model.KindArticle, "art_42", 1, "")
	require.NoError(t, err)
	assert.Equal(t, "art-42", links[0].Slug)

	links, err = f.links.Link(ctx, model.KindArticle, "a2", 1, "Given Seed")
	require.NoError(t, err)
	assert.Equal(t, "given-seed", links[0].Slug)
}

func TestLinkService_Link_OtherKinds(t *testing.T) {
	f := newFixture(t)
	tester.Seed(t, f.db,
		&model.Event{ID: "e1", Name: "Launch Party"},
		&model.Product{ID: "p1", Name: "Widget Pro"},
		&model.Company{ID: "c1", Name: "Globex"},
		&model.Publication{ID: "pub1", Title: "Annual Report", RedirectURL: "https://example.com/report.pdf"},
	)
	ctx := context.Background()

	tests := []struct {
		kind     model.EntityKind
		id       string
		slug     string
		redirect string
	}{
		{model.KindEvent, "e1", "launch-party", ""},
		{model.KindProduct, "p1", "widget-pro", ""},
		{model.KindCompany, "c1", "globex", ""},
		{model.KindPublication, "pub1", "annual-report", "https://example.com/report.pdf"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			links, err := f.links.Link(ctx, tt.kind, tt.id, 3, "")
			require.NoError(t, err)
			require.Len(t, links, 1)
			assert.Equal(t, tt.slug, links[0].Slug)
			assert.Equal(t, "Gamma", links[0].PortalName)
			assert.Equal(t, tt.redirect, links[0].RedirectURL)
			assert.Empty(t, links[0].HighlightPosition)
		})
	}
}

func TestLinkService_Link_MissingReferences(t *testing.T) {
	f := newFixture(t)
	tester.Seed(t, f.db, &model.Article{ID: "a1", Title: "News"})
	ctx := context.Background()

	_, err := f.links.Link(ctx, model.KindArticle, "nope", 1, "")
	assert.ErrorIs(t, err, repository.ErrEntityNotFound)

	_, err = f.links.Link(ctx, model.KindArticle, "a1", 99, "")
	assert.ErrorIs(t, err, repository.ErrPortalNotFound)

	_, err = f.links.Link(ctx, model.KindArticle, " ", 1, "")
	assert.ErrorIs(t, err, ErrMissingEntityID)

	_, err = f.links.Link(ctx, model.EntityKind("author"), "a1", 1, "")
	assert.ErrorIs(t, err, model.ErrUnknownKind)

	assert.Empty(t, f.events.actions())
}

func TestLinkService_Unlink(t *testing.T) {
	f := newFixture(t)
	tester.Seed(t, f.db, &model.Article{ID: "a1", Title: "News"})
	ctx := context.Background()

	_, err := f.links.Link(ctx, model.KindArticle, "a1", 1, "")
	require.NoError(t, err)
	_, err = f.links.Link(ctx, model.KindArticle, "a1", 2, "")
	require.NoError(t, err)

	links, err := f.links.Unlink(ctx, model.KindArticle, "a1", 1)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, int64(2), links[0].PortalID)

	// Removing an absent link is not an error.
	links, err = f.links.Unlink(ctx, model.KindArticle, "a1", 1)
	require.NoError(t, err)
	assert.Len(t, links, 1)

	assert.Equal(t, []string{model.LinkActionLinked, model.LinkActionLinked, model.LinkActionUnlinked}, f.events.actions())
	assert.Equal(t, []int64{1}, f.cache.invalidated)
}

func TestLinkService_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	tester.Seed(t, f.db, &model.Event{ID: "e1", Name: "Expo"})
	ctx := context.Background()

	_, err := f.links.Link(ctx, model.KindEvent, "e1", 1, "")
	require.NoError(t, err)

	links, err := f.links.UpdateStatus(ctx, model.KindEvent, "e1", 1, model.StatusHidden)
	require.NoError(t, err)
	assert.Equal(t, model.StatusHidden, links[0].Status)

	_, err = f.links.UpdateStatus(ctx, model.KindEvent, "e1", 1, "draft")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.links.UpdateStatus(ctx, model.KindEvent, "e1", 2, model.StatusPublished)
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
}

func TestLinkService_SyncRedirectURL(t *testing.T) {
	f := newFixture(t)
	tester.Seed(t, f.db, &model.Publication{ID: "pub1", Title: "Report", RedirectURL: "https://old.example.com"})
	ctx := context.Background()

	_, err := f.links.Link(ctx, model.KindPublication, "pub1", 1, "")
	require.NoError(t, err)
	_, err = f.links.Link(ctx, model.KindPublication, "pub1", 2, "")
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&model.Publication{}).
		Where("id = ?", "pub1").
		Update("redirect_url", "https://new.example.com").Error)

	links, err := f.links.SyncRedirectURL(ctx, "pub1")
	require.NoError(t, err)
	require.Len(t, links, 2)
	for _, l := range links {
		assert.Equal(t, "https://new.example.com", l.RedirectURL)
	}

	_, err = f.links.SyncRedirectURL(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrEntityNotFound)
}

func TestLinkService_BulkLink(t *testing.T) {
	f := newFixture(t)
	tester.Seed(t, f.db, &model.Product{ID: "p1", Name: "Widget"})
	ctx := context.Background()

	result, err := f.links.BulkLink(ctx, model.KindProduct, "p1", []any{3, "abc", 3, 5.7, 5}, "")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5}, result.Requested)
	assert.Equal(t, []int64{3, 5}, result.Linked)
	assert.Empty(t, result.Existing)
	assert.Empty(t, result.Failures)
	assert.NoError(t, result.Err)

	// Ordered by portal name: Epsilon before Gamma.
	require.Len(t, result.Links, 2)
	assert.Equal(t, "Epsilon", result.Links[0].PortalName)
	assert.Equal(t, "Gamma", result.Links[1].PortalName)
	for _, l := range result.Links {
		assert.Equal(t, "widget", l.Slug)
	}
}

func TestLinkService_BulkLink_PartialFailure(t *testing.T) {
	f := newFixture(t)
	tester.Seed(t, f.db, &model.Product{ID: "p1", Name: "Widget"})
	ctx := context.Background()

	_, err := f.links.Link(ctx, model.KindProduct, "p1", 3, "")
	require.NoError(t, err)

	result, err := f.links.BulkLink(ctx, model.KindProduct, "p1", []any{"3", 99, 4}, "")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 99, 4}, result.Requested)
	assert.Equal(t, []int64{4}, result.Linked)
	assert.Equal(t, []int64{3}, result.Existing)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, int64(99), result.Failures[0].PortalID)
	assert.True(t, errors.Is(result.Err, repository.ErrPortalNotFound))

	// Nothing is rolled back.
	assert.Len(t, result.Links, 2)
}

func TestLinkService_BulkLink_Empty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.links.BulkLink(ctx, model.KindArticle, "", []any{"x", 0, -2}, "")
	require.NoError(t, err)
	assert.Empty(t, result.Requested)
	assert.Empty(t, result.Links)
	assert.Empty(t, f.events.actions())
}

func TestLinkService_BulkLink_UnknownEntity(t *testing.T) {
	f := newFixture(t)

	_, err := f.links.BulkLink(context.Background(), model.KindArticle, "nope", []any{1}, "")
	assert.ErrorIs(t, err, repository.ErrEntityNotFound)
}

func TestLinkService_NotConfigured(t *testing.T) {
	f := newFixtureWithDB(nil)
	ctx := context.Background()

	links, err := f.links.ListLinks(ctx, model.KindArticle, "a1")
	require.NoError(t, err)
	assert.NotNil(t, links)
	assert.Empty(t, links)

	_, err = f.links.Link(ctx, model.KindArticle, "a1", 1, "")
	assert.ErrorIs(t, err, repository.ErrNotConfigured)

	_, err = f.links.Unlink(ctx, model.KindArticle, "a1", 1)
	assert.ErrorIs(t, err, repository.ErrNotConfigured)

	_, err = f.links.BulkLink(ctx, model.KindArticle, "a1", []any{1, 2}, "")
	assert.ErrorIs(t, err, repository.ErrNotConfigured)

	_, err = f.links.UpdateStatus(ctx, model.KindArticle, "a1", 1, model.StatusHidden)
	assert.ErrorIs(t, err, repository.ErrNotConfigured)
}

func TestLinkService_TableMissing(t *testing.T) {
	f := newFixture(t)
	tester.Seed(t, f.db, &model.Event{ID: "e1", Name: "Expo"})
	require.NoError(t, f.db.Migrator().DropTable(&model.EventPortal{}))
	ctx := context.Background()

	links, err := f.links.ListLinks(ctx, model.KindEvent, "e1")
	require.NoError(t, err)
	assert.Empty(t, links)

	_, err = f.links.Link(ctx, model.KindEvent, "e1", 1, "")
	assert.ErrorIs(t, err, repository.ErrTableMissing)
}

func TestLinkService_BulkLink_SeedTitle(t *testing.T) {
	f := newFixture(t)
	tester.Seed(t, f.db,
		&model.Article{ID: "art_0", Title: "Other"},
		&model.Article{ID: "art_1", Title: "Stored"},
	)
	ctx := context.Background()

	// Portal 5 already has "title"; portal 3 does not.
	_, err := f.links.Link(ctx, model.KindArticle, "art_0", 5, "Title")
	require.NoError(t, err)

	result, err := f.links.BulkLink(ctx, model.KindArticle, "art_1", []any{3, "abc", 3, 5.7, 5}, "Title")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5}, result.Linked)

	slugs := map[int64]string{}
	for _, l := range result.Links {
		slugs[l.PortalID] = l.Slug
	}
	assert.Equal(t, map[int64]string{3: "title", 5: "title-1"}, slugs)
}
