package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/PortalLink/internal/app/cache"
	"github.com/sifan077/PortalLink/internal/app/model"
	"github.com/sifan077/PortalLink/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// interleavingLinkRepository runs afterList once, after ListHighlights has
// read the database and before its caller sees the rows.
type interleavingLinkRepository struct {
	repository.LinkRepository
	afterList func()
}

func (r *interleavingLinkRepository) ListHighlights(ctx context.Context, portalID int64) ([]model.Highlight, error) {
	highlights, err := r.LinkRepository.ListHighlights(ctx, portalID)
	if hook := r.afterList; hook != nil {
		r.afterList = nil
		hook()
	}
	return highlights, err
}

func TestHighlightService_FillRacingWriteIsDropped(t *testing.T) {
	caches := map[string]func(t *testing.T) cache.HighlightCache{
		"recording": func(*testing.T) cache.HighlightCache {
			return newRecordingCache()
		},
		"redis": func(t *testing.T) cache.HighlightCache {
			srv := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return cache.NewHighlightCache(client, time.Minute, nil)
		},
	}

	for name, newCache := range caches {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			seedLinkedArticles(t, f, 1, "a1", "a2")
			ctx := context.Background()
			hc := newCache(t)

			writer := NewHighlightService(HighlightDeps{Links: f.repo, Linker: f.links, Cache: hc})
			_, err := writer.SetHighlightPosition(ctx, "a1", 1, model.PositionMain)
			require.NoError(t, err)

			interleaved := &interleavingLinkRepository{LinkRepository: f.repo}
			reader := NewHighlightService(HighlightDeps{Links: interleaved, Linker: f.links, Cache: hc})
			interleaved.afterList = func() {
				_, err := writer.SetHighlightPosition(ctx, "a2", 1, model.PositionMain)
				require.NoError(t, err)
			}

			// This read saw a1 before the move to a2 committed.
			first, err := reader.GetHighlightedEntities(ctx, 1)
			require.NoError(t, err)
			require.Len(t, first, 1)
			assert.Equal(t, "a1", first[0].EntityID)

			_, cached := hc.Get(ctx, 1)
			assert.False(t, cached, "fill from before the write was kept")

			got, err := reader.GetHighlightedEntities(ctx, 1)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "a2", got[0].EntityID)
			assert.Equal(t, model.PositionMain, got[0].Position)

			// The fresh read is cached and keeps agreeing with the database.
			cachedRows, ok := hc.Get(ctx, 1)
			require.True(t, ok)
			assert.Equal(t, "a2", cachedRows[0].EntityID)
		})
	}
}
