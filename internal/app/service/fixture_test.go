package service

import (
	"context"
	"sync"
	"testing"

	"github.com/sifan077/PortalLink/internal/app/model"
	"github.com/sifan077/PortalLink/internal/app/repository"
	"github.com/sifan077/PortalLink/internal/tester"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.LinkEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event model.LinkEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}

type recordingCache struct {
	mu          sync.Mutex
	entries     map[int64][]model.Highlight
	generations map[int64]int64
	invalidated []int64
}

func newRecordingCache() *recordingCache {
	return &recordingCache{
		entries:     map[int64][]model.Highlight{},
		generations: map[int64]int64{},
	}
}

func (c *recordingCache) Get(_ context.Context, portalID int64) ([]model.Highlight, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.entries[portalID]
	return h, ok
}

func (c *recordingCache) Generation(_ context.Context, portalID int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[portalID], nil
}

func (c *recordingCache) Set(_ context.Context, portalID, generation int64, highlights []model.Highlight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[portalID] != generation {
		return
	}
	c.entries[portalID] = highlights
}

func (c *recordingCache) Invalidate(_ context.Context, portalID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[portalID]++
	delete(c.entries, portalID)
	c.invalidated = append(c.invalidated, portalID)
}

func (c *recordingCache) invalidations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.invalidated)
}

type fixture struct {
	db         *gorm.DB
	repo       repository.LinkRepository
	events     *recordingPublisher
	cache      *recordingCache
	links      LinkService
	highlights HighlightService
	queries    QueryService
}

// newFixture builds the services over a migrated sqlite database with
// portals 1..5 named Alpha, Beta, Gamma, Delta and Epsilon.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := tester.TestDB(t)
	tester.Portals(t, db, "Alpha", "Beta", "Gamma", "Delta", "Epsilon")
	return newFixtureWithDB(db)
}

func newFixtureWithDB(db *gorm.DB) *fixture {
	f := &fixture{
		db:     db,
		repo:   repository.NewLinkRepository(db),
		events: &recordingPublisher{},
		cache:  newRecordingCache(),
	}
	entities := repository.NewEntityRepository(db)

	f.links = NewLinkService(LinkDeps{
		Links:      f.repo,
		Entities:   entities,
		Events:     f.events,
		Highlights: f.cache,
	})
	f.highlights = NewHighlightService(HighlightDeps{
		Links:  f.repo,
		Linker: f.links,
		Events: f.events,
		Cache:  f.cache,
	})
	f.queries = NewQueryService(nil, f.repo, entities)
	return f
}
