package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sifan077/PortalLink/internal/app/cache"
	"github.com/sifan077/PortalLink/internal/app/model"
	infraNATS "github.com/sifan077/PortalLink/internal/infra/nats"
	"go.uber.org/zap"
)

const (
	consumerFetchBatch   = 10
	consumerFetchWait    = 5 * time.Second
	consumerInactiveTTL  = time.Hour
	consumerRetryBackoff = time.Second
)

// eventFetcher is the part of a JetStream pull subscription the consume
// loop needs.
type eventFetcher interface {
	Fetch(batch int, opts ...nats.PullOpt) ([]*nats.Msg, error)
	Unsubscribe() error
}

// LinkEventConsumer drops cached highlights whenever any instance changes an
// article link. Each instance owns its consumer so every instance sees every
// event.
type LinkEventConsumer struct {
	js       nats.JetStreamContext
	logger   *zap.Logger
	cache    cache.HighlightCache
	name     string
	backoff  time.Duration
	stopChan chan struct{}
	done     chan struct{}
}

// NewLinkEventConsumer creates a consumer bound to this process.
func NewLinkEventConsumer(js nats.JetStreamContext, logger *zap.Logger, highlights cache.HighlightCache) *LinkEventConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkEventConsumer{
		js:       js,
		logger:   logger,
		cache:    highlights,
		name:     model.LinkConsumerName + "-" + uuid.New().String()[:8],
		backoff:  consumerRetryBackoff,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start ensures the stream exists and begins consuming in the background.
func (c *LinkEventConsumer) Start() error {
	if err := infraNATS.EnsureStream(c.js, model.LinkStreamName, model.LinkStreamSubject, model.LinkStreamMaxBytes); err != nil {
		return err
	}

	sub, err := c.js.PullSubscribe(model.LinkStreamSubject, c.name,
		nats.DeliverNew(),
		nats.InactiveThreshold(consumerInactiveTTL),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(sub)
	return nil
}

// Stop ends the consume loop and waits for it to return.
func (c *LinkEventConsumer) Stop() {
	close(c.stopChan)
	<-c.done
}

func (c *LinkEventConsumer) consume(sub eventFetcher) {
	defer close(c.done)
	defer func() { _ = sub.Unsubscribe() }()

	for {
		select {
		case <-c.stopChan:
			c.logger.Info("link event consumer stopped")
			return
		default:
		}

		msgs, err := sub.Fetch(consumerFetchBatch, nats.MaxWait(consumerFetchWait))
		if err != nil && !errors.Is(err, nats.ErrTimeout) {
			c.logger.Error("failed to fetch link events", zap.Error(err))
			select {
			case <-c.stopChan:
				c.logger.Info("link event consumer stopped")
				return
			case <-time.After(c.backoff):
			}
			continue
		}

		for _, msg := range msgs {
			if c.process(context.Background(), msg) {
				_ = msg.Ack()
			} else {
				_ = msg.Term()
			}
		}
	}
}

// process applies one message and reports whether it should be acked.
// Undecodable messages are terminated so they are not redelivered.
func (c *LinkEventConsumer) process(ctx context.Context, msg *nats.Msg) bool {
	var event model.LinkEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logger.Error("failed to unmarshal link event",
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return false
	}
	c.Handle(ctx, event)
	return true
}

// Handle applies one event to the local cache.
func (c *LinkEventConsumer) Handle(ctx context.Context, event model.LinkEvent) {
	if event.Kind != model.KindArticle || event.PortalID == 0 {
		return
	}
	c.cache.Invalidate(ctx, event.PortalID)
	c.logger.Debug("highlight cache invalidated",
		zap.String("event_id", event.ID),
		zap.String("action", event.Action),
		zap.String("entity_id", event.EntityID),
		zap.Int64("portal_id", event.PortalID),
	)
}
