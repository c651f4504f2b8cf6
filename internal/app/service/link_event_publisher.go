package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sifan077/PortalLink/internal/app/model"
)

// LinkEventPublisher announces link changes to other instances and to
// downstream consumers such as portal front ends.
type LinkEventPublisher interface {
	Publish(ctx context.Context, event model.LinkEvent) error
}

// NATSLinkEventPublisher publishes link events to NATS JetStream.
type NATSLinkEventPublisher struct {
	js nats.JetStreamContext
}

// NewLinkEventPublisher creates a JetStream publisher, or a no-op publisher
// when js is nil.
func NewLinkEventPublisher(js nats.JetStreamContext) LinkEventPublisher {
	if js == nil {
		return NopLinkEventPublisher{}
	}
	return &NATSLinkEventPublisher{js: js}
}

// Publish stamps the event with an id and time and publishes it to the stream.
func (p *NATSLinkEventPublisher) Publish(ctx context.Context, event model.LinkEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.LinkStreamSubject, data, nats.Context(ctx))
	return err
}

// NopLinkEventPublisher drops every event.
type NopLinkEventPublisher struct{}

func (NopLinkEventPublisher) Publish(context.Context, model.LinkEvent) error { return nil }
