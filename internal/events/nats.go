package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

type natsConn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

type NatsPublisher struct {
	nc natsConn
}

func NewNatsPublisher(url, name string) (*NatsPublisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url, nats.Name(name), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("nats: connect: %w", err)
	}
	return &NatsPublisher{nc: nc}, nil
}

// Publish sends e on subject "<topic>.<type>", e.g. cart_events.cart_item_added.
func (p *NatsPublisher) Publish(ctx context.Context, topic string, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("nats: json.Marshal failed: %w", err)
	}

	subj := topic + "." + e.Type
	if err := p.nc.Publish(subj, data); err != nil {
		return fmt.Errorf("nats: publish %s: %w", subj, err)
	}
	return p.nc.FlushWithContext(ctx)
}

func (p *NatsPublisher) Close() error {
	return p.nc.Drain()
}
