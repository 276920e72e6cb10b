package events

import (
	"context"
	"time"
)

const (
	TopicUser = "user_events"
	TopicCart = "cart_events"
)

const (
	UserRegistered  = "user_registered"
	UserLoggedIn    = "user_logged_in"
	CartItemAdded   = "cart_item_added"
	CartItemUpdated = "cart_item_updated"
	CartItemRemoved = "cart_item_removed"
	CartCleared     = "cart_cleared"
)

type Event struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id,omitempty"`
	ProductID string    `json:"product_id,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, topic string, e Event) error
	Close() error
}

type Noop struct{}

func (Noop) Publish(context.Context, string, Event) error { return nil }
func (Noop) Close() error                                 { return nil }
