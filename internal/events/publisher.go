// Package events publishes order status changes to interested consumers.
package events

import (
	"context"
	"time"

	"github.com/antonminaichev/warehouse-orders/internal/types/order"
	"github.com/google/uuid"
)

const TypeStatusChanged = "order.status_changed"

// StatusChanged is emitted after a transition has been committed.
type StatusChanged struct {
	EventID    string            `json:"event_id"`
	Type       string            `json:"type"`
	OrderID    int64             `json:"order_id"`
	SONumber   string            `json:"so_number"`
	Action     string            `json:"action"`
	Status     order.OrderStatus `json:"status"`
	ActorID    int64             `json:"actor_id,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func NewStatusChanged(o *order.Order, action string, actor int64, at time.Time) StatusChanged {
	return StatusChanged{
		EventID:    uuid.NewString(),
		Type:       TypeStatusChanged,
		OrderID:    o.ID,
		SONumber:   o.SONumber,
		Action:     action,
		Status:     o.Status,
		ActorID:    actor,
		OccurredAt: at.UTC(),
	}
}

// RoutingKey is order.<action>, e.g. order.start_checking.
func (e StatusChanged) RoutingKey() string {
	return "order." + e.Action
}

type Publisher interface {
	Publish(ctx context.Context, e StatusChanged) error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, StatusChanged) error { return nil }
