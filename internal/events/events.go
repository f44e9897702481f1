package events

import (
	"context"
	"time"

	"github.com/Domenick1991/travelagency/internal/domain"
)

type Type string

const (
	QuoteSubmitted       Type = "quote_submitted"
	QuoteStatusChanged   Type = "quote_status_changed"
	QuoteConfirmed       Type = "quote_confirmed"
	ReservationCreated   Type = "reservation_created"
	ReservationCancelled Type = "reservation_cancelled"
)

// Event is the payload published for every quote and reservation change.
type Event struct {
	Type          Type      `json:"type"`
	QuoteID       string    `json:"quote_id"`
	ReservationID string    `json:"reservation_id,omitempty"`
	UserID        string    `json:"user_id"`
	UserEmail     string    `json:"user_email,omitempty"`
	Status        string    `json:"status"`
	TotalPrice    int64     `json:"total_price"`
	DocumentNo    string    `json:"document_no,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher is implemented by the Kafka producer and the RabbitMQ publisher.
// For RabbitMQ the topic is used as routing key.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

func ForQuote(t Type, q *domain.Quote) Event {
	return Event{
		Type:       t,
		QuoteID:    q.ID,
		UserID:     q.UserID,
		Status:     string(q.Status),
		TotalPrice: q.TotalPrice,
		OccurredAt: time.Now().UTC(),
	}
}

func ForReservation(t Type, r *domain.Reservation) Event {
	return Event{
		Type:          t,
		QuoteID:       r.QuoteID,
		ReservationID: r.ID,
		UserID:        r.UserID,
		Status:        string(r.Status),
		OccurredAt:    time.Now().UTC(),
	}
}

// Notifier publishes an event to the events topic and, when configured, to the
// notifications topic consumed by the worker. It is safe to use with a nil Publisher.
type Notifier struct {
	publisher          Publisher
	eventsTopic        string
	notificationsTopic string
}

func NewNotifier(publisher Publisher, eventsTopic, notificationsTopic string) *Notifier {
	return &Notifier{publisher: publisher, eventsTopic: eventsTopic, notificationsTopic: notificationsTopic}
}

func (n *Notifier) Notify(ctx context.Context, e Event) error {
	if n == nil || n.publisher == nil || n.eventsTopic == "" {
		return nil
	}
	if err := n.publisher.Publish(ctx, n.eventsTopic, e.QuoteID, e); err != nil {
		return err
	}
	if n.notificationsTopic != "" {
		return n.publisher.Publish(ctx, n.notificationsTopic, e.QuoteID, e)
	}
	return nil
}
