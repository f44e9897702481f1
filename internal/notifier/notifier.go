package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Domenick1991/travelagency/internal/document"
	"github.com/Domenick1991/travelagency/internal/email"
	"github.com/Domenick1991/travelagency/internal/events"
	"github.com/Domenick1991/travelagency/internal/metrics"
)

type Renderer interface {
	RenderConfirmation(ctx context.Context, quoteID string) ([]byte, error)
}

type Mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

// Handler turns notification events into customer emails. Confirmed quotes
// get the confirmation PDF attached.
type Handler struct {
	renderer Renderer
	mailer   Mailer
	company  string
}

func NewHandler(renderer Renderer, mailer Mailer, company string) *Handler {
	return &Handler{renderer: renderer, mailer: mailer, company: company}
}

// Handle processes one message. Payloads that cannot be decoded are logged and
// skipped; render and send failures are returned.
func (h *Handler) Handle(ctx context.Context, key, value []byte) error {
	var e events.Event
	if err := json.Unmarshal(value, &e); err != nil || e.Type == "" {
		slog.Warn("skipping undecodable notification", "key", string(key), "error", err)
		metrics.NotificationsHandled.WithLabelValues("unknown", "skipped").Inc()
		return nil
	}

	if e.UserEmail == "" {
		slog.Info("notification without recipient", "type", e.Type, "quote_id", e.QuoteID)
		metrics.NotificationsHandled.WithLabelValues(string(e.Type), "skipped").Inc()
		return nil
	}

	msg, err := h.message(ctx, e)
	if err != nil {
		metrics.NotificationsHandled.WithLabelValues(string(e.Type), "failed").Inc()
		return err
	}
	if err := h.mailer.Send(ctx, msg); err != nil {
		metrics.NotificationsHandled.WithLabelValues(string(e.Type), "failed").Inc()
		return fmt.Errorf("send %s notification for quote %s: %w", e.Type, e.QuoteID, err)
	}
	metrics.NotificationsHandled.WithLabelValues(string(e.Type), "sent").Inc()
	return nil
}

func (h *Handler) message(ctx context.Context, e events.Event) (email.Message, error) {
	msg := email.Message{To: e.UserEmail}

	switch e.Type {
	case events.QuoteConfirmed:
		pdf, err := h.renderer.RenderConfirmation(ctx, e.QuoteID)
		if err != nil {
			return msg, fmt.Errorf("render confirmation for quote %s: %w", e.QuoteID, err)
		}
		msg.Subject = fmt.Sprintf("[%s] Reservation confirmed (%s)", h.company, e.DocumentNo)
		msg.Body = fmt.Sprintf("Your reservation is confirmed. Total: %s KRW.", document.FormatKRW(e.TotalPrice))
		msg.Attachments = []email.Attachment{{
			Name:        "confirmation-" + e.DocumentNo + ".pdf",
			ContentType: "application/pdf",
			Data:        pdf,
		}}
	case events.ReservationCancelled:
		msg.Subject = fmt.Sprintf("[%s] Reservation cancelled", h.company)
		msg.Body = "Your reservation " + e.ReservationID + " was cancelled."
	default:
		msg.Subject = fmt.Sprintf("[%s] Quote update: %s", h.company, e.Status)
		msg.Body = fmt.Sprintf("Quote %s is now %s.", e.QuoteID, e.Status)
	}
	return msg, nil
}
