package confirmation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Domenick1991/travelagency/internal/document"
	"github.com/Domenick1991/travelagency/internal/domain"
	"github.com/Domenick1991/travelagency/internal/events"
	"github.com/Domenick1991/travelagency/internal/metrics"
	"github.com/Domenick1991/travelagency/internal/repository"
	"github.com/google/uuid"
)

type ConfirmationUseCase interface {
	ApproveQuote(ctx context.Context, manager domain.User, quoteID string) (*domain.Quote, error)
	RejectQuote(ctx context.Context, manager domain.User, quoteID, note string) (*domain.Quote, error)
	MarkPaid(ctx context.Context, manager domain.User, quoteID string) (*domain.Quote, error)
	UpdateManagerNote(ctx context.Context, manager domain.User, quoteID, note string) (*domain.Quote, error)
	ConfirmQuote(ctx context.Context, manager domain.User, quoteID string, input ConfirmInput) (*domain.ConfirmationLog, error)
	Document(ctx context.Context, viewer domain.User, quoteID string) ([]byte, error)
	RenderConfirmation(ctx context.Context, quoteID string) ([]byte, error)
}

type Locker interface {
	AcquireConfirmLock(ctx context.Context, quoteID string, ttl time.Duration) (bool, error)
	ReleaseConfirmLock(ctx context.Context, quoteID string) error
}

type Renderer interface {
	Render(doc document.Confirmation) ([]byte, error)
}

type Notifier interface {
	Notify(ctx context.Context, e events.Event) error
}

type ConfirmInput struct {
	Method string
	Note   string
}

// confirmableFrom lists the statuses a quote may be confirmed from.
var confirmableFrom = []domain.QuoteStatus{
	domain.QuoteStatusSubmitted,
	domain.QuoteStatusPending,
	domain.QuoteStatusApproved,
}

type ConfirmationService struct {
	quotes   repository.QuoteRepository
	users    repository.UserRepository
	locker   Locker
	renderer Renderer
	notifier Notifier
	lockTTL  time.Duration
}

func NewConfirmationService(
	quotes repository.QuoteRepository,
	users repository.UserRepository,
	locker Locker,
	renderer Renderer,
	notifier Notifier,
	lockTTL time.Duration,
) *ConfirmationService {
	return &ConfirmationService{
		quotes:   quotes,
		users:    users,
		locker:   locker,
		renderer: renderer,
		notifier: notifier,
		lockTTL:  lockTTL,
	}
}

func (s *ConfirmationService) ApproveQuote(ctx context.Context, manager domain.User, quoteID string) (*domain.Quote, error) {
	return s.transition(ctx, manager, quoteID, domain.QuoteStatusApproved, nil)
}

// RejectQuote moves the quote to rejected. A non-blank note replaces the
// manager note in the same write.
func (s *ConfirmationService) RejectQuote(ctx context.Context, manager domain.User, quoteID, note string) (*domain.Quote, error) {
	if strings.TrimSpace(note) == "" {
		return s.transition(ctx, manager, quoteID, domain.QuoteStatusRejected, nil)
	}
	return s.transition(ctx, manager, quoteID, domain.QuoteStatusRejected, &note)
}

func (s *ConfirmationService) MarkPaid(ctx context.Context, manager domain.User, quoteID string) (*domain.Quote, error) {
	return s.transition(ctx, manager, quoteID, domain.QuoteStatusPaid, nil)
}

func (s *ConfirmationService) UpdateManagerNote(ctx context.Context, manager domain.User, quoteID, note string) (*domain.Quote, error) {
	if !manager.CanManage() {
		return nil, domain.ErrForbidden
	}
	return s.quotes.UpdateManagerNote(ctx, quoteID, note)
}

// ConfirmQuote confirms the quote and its pending reservations and records a
// confirmation log. Confirming an already confirmed quote returns its
// existing log without writing anything.
func (s *ConfirmationService) ConfirmQuote(ctx context.Context, manager domain.User, quoteID string, input ConfirmInput) (*domain.ConfirmationLog, error) {
	if !manager.CanManage() {
		return nil, domain.ErrForbidden
	}

	quote, err := s.quotes.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status == domain.QuoteStatusConfirmed || quote.Status == domain.QuoteStatusPaid {
		metrics.Confirmations.WithLabelValues("existing").Inc()
		return s.quotes.GetConfirmation(ctx, quoteID)
	}

	if s.locker != nil {
		ok, err := s.locker.AcquireConfirmLock(ctx, quoteID, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire confirmation lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("quote %s is being confirmed: %w", quoteID, domain.ErrConflict)
		}
		defer func() {
			if err := s.locker.ReleaseConfirmLock(context.WithoutCancel(ctx), quoteID); err != nil {
				slog.Warn("failed to release confirmation lock", "quote_id", quoteID, "error", err)
			}
		}()
	}

	method := input.Method
	if method == "" {
		method = "email"
	}
	now := time.Now().UTC()
	entry := &domain.ConfirmationLog{
		ID:         uuid.NewString(),
		QuoteID:    quoteID,
		ManagerID:  manager.ID,
		DocumentNo: documentNo(now),
		Method:     method,
		Note:       input.Note,
	}

	saved, created, err := s.quotes.Confirm(ctx, entry, confirmableFrom)
	if err != nil {
		return nil, err
	}
	if !created {
		metrics.Confirmations.WithLabelValues("existing").Inc()
		return saved, nil
	}
	metrics.Confirmations.WithLabelValues("created").Inc()
	slog.Info("quote confirmed", "quote_id", quoteID, "manager_id", manager.ID, "document_no", saved.DocumentNo)

	confirmed := *quote
	confirmed.Status = domain.QuoteStatusConfirmed
	confirmed.ConfirmedAt = &now
	e := events.ForQuote(events.QuoteConfirmed, &confirmed)
	e.DocumentNo = saved.DocumentNo
	s.notify(ctx, e)
	return saved, nil
}

// Document renders the confirmation PDF for a viewer allowed to see the quote.
func (s *ConfirmationService) Document(ctx context.Context, viewer domain.User, quoteID string) ([]byte, error) {
	bundle, err := s.quotes.GetBundle(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if !viewer.CanView(bundle.Quote.UserID) {
		return nil, fmt.Errorf("quote %s: %w", quoteID, domain.ErrNotFound)
	}
	return s.render(ctx, bundle)
}

// RenderConfirmation renders the PDF without an access check; the worker uses it.
func (s *ConfirmationService) RenderConfirmation(ctx context.Context, quoteID string) ([]byte, error) {
	bundle, err := s.quotes.GetBundle(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, bundle)
}

func (s *ConfirmationService) render(ctx context.Context, bundle *domain.QuoteBundle) ([]byte, error) {
	q := bundle.Quote
	if q.Status != domain.QuoteStatusConfirmed && q.Status != domain.QuoteStatusPaid {
		return nil, fmt.Errorf("quote %s is %s: %w", q.ID, q.Status, domain.ErrConflict)
	}
	entry, err := s.quotes.GetConfirmation(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	customer, err := s.users.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(document.Confirmation{
		Quote:    q,
		Customer: *customer,
		Lines:    bundle.Lines,
		Log:      *entry,
	})
}

func (s *ConfirmationService) transition(ctx context.Context, manager domain.User, quoteID string, to domain.QuoteStatus, note *string) (*domain.Quote, error) {
	if !manager.CanManage() {
		return nil, domain.ErrForbidden
	}
	current, err := s.quotes.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransition(to) {
		return nil, fmt.Errorf("quote %s cannot move from %s to %s: %w", quoteID, current.Status, to, domain.ErrConflict)
	}

	var updated *domain.Quote
	if note != nil {
		updated, err = s.quotes.UpdateStatusAndNote(ctx, quoteID, current.Status, to, *note)
	} else {
		updated, err = s.quotes.UpdateStatus(ctx, quoteID, current.Status, to)
	}
	if err != nil {
		return nil, err
	}
	slog.Info("quote status changed", "quote_id", quoteID, "from", current.Status, "to", to, "manager_id", manager.ID)
	s.notify(ctx, events.ForQuote(events.QuoteStatusChanged, updated))
	return updated, nil
}

// notify fills in the customer email and publishes e. Lookup failures only
// cost the email address.
func (s *ConfirmationService) notify(ctx context.Context, e events.Event) {
	if s.notifier == nil {
		return
	}
	if e.UserEmail == "" && e.UserID != "" {
		if customer, err := s.users.GetByID(ctx, e.UserID); err == nil {
			e.UserEmail = customer.Email
		} else {
			slog.Warn("customer lookup failed", "quote_id", e.QuoteID, "user_id", e.UserID, "error", err)
		}
	}
	if err := s.notifier.Notify(ctx, e); err != nil {
		slog.Warn("failed to publish event", "type", e.Type, "quote_id", e.QuoteID, "error", err)
	}
}

func documentNo(at time.Time) string {
	return "CF-" + at.Format("20060102") + "-" + strings.ToUpper(uuid.NewString()[:8])
}

var _ ConfirmationUseCase = (*ConfirmationService)(nil)
