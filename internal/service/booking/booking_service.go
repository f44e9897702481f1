package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Domenick1991/travelagency/internal/domain"
	"github.com/Domenick1991/travelagency/internal/events"
	"github.com/Domenick1991/travelagency/internal/metrics"
	"github.com/Domenick1991/travelagency/internal/repository"
	"github.com/Domenick1991/travelagency/internal/service/pricing"
	"github.com/google/uuid"
)

type BookingUseCase interface {
	SubmitQuote(ctx context.Context, user domain.User, input SubmitQuoteInput) (*domain.QuoteBundle, error)
	GetQuote(ctx context.Context, viewer domain.User, id string) (*domain.QuoteBundle, error)
	ListMyQuotes(ctx context.Context, user domain.User) ([]domain.Quote, error)
	CreateReservation(ctx context.Context, user domain.User, quoteID string, input ReservationInput) (*domain.ReservationBundle, error)
	DirectBooking(ctx context.Context, user domain.User, input DirectBookingInput) (*DirectBookingResult, error)
	CancelReservation(ctx context.Context, manager domain.User, id string) (*domain.Reservation, error)
}

type Notifier interface {
	Notify(ctx context.Context, e events.Event) error
}

type BookingService struct {
	quotes       repository.QuoteRepository
	reservations repository.ReservationRepository
	pricing      pricing.PricingUseCase
	notifier     Notifier
}

// LineInput is one service the customer picked: the kind, its facet values in
// catalog order and how many.
type LineInput struct {
	Kind      domain.Kind
	Facets    []string
	UsageDate *time.Time
	Quantity  int
	Note      string
}

type SubmitQuoteInput struct {
	Title string
	Lines []LineInput
}

type ReservationInput struct {
	Type  domain.ReservationType
	Lines []LineInput
}

type DirectBookingInput struct {
	Title string
	Type  domain.ReservationType
	Lines []LineInput
}

type DirectBookingResult struct {
	Quote       *domain.QuoteBundle       `json:"quote"`
	Reservation *domain.ReservationBundle `json:"reservation"`
}

func NewBookingService(
	quotes repository.QuoteRepository,
	reservations repository.ReservationRepository,
	pricing pricing.PricingUseCase,
	notifier Notifier,
) *BookingService {
	return &BookingService{
		quotes:       quotes,
		reservations: reservations,
		pricing:      pricing,
		notifier:     notifier,
	}
}

// SubmitQuote prices every line and stores the quote with one detail row and
// one item per line. Nothing is written when a line cannot be priced.
func (s *BookingService) SubmitQuote(ctx context.Context, user domain.User, input SubmitQuoteInput) (*domain.QuoteBundle, error) {
	details, err := s.priceLines(ctx, input.Lines)
	if err != nil {
		return nil, err
	}

	bundle := newQuoteBundle(user.ID, input.Title, domain.QuoteStatusSubmitted, details)
	if err := s.quotes.Create(ctx, bundle); err != nil {
		return nil, err
	}
	metrics.QuotesSubmitted.Inc()
	slog.Info("quote submitted", "quote_id", bundle.Quote.ID, "user_id", user.ID, "lines", len(details), "total", bundle.Quote.TotalPrice)

	e := events.ForQuote(events.QuoteSubmitted, &bundle.Quote)
	e.UserEmail = user.Email
	s.notify(ctx, e)
	return bundle, nil
}

// GetQuote hides quotes of other users behind ErrNotFound unless the viewer manages them.
func (s *BookingService) GetQuote(ctx context.Context, viewer domain.User, id string) (*domain.QuoteBundle, error) {
	bundle, err := s.quotes.GetBundle(ctx, id)
	if err != nil {
		return nil, err
	}
	if !viewer.CanView(bundle.Quote.UserID) {
		return nil, fmt.Errorf("quote %s: %w", id, domain.ErrNotFound)
	}

	reservations, err := s.reservations.ListBundlesByQuote(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reservations of quote %s: %w", id, err)
	}
	bundle.Reservations = reservations
	return bundle, nil
}

func (s *BookingService) ListMyQuotes(ctx context.Context, user domain.User) ([]domain.Quote, error) {
	return s.quotes.ListByUser(ctx, user.ID)
}

// CreateReservation books the services of an existing quote. Prices are
// resolved again so the reservation keeps its own snapshot, and the quote
// moves to pending in the same transaction.
func (s *BookingService) CreateReservation(ctx context.Context, user domain.User, quoteID string, input ReservationInput) (*domain.ReservationBundle, error) {
	if err := checkLineKinds(input.Type, input.Lines); err != nil {
		return nil, err
	}

	quote, err := s.quotes.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if !user.CanView(quote.UserID) {
		return nil, fmt.Errorf("quote %s: %w", quoteID, domain.ErrNotFound)
	}
	if quote.Status != domain.QuoteStatusPending && !quote.Status.CanTransition(domain.QuoteStatusPending) {
		return nil, fmt.Errorf("quote %s is %s: %w", quoteID, quote.Status, domain.ErrConflict)
	}

	details, err := s.priceLines(ctx, input.Lines)
	if err != nil {
		return nil, err
	}

	bundle := newReservationBundle(quote.ID, quote.UserID, input.Type, details)
	if err := s.reservations.Create(ctx, bundle, quote.Status, domain.QuoteStatusPending); err != nil {
		return nil, err
	}
	metrics.ReservationsCreated.WithLabelValues(string(input.Type)).Inc()
	slog.Info("reservation created", "reservation_id", bundle.Reservation.ID, "quote_id", quote.ID, "type", input.Type)

	s.notify(ctx, events.ForReservation(events.ReservationCreated, &bundle.Reservation))
	return bundle, nil
}

// DirectBooking writes a quote and its reservation in one transaction. The
// quote starts out pending because the reservation already exists.
func (s *BookingService) DirectBooking(ctx context.Context, user domain.User, input DirectBookingInput) (*DirectBookingResult, error) {
	if err := checkLineKinds(input.Type, input.Lines); err != nil {
		return nil, err
	}
	details, err := s.priceLines(ctx, input.Lines)
	if err != nil {
		return nil, err
	}

	quote := newQuoteBundle(user.ID, input.Title, domain.QuoteStatusPending, details)
	reservation := newReservationBundle(quote.Quote.ID, user.ID, input.Type, details)
	if err := s.quotes.CreateWithReservation(ctx, quote, reservation); err != nil {
		return nil, err
	}
	metrics.QuotesSubmitted.Inc()
	metrics.ReservationsCreated.WithLabelValues(string(input.Type)).Inc()
	slog.Info("direct booking created", "quote_id", quote.Quote.ID, "reservation_id", reservation.Reservation.ID, "total", quote.Quote.TotalPrice)

	e := events.ForQuote(events.QuoteSubmitted, &quote.Quote)
	e.UserEmail = user.Email
	s.notify(ctx, e)
	s.notify(ctx, events.ForReservation(events.ReservationCreated, &reservation.Reservation))
	return &DirectBookingResult{Quote: quote, Reservation: reservation}, nil
}

func (s *BookingService) CancelReservation(ctx context.Context, manager domain.User, id string) (*domain.Reservation, error) {
	if !manager.CanManage() {
		return nil, domain.ErrForbidden
	}
	current, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransition(domain.ReservationStatusCancelled) {
		return nil, fmt.Errorf("reservation %s is %s: %w", id, current.Status, domain.ErrConflict)
	}

	updated, err := s.reservations.UpdateStatus(ctx, id, current.Status, domain.ReservationStatusCancelled)
	if err != nil {
		return nil, err
	}
	slog.Info("reservation cancelled", "reservation_id", id, "manager_id", manager.ID)
	s.notify(ctx, events.ForReservation(events.ReservationCancelled, updated))
	return updated, nil
}

// priceLines resolves the price code of every line and returns the detail rows
// to store, in line order.
func (s *BookingService) priceLines(ctx context.Context, lines []LineInput) ([]domain.ServiceDetail, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: at least one line is required", domain.ErrValidation)
	}

	details := make([]domain.ServiceDetail, 0, len(lines))
	for i, line := range lines {
		n := i + 1
		quantity := line.Quantity
		if quantity == 0 {
			quantity = 1
		}
		if quantity < 0 {
			return nil, fmt.Errorf("%w: line %d: quantity must be positive", domain.ErrValidation, n)
		}

		res, err := s.pricing.Resolve(ctx, line.Kind, line.Facets, line.UsageDate)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if !res.Found {
			return nil, fmt.Errorf("%w: line %d: no %s price for %s", domain.ErrValidation, n, line.Kind, strings.Join(line.Facets, " / "))
		}

		details = append(details, domain.ServiceDetail{
			ID:         uuid.NewString(),
			Kind:       line.Kind,
			Facets:     line.Facets,
			PriceCode:  res.Code,
			UsageDate:  line.UsageDate,
			Quantity:   quantity,
			UnitPrice:  res.Price,
			TotalPrice: res.Price * int64(quantity),
			Note:       line.Note,
		})
	}
	return details, nil
}

func (s *BookingService) notify(ctx context.Context, e events.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, e); err != nil {
		slog.Warn("failed to publish event", "type", e.Type, "quote_id", e.QuoteID, "error", err)
	}
}

func checkLineKinds(t domain.ReservationType, lines []LineInput) error {
	if !t.Valid() {
		return fmt.Errorf("%w: unknown reservation type %q", domain.ErrValidation, t)
	}
	allowed := make(map[domain.Kind]bool)
	for _, spec := range domain.KindsFor(t) {
		allowed[spec.Kind] = true
	}
	for i, line := range lines {
		if !allowed[line.Kind] {
			return fmt.Errorf("%w: line %d: %s cannot be booked as a %s reservation", domain.ErrValidation, i+1, line.Kind, t)
		}
	}
	return nil
}

func newQuoteBundle(userID, title string, status domain.QuoteStatus, details []domain.ServiceDetail) *domain.QuoteBundle {
	if strings.TrimSpace(title) == "" {
		title = "Quote " + time.Now().Format(time.DateOnly)
	}
	b := &domain.QuoteBundle{
		Quote: domain.Quote{
			ID:     uuid.NewString(),
			UserID: userID,
			Title:  title,
			Status: status,
		},
		Details: details,
		Items:   make([]domain.QuoteItem, 0, len(details)),
	}
	for i, d := range details {
		b.Items = append(b.Items, domain.QuoteItem{
			ID:           uuid.NewString(),
			QuoteID:      b.Quote.ID,
			LineNo:       i + 1,
			ServiceType:  d.Kind,
			ServiceRefID: d.ID,
			Quantity:     d.Quantity,
			UnitPrice:    d.UnitPrice,
			TotalPrice:   d.TotalPrice,
			UsageDate:    d.UsageDate,
		})
		b.Quote.TotalPrice += d.TotalPrice
	}
	b.Lines = repository.AttachDetails(b.Items, b.Details)
	return b
}

// newReservationBundle copies the priced details into reservation rows with
// fresh ids.
func newReservationBundle(quoteID, userID string, t domain.ReservationType, details []domain.ServiceDetail) *domain.ReservationBundle {
	b := &domain.ReservationBundle{
		Reservation: domain.Reservation{
			ID:      uuid.NewString(),
			Type:    t,
			Status:  domain.ReservationStatusPending,
			QuoteID: quoteID,
			UserID:  userID,
		},
		Details: make([]domain.ServiceDetail, 0, len(details)),
	}
	for _, d := range details {
		d.ID = uuid.NewString()
		d.ReservationID = b.Reservation.ID
		b.Details = append(b.Details, d)
	}
	return b
}

var _ BookingUseCase = (*BookingService)(nil)
