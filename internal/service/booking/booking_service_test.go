package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/travelagency/internal/domain"
	"github.com/Domenick1991/travelagency/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockQuoteRepository struct {
	mock.Mock
}

func (m *MockQuoteRepository) Create(ctx context.Context, bundle *domain.QuoteBundle) error {
	args := m.Called(ctx, bundle)
	return args.Error(0)
}

func (m *MockQuoteRepository) CreateWithReservation(ctx context.Context, quote *domain.QuoteBundle, reservation *domain.ReservationBundle) error {
	args := m.Called(ctx, quote, reservation)
	return args.Error(0)
}

func (m *MockQuoteRepository) GetByID(ctx context.Context, id string) (*domain.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}

func (m *MockQuoteRepository) GetBundle(ctx context.Context, id string) (*domain.QuoteBundle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuoteBundle), args.Error(1)
}

func (m *MockQuoteRepository) ListByUser(ctx context.Context, userID string) ([]domain.Quote, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Quote), args.Error(1)
}

func (m *MockQuoteRepository) UpdateStatus(ctx context.Context, id string, from, to domain.QuoteStatus) (*domain.Quote, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}

func (m *MockQuoteRepository) UpdateStatusAndNote(ctx context.Context, id string, from, to domain.QuoteStatus, note string) (*domain.Quote, error) {
	args := m.Called(ctx, id, from, to, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}

func (m *MockQuoteRepository) UpdateManagerNote(ctx context.Context, id, note string) (*domain.Quote, error) {
	args := m.Called(ctx, id, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}

func (m *MockQuoteRepository) Confirm(ctx context.Context, log *domain.ConfirmationLog, from []domain.QuoteStatus) (*domain.ConfirmationLog, bool, error) {
	args := m.Called(ctx, log, from)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*domain.ConfirmationLog), args.Bool(1), args.Error(2)
}

func (m *MockQuoteRepository) GetConfirmation(ctx context.Context, quoteID string) (*domain.ConfirmationLog, error) {
	args := m.Called(ctx, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConfirmationLog), args.Error(1)
}

type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) Create(ctx context.Context, bundle *domain.ReservationBundle, quoteFrom, quoteTo domain.QuoteStatus) error {
	args := m.Called(ctx, bundle, quoteFrom, quoteTo)
	return args.Error(0)
}

func (m *MockReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) UpdateStatus(ctx context.Context, id string, from, to domain.ReservationStatus) (*domain.Reservation, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) ListBundlesByUser(ctx context.Context, userID string) ([]domain.ReservationBundle, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.ReservationBundle), args.Error(1)
}

func (m *MockReservationRepository) ListBundlesByQuote(ctx context.Context, quoteID string) ([]domain.ReservationBundle, error) {
	args := m.Called(ctx, quoteID)
	return args.Get(0).([]domain.ReservationBundle), args.Error(1)
}

type MockPricing struct {
	mock.Mock
}

func (m *MockPricing) Options(ctx context.Context, kind domain.Kind, chosen []string, date *time.Time) ([]string, error) {
	args := m.Called(ctx, kind, chosen, date)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPricing) Resolve(ctx context.Context, kind domain.Kind, facets []string, date *time.Time) (domain.PriceResolution, error) {
	args := m.Called(ctx, kind, facets, date)
	return args.Get(0).(domain.PriceResolution), args.Error(1)
}

func (m *MockPricing) Lookup(ctx context.Context, kind domain.Kind, code string) (*domain.PriceRow, error) {
	args := m.Called(ctx, kind, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceRow), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, e events.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

type fixture struct {
	quotes       *MockQuoteRepository
	reservations *MockReservationRepository
	pricing      *MockPricing
	notifier     *MockNotifier
	svc          *BookingService
}

func newFixture() *fixture {
	f := &fixture{
		quotes:       &MockQuoteRepository{},
		reservations: &MockReservationRepository{},
		pricing:      &MockPricing{},
		notifier:     &MockNotifier{},
	}
	f.svc = NewBookingService(f.quotes, f.reservations, f.pricing, f.notifier)
	return f
}

var (
	member  = domain.User{ID: "u1", Name: "Kim", Role: domain.RoleMember}
	other   = domain.User{ID: "u2", Name: "Lee", Role: domain.RoleMember}
	manager = domain.User{ID: "m1", Name: "Park", Role: domain.RoleManager}
)

var (
	pickup  = []string{"픽업", "공항-하노이", "7인승"}
	sending = []string{"샌딩", "하노이-공항", "7인승"}
)

func airportBoth() []LineInput {
	return []LineInput{
		{Kind: domain.KindAirport, Facets: pickup, Quantity: 1},
		{Kind: domain.KindAirport, Facets: sending, Quantity: 1},
	}
}

func (f *fixture) priceAirportBoth(ctx context.Context) {
	f.pricing.On("Resolve", ctx, domain.KindAirport, pickup, (*time.Time)(nil)).
		Return(domain.PriceResolution{Kind: domain.KindAirport, Code: "AP-P1", Price: 450000, Found: true}, nil)
	f.pricing.On("Resolve", ctx, domain.KindAirport, sending, (*time.Time)(nil)).
		Return(domain.PriceResolution{Kind: domain.KindAirport, Code: "AP-S1", Price: 420000, Found: true}, nil)
}

func TestSubmitQuote_AirportBoth(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.priceAirportBoth(ctx)
	f.quotes.On("Create", ctx, mock.AnythingOfType("*domain.QuoteBundle")).Return(nil).Once()
	f.notifier.On("Notify", ctx, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.QuoteSubmitted && e.TotalPrice == 870000
	})).Return(nil).Once()

	bundle, err := f.svc.SubmitQuote(ctx, member, SubmitQuoteInput{Title: "하노이 공항 왕복", Lines: airportBoth()})
	require.NoError(t, err)

	assert.Equal(t, domain.QuoteStatusSubmitted, bundle.Quote.Status)
	assert.Equal(t, "u1", bundle.Quote.UserID)
	assert.Equal(t, int64(870000), bundle.Quote.TotalPrice)
	require.Len(t, bundle.Details, 2)
	require.Len(t, bundle.Items, 2)
	assert.Equal(t, "AP-P1", bundle.Details[0].PriceCode)
	assert.Equal(t, "AP-S1", bundle.Details[1].PriceCode)
	for i, it := range bundle.Items {
		assert.Equal(t, i+1, it.LineNo)
		assert.Equal(t, bundle.Quote.ID, it.QuoteID)
		assert.Equal(t, domain.KindAirport, it.ServiceType)
		assert.Equal(t, bundle.Details[i].ID, it.ServiceRefID)
	}
	require.Len(t, bundle.Lines, 2)
	assert.NotNil(t, bundle.Lines[1].Detail)

	f.quotes.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestSubmitQuote_UnresolvedLine(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.pricing.On("Resolve", ctx, domain.KindAirport, pickup, (*time.Time)(nil)).
		Return(domain.PriceResolution{Kind: domain.KindAirport, Code: "AP-P1", Price: 450000, Found: true}, nil)
	f.pricing.On("Resolve", ctx, domain.KindAirport, sending, (*time.Time)(nil)).
		Return(domain.PriceResolution{Kind: domain.KindAirport}, nil)

	_, err := f.svc.SubmitQuote(ctx, member, SubmitQuoteInput{Lines: airportBoth()})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "line 2")
	f.quotes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestSubmitQuote_Quantity(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	facets := []string{"하롱베이", "4", "리무진"}
	f.pricing.On("Resolve", ctx, domain.KindTour, facets, (*time.Time)(nil)).
		Return(domain.PriceResolution{Kind: domain.KindTour, Code: "T-1", Price: 90000, Found: true}, nil)
	f.quotes.On("Create", ctx, mock.Anything).Return(nil).Once()
	f.notifier.On("Notify", ctx, mock.Anything).Return(nil)

	bundle, err := f.svc.SubmitQuote(ctx, member, SubmitQuoteInput{Lines: []LineInput{{Kind: domain.KindTour, Facets: facets, Quantity: 3}}})
	require.NoError(t, err)
	assert.Equal(t, int64(270000), bundle.Quote.TotalPrice)
	assert.Equal(t, 3, bundle.Items[0].Quantity)
	assert.NotEmpty(t, bundle.Quote.Title)

	_, err = f.svc.SubmitQuote(ctx, member, SubmitQuoteInput{Lines: []LineInput{{Kind: domain.KindTour, Facets: facets, Quantity: -1}}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.SubmitQuote(ctx, member, SubmitQuoteInput{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSubmitQuote_RepositoryErrorAndPublishFailure(t *testing.T) {
	ctx := context.Background()

	f := newFixture()
	f.priceAirportBoth(ctx)
	f.quotes.On("Create", ctx, mock.Anything).Return(errors.New("tx aborted")).Once()
	_, err := f.svc.SubmitQuote(ctx, member, SubmitQuoteInput{Lines: airportBoth()})
	assert.EqualError(t, err, "tx aborted")

	f = newFixture()
	f.priceAirportBoth(ctx)
	f.quotes.On("Create", ctx, mock.Anything).Return(nil).Once()
	f.notifier.On("Notify", ctx, mock.Anything).Return(errors.New("broker down")).Once()
	_, err = f.svc.SubmitQuote(ctx, member, SubmitQuoteInput{Lines: airportBoth()})
	assert.NoError(t, err)
}

func TestGetQuote_Access(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	bundle := &domain.QuoteBundle{Quote: domain.Quote{ID: "q1", UserID: "u1"}}
	f.quotes.On("GetBundle", ctx, "q1").Return(bundle, nil)
	f.reservations.On("ListBundlesByQuote", ctx, "q1").Return([]domain.ReservationBundle{}, nil)

	got, err := f.svc.GetQuote(ctx, member, "q1")
	require.NoError(t, err)
	assert.Equal(t, bundle, got)

	_, err = f.svc.GetQuote(ctx, other, "q1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.GetQuote(ctx, manager, "q1")
	assert.NoError(t, err)
	f.reservations.AssertNumberOfCalls(t, "ListBundlesByQuote", 2)
}

func TestGetQuote_WithReservations(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.quotes.On("GetBundle", ctx, "q1").Return(&domain.QuoteBundle{Quote: domain.Quote{ID: "q1", UserID: "u1"}}, nil)
	reservations := []domain.ReservationBundle{{
		Reservation: domain.Reservation{ID: "r1", QuoteID: "q1", Type: domain.ReservationAirport, Status: domain.ReservationStatusPending},
		Details:     []domain.ServiceDetail{{ID: "d1", ReservationID: "r1", Kind: domain.KindAirport}},
	}}
	f.reservations.On("ListBundlesByQuote", ctx, "q1").Return(reservations, nil).Once()

	got, err := f.svc.GetQuote(ctx, member, "q1")
	require.NoError(t, err)
	assert.Equal(t, reservations, got.Reservations)

	f2 := newFixture()
	f2.quotes.On("GetBundle", ctx, "q1").Return(&domain.QuoteBundle{Quote: domain.Quote{ID: "q1", UserID: "u1"}}, nil)
	f2.reservations.On("ListBundlesByQuote", ctx, "q1").Return([]domain.ReservationBundle(nil), errors.New("db down")).Once()
	_, err = f2.svc.GetQuote(ctx, member, "q1")
	assert.Error(t, err)
}

func TestCreateReservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.priceAirportBoth(ctx)
	f.quotes.On("GetByID", ctx, "q1").Return(&domain.Quote{ID: "q1", UserID: "u1", Status: domain.QuoteStatusSubmitted}, nil)
	f.reservations.On("Create", ctx, mock.AnythingOfType("*domain.ReservationBundle"), domain.QuoteStatusSubmitted, domain.QuoteStatusPending).Return(nil).Once()
	f.notifier.On("Notify", ctx, mock.MatchedBy(func(e events.Event) bool { return e.Type == events.ReservationCreated })).Return(nil).Once()

	bundle, err := f.svc.CreateReservation(ctx, member, "q1", ReservationInput{Type: domain.ReservationAirport, Lines: airportBoth()})
	require.NoError(t, err)

	assert.Equal(t, domain.ReservationStatusPending, bundle.Reservation.Status)
	assert.Equal(t, "q1", bundle.Reservation.QuoteID)
	assert.Equal(t, "u1", bundle.Reservation.UserID)
	require.Len(t, bundle.Details, 2)
	for _, d := range bundle.Details {
		assert.Equal(t, bundle.Reservation.ID, d.ReservationID)
	}
	f.reservations.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestCreateReservation_Rejected(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name   string
		user   domain.User
		quote  *domain.Quote
		input  ReservationInput
		target error
	}{
		{
			name:   "rejected quote",
			user:   member,
			quote:  &domain.Quote{ID: "q1", UserID: "u1", Status: domain.QuoteStatusRejected},
			input:  ReservationInput{Type: domain.ReservationAirport, Lines: airportBoth()},
			target: domain.ErrConflict,
		},
		{
			name:   "someone else's quote",
			user:   other,
			quote:  &domain.Quote{ID: "q1", UserID: "u1", Status: domain.QuoteStatusSubmitted},
			input:  ReservationInput{Type: domain.ReservationAirport, Lines: airportBoth()},
			target: domain.ErrNotFound,
		},
		{
			name:   "kind outside the reservation type",
			user:   member,
			quote:  &domain.Quote{ID: "q1", UserID: "u1", Status: domain.QuoteStatusSubmitted},
			input:  ReservationInput{Type: domain.ReservationCruise, Lines: airportBoth()},
			target: domain.ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.quotes.On("GetByID", ctx, "q1").Return(tc.quote, nil)

			_, err := f.svc.CreateReservation(ctx, tc.user, "q1", tc.input)
			assert.ErrorIs(t, err, tc.target)
			f.reservations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreateReservation_AlreadyPendingKeepsStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.priceAirportBoth(ctx)
	f.quotes.On("GetByID", ctx, "q1").Return(&domain.Quote{ID: "q1", UserID: "u1", Status: domain.QuoteStatusPending}, nil)
	f.reservations.On("Create", ctx, mock.Anything, domain.QuoteStatusPending, domain.QuoteStatusPending).Return(nil).Once()
	f.notifier.On("Notify", ctx, mock.Anything).Return(nil)

	_, err := f.svc.CreateReservation(ctx, member, "q1", ReservationInput{Type: domain.ReservationAirport, Lines: airportBoth()})
	require.NoError(t, err)
	f.reservations.AssertExpectations(t)
}

func TestDirectBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.priceAirportBoth(ctx)
	f.quotes.On("CreateWithReservation", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	f.notifier.On("Notify", ctx, mock.Anything).Return(nil).Twice()

	res, err := f.svc.DirectBooking(ctx, member, DirectBookingInput{Type: domain.ReservationAirport, Lines: airportBoth()})
	require.NoError(t, err)

	assert.Equal(t, domain.QuoteStatusPending, res.Quote.Quote.Status)
	assert.Equal(t, int64(870000), res.Quote.Quote.TotalPrice)
	assert.Len(t, res.Quote.Items, 2)
	assert.Equal(t, res.Quote.Quote.ID, res.Reservation.Reservation.QuoteID)
	require.Len(t, res.Reservation.Details, 2)
	assert.NotEqual(t, res.Quote.Details[0].ID, res.Reservation.Details[0].ID)
	assert.Equal(t, res.Quote.Details[0].PriceCode, res.Reservation.Details[0].PriceCode)
	f.quotes.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestCancelReservation(t *testing.T) {
	ctx := context.Background()

	t.Run("manager cancels pending reservation", func(t *testing.T) {
		f := newFixture()
		current := &domain.Reservation{ID: "r1", QuoteID: "q1", Status: domain.ReservationStatusPending}
		updated := &domain.Reservation{ID: "r1", QuoteID: "q1", Status: domain.ReservationStatusCancelled}
		f.reservations.On("GetByID", ctx, "r1").Return(current, nil)
		f.reservations.On("UpdateStatus", ctx, "r1", domain.ReservationStatusPending, domain.ReservationStatusCancelled).Return(updated, nil).Once()
		f.notifier.On("Notify", ctx, mock.MatchedBy(func(e events.Event) bool { return e.Type == events.ReservationCancelled })).Return(nil).Once()

		got, err := f.svc.CancelReservation(ctx, manager, "r1")
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusCancelled, got.Status)
		f.notifier.AssertExpectations(t)
	})

	t.Run("already cancelled", func(t *testing.T) {
		f := newFixture()
		f.reservations.On("GetByID", ctx, "r1").Return(&domain.Reservation{ID: "r1", Status: domain.ReservationStatusCancelled}, nil)

		_, err := f.svc.CancelReservation(ctx, manager, "r1")
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("member is forbidden", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.CancelReservation(ctx, member, "r1")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		f.reservations.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}
