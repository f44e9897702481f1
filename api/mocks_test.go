package api

import (
	"context"
	"time"

	"github.com/Domenick1991/travelagency/internal/domain"
	"github.com/Domenick1991/travelagency/internal/service/booking"
	"github.com/Domenick1991/travelagency/internal/service/confirmation"
	"github.com/stretchr/testify/mock"
)

type MockPricingUseCase struct {
	mock.Mock
}

func (m *MockPricingUseCase) Options(ctx context.Context, kind domain.Kind, chosen []string, date *time.Time) ([]string, error) {
	args := m.Called(ctx, kind, chosen, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPricingUseCase) Resolve(ctx context.Context, kind domain.Kind, facets []string, date *time.Time) (domain.PriceResolution, error) {
	args := m.Called(ctx, kind, facets, date)
	return args.Get(0).(domain.PriceResolution), args.Error(1)
}

func (m *MockPricingUseCase) Lookup(ctx context.Context, kind domain.Kind, code string) (*domain.PriceRow, error) {
	args := m.Called(ctx, kind, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceRow), args.Error(1)
}

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) SubmitQuote(ctx context.Context, user domain.User, input booking.SubmitQuoteInput) (*domain.QuoteBundle, error) {
	args := m.Called(ctx, user, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuoteBundle), args.Error(1)
}

func (m *MockBookingUseCase) GetQuote(ctx context.Context, viewer domain.User, id string) (*domain.QuoteBundle, error) {
	args := m.Called(ctx, viewer, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuoteBundle), args.Error(1)
}

func (m *MockBookingUseCase) ListMyQuotes(ctx context.Context, user domain.User) ([]domain.Quote, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Quote), args.Error(1)
}

func (m *MockBookingUseCase) CreateReservation(ctx context.Context, user domain.User, quoteID string, input booking.ReservationInput) (*domain.ReservationBundle, error) {
	args := m.Called(ctx, user, quoteID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReservationBundle), args.Error(1)
}

func (m *MockBookingUseCase) DirectBooking(ctx context.Context, user domain.User, input booking.DirectBookingInput) (*booking.DirectBookingResult, error) {
	args := m.Called(ctx, user, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.DirectBookingResult), args.Error(1)
}

func (m *MockBookingUseCase) CancelReservation(ctx context.Context, manager domain.User, id string) (*domain.Reservation, error) {
	args := m.Called(ctx, manager, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

type MockConfirmationUseCase struct {
	mock.Mock
}

func (m *MockConfirmationUseCase) quote(args mock.Arguments) (*domain.Quote, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}

func (m *MockConfirmationUseCase) ApproveQuote(ctx context.Context, manager domain.User, quoteID string) (*domain.Quote, error) {
	return m.quote(m.Called(ctx, manager, quoteID))
}

func (m *MockConfirmationUseCase) RejectQuote(ctx context.Context, manager domain.User, quoteID, note string) (*domain.Quote, error) {
	return m.quote(m.Called(ctx, manager, quoteID, note))
}

func (m *MockConfirmationUseCase) MarkPaid(ctx context.Context, manager domain.User, quoteID string) (*domain.Quote, error) {
	return m.quote(m.Called(ctx, manager, quoteID))
}

func (m *MockConfirmationUseCase) UpdateManagerNote(ctx context.Context, manager domain.User, quoteID, note string) (*domain.Quote, error) {
	return m.quote(m.Called(ctx, manager, quoteID, note))
}

func (m *MockConfirmationUseCase) ConfirmQuote(ctx context.Context, manager domain.User, quoteID string, input confirmation.ConfirmInput) (*domain.ConfirmationLog, error) {
	args := m.Called(ctx, manager, quoteID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConfirmationLog), args.Error(1)
}

func (m *MockConfirmationUseCase) Document(ctx context.Context, viewer domain.User, quoteID string) ([]byte, error) {
	args := m.Called(ctx, viewer, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockConfirmationUseCase) RenderConfirmation(ctx context.Context, quoteID string) ([]byte, error) {
	args := m.Called(ctx, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockListingUseCase struct {
	mock.Mock
}

func (m *MockListingUseCase) ListQuotes(ctx context.Context, viewer domain.User, filter domain.QuoteFilter) ([]domain.QuoteSummary, error) {
	args := m.Called(ctx, viewer, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.QuoteSummary), args.Error(1)
}

func (m *MockListingUseCase) ListReservations(ctx context.Context, viewer domain.User, filter domain.ReservationFilter) ([]domain.ReservationSummary, error) {
	args := m.Called(ctx, viewer, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReservationSummary), args.Error(1)
}

func (m *MockListingUseCase) ListReservationDetails(ctx context.Context, viewer domain.User, userID string) ([]domain.ReservationBundle, error) {
	args := m.Called(ctx, viewer, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReservationBundle), args.Error(1)
}

func (m *MockListingUseCase) ListUsers(ctx context.Context, viewer domain.User, role domain.Role) ([]domain.User, error) {
	args := m.Called(ctx, viewer, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
