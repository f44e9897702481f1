package listing

import (
	"context"
	"fmt"

	"github.com/Domenick1991/travelagency/internal/domain"
	"github.com/Domenick1991/travelagency/internal/repository"
)

// ListingUseCase backs the manager and admin pages.
type ListingUseCase interface {
	ListQuotes(ctx context.Context, viewer domain.User, filter domain.QuoteFilter) ([]domain.QuoteSummary, error)
	ListReservations(ctx context.Context, viewer domain.User, filter domain.ReservationFilter) ([]domain.ReservationSummary, error)
	ListReservationDetails(ctx context.Context, viewer domain.User, userID string) ([]domain.ReservationBundle, error)
	ListUsers(ctx context.Context, viewer domain.User, role domain.Role) ([]domain.User, error)
}

type ListingService struct {
	listings     repository.ListingRepository
	reservations repository.ReservationRepository
	users        repository.UserRepository
}

func NewListingService(listings repository.ListingRepository, reservations repository.ReservationRepository, users repository.UserRepository) *ListingService {
	return &ListingService{listings: listings, reservations: reservations, users: users}
}

func (s *ListingService) ListQuotes(ctx context.Context, viewer domain.User, filter domain.QuoteFilter) ([]domain.QuoteSummary, error) {
	if !viewer.CanManage() {
		return nil, domain.ErrForbidden
	}
	return s.listings.ListQuotes(ctx, filter)
}

func (s *ListingService) ListReservations(ctx context.Context, viewer domain.User, filter domain.ReservationFilter) ([]domain.ReservationSummary, error) {
	if !viewer.CanManage() {
		return nil, domain.ErrForbidden
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown reservation type %q", domain.ErrValidation, filter.Type)
	}
	return s.listings.ListReservations(ctx, filter)
}

// ListReservationDetails returns every reservation of userID with its detail
// rows. A user without reservations yields an empty list.
func (s *ListingService) ListReservationDetails(ctx context.Context, viewer domain.User, userID string) ([]domain.ReservationBundle, error) {
	if !viewer.CanView(userID) {
		return nil, domain.ErrForbidden
	}
	bundles, err := s.reservations.ListBundlesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if bundles == nil {
		bundles = []domain.ReservationBundle{}
	}
	return bundles, nil
}

func (s *ListingService) ListUsers(ctx context.Context, viewer domain.User, role domain.Role) ([]domain.User, error) {
	if viewer.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	if role != "" && !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}
	return s.users.List(ctx, role)
}

var _ ListingUseCase = (*ListingService)(nil)
