package repository

import (
	"context"

	"github.com/Domenick1991/travelagency/internal/domain"
)

// ListingRepository serves the manager listing pages with rows already joined
// to their users and counters.
type ListingRepository interface {
	ListQuotes(ctx context.Context, filter domain.QuoteFilter) ([]domain.QuoteSummary, error)
	ListReservations(ctx context.Context, filter domain.ReservationFilter) ([]domain.ReservationSummary, error)
}

type PGListingRepository struct {
	db DB
}

func NewListingRepository(db DB) ListingRepository {
	return &PGListingRepository{db: db}
}

const defaultPageSize = 50

func pageOf(limit, offset int) (int, int) {
	if limit <= 0 || limit > 500 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (r *PGListingRepository) ListQuotes(ctx context.Context, filter domain.QuoteFilter) ([]domain.QuoteSummary, error) {
	limit, offset := pageOf(filter.Limit, filter.Offset)
	rows, err := r.db.Query(ctx, `SELECT q.id, q.user_id, q.title, q.status, q.total_price, q.manager_note, q.confirmed_at, q.created_at, q.updated_at,
			COALESCE(u.name, ''), COALESCE(u.email, ''),
			(SELECT count(*) FROM quote_item qi WHERE qi.quote_id = q.id),
			(SELECT count(*) FROM reservation re WHERE re.quote_id = q.id)
		FROM quote q
		LEFT JOIN users u ON u.id = q.user_id
		WHERE ($1 = '' OR q.status = $1)
		ORDER BY q.created_at DESC
		LIMIT $2 OFFSET $3`, string(filter.Status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.QuoteSummary, 0)
	for rows.Next() {
		var s domain.QuoteSummary
		q := &s.Quote
		if err := rows.Scan(&q.ID, &q.UserID, &q.Title, &q.Status, &q.TotalPrice, &q.ManagerNote, &q.ConfirmedAt, &q.CreatedAt, &q.UpdatedAt,
			&s.UserName, &s.UserEmail, &s.ItemCount, &s.ReservationCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PGListingRepository) ListReservations(ctx context.Context, filter domain.ReservationFilter) ([]domain.ReservationSummary, error) {
	limit, offset := pageOf(filter.Limit, filter.Offset)
	rows, err := r.db.Query(ctx, `SELECT re.id, re.re_type, re.status, re.quote_id, re.user_id, re.created_at, re.updated_at,
			COALESCE(u.name, ''), COALESCE(q.title, '')
		FROM reservation re
		LEFT JOIN users u ON u.id = re.user_id
		LEFT JOIN quote q ON q.id = re.quote_id
		WHERE ($1 = '' OR re.status = $1) AND ($2 = '' OR re.re_type = $2)
		ORDER BY re.created_at DESC
		LIMIT $3 OFFSET $4`, string(filter.Status), string(filter.Type), limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ReservationSummary, 0)
	for rows.Next() {
		var s domain.ReservationSummary
		res := &s.Reservation
		if err := rows.Scan(&res.ID, &res.Type, &res.Status, &res.QuoteID, &res.UserID, &res.CreatedAt, &res.UpdatedAt,
			&s.UserName, &s.QuoteTitle); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	reservations := make([]domain.Reservation, len(out))
	for i, s := range out {
		reservations[i] = s.Reservation
	}
	details, err := (&PGReservationRepository{db: r.db}).loadDetails(ctx, reservations)
	if err != nil {
		return nil, err
	}
	return summarize(out, details), nil
}

// summarize fills detail counts and totals from the reservation detail rows.
func summarize(summaries []domain.ReservationSummary, details []domain.ServiceDetail) []domain.ReservationSummary {
	index := make(map[string]int, len(summaries))
	for i, s := range summaries {
		index[s.Reservation.ID] = i
	}
	for _, d := range details {
		if i, ok := index[d.ReservationID]; ok {
			summaries[i].DetailCount++
			summaries[i].TotalPrice += d.TotalPrice
		}
	}
	return summaries
}

var _ ListingRepository = (*PGListingRepository)(nil)
