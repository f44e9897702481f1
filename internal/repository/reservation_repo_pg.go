package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/travelagency/internal/domain"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"
)

type ReservationRepository interface {
	// Create writes the reservation with its detail rows and moves the quote
	// from quoteFrom to quoteTo, in one transaction.
	Create(ctx context.Context, bundle *domain.ReservationBundle, quoteFrom, quoteTo domain.QuoteStatus) error
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.ReservationStatus) (*domain.Reservation, error)
	ListBundlesByUser(ctx context.Context, userID string) ([]domain.ReservationBundle, error)
	ListBundlesByQuote(ctx context.Context, quoteID string) ([]domain.ReservationBundle, error)
}

type PGReservationRepository struct {
	db DB
}

func NewReservationRepository(db DB) ReservationRepository {
	return &PGReservationRepository{db: db}
}

const reservationColumns = `id, re_type, status, quote_id, user_id, created_at, updated_at`

func (r *PGReservationRepository) Create(ctx context.Context, bundle *domain.ReservationBundle, quoteFrom, quoteTo domain.QuoteStatus) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		// Runs even when quoteFrom == quoteTo: the row lock holds the quote's
		// status until commit.
		tag, err := tx.Exec(ctx, `UPDATE quote SET status=$1, updated_at=now() WHERE id=$2 AND status=$3`,
			quoteTo, bundle.Reservation.QuoteID, quoteFrom)
		if err != nil {
			return fmt.Errorf("update quote status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("quote %s is not %s: %w", bundle.Reservation.QuoteID, quoteFrom, domain.ErrConflict)
		}
		return insertReservationBundle(ctx, tx, bundle)
	})
}

func insertReservationBundle(ctx context.Context, tx pgx.Tx, b *domain.ReservationBundle) error {
	res := &b.Reservation
	if err := tx.QueryRow(ctx, `INSERT INTO reservation (id, re_type, status, quote_id, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`, res.ID, res.Type, res.Status, res.QuoteID, res.UserID).
		Scan(&res.CreatedAt, &res.UpdatedAt); err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	for _, d := range b.Details {
		if err := insertDetail(ctx, tx, d, true); err != nil {
			return err
		}
	}
	return nil
}

func (r *PGReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	res, err := scanReservation(r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservation WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "reservation "+id)
	}
	return res, nil
}

func (r *PGReservationRepository) UpdateStatus(ctx context.Context, id string, from, to domain.ReservationStatus) (*domain.Reservation, error) {
	res, err := scanReservation(r.db.QueryRow(ctx, `UPDATE reservation SET status=$1, updated_at=now()
		WHERE id=$2 AND status=$3 RETURNING `+reservationColumns, to, id, from))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reservation %s is not %s: %w", id, from, domain.ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *PGReservationRepository) ListBundlesByUser(ctx context.Context, userID string) ([]domain.ReservationBundle, error) {
	return r.listBundles(ctx, `SELECT `+reservationColumns+` FROM reservation WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *PGReservationRepository) ListBundlesByQuote(ctx context.Context, quoteID string) ([]domain.ReservationBundle, error) {
	return r.listBundles(ctx, `SELECT `+reservationColumns+` FROM reservation WHERE quote_id=$1 ORDER BY created_at`, quoteID)
}

func (r *PGReservationRepository) listBundles(ctx context.Context, query string, arg string) ([]domain.ReservationBundle, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	reservations := make([]domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		reservations = append(reservations, *res)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(reservations) == 0 {
		return []domain.ReservationBundle{}, nil
	}

	details, err := r.loadDetails(ctx, reservations)
	if err != nil {
		return nil, err
	}
	return groupByReservation(reservations, details), nil
}

// loadDetails fetches the reservation_<kind> rows of every kind the given
// reservation types may carry, one query per table, concurrently.
func (r *PGReservationRepository) loadDetails(ctx context.Context, reservations []domain.Reservation) ([]domain.ServiceDetail, error) {
	idsByType := make(map[domain.ReservationType][]string)
	for _, res := range reservations {
		idsByType[res.Type] = append(idsByType[res.Type], res.ID)
	}

	var specs []domain.KindSpec
	var ids [][]string
	for _, spec := range domain.Kinds() {
		if list, ok := idsByType[spec.ReservationType]; ok {
			specs = append(specs, spec)
			ids = append(ids, list)
		}
	}

	results := make([][]domain.ServiceDetail, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	for i := range specs {
		g.Go(func() error {
			ds, err := selectDetails(gctx, r.db, specs[i], true, ids[i])
			if err != nil {
				return err
			}
			results[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.ServiceDetail
	for _, ds := range results {
		all = append(all, ds...)
	}
	return all, nil
}

// groupByReservation attaches detail rows to their reservation, keeping reservation order.
func groupByReservation(reservations []domain.Reservation, details []domain.ServiceDetail) []domain.ReservationBundle {
	byID := make(map[string][]domain.ServiceDetail, len(reservations))
	for _, d := range details {
		byID[d.ReservationID] = append(byID[d.ReservationID], d)
	}
	out := make([]domain.ReservationBundle, 0, len(reservations))
	for _, res := range reservations {
		ds := byID[res.ID]
		if ds == nil {
			ds = []domain.ServiceDetail{}
		}
		out = append(out, domain.ReservationBundle{Reservation: res, Details: ds})
	}
	return out
}

func scanReservation(row scanner) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := row.Scan(&res.ID, &res.Type, &res.Status, &res.QuoteID, &res.UserID, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	return &res, nil
}

var _ ReservationRepository = (*PGReservationRepository)(nil)
