package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Domenick1991/travelagency/internal/domain"
	"github.com/jackc/pgx/v5"
)

type QuoteRepository interface {
	Create(ctx context.Context, bundle *domain.QuoteBundle) error
	CreateWithReservation(ctx context.Context, quote *domain.QuoteBundle, reservation *domain.ReservationBundle) error
	GetByID(ctx context.Context, id string) (*domain.Quote, error)
	GetBundle(ctx context.Context, id string) (*domain.QuoteBundle, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Quote, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.QuoteStatus) (*domain.Quote, error)
	UpdateStatusAndNote(ctx context.Context, id string, from, to domain.QuoteStatus, note string) (*domain.Quote, error)
	UpdateManagerNote(ctx context.Context, id, note string) (*domain.Quote, error)
	Confirm(ctx context.Context, log *domain.ConfirmationLog, from []domain.QuoteStatus) (*domain.ConfirmationLog, bool, error)
	GetConfirmation(ctx context.Context, quoteID string) (*domain.ConfirmationLog, error)
}

type PGQuoteRepository struct {
	db DB
}

func NewQuoteRepository(db DB) QuoteRepository {
	return &PGQuoteRepository{db: db}
}

const quoteColumns = `id, user_id, title, status, total_price, manager_note, confirmed_at, created_at, updated_at`

// Create writes the quote row, one detail row per line and one quote_item per
// detail row in a single transaction.
func (r *PGQuoteRepository) Create(ctx context.Context, bundle *domain.QuoteBundle) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		return insertQuoteBundle(ctx, tx, bundle)
	})
}

// CreateWithReservation is Create followed by the reservation writes, all in one transaction.
func (r *PGQuoteRepository) CreateWithReservation(ctx context.Context, quote *domain.QuoteBundle, reservation *domain.ReservationBundle) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := insertQuoteBundle(ctx, tx, quote); err != nil {
			return err
		}
		return insertReservationBundle(ctx, tx, reservation)
	})
}

func insertQuoteBundle(ctx context.Context, tx pgx.Tx, b *domain.QuoteBundle) error {
	q := &b.Quote
	if err := tx.QueryRow(ctx, `INSERT INTO quote (id, user_id, title, status, total_price, manager_note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`, q.ID, q.UserID, q.Title, q.Status, q.TotalPrice, q.ManagerNote).
		Scan(&q.CreatedAt, &q.UpdatedAt); err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}

	for _, d := range b.Details {
		if err := insertDetail(ctx, tx, d, false); err != nil {
			return err
		}
	}

	for _, it := range b.Items {
		if _, err := tx.Exec(ctx, `INSERT INTO quote_item (id, quote_id, line_no, service_type, service_ref_id, quantity, unit_price, total_price, usage_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			it.ID, it.QuoteID, it.LineNo, it.ServiceType, it.ServiceRefID, it.Quantity, it.UnitPrice, it.TotalPrice, it.UsageDate); err != nil {
			return fmt.Errorf("insert quote_item: %w", err)
		}
	}
	return nil
}

func (r *PGQuoteRepository) GetByID(ctx context.Context, id string) (*domain.Quote, error) {
	q, err := scanQuote(r.db.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quote WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "quote "+id)
	}
	return q, nil
}

func (r *PGQuoteRepository) GetBundle(ctx context.Context, id string) (*domain.QuoteBundle, error) {
	q, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT id, quote_id, line_no, service_type, service_ref_id, quantity, unit_price, total_price, usage_date
		FROM quote_item WHERE quote_id=$1 ORDER BY line_no`, id)
	if err != nil {
		return nil, fmt.Errorf("select quote_item: %w", err)
	}
	items := make([]domain.QuoteItem, 0)
	for rows.Next() {
		var it domain.QuoteItem
		if err := rows.Scan(&it.ID, &it.QuoteID, &it.LineNo, &it.ServiceType, &it.ServiceRefID, &it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.UsageDate); err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	groups := groupRefIDs(items)
	kinds := make([]string, 0, len(groups))
	for k := range groups {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	var details []domain.ServiceDetail
	for _, k := range kinds {
		spec, err := domain.Spec(domain.Kind(k))
		if err != nil {
			// Unknown service_type tags are kept as items without detail.
			continue
		}
		ds, err := selectDetails(ctx, r.db, spec, false, groups[spec.Kind])
		if err != nil {
			return nil, err
		}
		details = append(details, ds...)
	}

	return &domain.QuoteBundle{
		Quote:   *q,
		Items:   items,
		Details: details,
		Lines:   AttachDetails(items, details),
	}, nil
}

func (r *PGQuoteRepository) ListByUser(ctx context.Context, userID string) ([]domain.Quote, error) {
	rows, err := r.db.Query(ctx, `SELECT `+quoteColumns+` FROM quote WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quotes := make([]domain.Quote, 0)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *q)
	}
	return quotes, rows.Err()
}

// UpdateStatus moves a quote from one status to another. It fails with
// domain.ErrConflict when the quote is no longer in status from.
func (r *PGQuoteRepository) UpdateStatus(ctx context.Context, id string, from, to domain.QuoteStatus) (*domain.Quote, error) {
	q, err := scanQuote(r.db.QueryRow(ctx, `UPDATE quote SET status=$1, updated_at=now()
		WHERE id=$2 AND status=$3 RETURNING `+quoteColumns, to, id, from))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("quote %s is not %s: %w", id, from, domain.ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// UpdateStatusAndNote is UpdateStatus that also replaces the manager note in
// the same statement.
func (r *PGQuoteRepository) UpdateStatusAndNote(ctx context.Context, id string, from, to domain.QuoteStatus, note string) (*domain.Quote, error) {
	q, err := scanQuote(r.db.QueryRow(ctx, `UPDATE quote SET status=$1, manager_note=$2, updated_at=now()
		WHERE id=$3 AND status=$4 RETURNING `+quoteColumns, to, note, id, from))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("quote %s is not %s: %w", id, from, domain.ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *PGQuoteRepository) UpdateManagerNote(ctx context.Context, id, note string) (*domain.Quote, error) {
	q, err := scanQuote(r.db.QueryRow(ctx, `UPDATE quote SET manager_note=$1, updated_at=now()
		WHERE id=$2 RETURNING `+quoteColumns, note, id))
	if err != nil {
		return nil, notFound(err, "quote "+id)
	}
	return q, nil
}

// Confirm records the confirmation log, confirms the quote and its pending
// reservations in one transaction. When the quote already has a log the
// existing log is returned with created=false and nothing is written.
func (r *PGQuoteRepository) Confirm(ctx context.Context, log *domain.ConfirmationLog, from []domain.QuoteStatus) (*domain.ConfirmationLog, bool, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	var (
		result  *domain.ConfirmationLog
		created bool
	)
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO reservation_confirmation (id, quote_id, manager_id, document_no, method, note)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (quote_id) DO NOTHING
			RETURNING created_at`, log.ID, log.QuoteID, log.ManagerID, log.DocumentNo, log.Method, log.Note).
			Scan(&log.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			existing, err := scanConfirmation(tx.QueryRow(ctx, `SELECT id, quote_id, manager_id, document_no, method, note, created_at
				FROM reservation_confirmation WHERE quote_id=$1`, log.QuoteID))
			if err != nil {
				return err
			}
			result = existing
			return nil
		}
		if err != nil {
			return fmt.Errorf("insert reservation_confirmation: %w", err)
		}

		tag, err := tx.Exec(ctx, `UPDATE quote SET status=$1, confirmed_at=now(), updated_at=now()
			WHERE id=$2 AND status = ANY($3)`, domain.QuoteStatusConfirmed, log.QuoteID, allowed)
		if err != nil {
			return fmt.Errorf("confirm quote: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("quote %s cannot be confirmed: %w", log.QuoteID, domain.ErrConflict)
		}

		if _, err := tx.Exec(ctx, `UPDATE reservation SET status=$1, updated_at=now()
			WHERE quote_id=$2 AND status=$3`, domain.ReservationStatusConfirmed, log.QuoteID, domain.ReservationStatusPending); err != nil {
			return fmt.Errorf("confirm reservations: %w", err)
		}

		result = log
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

func (r *PGQuoteRepository) GetConfirmation(ctx context.Context, quoteID string) (*domain.ConfirmationLog, error) {
	c, err := scanConfirmation(r.db.QueryRow(ctx, `SELECT id, quote_id, manager_id, document_no, method, note, created_at
		FROM reservation_confirmation WHERE quote_id=$1`, quoteID))
	if err != nil {
		return nil, notFound(err, "confirmation for quote "+quoteID)
	}
	return c, nil
}

func scanQuote(row scanner) (*domain.Quote, error) {
	var q domain.Quote
	if err := row.Scan(&q.ID, &q.UserID, &q.Title, &q.Status, &q.TotalPrice, &q.ManagerNote, &q.ConfirmedAt, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	return &q, nil
}

func scanConfirmation(row scanner) (*domain.ConfirmationLog, error) {
	var c domain.ConfirmationLog
	if err := row.Scan(&c.ID, &c.QuoteID, &c.ManagerID, &c.DocumentNo, &c.Method, &c.Note, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

var _ QuoteRepository = (*PGQuoteRepository)(nil)
