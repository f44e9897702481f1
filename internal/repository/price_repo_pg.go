package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/travelagency/internal/domain"
)

type PriceRepository interface {
	Options(ctx context.Context, spec domain.KindSpec, chosen []string, date *time.Time) ([]string, error)
	Match(ctx context.Context, spec domain.KindSpec, facets []string, date *time.Time) ([]domain.PriceRow, error)
	ByCode(ctx context.Context, spec domain.KindSpec, code string) (*domain.PriceRow, error)
}

type PGPriceRepository struct {
	db DB
}

func NewPriceRepository(db DB) PriceRepository {
	return &PGPriceRepository{db: db}
}

// matchLimit caps Match so that duplicates in a lookup table are detectable
// without reading the whole table.
const matchLimit = 2

func (r *PGPriceRepository) Options(ctx context.Context, spec domain.KindSpec, chosen []string, date *time.Time) ([]string, error) {
	query, args, err := optionsQuery(spec, chosen, date)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s options: %w", spec.PriceTable, err)
	}
	defer rows.Close()

	options := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		options = append(options, v)
	}
	return options, rows.Err()
}

func (r *PGPriceRepository) Match(ctx context.Context, spec domain.KindSpec, facets []string, date *time.Time) ([]domain.PriceRow, error) {
	if len(facets) != len(spec.Facets) {
		return nil, fmt.Errorf("%w: %s needs %d facets, got %d", domain.ErrValidation, spec.Kind, len(spec.Facets), len(facets))
	}
	query, args := matchQuery(spec, facets, date)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", spec.PriceTable, err)
	}
	defer rows.Close()

	var matches []domain.PriceRow
	for rows.Next() {
		p, err := scanPriceRow(rows, spec)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *p)
	}
	return matches, rows.Err()
}

func (r *PGPriceRepository) ByCode(ctx context.Context, spec domain.KindSpec, code string) (*domain.PriceRow, error) {
	order := ""
	if spec.Windowed {
		order = " ORDER BY start_date DESC"
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1%s LIMIT 1",
		priceColumns(spec), ident(spec.PriceTable), ident(spec.CodeColumn), order)

	p, err := scanPriceRow(r.db.QueryRow(ctx, query, code), spec)
	if err != nil {
		return nil, notFound(err, "price code "+code)
	}
	return p, nil
}

// matchQuery orders candidates by code, then by the latest window and the
// lowest price, so the first row is stable when rows share a code.
func matchQuery(spec domain.KindSpec, facets []string, date *time.Time) (string, []any) {
	where, args := facetFilter(spec, facets, date)
	order := ident(spec.CodeColumn)
	if spec.Windowed {
		order += ", start_date DESC"
	}
	order += ", price"
	return fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT %d",
		priceColumns(spec), ident(spec.PriceTable), where, order, matchLimit), args
}

func optionsQuery(spec domain.KindSpec, chosen []string, date *time.Time) (string, []any, error) {
	if len(chosen) >= len(spec.Facets) {
		return "", nil, fmt.Errorf("%w: %s has only %d facets", domain.ErrValidation, spec.Kind, len(spec.Facets))
	}
	col := ident(spec.Facets[len(chosen)])
	where, args := facetFilter(spec, chosen, date)
	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s%s ORDER BY %s", col, ident(spec.PriceTable), where, col)
	return query, args, nil
}

func facetFilter(spec domain.KindSpec, values []string, date *time.Time) (string, []any) {
	conds := make([]string, 0, len(values)+1)
	args := make([]any, 0, len(values)+1)
	for i, v := range values {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", ident(spec.Facets[i]), len(args)))
	}
	if spec.Windowed && date != nil {
		args = append(args, *date)
		conds = append(conds, fmt.Sprintf("start_date <= $%d AND end_date >= $%d", len(args), len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func priceColumns(spec domain.KindSpec) string {
	cols := []string{ident(spec.CodeColumn)}
	for _, f := range spec.Facets {
		cols = append(cols, ident(f))
	}
	cols = append(cols, "price")
	if spec.Windowed {
		cols = append(cols, "start_date", "end_date")
	}
	return strings.Join(cols, ", ")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPriceRow(row scanner, spec domain.KindSpec) (*domain.PriceRow, error) {
	p := domain.PriceRow{Facets: make([]string, len(spec.Facets))}
	dest := []any{&p.Code}
	for i := range p.Facets {
		dest = append(dest, &p.Facets[i])
	}
	dest = append(dest, &p.Price)
	if spec.Windowed {
		dest = append(dest, &p.StartDate, &p.EndDate)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &p, nil
}

var _ PriceRepository = (*PGPriceRepository)(nil)
