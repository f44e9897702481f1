package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/travelagency/internal/domain"
)

func detailColumns(spec domain.KindSpec, reservation bool) []string {
	cols := []string{"id"}
	if reservation {
		cols = append(cols, "reservation_id")
	}
	for _, f := range spec.Facets {
		cols = append(cols, ident(f))
	}
	return append(cols, ident(spec.DetailCodeColumn), "usage_date", "quantity", "unit_price", "total_price", "note")
}

func detailTable(spec domain.KindSpec, reservation bool) string {
	if reservation {
		return spec.ReservationTable
	}
	return spec.DetailTable
}

func insertDetailQuery(spec domain.KindSpec, reservation bool) string {
	cols := detailColumns(spec, reservation)
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ident(detailTable(spec, reservation)), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
}

func insertDetail(ctx context.Context, q querier, d domain.ServiceDetail, reservation bool) error {
	spec, err := domain.Spec(d.Kind)
	if err != nil {
		return err
	}
	if len(d.Facets) != len(spec.Facets) {
		return fmt.Errorf("%w: %s detail needs %d facets", domain.ErrValidation, d.Kind, len(spec.Facets))
	}

	args := []any{d.ID}
	if reservation {
		args = append(args, d.ReservationID)
	}
	for _, f := range d.Facets {
		args = append(args, f)
	}
	args = append(args, d.PriceCode, d.UsageDate, d.Quantity, d.UnitPrice, d.TotalPrice, d.Note)

	if _, err := q.Exec(ctx, insertDetailQuery(spec, reservation), args...); err != nil {
		return fmt.Errorf("insert %s: %w", detailTable(spec, reservation), err)
	}
	return nil
}

// selectDetails loads detail rows of one kind whose key column is in ids.
func selectDetails(ctx context.Context, q querier, spec domain.KindSpec, reservation bool, ids []string) ([]domain.ServiceDetail, error) {
	key := "id"
	if reservation {
		key = "reservation_id"
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ANY($1)",
		strings.Join(detailColumns(spec, reservation), ", "), ident(detailTable(spec, reservation)), key)

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", detailTable(spec, reservation), err)
	}
	defer rows.Close()

	var out []domain.ServiceDetail
	for rows.Next() {
		d := domain.ServiceDetail{Kind: spec.Kind, Facets: make([]string, len(spec.Facets))}
		dest := []any{&d.ID}
		if reservation {
			dest = append(dest, &d.ReservationID)
		}
		for i := range d.Facets {
			dest = append(dest, &d.Facets[i])
		}
		dest = append(dest, &d.PriceCode, &d.UsageDate, &d.Quantity, &d.UnitPrice, &d.TotalPrice, &d.Note)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// AttachDetails joins quote items with the detail rows they reference, keeping
// item order. Items whose detail row is missing get a nil Detail.
func AttachDetails(items []domain.QuoteItem, details []domain.ServiceDetail) []domain.QuoteLine {
	type key struct {
		kind domain.Kind
		id   string
	}
	byKey := make(map[key]domain.ServiceDetail, len(details))
	for _, d := range details {
		byKey[key{d.Kind, d.ID}] = d
	}

	lines := make([]domain.QuoteLine, 0, len(items))
	for _, it := range items {
		line := domain.QuoteLine{Item: it}
		if d, ok := byKey[key{it.ServiceType, it.ServiceRefID}]; ok {
			line.Detail = &d
		}
		lines = append(lines, line)
	}
	return lines
}

// groupRefIDs collects deduplicated service_ref_ids per kind.
func groupRefIDs(items []domain.QuoteItem) map[domain.Kind][]string {
	seen := make(map[string]struct{}, len(items))
	out := make(map[domain.Kind][]string)
	for _, it := range items {
		k := string(it.ServiceType) + ":" + it.ServiceRefID
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out[it.ServiceType] = append(out[it.ServiceType], it.ServiceRefID)
	}
	return out
}
