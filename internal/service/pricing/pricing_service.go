package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Domenick1991/travelagency/internal/domain"
	"github.com/Domenick1991/travelagency/internal/metrics"
	"github.com/Domenick1991/travelagency/internal/repository"
)

type PricingUseCase interface {
	Options(ctx context.Context, kind domain.Kind, chosen []string, date *time.Time) ([]string, error)
	Resolve(ctx context.Context, kind domain.Kind, facets []string, date *time.Time) (domain.PriceResolution, error)
	Lookup(ctx context.Context, kind domain.Kind, code string) (*domain.PriceRow, error)
}

type Cache interface {
	GetOptions(ctx context.Context, kind domain.Kind, chosen []string, date *time.Time) ([]string, error)
	SetOptions(ctx context.Context, kind domain.Kind, chosen []string, date *time.Time, options []string) error
}

type PricingService struct {
	prices repository.PriceRepository
	cache  Cache
}

func NewPricingService(prices repository.PriceRepository, cache Cache) *PricingService {
	return &PricingService{prices: prices, cache: cache}
}

// Options lists the distinct values of the facet following chosen. Cache
// failures fall through to the database.
func (s *PricingService) Options(ctx context.Context, kind domain.Kind, chosen []string, date *time.Time) ([]string, error) {
	spec, err := domain.Spec(kind)
	if err != nil {
		return nil, err
	}
	if len(chosen) >= len(spec.Facets) {
		return nil, fmt.Errorf("%w: all %d facets of %s already chosen", domain.ErrValidation, len(spec.Facets), kind)
	}
	if err := requireValues(chosen); err != nil {
		return nil, err
	}
	if !spec.Windowed {
		date = nil
	}

	if s.cache != nil {
		if cached, err := s.cache.GetOptions(ctx, kind, chosen, date); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			slog.Warn("price options cache read failed", "kind", kind, "error", err)
		}
	}

	options, err := s.prices.Options(ctx, spec, chosen, date)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetOptions(ctx, kind, chosen, date, options); err != nil {
			slog.Warn("price options cache write failed", "kind", kind, "error", err)
		}
	}
	return options, nil
}

// Resolve finds the price row matching every facet. No match is not an error:
// the result has Found=false and an empty code. When several rows match, the
// lowest code is used and the result is flagged Ambiguous.
func (s *PricingService) Resolve(ctx context.Context, kind domain.Kind, facets []string, date *time.Time) (domain.PriceResolution, error) {
	res := domain.PriceResolution{Kind: kind}

	spec, err := domain.Spec(kind)
	if err != nil {
		return res, err
	}
	if len(facets) != len(spec.Facets) {
		return res, fmt.Errorf("%w: %s needs %d facets (%s), got %d",
			domain.ErrValidation, kind, len(spec.Facets), strings.Join(spec.Facets, ", "), len(facets))
	}
	if err := requireValues(facets); err != nil {
		return res, err
	}
	if spec.Windowed && date == nil {
		return res, fmt.Errorf("%w: %s prices depend on a date", domain.ErrValidation, kind)
	}
	if !spec.Windowed {
		date = nil
	}

	rows, err := s.prices.Match(ctx, spec, facets, date)
	if err != nil {
		return res, err
	}

	switch len(rows) {
	case 0:
		metrics.PriceResolutions.WithLabelValues(string(kind), "missing").Inc()
		return res, nil
	case 1:
		metrics.PriceResolutions.WithLabelValues(string(kind), "found").Inc()
	default:
		metrics.PriceResolutions.WithLabelValues(string(kind), "ambiguous").Inc()
		slog.Warn("several price rows match one facet tuple",
			"kind", kind, "facets", facets, "codes", []string{rows[0].Code, rows[1].Code})
		res.Ambiguous = true
	}

	res.Code = rows[0].Code
	res.Price = rows[0].Price
	res.Found = true
	return res, nil
}

func (s *PricingService) Lookup(ctx context.Context, kind domain.Kind, code string) (*domain.PriceRow, error) {
	spec, err := domain.Spec(kind)
	if err != nil {
		return nil, err
	}
	return s.prices.ByCode(ctx, spec, code)
}

func requireValues(values []string) error {
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: facet %d is empty", domain.ErrValidation, i+1)
		}
	}
	return nil
}

var _ PricingUseCase = (*PricingService)(nil)
