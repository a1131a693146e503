package reports

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-fin/meridian/internal/shared"
)

// Service renders the summary reports. Concurrent cache misses for the same
// report collapse into one computation through the singleflight group.
type Service struct {
	repo   Repository
	cache  *Cache
	group  singleflight.Group
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires the reports service.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Dashboard returns the cached summary, recomputing on a miss.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var cached Dashboard
	if hit, err := s.cache.get(ctx, cacheKeyDashboard, &cached); err != nil {
		s.logger.Warn("dashboard cache read failed", slog.String("error", err.Error()))
	} else if hit {
		return cached, nil
	}

	v, err, _ := s.group.Do(cacheKeyDashboard, func() (any, error) {
		return s.computeDashboard(ctx)
	})
	if err != nil {
		return Dashboard{}, err
	}
	return v.(Dashboard), nil
}

func (s *Service) computeDashboard(ctx context.Context) (Dashboard, error) {
	d, err := s.repo.Dashboard(ctx, shared.PeriodOf(s.now()))
	if err != nil {
		return Dashboard{}, err
	}
	d.GeneratedAt = s.now()
	if err := s.cache.set(ctx, cacheKeyDashboard, d); err != nil {
		s.logger.Warn("dashboard cache write failed", slog.String("error", err.Error()))
	}
	return d, nil
}

// VendorDistribution returns contract totals per vendor with their share of
// the grand total, largest first. Percentages are rounded to two decimals.
func (s *Service) VendorDistribution(ctx context.Context) ([]VendorShare, error) {
	var cached []VendorShare
	if hit, err := s.cache.get(ctx, cacheKeyVendors, &cached); err != nil {
		s.logger.Warn("vendor cache read failed", slog.String("error", err.Error()))
	} else if hit {
		return cached, nil
	}

	v, err, _ := s.group.Do(cacheKeyVendors, func() (any, error) {
		return s.computeVendorDistribution(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]VendorShare), nil
}

func (s *Service) computeVendorDistribution(ctx context.Context) ([]VendorShare, error) {
	shares, err := s.repo.VendorTotals(ctx)
	if err != nil {
		return nil, err
	}

	grand := decimal.Zero
	for _, share := range shares {
		grand = grand.Add(share.Total)
	}
	hundred := decimal.NewFromInt(100)
	for i := range shares {
		if grand.IsPositive() {
			shares[i].Percentage = shares[i].Total.Mul(hundred).DivRound(grand, 2)
		} else {
			shares[i].Percentage = decimal.Zero
		}
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Total.GreaterThan(shares[j].Total)
	})

	if err := s.cache.set(ctx, cacheKeyVendors, shares); err != nil {
		s.logger.Warn("vendor cache write failed", slog.String("error", err.Error()))
	}
	return shares, nil
}

// Warmup recomputes both cached reports. Run after payment execution and on
// the worker schedule.
func (s *Service) Warmup(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx); err != nil {
		return err
	}
	if _, err := s.computeDashboard(ctx); err != nil {
		return err
	}
	if _, err := s.computeVendorDistribution(ctx); err != nil {
		return err
	}
	s.logger.Info("report caches warmed")
	return nil
}
