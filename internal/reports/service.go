package reports

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Dashboard aggregates everything the landing screen shows.
type Dashboard struct {
	AsOf         time.Time     `json:"as_of"`
	Summary      KPISummary    `json:"summary"`
	ByStatus     []StatusCount `json:"by_status"`
	TopCustomers []TopCustomer `json:"top_customers"`
}

// Service coordinates report queries with the cache layer. Concurrent
// requests for the same dashboard collapse into one build.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// GetDashboard builds the dashboard, fanning the three queries out in
// parallel and caching the assembled result.
func (s *Service) GetDashboard(ctx context.Context, asOf time.Time) (Dashboard, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "dashboard", asOf.Format("2006-01-02"))
	if err != nil {
		return Dashboard{}, err
	}

	ch := s.group.DoChan(key, func() (interface{}, error) {
		var dash Dashboard
		err := s.cache.FetchJSON(ctx, key, &dash, func(ctx context.Context) (interface{}, error) {
			return s.buildDashboard(ctx, asOf)
		})
		return dash, err
	})
	select {
	case <-ctx.Done():
		return Dashboard{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Dashboard{}, res.Err
		}
		return res.Val.(Dashboard), nil
	}
}

func (s *Service) buildDashboard(ctx context.Context, asOf time.Time) (Dashboard, error) {
	dash := Dashboard{AsOf: asOf}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		summary, err := s.repo.KPISummary(ctx, asOf)
		if err != nil {
			return err
		}
		dash.Summary = summary
		return nil
	})
	g.Go(func() error {
		counts, err := s.repo.OrdersByStatus(ctx)
		if err != nil {
			return err
		}
		dash.ByStatus = counts
		return nil
	})
	g.Go(func() error {
		top, err := s.repo.TopCustomers(ctx, 5)
		if err != nil {
			return err
		}
		dash.TopCustomers = top
		return nil
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return dash, nil
}

// GetRevenue returns the collected-revenue series between from and to.
func (s *Service) GetRevenue(ctx context.Context, from, to time.Time, byMonth bool) ([]RevenuePoint, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "revenue",
		from.Format("2006-01-02"), to.Format("2006-01-02"), strconv.FormatBool(byMonth))
	if err != nil {
		return nil, err
	}
	var points []RevenuePoint
	err = s.cache.FetchJSON(ctx, key, &points, func(ctx context.Context) (interface{}, error) {
		return s.repo.RevenueSeries(ctx, from, to, byMonth)
	})
	return points, err
}

// Invalidate bumps the cache version. The ledger calls this after commits.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
