package reports

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	summary      KPISummary
	summaryCalls int
	statusCounts []StatusCount
	statusCalls  int
	revenue      []RevenuePoint
	revenueCalls int
	top          []TopCustomer
	topCalls     int
}

func (m *mockRepo) KPISummary(_ context.Context, _ time.Time) (KPISummary, error) {
	m.summaryCalls++
	return m.summary, nil
}

func (m *mockRepo) OrdersByStatus(_ context.Context) ([]StatusCount, error) {
	m.statusCalls++
	return m.statusCounts, nil
}

func (m *mockRepo) RevenueSeries(_ context.Context, _, _ time.Time, _ bool) ([]RevenuePoint, error) {
	m.revenueCalls++
	return m.revenue, nil
}

func (m *mockRepo) TopCustomers(_ context.Context, _ int) ([]TopCustomer, error) {
	m.topCalls++
	return m.top, nil
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, NewCache(client, time.Minute))
}

func TestGetDashboard(t *testing.T) {
	repo := &mockRepo{
		summary: KPISummary{
			OrdersToday:      3,
			ActiveOrders:     12,
			RevenueThisMonth: 45000,
			OutstandingTotal: 18200,
		},
		statusCounts: []StatusCount{{Status: "pending", Count: 7}, {Status: "in_progress", Count: 5}},
		top:          []TopCustomer{{CustomerID: 1, Name: "Asha Verma", TotalPaid: 20000}},
	}
	svc := newTestService(t, repo)

	dash, err := svc.GetDashboard(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(3), dash.Summary.OrdersToday)
	require.Len(t, dash.ByStatus, 2)
	require.Len(t, dash.TopCustomers, 1)
}

func TestGetDashboardCaches(t *testing.T) {
	repo := &mockRepo{summary: KPISummary{OrdersToday: 1}}
	svc := newTestService(t, repo)
	ctx := context.Background()
	asOf := time.Now()

	_, err := svc.GetDashboard(ctx, asOf)
	require.NoError(t, err)
	_, err = svc.GetDashboard(ctx, asOf)
	require.NoError(t, err)

	require.Equal(t, 1, repo.summaryCalls)
	require.Equal(t, 1, repo.statusCalls)
	require.Equal(t, 1, repo.topCalls)
}

func TestInvalidateBustsDashboardCache(t *testing.T) {
	repo := &mockRepo{summary: KPISummary{OrdersToday: 1}}
	svc := newTestService(t, repo)
	ctx := context.Background()
	asOf := time.Now()

	_, err := svc.GetDashboard(ctx, asOf)
	require.NoError(t, err)

	require.NoError(t, svc.Invalidate(ctx))

	repo.summary.OrdersToday = 2
	dash, err := svc.GetDashboard(ctx, asOf)
	require.NoError(t, err)
	require.Equal(t, int64(2), dash.Summary.OrdersToday)
	require.Equal(t, 2, repo.summaryCalls)
}

func TestGetRevenueCaches(t *testing.T) {
	repo := &mockRepo{revenue: []RevenuePoint{{Period: "2026-08", Collected: 9000, Orders: 4}}}
	svc := newTestService(t, repo)
	ctx := context.Background()

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	points, err := svc.GetRevenue(ctx, from, to, true)
	require.NoError(t, err)
	require.Len(t, points, 1)
	require.Equal(t, 9000.0, points[0].Collected)

	_, err = svc.GetRevenue(ctx, from, to, true)
	require.NoError(t, err)
	require.Equal(t, 1, repo.revenueCalls)

	// A different granularity is a different cache entry.
	_, err = svc.GetRevenue(ctx, from, to, false)
	require.NoError(t, err)
	require.Equal(t, 2, repo.revenueCalls)
}
