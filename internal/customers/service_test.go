package customers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stitchdesk/stitchdesk/internal/platform/httpx"
	"github.com/stitchdesk/stitchdesk/internal/shared"
)

type memRepo struct {
	byID        map[int64]Customer
	orderCounts map[int64]int64
	next        int64
}

func newMemRepo() *memRepo {
	return &memRepo{byID: map[int64]Customer{}, orderCounts: map[int64]int64{}}
}

func (m *memRepo) List(_ context.Context, _ ListFilters) ([]Customer, int, error) {
	out := make([]Customer, 0, len(m.byID))
	for _, c := range m.byID {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *memRepo) Get(_ context.Context, id int64) (Customer, error) {
	c, ok := m.byID[id]
	if !ok {
		return Customer{}, shared.ErrNotFound
	}
	return c, nil
}

func (m *memRepo) Create(_ context.Context, c Customer) (Customer, error) {
	for _, existing := range m.byID {
		if existing.Mobile == c.Mobile {
			return Customer{}, shared.ErrDuplicateMobile
		}
	}
	m.next++
	c.ID = m.next
	m.byID[c.ID] = c
	return c, nil
}

func (m *memRepo) Update(_ context.Context, id int64, c Customer) error {
	if _, ok := m.byID[id]; !ok {
		return shared.ErrNotFound
	}
	for otherID, existing := range m.byID {
		if otherID != id && existing.Mobile == c.Mobile {
			return shared.ErrDuplicateMobile
		}
	}
	c.ID = id
	m.byID[id] = c
	return nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memRepo) OrderCount(_ context.Context, id int64) (int64, error) {
	return m.orderCounts[id], nil
}

func TestCreateCustomer(t *testing.T) {
	svc := NewService(newMemRepo())

	c, err := svc.Create(context.Background(), Customer{Name: "Asha Verma", Mobile: "9876543210"})
	require.NoError(t, err)
	require.NotZero(t, c.ID)
}

func TestCreateCustomerValidation(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Customer{Name: "  ", Mobile: "9876543210"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(ctx, Customer{Name: "Asha", Mobile: "12ab"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateCustomerDuplicateMobile(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Customer{Name: "Asha", Mobile: "9876543210"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, Customer{Name: "Binod", Mobile: "9876543210"})
	require.ErrorIs(t, err, shared.ErrDuplicateMobile)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateCustomerDuplicateMobile(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, Customer{Name: "Asha", Mobile: "9876543210"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, Customer{Name: "Binod", Mobile: "9123456780"})
	require.NoError(t, err)

	err = svc.Update(ctx, second.ID, Customer{Name: "Binod", Mobile: first.Mobile})
	require.ErrorIs(t, err, shared.ErrDuplicateMobile)
}

func TestDeleteCustomerWithOrders(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	c, err := svc.Create(ctx, Customer{Name: "Asha", Mobile: "9876543210"})
	require.NoError(t, err)
	repo.orderCounts[c.ID] = 3

	err = svc.Delete(ctx, c.ID)
	require.ErrorIs(t, err, shared.ErrHasOrders)

	repo.orderCounts[c.ID] = 0
	require.NoError(t, svc.Delete(ctx, c.ID))
	_, err = svc.Get(ctx, c.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
