package workers

import (
	"context"
	"fmt"
	"strings"

	"github.com/stitchdesk/stitchdesk/internal/platform/httpx"
	"github.com/stitchdesk/stitchdesk/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Worker, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Worker, error) {
	if id <= 0 {
		return Worker{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, worker Worker) (Worker, error) {
	if worker.WageType == "" {
		worker.WageType = WageMonthly
	}
	if err := validate(worker); err != nil {
		return Worker{}, err
	}
	worker.IsActive = true
	return s.repo.Create(ctx, worker)
}

func (s *Service) Update(ctx context.Context, id int64, worker Worker) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := validate(worker); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, worker)
}

// Deactivate retires a worker. Orders already assigned keep their tailor;
// the worker just stops being assignable.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.SetActive(ctx, id, false)
}

func (s *Service) Activate(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.SetActive(ctx, id, true)
}

// Workload returns the worker's derived order counters.
func (s *Service) Workload(ctx context.Context, id int64) (Workload, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return Workload{}, err
	}
	return s.repo.Workload(ctx, id)
}

func validate(w Worker) error {
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("%w: worker name is required", httpx.ErrValidation)
	}
	switch w.Role {
	case RoleTailor, RoleHelper, RoleManager:
	default:
		return fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, w.Role)
	}
	switch w.WageType {
	case WagePerGarment, WagePerOrder, WageMonthly:
	default:
		return fmt.Errorf("%w: unknown wage type %q", httpx.ErrValidation, w.WageType)
	}
	if w.WageAmount < 0 {
		return fmt.Errorf("%w: wage amount cannot be negative", httpx.ErrValidation)
	}
	return nil
}
