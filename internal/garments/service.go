package garments

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

func (s *Service) List(ctx context.Context, activeOnly bool) ([]GarmentType, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *Service) Get(ctx context.Context, id int64) (GarmentType, error) {
	if id <= 0 {
		return GarmentType{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, gt GarmentType) (GarmentType, error) {
	if err := validateType(gt); err != nil {
		return GarmentType{}, err
	}
	gt.IsActive = true
	return s.repo.Create(ctx, gt)
}

func (s *Service) Update(ctx context.Context, id int64, gt GarmentType) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := validateType(gt); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, gt)
}

// Retire hides a garment type from the order wizard without touching the
// orders that already reference it.
func (s *Service) Retire(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.SetActive(ctx, id, false)
}

func (s *Service) Restore(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.SetActive(ctx, id, true)
}

func (s *Service) ListSubtypes(ctx context.Context, garmentTypeID int64) ([]Subtype, error) {
	if _, err := s.Get(ctx, garmentTypeID); err != nil {
		return nil, err
	}
	return s.repo.ListSubtypes(ctx, garmentTypeID)
}

func (s *Service) CreateSubtype(ctx context.Context, st Subtype) (Subtype, error) {
	if _, err := s.Get(ctx, st.GarmentTypeID); err != nil {
		return Subtype{}, err
	}
	if strings.TrimSpace(st.Name) == "" {
		return Subtype{}, fmt.Errorf("%w: subtype name is required", httpx.ErrValidation)
	}
	if len(st.Options) == 0 {
		return Subtype{}, fmt.Errorf("%w: subtype needs at least one option", httpx.ErrValidation)
	}
	return s.repo.CreateSubtype(ctx, st)
}

func (s *Service) DeleteSubtype(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.DeleteSubtype(ctx, id)
}

func validateType(gt GarmentType) error {
	if strings.TrimSpace(gt.Name) == "" {
		return fmt.Errorf("%w: garment type name is required", httpx.ErrValidation)
	}
	if gt.BasePrice < 0 {
		return fmt.Errorf("%w: base price cannot be negative", httpx.ErrValidation)
	}
	return nil
}
