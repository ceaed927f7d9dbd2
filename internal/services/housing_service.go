package services

import (
	"context"
	"fmt"

	"github.com/wisetreee/safe-haven/internal/models"
	"github.com/wisetreee/safe-haven/internal/store"
)

// IHousingService defines the interface for housing catalog operations.
type IHousingService interface {
	// ListHousings returns the catalog with each entry's availability resolved
	// against its current active booking load.
	ListHousings(ctx context.Context) ([]models.Housing, error)
	GetHousing(ctx context.Context, id uint) (*models.Housing, error)
	// SetAvailability updates the stored base flag; the effective value shown
	// to clients is still derived from active bookings.
	SetAvailability(ctx context.Context, id uint, availability models.Availability) error
	AddImage(ctx context.Context, id uint, url string) error
}

type housingService struct {
	store store.Storage
}

// NewHousingService creates a new HousingService.
func NewHousingService(s store.Storage) IHousingService {
	return &housingService{store: s}
}

func (s *housingService) ListHousings(ctx context.Context) ([]models.Housing, error) {
	housings, err := s.store.ListHousings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list housings: %w", err)
	}
	for i := range housings {
		if err := s.resolveAvailability(ctx, &housings[i]); err != nil {
			return nil, err
		}
	}
	return housings, nil
}

func (s *housingService) GetHousing(ctx context.Context, id uint) (*models.Housing, error) {
	housing, err := s.store.GetHousing(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolveAvailability(ctx, housing); err != nil {
		return nil, err
	}
	return housing, nil
}

func (s *housingService) resolveAvailability(ctx context.Context, h *models.Housing) error {
	active, err := s.store.CountActiveBookings(ctx, h.ID)
	if err != nil {
		return fmt.Errorf("failed to count active bookings for housing %d: %w", h.ID, err)
	}
	h.Availability = h.EffectiveAvailability(active)
	return nil
}

func (s *housingService) SetAvailability(ctx context.Context, id uint, availability models.Availability) error {
	return s.store.UpdateHousingAvailability(ctx, id, availability)
}

func (s *housingService) AddImage(ctx context.Context, id uint, url string) error {
	return s.store.AddHousingImage(ctx, id, url)
}
