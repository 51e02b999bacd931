// Package listing owns the property catalog: the public feed, room detail,
// and the admin inventory operations.
package listing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rentx/rentx-api/internal/domain"
	"github.com/rentx/rentx-api/internal/pkg/id"
)

// PropertyStore is the minimal interface the catalog requires from the
// properties repo.
type PropertyStore interface {
	Put(ctx context.Context, p *domain.Property) error
	Get(ctx context.Context, propertyID string) (*domain.Property, error)
	Scan(ctx context.Context) ([]domain.Property, error)
	Update(ctx context.Context, propertyID string, updates map[string]interface{}) error
	Delete(ctx context.Context, propertyID string) error
}

type Service interface {
	// List returns the public feed: available listings first, newest first
	// within each group. Sold-out listings sink to the bottom.
	List(ctx context.Context) ([]domain.Property, error)
	Get(ctx context.Context, propertyID string) (*domain.Property, error)
	Create(ctx context.Context, p *domain.Property) (*domain.Property, error)
	Update(ctx context.Context, propertyID string, updates map[string]interface{}) (*domain.Property, error)
	Delete(ctx context.Context, propertyID string) error
	// SetStatus toggles a listing between "available" and "booked".
	SetStatus(ctx context.Context, propertyID, status string) (*domain.Property, error)
	// SetRoomAvailability replaces the per-room availability list and keeps
	// the flat counter in sync with it.
	SetRoomAvailability(ctx context.Context, propertyID string, roomNumbers []int) (*domain.Property, error)
}

type service struct {
	repo PropertyStore
}

func NewService(repo PropertyStore) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context) ([]domain.Property, error) {
	props, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(props, func(i, j int) bool {
		si, sj := props[i].SoldOut(), props[j].SoldOut()
		if si != sj {
			return !si
		}
		return props[i].CreatedAt.After(props[j].CreatedAt)
	})
	return props, nil
}

func (s *service) Get(ctx context.Context, propertyID string) (*domain.Property, error) {
	return s.repo.Get(ctx, propertyID)
}

func (s *service) Create(ctx context.Context, p *domain.Property) (*domain.Property, error) {
	now := time.Now().UTC()
	p.PropertyID = id.New()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = domain.PropertyAvailable
	}
	if len(p.Rules.AvailableRoomNumbers) > 0 {
		p.Rules.AvailableUnits = len(p.Rules.AvailableRoomNumbers)
	}
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Update(ctx context.Context, propertyID string, updates map[string]interface{}) (*domain.Property, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if err := s.repo.Update(ctx, propertyID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, propertyID)
}

func (s *service) Delete(ctx context.Context, propertyID string) error {
	return s.repo.Delete(ctx, propertyID)
}

func (s *service) SetStatus(ctx context.Context, propertyID, status string) (*domain.Property, error) {
	if status != domain.PropertyAvailable && status != domain.PropertyBooked {
		return nil, fmt.Errorf("status %q: %w", status, domain.ErrBadRequest)
	}
	if err := s.repo.Update(ctx, propertyID, map[string]interface{}{
		"status": status,
	}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, propertyID)
}

func (s *service) SetRoomAvailability(ctx context.Context, propertyID string, roomNumbers []int) (*domain.Property, error) {
	p, err := s.repo.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if roomNumbers == nil {
		roomNumbers = []int{}
	}
	// The room-number list is authoritative; the flat counter follows it.
	p.Rules.AvailableRoomNumbers = roomNumbers
	p.Rules.AvailableUnits = len(roomNumbers)
	if err := s.repo.Update(ctx, propertyID, map[string]interface{}{
		"rules": p.Rules,
	}); err != nil {
		return nil, err
	}
	return p, nil
}
