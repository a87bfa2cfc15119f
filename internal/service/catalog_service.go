package service

import (
	"context"
	"errors"
	"fmt"

	"clipquiz/internal/model"
	"clipquiz/internal/repository"
)

var (
	ErrPackInvalid  = errors.New("pack needs a name and at least one track")
	ErrTrackInvalid = errors.New("every track needs a title and a locator")
)

// CatalogService handles pack lifecycle operations
type CatalogService struct {
	packRepo repository.PackRepo
}

// NewCatalogService creates a new catalog service
func NewCatalogService(packRepo repository.PackRepo) *CatalogService {
	return &CatalogService{packRepo: packRepo}
}

// CreatePack validates and persists a new pack
func (s *CatalogService) CreatePack(ctx context.Context, pack *model.Pack) (string, error) {
	if err := validatePack(pack); err != nil {
		return "", err
	}
	id, err := s.packRepo.Create(ctx, pack)
	if err != nil {
		return "", fmt.Errorf("create pack: %w", err)
	}
	return id, nil
}

// GetPack retrieves a pack by id; nil when not found
func (s *CatalogService) GetPack(ctx context.Context, id string) (*model.Pack, error) {
	return s.packRepo.GetByID(ctx, id)
}

// ListPacks returns every pack in the catalog
func (s *CatalogService) ListPacks(ctx context.Context) ([]*model.Pack, error) {
	return s.packRepo.List(ctx)
}

// SearchPacks runs a text/tag search over the catalog
func (s *CatalogService) SearchPacks(ctx context.Context, query string, tags []string) ([]*model.Pack, error) {
	return s.packRepo.Search(ctx, query, tags)
}

// UpdatePack validates and replaces a pack's editable fields
func (s *CatalogService) UpdatePack(ctx context.Context, pack *model.Pack) error {
	if err := validatePack(pack); err != nil {
		return err
	}
	existing, err := s.packRepo.GetByID(ctx, pack.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("pack %s not found", pack.ID)
	}
	if err := s.packRepo.Update(ctx, pack); err != nil {
		return fmt.Errorf("update pack: %w", err)
	}
	return nil
}

// DeletePack removes a pack from the catalog
func (s *CatalogService) DeletePack(ctx context.Context, id string) error {
	return s.packRepo.Delete(ctx, id)
}

// IncrementPlayCount bumps a pack's play counter
func (s *CatalogService) IncrementPlayCount(ctx context.Context, id string) error {
	return s.packRepo.IncrementPlayCount(ctx, id)
}

func validatePack(pack *model.Pack) error {
	if pack.Name == "" || len(pack.Tracks) == 0 {
		return ErrPackInvalid
	}
	for _, t := range pack.Tracks {
		if t.Title == "" || t.Locator == "" {
			return ErrTrackInvalid
		}
	}
	return nil
}
