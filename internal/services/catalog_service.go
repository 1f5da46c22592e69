// Package services – CatalogService
//
// Read-side queries for the public site: paged listings and single-property
// detail pages. Writes only ever come in over the webhook endpoints.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/apexcre/estate-backend/internal/domain"
	"github.com/apexcre/estate-backend/internal/repo"
)

// ErrPropertyNotFound indicates the requested property does not exist.
var ErrPropertyNotFound = errors.New("property not found")

// PropertyWithDetails bundles a listing with its optional details row for
// the property detail page.
type PropertyWithDetails struct {
	domain.Property
	Details *domain.PropertyDetails `json:"details,omitempty"`
}

// CatalogService serves the public read endpoints.
type CatalogService struct {
	// DB is the database handle used for all reads.
	DB *gorm.DB
}

// ListPage returns a page of listings, newest first, plus the total count.
func (s *CatalogService) ListPage(ctx context.Context, featuredOnly bool, page, pageSize int) ([]domain.Property, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	total, err := repo.CountProperties(ctx, s.DB, featuredOnly)
	if err != nil {
		return nil, 0, err
	}
	props, err := repo.ListPropertiesPage(ctx, s.DB, featuredOnly, (page-1)*pageSize, pageSize)
	return props, total, err
}

// Get returns one listing with its details row when present.
func (s *CatalogService) Get(ctx context.Context, id string) (*PropertyWithDetails, error) {
	p, err := repo.GetProperty(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, err
	}
	out := &PropertyWithDetails{Property: *p}
	det, err := repo.GetDetailsByPropertyID(ctx, s.DB, p.ID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		// No details attached yet; fine.
	case err != nil:
		return nil, err
	default:
		out.Details = det
	}
	return out, nil
}
