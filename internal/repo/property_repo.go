// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Property
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a property is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// The address-string lookups exist because the external feed correlates
// records by address rather than a stable identifier. That fragility is
// deliberate and contained here: swapping to a stable key later means
// changing these two functions only.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/apexcre/estate-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. It aliases
// gorm.ErrRecordNotFound for consistency across services and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ListProperties returns every property row. The dedup pass works over the
// full table, so there is intentionally no pagination here.
func ListProperties(ctx context.Context, db *gorm.DB) ([]domain.Property, error) {
	var out []domain.Property
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// ListPropertiesPage returns a page of properties for the public site,
// newest first. When featuredOnly is set, only featured rows are returned.
func ListPropertiesPage(ctx context.Context, db *gorm.DB, featuredOnly bool, offset, limit int) ([]domain.Property, error) {
	q := db.WithContext(ctx).Order("created_at desc")
	if featuredOnly {
		q = q.Where("featured = ?", true)
	}
	var out []domain.Property
	err := q.Offset(offset).Limit(limit).Find(&out).Error
	return out, err
}

// CountProperties returns the total number of properties, honoring the same
// featured filter as ListPropertiesPage.
func CountProperties(ctx context.Context, db *gorm.DB, featuredOnly bool) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Property{})
	if featuredOnly {
		q = q.Where("featured = ?", true)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// GetProperty fetches a single property by id, or ErrNotFound.
func GetProperty(ctx context.Context, db *gorm.DB, id string) (*domain.Property, error) {
	var p domain.Property
	if err := db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindPropertiesByMLS returns all rows sharing an MLS identifier, ordered by
// id ascending so the keeper under pre-existing duplicates is deterministic.
func FindPropertiesByMLS(ctx context.Context, db *gorm.DB, mls string) ([]domain.Property, error) {
	var out []domain.Property
	err := db.WithContext(ctx).
		Where("mls = ?", mls).
		Order("id asc").
		Find(&out).Error
	return out, err
}

// FindPropertiesByAddress returns all rows whose address matches exactly,
// ordered by id ascending. Matching is exact-string on purpose; see the
// package comment.
func FindPropertiesByAddress(ctx context.Context, db *gorm.DB, address string) ([]domain.Property, error) {
	var out []domain.Property
	err := db.WithContext(ctx).
		Where("address = ?", address).
		Order("id asc").
		Find(&out).Error
	return out, err
}

// FirstPropertyByAddress returns the first property with an exactly matching
// address, or ErrNotFound. Post-dedup there should be at most one.
func FirstPropertyByAddress(ctx context.Context, db *gorm.DB, address string) (*domain.Property, error) {
	var p domain.Property
	err := db.WithContext(ctx).
		Where("address = ?", address).
		Order("id asc").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProperty inserts a new property row.
func CreateProperty(ctx context.Context, db *gorm.DB, p *domain.Property) error {
	return db.WithContext(ctx).Create(p).Error
}

// UpdateProperty overwrites the listing attributes of the row with the given
// id. Select lists the columns explicitly so zero values (empty strings,
// featured=false, nil mls) overwrite instead of being skipped.
func UpdateProperty(ctx context.Context, db *gorm.DB, id string, p *domain.Property) error {
	res := db.WithContext(ctx).
		Model(&domain.Property{}).
		Where("id = ?", id).
		Select("title", "address", "type", "size", "price", "image_url",
			"description", "featured", "mls", "received_at", "last_sync_id").
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeletePropertiesByID hard-deletes the given rows in one batch and returns
// the number actually removed. A nil/empty id list is a no-op.
func DeletePropertiesByID(ctx context.Context, db *gorm.DB, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.Property{})
	return res.RowsAffected, res.Error
}

// DeleteStaleSynced removes every webhook-sourced property (non-null
// received_at) that was not touched by the given sync run. Manually curated
// rows have a null received_at and are never deleted here.
func DeleteStaleSynced(ctx context.Context, db *gorm.DB, syncID string) (int64, error) {
	res := db.WithContext(ctx).
		Where("received_at IS NOT NULL").
		Where("last_sync_id IS NULL OR last_sync_id <> ?", syncID).
		Delete(&domain.Property{})
	return res.RowsAffected, res.Error
}
