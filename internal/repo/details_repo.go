// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// PropertyDetails model and the raw webhook archive.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/apexcre/estate-backend/internal/domain"
)

// GetDetailsByPropertyID returns the details row linked to a property, or
// ErrNotFound. One-to-one: there is never more than one.
func GetDetailsByPropertyID(ctx context.Context, db *gorm.DB, propertyID string) (*domain.PropertyDetails, error) {
	var d domain.PropertyDetails
	err := db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDetails inserts a new details row.
func CreateDetails(ctx context.Context, db *gorm.DB, d *domain.PropertyDetails) error {
	return db.WithContext(ctx).Create(d).Error
}

// UpdateDetails overwrites the detail attributes of an existing row,
// including explicit NULLs for fields absent from the latest payload.
func UpdateDetails(ctx context.Context, db *gorm.DB, id string, d *domain.PropertyDetails) error {
	res := db.WithContext(ctx).
		Model(&domain.PropertyDetails{}).
		Where("id = ?", id).
		Select("list_price", "price_per_sqft", "status", "property_size",
			"land_size", "rooms", "remarks", "listing_by", "virtual_tour").
		Updates(d)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ArchiveWebhookPayload appends a raw detail payload to the
// webhook_property_details log with processed=false. Callers must invoke
// this before any correlation work so the payload survives a failed match.
func ArchiveWebhookPayload(ctx context.Context, db *gorm.DB, raw []byte) (*domain.WebhookPropertyDetailsLog, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty payload")
	}
	rec := &domain.WebhookPropertyDetailsLog{
		ID:         uuid.NewString(),
		Payload:    datatypes.JSON(raw),
		Processed:  false,
		ReceivedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// MarkWebhookPayloadProcessed flips the processed flag on an archived
// payload. The flag is the only column ever mutated on the archive.
func MarkWebhookPayloadProcessed(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.WebhookPropertyDetailsLog{}).
		Where("id = ?", id).
		Update("processed", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
