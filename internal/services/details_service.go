// Package services – DetailsService
//
// This file implements detail attachment: extended attributes arrive on
// their own webhook, identified only by the property's address string. The
// raw payload is always archived first so a failed correlation can be
// replayed by hand later.
package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/apexcre/estate-backend/internal/domain"
	"github.com/apexcre/estate-backend/internal/payload"
	"github.com/apexcre/estate-backend/internal/repo"
)

// DetailsService upserts the one-to-one PropertyDetails row for a property
// matched by address.
type DetailsService struct {
	// DB is the database handle used for the archive, lookup, and upsert.
	DB *gorm.DB
}

// AttachResult reports a successful detail attachment.
type AttachResult struct {
	// PropertyID is the id of the matched property.
	PropertyID string
	// Created is true when a new details row was inserted rather than
	// an existing one updated.
	Created bool
}

// Attach processes one decoded detail payload.
//
// Order matters: the payload is archived into webhook_property_details
// (processed=false) before anything can fail, and the archive insert itself
// is the only fatal store error ahead of the upsert. Then:
//
//   - missing address → ErrMissingAddress
//   - address matches no property → ErrNoMatchingProperty
//   - otherwise the details row for the matched property is created or
//     updated in place, and the archived row is flagged processed.
//
// A failure to flip the processed flag is logged but does not undo the
// attachment; the flag is advisory.
func (s *DetailsService) Attach(ctx context.Context, v any) (AttachResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return AttachResult{}, err
	}
	archived, err := repo.ArchiveWebhookPayload(ctx, s.DB, raw)
	if err != nil {
		return AttachResult{}, err
	}

	det := payload.Details(v)
	address := payload.Str(det, "address")
	if address == "" {
		return AttachResult{}, ErrMissingAddress
	}

	prop, err := repo.FirstPropertyByAddress(ctx, s.DB, address)
	if errors.Is(err, repo.ErrNotFound) {
		return AttachResult{}, ErrNoMatchingProperty
	}
	if err != nil {
		return AttachResult{}, err
	}

	row := detailsRow(det, prop.ID)
	res := AttachResult{PropertyID: prop.ID}

	existing, err := repo.GetDetailsByPropertyID(ctx, s.DB, prop.ID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		row.ID = uuid.NewString()
		if err := repo.CreateDetails(ctx, s.DB, row); err != nil {
			return AttachResult{}, err
		}
		res.Created = true
	case err != nil:
		return AttachResult{}, err
	default:
		if err := repo.UpdateDetails(ctx, s.DB, existing.ID, row); err != nil {
			return AttachResult{}, err
		}
	}

	if err := repo.MarkWebhookPayloadProcessed(ctx, s.DB, archived.ID); err != nil {
		log.Warn().Err(err).Str("log_id", archived.ID).Msg("could not mark archived payload processed")
	}
	return res, nil
}

// detailsRow translates the wire fields, honoring the documented synonyms
// (listPrice|price, propertySize|size, remarks|description). Absent fields
// become NULL, and rooms stays a sum type because the feed sends it either
// as an object or as a JSON-encoded string.
func detailsRow(det map[string]any, propertyID string) *domain.PropertyDetails {
	return &domain.PropertyDetails{
		PropertyID:   propertyID,
		ListPrice:    payload.StrPtr(det, "listPrice", "price"),
		PricePerSqft: payload.StrPtr(det, "pricePerSqft", "price_per_sqft"),
		Status:       payload.StrPtr(det, "status"),
		PropertySize: payload.StrPtr(det, "propertySize", "size"),
		LandSize:     payload.StrPtr(det, "landSize", "land_size"),
		Rooms:        domain.ParseRooms(det["rooms"]),
		Remarks:      payload.StrPtr(det, "remarks", "description"),
		ListingBy:    payload.StrPtr(det, "listingBy", "listing_by"),
		VirtualTour:  payload.StrPtr(det, "virtualTour", "virtual_tour"),
	}
}
