// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the
// WebhookDelivery model used to implement safe-retry semantics on the
// webhook endpoints.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/apexcre/estate-backend/internal/domain"
)

// ErrDuplicate indicates that a delivery record already exists for the
// given (endpoint, key) tuple.
var ErrDuplicate = errors.New("duplicate")

// GetDelivery returns a non-expired delivery record or ErrNotFound.
func GetDelivery(ctx context.Context, db *gorm.DB, endpoint, key string, now time.Time) (*domain.WebhookDelivery, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.WebhookDelivery
	err := db.WithContext(ctx).
		Where("endpoint = ? AND key = ? AND expires_at > ?", endpoint, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, err
}

// CreateDelivery inserts a record and returns ErrDuplicate on unique
// violation, so two racing retries of the same delivery settle cleanly.
func CreateDelivery(ctx context.Context, db *gorm.DB, endpoint, key string, status int, ttl time.Duration) (*domain.WebhookDelivery, error) {
	now := time.Now().UTC()
	rec := &domain.WebhookDelivery{
		ID:        uuid.NewString(),
		Endpoint:  endpoint,
		Key:       key,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "duplicate key") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}
