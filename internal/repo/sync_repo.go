// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// SyncOperation audit trail.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/apexcre/estate-backend/internal/domain"
)

// CreateSyncOperation records one sync run. Rows are append-only: nothing
// ever updates or deletes them.
func CreateSyncOperation(ctx context.Context, db *gorm.DB, op *domain.SyncOperation) error {
	return db.WithContext(ctx).Create(op).Error
}

// ListSyncOperations returns the most recent sync runs, newest first, for
// the admin audit view.
func ListSyncOperations(ctx context.Context, db *gorm.DB, limit int) ([]domain.SyncOperation, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []domain.SyncOperation
	err := db.WithContext(ctx).
		Order("started_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// LastSyncOperationSince reports whether any sync ran after the given time.
// Used by the health endpoint to expose feed staleness.
func LastSyncOperationSince(ctx context.Context, db *gorm.DB, t time.Time) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.SyncOperation{}).
		Where("started_at > ?", t).
		Count(&n).Error
	return n > 0, err
}
