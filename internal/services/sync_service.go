// Package services – SyncService
//
// This file implements the replace-all sync: the payload is treated as the
// full authoritative set of externally sourced listings. Every row written
// during the run carries the run's id; afterwards, webhook-sourced rows not
// carrying it are deleted. Manually curated rows (null received_at) are
// never touched.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/apexcre/estate-backend/internal/domain"
	"github.com/apexcre/estate-backend/internal/payload"
	"github.com/apexcre/estate-backend/internal/repo"
)

// SyncService processes authoritative property sets from the
// sync-properties endpoint.
type SyncService struct {
	// DB is the database handle used for the marker, the upserts, and the
	// stale-row delete.
	DB *gorm.DB
	// Source labels the SyncOperation audit rows. Defaults to "webhook".
	Source string
}

// SyncResult reports one completed sync run.
type SyncResult struct {
	// SyncID identifies the run; every surviving webhook row carries it.
	SyncID string `json:"syncId"`
	// Processed is the number of valid entries attempted (including rows
	// whose individual upsert failed; the contract is best effort).
	Processed int `json:"processedCount"`
	// Deleted is the number of stale webhook rows removed at the end.
	Deleted int64 `json:"deletedCount"`
}

// Sync runs one replace-all pass over a decoded payload.
//
// Ordering is the closest thing to a transactional guard in this design:
// the SyncOperation marker is recorded before any property write, and a
// failure to record it aborts the whole call. Per-entry upsert failures are
// logged and skipped. The final stale-row delete is fatal on error, since
// skipping it would silently leave withdrawn listings live.
func (s *SyncService) Sync(ctx context.Context, v any) (SyncResult, error) {
	ctx, span := otel.Tracer("services").Start(ctx, "sync.run")
	defer span.End()

	entries := validEntries(payload.Properties(v))
	if len(entries) == 0 {
		return SyncResult{}, ErrNoValidProperties
	}

	source := s.Source
	if source == "" {
		source = "webhook"
	}
	now := time.Now().UTC()
	op := &domain.SyncOperation{
		ID:            uuid.NewString(),
		Source:        source,
		StartedAt:     now,
		PropertyCount: len(entries),
	}
	if err := repo.CreateSyncOperation(ctx, s.DB, op); err != nil {
		return SyncResult{}, fmt.Errorf("recording sync operation: %w", err)
	}

	stamp := &syncStamp{SyncID: op.ID, At: now}
	res := SyncResult{SyncID: op.ID}
	for i, m := range entries {
		in := payload.Normalize(m, now)
		res.Processed++
		if err := upsertProperty(ctx, s.DB, in, stamp); err != nil {
			log.Error().Err(err).
				Int("index", i).
				Str("sync_id", op.ID).
				Str("address", in.Address).
				Msg("sync upsert failed; continuing")
		}
	}

	deleted, err := repo.DeleteStaleSynced(ctx, s.DB, op.ID)
	if err != nil {
		return res, fmt.Errorf("deleting stale synced properties: %w", err)
	}
	res.Deleted = deleted

	span.SetAttributes(
		attribute.String("sync.id", op.ID),
		attribute.Int("sync.processed", res.Processed),
		attribute.Int64("sync.deleted", res.Deleted),
	)
	log.Info().
		Str("sync_id", op.ID).
		Int("processed", res.Processed).
		Int64("deleted", deleted).
		Msg("sync run complete")
	return res, nil
}

// validEntries keeps only candidates carrying an address or a title.
func validEntries(candidates []map[string]any) []map[string]any {
	out := candidates[:0:0]
	for _, m := range candidates {
		if payload.HasIdentity(m) {
			out = append(out, m)
		}
	}
	return out
}
