// Package services – IngestService
//
// This file implements the main webhook ingestion use-case: take whatever
// the external feed posted, pull candidate listings out of it, upsert each
// one, and run the duplicate resolver once as a safety net against races
// between concurrent deliveries.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/apexcre/estate-backend/internal/payload"
)

// IngestService processes property payloads from the receive-webhook
// endpoint. Per-row failures are logged and skipped; the request as a whole
// only fails on errors outside the row loop.
type IngestService struct {
	// DB is the database handle used for all property writes.
	DB *gorm.DB
	// Dedup is invoked once after each processed batch.
	Dedup *DedupService
}

// IngestSummary reports what one delivery produced.
type IngestSummary struct {
	// Candidates is how many property-shaped objects the payload yielded.
	Candidates int `json:"candidates"`
	// Processed is how many rows were upserted.
	Processed int `json:"processed"`
	// Skipped counts candidates lacking both title and address.
	Skipped int `json:"skipped"`
}

// Process ingests one decoded payload.
//
// Candidates missing both title and address are skipped, not errors. Each
// remaining candidate is normalized (defaults applied, received time set to
// now) and upserted keyed by MLS when present, else address. A failing row
// is logged and the loop continues: the contract is best effort with an
// aggregate status. After the loop the duplicate resolver runs once; its
// failure is logged but does not fail the delivery, since the next pass
// will reconcile.
func (s *IngestService) Process(ctx context.Context, v any) (IngestSummary, error) {
	ctx, span := otel.Tracer("services").Start(ctx, "ingest.process")
	defer span.End()

	candidates := payload.Properties(v)
	sum := IngestSummary{Candidates: len(candidates)}
	now := time.Now().UTC()

	for i, m := range candidates {
		if !payload.HasIdentity(m) {
			sum.Skipped++
			ev := log.Info().Int("index", i)
			if raw, ok := m[payload.RawKey].(string); ok {
				// Opaque bodies carry no listing fields; keep the text
				// inspectable in the log.
				ev = ev.Str("raw", clip(raw, 512))
			}
			ev.Msg("skipping property without title or address")
			continue
		}
		in := payload.Normalize(m, now)
		if err := upsertProperty(ctx, s.DB, in, nil); err != nil {
			log.Error().Err(err).
				Int("index", i).
				Str("address", in.Address).
				Msg("property upsert failed")
			continue
		}
		sum.Processed++
	}

	span.SetAttributes(
		attribute.Int("ingest.candidates", sum.Candidates),
		attribute.Int("ingest.processed", sum.Processed),
	)

	if s.Dedup != nil && sum.Processed > 0 {
		if report, err := s.Dedup.Run(ctx); err != nil {
			log.Error().Err(err).Msg("post-ingest dedup pass failed")
		} else if report.Deleted > 0 {
			log.Info().Int64("deleted", report.Deleted).Msg("post-ingest dedup removed duplicates")
		}
	}

	return sum, nil
}

// clip bounds oversized opaque bodies before they reach the log.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
