// Package handlers provides HTTP handler implementations for the public API
// and the webhook endpoints. This file defines the Handlers aggregate and
// the narrow service interfaces it depends on, so tests can stub any slice
// of the behavior.
package handlers

import (
	"context"

	"github.com/apexcre/estate-backend/internal/domain"
	"github.com/apexcre/estate-backend/internal/services"
)

// Ingestor processes a decoded property payload (receive-webhook).
type Ingestor interface {
	Process(ctx context.Context, v any) (services.IngestSummary, error)
}

// DetailAttacher upserts property details (receive-property-details).
type DetailAttacher interface {
	Attach(ctx context.Context, v any) (services.AttachResult, error)
}

// Syncer runs a replace-all sync (sync-properties).
type Syncer interface {
	Sync(ctx context.Context, v any) (services.SyncResult, error)
}

// Deduper runs the duplicate resolver (cleanup-duplicates).
type Deduper interface {
	Run(ctx context.Context) (services.DedupReport, error)
}

// Catalog serves public property reads.
type Catalog interface {
	ListPage(ctx context.Context, featuredOnly bool, page, pageSize int) ([]domain.Property, int64, error)
	Get(ctx context.Context, id string) (*services.PropertyWithDetails, error)
}

// Posts serves blog post management and reads.
type Posts interface {
	Create(ctx context.Context, in services.PostInput) (*domain.Post, error)
	Update(ctx context.Context, id string, in services.PostInput) (*domain.Post, error)
	Delete(ctx context.Context, id string) error
	GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*domain.Post, error)
	ListPage(ctx context.Context, publishedOnly bool, page, pageSize int) ([]domain.Post, int64, error)
}

// DeliveryRecorder persists a completed webhook delivery keyed by the
// caller's Idempotency-Key, enabling replay suppression. Wired in the
// router as a closure over the DB handle and the configured TTL.
type DeliveryRecorder func(ctx context.Context, endpoint, key string, status int) error

// Handlers aggregates the endpoint implementations and their dependencies.
type Handlers struct {
	ingest  Ingestor
	details DetailAttacher
	sync    Syncer
	dedup   Deduper
	catalog Catalog
	posts   Posts
	record  DeliveryRecorder
}

// New constructs the handler set. record may be nil to disable delivery
// bookkeeping (tests).
func New(ingest Ingestor, details DetailAttacher, sync Syncer, dedup Deduper, catalog Catalog, posts Posts, record DeliveryRecorder) *Handlers {
	return &Handlers{
		ingest:  ingest,
		details: details,
		sync:    sync,
		dedup:   dedup,
		catalog: catalog,
		posts:   posts,
		record:  record,
	}
}
