// Package services – shared property upsert
//
// Both the plain ingest path and the sync path write listings with the same
// match-by-mls-else-address semantics; only the sync stamp differs. The
// shared routine lives here so the two handlers cannot drift apart.
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/apexcre/estate-backend/internal/domain"
	"github.com/apexcre/estate-backend/internal/payload"
	"github.com/apexcre/estate-backend/internal/repo"
)

// syncStamp tags a written row with the sync run that produced it. A nil
// stamp means the write came from the plain ingest path.
type syncStamp struct {
	SyncID string
	At     time.Time
}

// toProperty maps a normalized incoming listing onto the persistence model.
// The id is left empty; upsertProperty assigns one on insert and preserves
// the existing one on update.
func toProperty(in payload.Incoming, stamp *syncStamp) *domain.Property {
	p := &domain.Property{
		Title:       in.Title,
		Address:     in.Address,
		Type:        in.Type,
		Size:        in.Size,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
		Description: in.Description,
		Featured:    in.Featured,
		MLS:         in.MLS,
	}
	received := in.ReceivedAt
	if stamp != nil {
		received = stamp.At
		syncID := stamp.SyncID
		p.LastSyncID = &syncID
	}
	p.ReceivedAt = &received
	return p
}

// upsertProperty writes one normalized listing:
//
//   - no matching key at all: unconditional insert (no dedup possible)
//   - zero rows share the key: insert
//   - one row shares the key: update it in place
//   - several rows share the key (pre-existing duplicates): keep the first
//     by id, delete the rest, then update the keeper
//
// The read-check-write sequence is intentionally not transactional; see the
// DedupService comment for the reconciliation story.
func upsertProperty(ctx context.Context, db *gorm.DB, in payload.Incoming, stamp *syncStamp) error {
	row := toProperty(in, stamp)

	kind, key := in.MatchKey()
	if kind == payload.MatchNone {
		row.ID = uuid.NewString()
		return repo.CreateProperty(ctx, db, row)
	}

	var (
		matches []domain.Property
		err     error
	)
	switch kind {
	case payload.MatchMLS:
		matches, err = repo.FindPropertiesByMLS(ctx, db, key)
	default:
		matches, err = repo.FindPropertiesByAddress(ctx, db, key)
	}
	if err != nil {
		return err
	}

	switch len(matches) {
	case 0:
		row.ID = uuid.NewString()
		return repo.CreateProperty(ctx, db, row)
	case 1:
		return repo.UpdateProperty(ctx, db, matches[0].ID, row)
	default:
		// Matches are ordered by id; the first is the keeper.
		keeper := matches[0]
		extra := make([]string, 0, len(matches)-1)
		for _, m := range matches[1:] {
			extra = append(extra, m.ID)
		}
		if deleted, err := repo.DeletePropertiesByID(ctx, db, extra); err != nil {
			return err
		} else if deleted > 0 {
			log.Warn().
				Int64("deleted", deleted).
				Str("key", key).
				Msg("collapsed pre-existing duplicate properties during upsert")
		}
		return repo.UpdateProperty(ctx, db, keeper.ID, row)
	}
}
