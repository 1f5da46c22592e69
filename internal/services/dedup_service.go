// Package services – DedupService
//
// This file implements the duplicate resolver. The webhook path deliberately
// runs without transactions or locks, so two concurrent deliveries for the
// same address can both pass the "no existing row" check and both insert.
// That window is accepted; this resolver is the reconciliation mechanism
// that collapses the duplicates afterwards.
package services

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"

	"github.com/apexcre/estate-backend/internal/domain"
	"github.com/apexcre/estate-backend/internal/repo"
)

// DedupService removes redundant property rows. Rows are grouped by address
// and, independently, by MLS id; within each group the earliest-received row
// survives and the rest are deleted in one batch. Running it again with no
// intervening writes deletes nothing.
type DedupService struct {
	// DB is the database handle used for the scan and the batch delete.
	DB *gorm.DB
}

// DedupReport summarizes one resolver pass.
type DedupReport struct {
	// Scanned is the number of property rows examined.
	Scanned int `json:"scanned"`
	// Deleted is the number of duplicate rows removed.
	Deleted int64 `json:"deleted"`
}

// Run scans the full property table, computes the set of non-survivor rows,
// and deletes them in a single batch. It returns the report and any error
// from the scan or the delete; a failed delete leaves the table as it was
// apart from whatever the store's own atomicity guarantees.
func (s *DedupService) Run(ctx context.Context) (DedupReport, error) {
	ctx, span := otel.Tracer("services").Start(ctx, "dedup.run")
	defer span.End()

	props, err := repo.ListProperties(ctx, s.DB)
	if err != nil {
		return DedupReport{}, err
	}

	ids := duplicateIDs(props)
	deleted, err := repo.DeletePropertiesByID(ctx, s.DB, ids)
	if err != nil {
		return DedupReport{Scanned: len(props)}, err
	}
	return DedupReport{Scanned: len(props), Deleted: deleted}, nil
}

// duplicateIDs returns the ids of every row flagged redundant by either the
// address partition or the MLS partition. A row flagged by both appears once.
func duplicateIDs(props []domain.Property) []string {
	seen := map[string]struct{}{}
	var out []string
	collect := func(ids []string) {
		for _, id := range ids {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	collect(nonSurvivors(props, func(p domain.Property) string { return p.Address }))
	collect(nonSurvivors(props, func(p domain.Property) string {
		if p.MLS == nil {
			return ""
		}
		return *p.MLS
	}))
	sort.Strings(out)
	return out
}

// nonSurvivors partitions props by the extractor key, ignoring empty keys,
// and flags everything but the earliest-received row in each group of two
// or more. Ties on the received time fall back to id order so the survivor
// is stable across runs.
func nonSurvivors(props []domain.Property, key func(domain.Property) string) []string {
	groups := map[string][]domain.Property{}
	for _, p := range props {
		k := key(p)
		if k == "" {
			continue
		}
		groups[k] = append(groups[k], p)
	}

	var flagged []string
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			ti, tj := receivedOrCreated(group[i]), receivedOrCreated(group[j])
			if !ti.Equal(tj) {
				return ti.Before(tj)
			}
			return group[i].ID < group[j].ID
		})
		for _, p := range group[1:] {
			flagged = append(flagged, p.ID)
		}
	}
	return flagged
}

// receivedOrCreated orders rows by received time, falling back to the row's
// creation time for manually curated rows that never came off the feed.
func receivedOrCreated(p domain.Property) time.Time {
	if p.ReceivedAt != nil {
		return *p.ReceivedAt
	}
	return p.CreatedAt
}
