package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/apexcre/estate-backend/internal/domain"
)

func TestSync_NoValidProperties(t *testing.T) {
	db := newTestDB(t)
	svc := &SyncService{DB: db}

	_, err := svc.Sync(context.Background(), map[string]any{"properties": []any{
		map[string]any{"price": "100"}, // no identity
	}})
	if !errors.Is(err, ErrNoValidProperties) {
		t.Fatalf("expected ErrNoValidProperties, got %v", err)
	}

	// Nothing recorded: the marker is only written for runs that proceed.
	var ops int64
	db.Model(&domain.SyncOperation{}).Count(&ops)
	if ops != 0 {
		t.Fatalf("sync operations = %d", ops)
	}
}

func TestSync_ReplacesWebhookRows(t *testing.T) {
	db := newTestDB(t)
	svc := &SyncService{DB: db, Source: "feed"}
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	// Pre-existing webhook rows: one survives the sync (same address), one is stale.
	seedProperty(t, db, "keep", "1 Harbour Way", nil, base)
	seedProperty(t, db, "stale", "2 Harbour Way", nil, base)

	res, err := svc.Sync(context.Background(), map[string]any{"properties": []any{
		map[string]any{"title": "Harbour Unit 1", "address": "1 Harbour Way"},
		map[string]any{"title": "Harbour Unit 3", "address": "3 Harbour Way"},
	}})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.SyncID == "" {
		t.Fatal("sync id must be set")
	}
	if res.Processed != 2 {
		t.Fatalf("processed = %d", res.Processed)
	}
	if res.Deleted != 1 {
		t.Fatalf("deleted = %d", res.Deleted)
	}

	var rows []domain.Property
	db.Order("address asc").Find(&rows)
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	for _, p := range rows {
		if p.LastSyncID == nil || *p.LastSyncID != res.SyncID {
			t.Fatalf("row %s not stamped with sync id: %+v", p.ID, p)
		}
	}
	if rows[0].ID != "keep" {
		t.Fatalf("matched row should update in place, got id %s", rows[0].ID)
	}
}

func TestSync_ManualRowsUntouched(t *testing.T) {
	db := newTestDB(t)
	svc := &SyncService{DB: db}

	// Manual row: null received_at, never part of the feed.
	manual := &domain.Property{ID: "m1", Title: "Hand curated", Address: "99 Private Dr", Type: "Other", Featured: true}
	if err := db.Create(manual).Error; err != nil {
		t.Fatalf("seed manual: %v", err)
	}

	res, err := svc.Sync(context.Background(), map[string]any{"properties": []any{
		map[string]any{"title": "Feed Unit", "address": "1 Feed St"},
	}})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Deleted != 0 {
		t.Fatalf("manual rows must never be deleted, deleted = %d", res.Deleted)
	}

	var count int64
	db.Model(&domain.Property{}).Count(&count)
	if count != 2 {
		t.Fatalf("rows = %d", count)
	}
}

func TestSync_PartialFailureStillSucceeds(t *testing.T) {
	db := newTestDB(t)
	svc := &SyncService{DB: db}

	// Manual row the payload also names; its update is forced to fail so
	// one entry of three errors mid-run.
	manual := &domain.Property{ID: "m1", Title: "Corner Shop", Address: "13 Jinx Ave", Type: "Other", Featured: true}
	if err := db.Create(manual).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	err := db.Callback().Update().Before("gorm:update").Register("fail_jinx_update", func(tx *gorm.DB) {
		if p, ok := tx.Statement.Dest.(*domain.Property); ok && p.Address == "13 Jinx Ave" {
			tx.AddError(errors.New("storage offline"))
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	res, err := svc.Sync(context.Background(), map[string]any{"properties": []any{
		map[string]any{"title": "A", "address": "1 A St"},
		map[string]any{"title": "Jinxed", "address": "13 Jinx Ave"},
		map[string]any{"title": "B", "address": "2 B St"},
	}})
	if err != nil {
		t.Fatalf("per-row failures must not fail the run: %v", err)
	}
	if res.Processed != 3 {
		t.Fatalf("processed = %d", res.Processed)
	}
	if res.Deleted != 0 {
		t.Fatalf("deleted = %d", res.Deleted)
	}

	// The failing row keeps its prior state: old title, no sync stamp.
	var got domain.Property
	if err := db.First(&got, "id = ?", "m1").Error; err != nil {
		t.Fatalf("row: %v", err)
	}
	if got.Title != "Corner Shop" || got.LastSyncID != nil || got.ReceivedAt != nil {
		t.Fatalf("failed row changed: %+v", got)
	}

	var count int64
	db.Model(&domain.Property{}).Count(&count)
	if count != 3 {
		t.Fatalf("rows = %d", count)
	}
}

func TestSync_RecordsOperation(t *testing.T) {
	db := newTestDB(t)
	svc := &SyncService{DB: db}

	res, err := svc.Sync(context.Background(), []any{
		map[string]any{"title": "A", "address": "1 A St"},
		map[string]any{"title": "B", "address": "2 B St"},
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	var op domain.SyncOperation
	if err := db.First(&op, "id = ?", res.SyncID).Error; err != nil {
		t.Fatalf("operation row: %v", err)
	}
	if op.Source != "webhook" {
		t.Fatalf("default source = %q", op.Source)
	}
	if op.PropertyCount != 2 {
		t.Fatalf("property count = %d", op.PropertyCount)
	}
}

func TestSync_RerunIsStable(t *testing.T) {
	db := newTestDB(t)
	svc := &SyncService{DB: db}

	set := map[string]any{"properties": []any{
		map[string]any{"title": "A", "address": "1 A St"},
		map[string]any{"title": "B", "address": "2 B St"},
	}}

	if _, err := svc.Sync(context.Background(), set); err != nil {
		t.Fatalf("first: %v", err)
	}
	res, err := svc.Sync(context.Background(), set)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if res.Deleted != 0 {
		t.Fatalf("identical set must delete nothing, deleted = %d", res.Deleted)
	}

	var count int64
	db.Model(&domain.Property{}).Count(&count)
	if count != 2 {
		t.Fatalf("rows = %d", count)
	}
}
