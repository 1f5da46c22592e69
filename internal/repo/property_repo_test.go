package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/apexcre/estate-backend/internal/domain"
)

func newRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(
		&domain.Property{},
		&domain.PropertyDetails{},
		&domain.WebhookPropertyDetailsLog{},
		&domain.SyncOperation{},
		&domain.WebhookDelivery{},
		&domain.Post{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func mkProperty(t *testing.T, db *gorm.DB, id, address string, received *time.Time, syncID *string) {
	t.Helper()
	p := &domain.Property{
		ID: id, Title: "t", Address: address, Type: "Other", Featured: true,
		ReceivedAt: received, LastSyncID: syncID,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestUpdateProperty_OverwritesZeroValues(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	mls := "MLS-1"

	mkProperty(t, db, "p1", "1 Main", &now, nil)
	db.Model(&domain.Property{}).Where("id = ?", "p1").Updates(map[string]any{
		"mls": mls, "description": "old", "featured": true,
	})

	// New payload clears description and featured, drops mls.
	err := UpdateProperty(ctx, db, "p1", &domain.Property{
		Title: "t2", Address: "1 Main", Type: "Other",
		Featured: false, MLS: nil, ReceivedAt: &now,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	var p domain.Property
	if err := db.First(&p, "id = ?", "p1").Error; err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Featured {
		t.Fatal("featured=false must overwrite")
	}
	if p.MLS != nil {
		t.Fatalf("mls must be cleared, got %v", *p.MLS)
	}
	if p.Description != "" {
		t.Fatalf("description must be cleared, got %q", p.Description)
	}
}

func TestUpdateProperty_MissingRow(t *testing.T) {
	db := newRepoDB(t)
	err := UpdateProperty(context.Background(), db, "ghost", &domain.Property{Title: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePropertiesByID_EmptyIsNoop(t *testing.T) {
	db := newRepoDB(t)
	n, err := DeletePropertiesByID(context.Background(), db, nil)
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestDeleteStaleSynced(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	current := "sync-current"
	old := "sync-old"

	mkProperty(t, db, "manual", "1 A", nil, nil)           // manual, survives
	mkProperty(t, db, "fresh", "2 A", &now, &current)      // current run, survives
	mkProperty(t, db, "stale1", "3 A", &now, &old)         // old run, deleted
	mkProperty(t, db, "stale2", "4 A", &now, nil)          // never synced, deleted
	deleted, err := DeleteStaleSynced(ctx, db, current)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d", deleted)
	}

	var ids []string
	db.Model(&domain.Property{}).Order("id asc").Pluck("id", &ids)
	if len(ids) != 2 || ids[0] != "fresh" || ids[1] != "manual" {
		t.Fatalf("survivors = %v", ids)
	}
}

func TestFirstPropertyByAddress_ExactMatchOnly(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	mkProperty(t, db, "p1", "12 Wharf Rd", &now, nil)

	p, err := FirstPropertyByAddress(ctx, db, "12 Wharf Rd")
	if err != nil || p.ID != "p1" {
		t.Fatalf("p=%v err=%v", p, err)
	}

	// Case and whitespace differences do not match; correlation is exact.
	if _, err := FirstPropertyByAddress(ctx, db, "12 wharf rd"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for case mismatch, got %v", err)
	}
}

func TestDeliveryRecords(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := GetDelivery(ctx, db, "/webhooks/receive-webhook", "k1", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := CreateDelivery(ctx, db, "/webhooks/receive-webhook", "k1", 200, time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}
	rec, err := GetDelivery(ctx, db, "/webhooks/receive-webhook", "k1", now)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != 200 {
		t.Fatalf("status = %d", rec.Status)
	}

	// Same key on another endpoint is distinct.
	if _, err := CreateDelivery(ctx, db, "/webhooks/sync-properties", "k1", 200, time.Hour); err != nil {
		t.Fatalf("other endpoint: %v", err)
	}

	// Re-inserting the same tuple reports duplicate.
	if _, err := CreateDelivery(ctx, db, "/webhooks/receive-webhook", "k1", 200, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Expired records behave as missing.
	if _, err := CreateDelivery(ctx, db, "/webhooks/receive-webhook", "k2", 200, -time.Hour); err != nil {
		t.Fatalf("expired create: %v", err)
	}
	if _, err := GetDelivery(ctx, db, "/webhooks/receive-webhook", "k2", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired, got %v", err)
	}
}

func TestWebhookArchive(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	rec, err := ArchiveWebhookPayload(ctx, db, []byte(`{"address":"x"}`))
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if rec.Processed {
		t.Fatal("archive rows start unprocessed")
	}
	if err := MarkWebhookPayloadProcessed(ctx, db, rec.ID); err != nil {
		t.Fatalf("mark: %v", err)
	}

	var got domain.WebhookPropertyDetailsLog
	if err := db.First(&got, "id = ?", rec.ID).Error; err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Processed {
		t.Fatal("processed flag not persisted")
	}

	if _, err := ArchiveWebhookPayload(ctx, db, nil); err == nil {
		t.Fatal("empty payload must error")
	}
}
