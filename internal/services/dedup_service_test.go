package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/apexcre/estate-backend/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

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
		&domain.Post{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedProperty(t *testing.T, db *gorm.DB, id, address string, mls *string, received time.Time) {
	t.Helper()
	rcv := received
	p := &domain.Property{
		ID:         id,
		Title:      "T " + id,
		Address:    address,
		Type:       "Other",
		Featured:   true,
		MLS:        mls,
		ReceivedAt: &rcv,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed property %s: %v", id, err)
	}
}

func TestDedup_EarliestByAddressSurvives(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	seedProperty(t, db, "p2", "1 Main St", nil, base.Add(2*time.Hour))
	seedProperty(t, db, "p1", "1 Main St", nil, base)
	seedProperty(t, db, "p3", "1 Main St", nil, base.Add(time.Hour))
	seedProperty(t, db, "p4", "2 Side St", nil, base)

	svc := &DedupService{DB: db}
	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Scanned != 4 || report.Deleted != 2 {
		t.Fatalf("report = %+v", report)
	}

	var left []domain.Property
	if err := db.Order("id asc").Find(&left).Error; err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(left) != 2 || left[0].ID != "p1" || left[1].ID != "p4" {
		t.Fatalf("survivors = %v", left)
	}
}

func TestDedup_MLSPartitionIndependent(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	mls := "MLS-7"

	// Different addresses, same MLS id: still duplicates.
	seedProperty(t, db, "a", "1 North Rd", &mls, base)
	seedProperty(t, db, "b", "1 North Road", &mls, base.Add(time.Minute))

	svc := &DedupService{DB: db}
	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Deleted != 1 {
		t.Fatalf("deleted = %d", report.Deleted)
	}

	var left domain.Property
	if err := db.First(&left).Error; err != nil {
		t.Fatalf("survivor: %v", err)
	}
	if left.ID != "a" {
		t.Fatalf("survivor = %s", left.ID)
	}
}

func TestDedup_TieBreaksOnID(t *testing.T) {
	db := newTestDB(t)
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	seedProperty(t, db, "zz", "5 Quay", nil, at)
	seedProperty(t, db, "aa", "5 Quay", nil, at)

	svc := &DedupService{DB: db}
	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	var left domain.Property
	if err := db.First(&left).Error; err != nil {
		t.Fatalf("survivor: %v", err)
	}
	if left.ID != "aa" {
		t.Fatalf("tie should keep lowest id, got %s", left.ID)
	}
}

func TestDedup_NullMLSNeverGroups(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	// Distinct addresses, both without MLS: nothing to collapse.
	seedProperty(t, db, "x1", "10 East", nil, base)
	seedProperty(t, db, "x2", "11 East", nil, base)

	svc := &DedupService{DB: db}
	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Deleted != 0 {
		t.Fatalf("deleted = %d", report.Deleted)
	}
}

func TestDedup_SecondRunDeletesNothing(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	seedProperty(t, db, "d1", "3 Park Ln", nil, base)
	seedProperty(t, db, "d2", "3 Park Ln", nil, base.Add(time.Minute))

	svc := &DedupService{DB: db}
	first, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Deleted != 1 {
		t.Fatalf("first deleted = %d", first.Deleted)
	}

	second, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Deleted != 0 {
		t.Fatalf("second run must be a no-op, deleted = %d", second.Deleted)
	}
}

func TestDedup_ManualRowOrderedByCreatedAt(t *testing.T) {
	db := newTestDB(t)

	// Manual row (null received_at) created before the feed row: it wins.
	manual := &domain.Property{ID: "m1", Title: "Manual", Address: "7 Hill", Type: "Other", Featured: true}
	if err := db.Create(manual).Error; err != nil {
		t.Fatalf("seed manual: %v", err)
	}
	seedProperty(t, db, "w1", "7 Hill", nil, time.Now().UTC().Add(time.Hour))

	svc := &DedupService{DB: db}
	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	var left domain.Property
	if err := db.First(&left).Error; err != nil {
		t.Fatalf("survivor: %v", err)
	}
	if left.ID != "m1" {
		t.Fatalf("survivor = %s", left.ID)
	}
}
