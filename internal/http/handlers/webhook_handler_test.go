package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/apexcre/estate-backend/internal/domain"
	"github.com/apexcre/estate-backend/internal/http/middleware"
	"github.com/apexcre/estate-backend/internal/services"
)

// ---------- stubs ----------

type stubIngest struct {
	sum  services.IngestSummary
	err  error
	seen any
}

func (s *stubIngest) Process(_ context.Context, v any) (services.IngestSummary, error) {
	s.seen = v
	return s.sum, s.err
}

type stubDetails struct {
	res services.AttachResult
	err error
}

func (s *stubDetails) Attach(context.Context, any) (services.AttachResult, error) {
	return s.res, s.err
}

type stubSync struct {
	res services.SyncResult
	err error
}

func (s *stubSync) Sync(context.Context, any) (services.SyncResult, error) {
	return s.res, s.err
}

type stubDedup struct {
	report services.DedupReport
	err    error
}

func (s *stubDedup) Run(context.Context) (services.DedupReport, error) {
	return s.report, s.err
}

type stubCatalog struct{}

func (stubCatalog) ListPage(context.Context, bool, int, int) ([]domain.Property, int64, error) {
	return nil, 0, nil
}
func (stubCatalog) Get(context.Context, string) (*services.PropertyWithDetails, error) {
	return nil, services.ErrPropertyNotFound
}

type stubPosts struct{}

func (stubPosts) Create(context.Context, services.PostInput) (*domain.Post, error) {
	return nil, nil
}
func (stubPosts) Update(context.Context, string, services.PostInput) (*domain.Post, error) {
	return nil, services.ErrPostNotFound
}
func (stubPosts) Delete(context.Context, string) error { return services.ErrPostNotFound }
func (stubPosts) GetBySlug(context.Context, string, bool) (*domain.Post, error) {
	return nil, services.ErrPostNotFound
}
func (stubPosts) ListPage(context.Context, bool, int, int) ([]domain.Post, int64, error) {
	return nil, 0, nil
}

func newWebhookRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	wh := r.Group("/webhooks")
	wh.POST("/receive-webhook", h.ReceiveWebhook)
	wh.POST("/receive-property-details", h.ReceivePropertyDetails)
	wh.POST("/sync-properties", h.SyncProperties)
	wh.POST("/cleanup-duplicates", h.CleanupDuplicates)
	wh.GET("/cleanup-duplicates", h.CleanupDuplicates)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body == "" {
		rd = bytes.NewReader(nil)
	} else {
		rd = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if strings.Contains(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, out
}

// ---------- receive-webhook ----------

func TestReceiveWebhook_Success(t *testing.T) {
	ing := &stubIngest{sum: services.IngestSummary{Candidates: 3, Processed: 2, Skipped: 1}}
	h := New(ing, &stubDetails{}, &stubSync{}, &stubDedup{}, stubCatalog{}, stubPosts{}, nil)
	r := newWebhookRouter(h)

	w, body := doJSON(t, r, http.MethodPost, "/webhooks/receive-webhook", `{"properties":[]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if body["success"] != true {
		t.Fatalf("success = %v", body["success"])
	}
	if body["message"] != "Processed 2 of 3 properties" {
		t.Fatalf("message = %v", body["message"])
	}
	if ing.seen == nil {
		t.Fatal("decoded payload not passed to the service")
	}
}

func TestReceiveWebhook_ServiceError(t *testing.T) {
	ing := &stubIngest{err: errors.New("store exploded")}
	h := New(ing, &stubDetails{}, &stubSync{}, &stubDedup{}, stubCatalog{}, stubPosts{}, nil)
	r := newWebhookRouter(h)

	w, body := doJSON(t, r, http.MethodPost, "/webhooks/receive-webhook", `{}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if body["success"] != false || body["error"] != "store exploded" {
		t.Fatalf("body = %v", body)
	}
	if _, hasMsg := body["message"]; hasMsg {
		t.Fatal("500 envelope carries error, not message")
	}
}

func TestReceiveWebhook_MalformedBodyStillOK(t *testing.T) {
	ing := &stubIngest{sum: services.IngestSummary{Candidates: 1, Skipped: 1}}
	h := New(ing, &stubDetails{}, &stubSync{}, &stubDedup{}, stubCatalog{}, stubPosts{}, nil)
	r := newWebhookRouter(h)

	w, body := doJSON(t, r, http.MethodPost, "/webhooks/receive-webhook", `{"broken`)
	if w.Code != http.StatusOK {
		t.Fatalf("malformed JSON must degrade, status = %d", w.Code)
	}
	if body["success"] != true {
		t.Fatalf("body = %v", body)
	}
	m, ok := ing.seen.(map[string]any)
	if !ok || m["raw"] != `{"broken` {
		t.Fatalf("service should see the raw wrapper, got %v", ing.seen)
	}
}

// ---------- receive-property-details ----------

func TestReceiveDetails_StatusMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"missing address", services.ErrMissingAddress, http.StatusBadRequest, "Missing address in property details payload"},
		{"no match", services.ErrNoMatchingProperty, http.StatusNotFound, "No matching property found for the provided address"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := New(&stubIngest{}, &stubDetails{err: tc.err}, &stubSync{}, &stubDedup{}, stubCatalog{}, stubPosts{}, nil)
			r := newWebhookRouter(h)

			w, body := doJSON(t, r, http.MethodPost, "/webhooks/receive-property-details", `{}`)
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d", w.Code, tc.status)
			}
			if body["success"] != false || body["message"] != tc.message {
				t.Fatalf("body = %v", body)
			}
		})
	}
}

func TestReceiveDetails_Success(t *testing.T) {
	h := New(&stubIngest{}, &stubDetails{res: services.AttachResult{PropertyID: "p1", Created: true}},
		&stubSync{}, &stubDedup{}, stubCatalog{}, stubPosts{}, nil)
	r := newWebhookRouter(h)

	w, body := doJSON(t, r, http.MethodPost, "/webhooks/receive-property-details", `{"propertyDetails":{"address":"x"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["property_id"] != "p1" {
		t.Fatalf("body = %v", body)
	}
}

// ---------- sync-properties ----------

func TestSyncProperties_Success(t *testing.T) {
	h := New(&stubIngest{}, &stubDetails{},
		&stubSync{res: services.SyncResult{SyncID: "s-1", Processed: 4, Deleted: 2}},
		&stubDedup{}, stubCatalog{}, stubPosts{}, nil)
	r := newWebhookRouter(h)

	w, body := doJSON(t, r, http.MethodPost, "/webhooks/sync-properties", `{"properties":[]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["syncId"] != "s-1" {
		t.Fatalf("syncId = %v", body["syncId"])
	}
	if body["processedCount"] != float64(4) || body["deletedCount"] != float64(2) {
		t.Fatalf("counts = %v / %v", body["processedCount"], body["deletedCount"])
	}
}

func TestSyncProperties_NoValidProperties(t *testing.T) {
	h := New(&stubIngest{}, &stubDetails{}, &stubSync{err: services.ErrNoValidProperties},
		&stubDedup{}, stubCatalog{}, stubPosts{}, nil)
	r := newWebhookRouter(h)

	w, body := doJSON(t, r, http.MethodPost, "/webhooks/sync-properties", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if body["message"] != "No valid properties in payload" {
		t.Fatalf("body = %v", body)
	}
}

// ---------- cleanup-duplicates ----------

func TestCleanupDuplicates_BothMethods(t *testing.T) {
	h := New(&stubIngest{}, &stubDetails{}, &stubSync{},
		&stubDedup{report: services.DedupReport{Scanned: 10, Deleted: 3}},
		stubCatalog{}, stubPosts{}, nil)
	r := newWebhookRouter(h)

	for _, method := range []string{http.MethodPost, http.MethodGet} {
		w, body := doJSON(t, r, method, "/webhooks/cleanup-duplicates", "")
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d", method, w.Code)
		}
		if body["message"] != "Removed 3 duplicate properties" {
			t.Fatalf("%s body = %v", method, body)
		}
	}
}

func TestCleanupDuplicates_Error(t *testing.T) {
	h := New(&stubIngest{}, &stubDetails{}, &stubSync{},
		&stubDedup{err: errors.New("scan failed")}, stubCatalog{}, stubPosts{}, nil)
	r := newWebhookRouter(h)

	w, body := doJSON(t, r, http.MethodPost, "/webhooks/cleanup-duplicates", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if body["error"] != "scan failed" {
		t.Fatalf("body = %v", body)
	}
}
