package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/apexcre/estate-backend/internal/domain"
	"github.com/apexcre/estate-backend/internal/services"
)

type fakeCatalog struct {
	items []domain.Property
	total int64
	one   *services.PropertyWithDetails

	gotFeatured bool
	gotPage     int
	gotPageSize int
}

func (f *fakeCatalog) ListPage(_ context.Context, featuredOnly bool, page, pageSize int) ([]domain.Property, int64, error) {
	f.gotFeatured, f.gotPage, f.gotPageSize = featuredOnly, page, pageSize
	return f.items, f.total, nil
}

func (f *fakeCatalog) Get(_ context.Context, id string) (*services.PropertyWithDetails, error) {
	if f.one == nil {
		return nil, services.ErrPropertyNotFound
	}
	return f.one, nil
}

func newAPIRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/properties", h.ListProperties)
	r.GET("/properties/:id", h.GetProperty)
	r.GET("/posts", h.ListPosts)
	r.GET("/posts/:slug", h.GetPost)
	return r
}

func TestListProperties_QueryPassthrough(t *testing.T) {
	cat := &fakeCatalog{items: []domain.Property{{ID: "p1"}}, total: 1}
	h := New(&stubIngest{}, &stubDetails{}, &stubSync{}, &stubDedup{}, cat, stubPosts{}, nil)
	r := newAPIRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/properties?page=3&page_size=5&featured=true", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !cat.gotFeatured || cat.gotPage != 3 || cat.gotPageSize != 5 {
		t.Fatalf("catalog got featured=%v page=%d size=%d", cat.gotFeatured, cat.gotPage, cat.gotPageSize)
	}
}

func TestListProperties_BadQueryFallsBack(t *testing.T) {
	cat := &fakeCatalog{}
	h := New(&stubIngest{}, &stubDetails{}, &stubSync{}, &stubDedup{}, cat, stubPosts{}, nil)
	r := newAPIRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/properties?page=banana", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if cat.gotPage != 1 || cat.gotPageSize != 20 {
		t.Fatalf("defaults not applied: page=%d size=%d", cat.gotPage, cat.gotPageSize)
	}
}

func TestGetProperty_NotFound(t *testing.T) {
	h := New(&stubIngest{}, &stubDetails{}, &stubSync{}, &stubDedup{}, &fakeCatalog{}, stubPosts{}, nil)
	r := newAPIRouter(h)

	w, body := doJSON(t, r, http.MethodGet, "/properties/ghost", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if body["code"] != ErrCodeNotFound {
		t.Fatalf("body = %v", body)
	}
}

func TestGetProperty_WithDetails(t *testing.T) {
	status := "Active"
	cat := &fakeCatalog{one: &services.PropertyWithDetails{
		Property: domain.Property{ID: "p9", Title: "Unit 9"},
		Details:  &domain.PropertyDetails{ID: "d1", PropertyID: "p9", Status: &status},
	}}
	h := New(&stubIngest{}, &stubDetails{}, &stubSync{}, &stubDedup{}, cat, stubPosts{}, nil)
	r := newAPIRouter(h)

	w, body := doJSON(t, r, http.MethodGet, "/properties/p9", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["id"] != "p9" {
		t.Fatalf("body = %v", body)
	}
	det, ok := body["details"].(map[string]any)
	if !ok || det["status"] != "Active" {
		t.Fatalf("details = %v", body["details"])
	}
}

func TestGetPost_NotFound(t *testing.T) {
	h := New(&stubIngest{}, &stubDetails{}, &stubSync{}, &stubDedup{}, &fakeCatalog{}, stubPosts{}, nil)
	r := newAPIRouter(h)

	w, body := doJSON(t, r, http.MethodGet, "/posts/missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if body["code"] != ErrCodeNotFound {
		t.Fatalf("body = %v", body)
	}
}
