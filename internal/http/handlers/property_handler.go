// Property read handlers.
//
// The public site renders listings straight from these endpoints:
//   - GET /properties        (paged, optional featured filter)
//   - GET /properties/{id}   (single listing with details)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apexcre/estate-backend/internal/domain"
	"github.com/apexcre/estate-backend/internal/services"
	"github.com/apexcre/estate-backend/internal/sysutil"
	"github.com/apexcre/estate-backend/internal/utils"
)

// PropertyListResponse is the paged listing payload for the public site.
type PropertyListResponse struct {
	Items    []domain.Property `json:"items"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// ListProperties godoc
// @ID          listProperties
// @Summary     List property listings
// @Tags        Properties
// @Produce     json
// @Param       page      query int    false "Page number (1-based)"  default(1)
// @Param       page_size query int    false "Items per page"         default(20)
// @Param       featured  query bool   false "Only featured listings"
// @Success     200 {object} handlers.PropertyListResponse
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /properties [get]
func (h *Handlers) ListProperties(c *gin.Context) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	pageSize := utils.AtoiDefault(c.Query("page_size"), 20)
	featured := sysutil.IsTruthy(c.Query("featured"))

	items, total, err := h.catalog.ListPage(c.Request.Context(), featured, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list properties")
		return
	}
	ok(c, http.StatusOK, PropertyListResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// GetProperty godoc
// @ID          getProperty
// @Summary     Get one property with details
// @Tags        Properties
// @Produce     json
// @Param       id path string true "Property ID (UUID)" format(uuid)
// @Success     200 {object} services.PropertyWithDetails
// @Failure     404 {object} handlers.ErrorResponse
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /properties/{id} [get]
func (h *Handlers) GetProperty(c *gin.Context) {
	p, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, services.ErrPropertyNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "property not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}
