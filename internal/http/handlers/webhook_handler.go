// Webhook HTTP handlers.
//
// This file exposes the four endpoints the external listing feed posts to:
//   - POST /webhooks/receive-webhook           (property listings)
//   - POST /webhooks/receive-property-details  (extended attributes)
//   - POST /webhooks/sync-properties           (replace-all sync)
//   - GET|POST /webhooks/cleanup-duplicates    (on-demand dedup)
//
// Handlers are transport-thin: they read the raw body, hand interpretation
// to the payload package via the services, and translate service sentinels
// into the webhook envelope. Every endpoint answers OPTIONS preflight with
// 204 (handled by the CORS middleware on the webhook group).
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apexcre/estate-backend/internal/http/middleware"
	"github.com/apexcre/estate-backend/internal/payload"
	"github.com/apexcre/estate-backend/internal/services"
)

// decodeBody reads the request body and interprets it per Content-Type.
// Interpretation never fails; garbage degrades to an opaque raw wrapper
// that yields zero candidates downstream.
func decodeBody(c *gin.Context) (any, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	return payload.Parse(c.ContentType(), body), nil
}

// acknowledgeReplay serves a repeated delivery without side effects.
func acknowledgeReplay(c *gin.Context) bool {
	if !middleware.IsReplay(c) {
		return false
	}
	lg := middleware.LoggerFrom(c)
	lg.Info().Msg("duplicate webhook delivery acknowledged")
	webhookOK(c, "Duplicate delivery ignored", nil)
	return true
}

// recordDelivery persists the delivery key after successful processing so
// a retry of the same delivery is acknowledged instead of reprocessed.
func (h *Handlers) recordDelivery(c *gin.Context) {
	if h.record == nil {
		return
	}
	key, ok := middleware.DeliveryKey(c)
	if !ok {
		return
	}
	if err := h.record(c.Request.Context(), c.FullPath(), key, http.StatusOK); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("could not record webhook delivery")
	}
}

// ReceiveWebhook godoc
// @ID          receiveWebhook
// @Summary     Ingest property listings
// @Description Accepts one or many property objects (JSON or form-encoded), upserts them keyed by MLS id or address, and reconciles duplicates.
// @Tags        Webhooks
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header string false "Optional delivery key for safe retries"
// @Success     200 {object} handlers.WebhookResponse
// @Failure     500 {object} handlers.WebhookResponse
// @Router      /webhooks/receive-webhook [post]
func (h *Handlers) ReceiveWebhook(c *gin.Context) {
	if acknowledgeReplay(c) {
		return
	}
	v, err := decodeBody(c)
	if err != nil {
		webhookError(c, err)
		return
	}

	sum, err := h.ingest.Process(c.Request.Context(), v)
	if err != nil {
		webhookError(c, err)
		return
	}

	middleware.PropertiesUpserted.WithLabelValues("ingest").Add(float64(sum.Processed))
	h.recordDelivery(c)
	webhookOK(c, fmt.Sprintf("Processed %d of %d properties", sum.Processed, sum.Candidates), nil)
}

// ReceivePropertyDetails godoc
// @ID          receivePropertyDetails
// @Summary     Attach extended property details
// @Description Archives the raw payload, matches a property by address, and upserts its one-to-one details row.
// @Tags        Webhooks
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header string false "Optional delivery key for safe retries"
// @Success     200 {object} handlers.WebhookResponse
// @Failure     400 {object} handlers.WebhookResponse "Missing address"
// @Failure     404 {object} handlers.WebhookResponse "No matching property"
// @Failure     500 {object} handlers.WebhookResponse
// @Router      /webhooks/receive-property-details [post]
func (h *Handlers) ReceivePropertyDetails(c *gin.Context) {
	if acknowledgeReplay(c) {
		return
	}
	v, err := decodeBody(c)
	if err != nil {
		webhookError(c, err)
		return
	}

	res, err := h.details.Attach(c.Request.Context(), v)
	switch {
	case errors.Is(err, services.ErrMissingAddress):
		webhookReject(c, http.StatusBadRequest, "Missing address in property details payload")
		return
	case errors.Is(err, services.ErrNoMatchingProperty):
		webhookReject(c, http.StatusNotFound, "No matching property found for the provided address")
		return
	case err != nil:
		webhookError(c, err)
		return
	}

	h.recordDelivery(c)
	webhookOK(c, "Property details saved", gin.H{"property_id": res.PropertyID})
}

// SyncProperties godoc
// @ID          syncProperties
// @Summary     Replace-all property sync
// @Description Treats the payload as the full authoritative set of externally sourced listings: upserts every entry under a fresh sync id and deletes webhook-sourced rows absent from the set.
// @Tags        Webhooks
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header string false "Optional delivery key for safe retries"
// @Success     200 {object} handlers.WebhookResponse
// @Failure     400 {object} handlers.WebhookResponse "No valid properties"
// @Failure     500 {object} handlers.WebhookResponse
// @Router      /webhooks/sync-properties [post]
func (h *Handlers) SyncProperties(c *gin.Context) {
	if acknowledgeReplay(c) {
		return
	}
	v, err := decodeBody(c)
	if err != nil {
		webhookError(c, err)
		return
	}

	res, err := h.sync.Sync(c.Request.Context(), v)
	switch {
	case errors.Is(err, services.ErrNoValidProperties):
		webhookReject(c, http.StatusBadRequest, "No valid properties in payload")
		return
	case err != nil:
		webhookError(c, err)
		return
	}

	middleware.PropertiesUpserted.WithLabelValues("sync").Add(float64(res.Processed))
	h.recordDelivery(c)
	webhookOK(c, fmt.Sprintf("Synced %d properties", res.Processed), gin.H{
		"syncId":         res.SyncID,
		"deletedCount":   res.Deleted,
		"processedCount": res.Processed,
	})
}

// CleanupDuplicates godoc
// @ID          cleanupDuplicates
// @Summary     Remove duplicate properties
// @Description Runs the duplicate resolver across the whole table: per address and per MLS id, the earliest-received row survives.
// @Tags        Webhooks
// @Produce     json
// @Success     200 {object} handlers.WebhookResponse
// @Failure     500 {object} handlers.WebhookResponse
// @Router      /webhooks/cleanup-duplicates [post]
func (h *Handlers) CleanupDuplicates(c *gin.Context) {
	report, err := h.dedup.Run(c.Request.Context())
	if err != nil {
		webhookError(c, err)
		return
	}

	middleware.DuplicatesDeleted.Add(float64(report.Deleted))
	webhookOK(c, fmt.Sprintf("Removed %d duplicate properties", report.Deleted), nil)
}
