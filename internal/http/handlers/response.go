// Package handlers provides HTTP handler implementations for the public API
// and the webhook endpoints.
//
// Two response vocabularies coexist here on purpose. The webhook endpoints
// speak the envelope the external feed already integrates against:
//
//	{ "success": true,  "message": "..." }
//	{ "success": false, "message": "..." }   // caller mistakes (400/404)
//	{ "success": false, "error": "..." }     // server failures (500)
//
// The admin/public JSON API uses the structured envelope with a stable code
// and the request correlation id:
//
//	{ "request_id": "...", "code": "not_found", "message": "..." }
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apexcre/estate-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope for the non-webhook API.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
}

// WebhookResponse is the envelope returned by every webhook endpoint.
type WebhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty" example:"Processed 3 properties"`
	Error   string `json:"error,omitempty"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail(), for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// webhookOK acknowledges a webhook delivery. Extra pairs are merged into
// the envelope (syncId, deletedCount, property_id, ...).
func webhookOK(c *gin.Context, message string, extra gin.H) {
	body := gin.H{"success": true, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// webhookReject reports a caller mistake (missing address, empty payload)
// on a webhook endpoint.
func webhookReject(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// webhookError reports a server failure on a webhook endpoint. The
// underlying error message is included; the feed operators are the only
// audience and they need it for their retry tooling.
func webhookError(c *gin.Context, err error) {
	lg := middleware.LoggerFrom(c)
	lg.Error().Err(err).Msg("webhook error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}
