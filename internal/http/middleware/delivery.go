// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements delivery deduplication for the webhook endpoints.
// External feeds retry aggressively on timeouts; when a caller supplies an
// Idempotency-Key header, a previously completed delivery with the same key
// on the same endpoint is acknowledged without reprocessing. The header is
// optional; deliveries without it are always processed.
//
// The middleware validates the header and stashes replay state in the Gin
// context; persistence is decoupled behind the narrow DeliveryLookup type.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header conveying a delivery key.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys used internally to stash delivery state.
const (
	ctxKeyDeliveryKey = "delivery.key"
	ctxKeyReplay      = "delivery.replay"
	ctxKeyRateBypass  = "rate.bypass"
)

// DeliveryKey returns the validated delivery key stored in the Gin context,
// with presence indicated by the second result.
func DeliveryKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyDeliveryKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether this request repeats a previously completed
// delivery. Handlers short-circuit to an acknowledgment when true.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// DeliveryOptions configures header validation for DeliveryValidator.
type DeliveryOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, a conservative
	// token pattern is used: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// DeliveryLookup answers whether a completed, still-valid delivery exists
// for (endpoint, key) at the given time. Errors are treated as "not found"
// so a flaky lookup never blocks normal processing.
type DeliveryLookup func(ctx context.Context, endpoint, key string, now time.Time) (exists bool, err error)

// DeliveryValidator validates the Idempotency-Key header (when present),
// stashes it, and marks replays so handlers can acknowledge without side
// effects and the rate limiter can wave the request through.
//
// Behavior:
//   - header absent: no-op.
//   - header invalid: 400 with the webhook {success:false} envelope.
//   - lookup hit: replay + rate-bypass flags set; processing continues into
//     the handler, which decides how to acknowledge.
func DeliveryValidator(opts DeliveryOptions, lookup DeliveryLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyDeliveryKey, key)

		if lookup != nil {
			endpoint := c.FullPath()
			now := time.Now().UTC()
			if exists, _ := lookup(c.Request.Context(), endpoint, key, now); exists {
				c.Set(ctxKeyReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}
