// Package domain defines the core persistence models for the application.
package domain

import "time"

// WebhookDelivery records a processed webhook call keyed by (endpoint, key),
// where key is the caller-supplied Idempotency-Key header. It lets external
// systems retry a delivery safely: a replayed key is acknowledged without
// re-executing side effects until the record expires.
type WebhookDelivery struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	Endpoint  string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_delivery_endpoint_key,priority:1"`
	Key       string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_delivery_endpoint_key,priority:2"`
	Status    int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (WebhookDelivery) TableName() string { return "webhook_deliveries" }
