// Package domain defines the persistence models for properties, property
// details, webhook archives, sync operations, and blog posts. These types are
// mapped with GORM and form the core data layer of the estate backend.
package domain

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Property represents a single real-estate listing. Rows arrive either from
// the external webhook feed or from manual curation in the admin area.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Title/Address/Type/Size/Price/ImageURL/Description: listing attributes
//     as received; free text, no validation beyond normalization defaults.
//   - Featured: whether the listing is highlighted on the public site.
//   - MLS: optional external Multiple Listing Service identifier. Nullable;
//     when present it is the preferred matching key for upserts.
//   - ReceivedAt: when the listing was last received from the webhook feed.
//     Null means the row was created manually and is never touched by sync
//     deletion.
//   - LastSyncID: identifier of the sync run that last wrote this row.
//
// At most one live row should exist per distinct address and per distinct
// MLS id. That invariant is procedural (see services.DedupService), not a
// database constraint, so transient duplicates can exist between writes.
type Property struct {
	ID          string     `json:"id"          gorm:"type:char(36);primaryKey"`
	Title       string     `json:"title"       gorm:"type:varchar(255);not null;default:'Untitled Property'"`
	Address     string     `json:"address"     gorm:"type:varchar(255);not null;index:idx_properties_address"`
	Type        string     `json:"type"        gorm:"type:varchar(64);not null;default:'Other'"`
	Size        string     `json:"size"        gorm:"type:varchar(64)"`
	Price       string     `json:"price"       gorm:"type:varchar(64)"`
	ImageURL    string     `json:"image_url"   gorm:"type:text"`
	Description string     `json:"description" gorm:"type:text"`
	Featured    bool       `json:"featured"    gorm:"not null;default:true"`
	MLS         *string    `json:"mls,omitempty"          gorm:"type:varchar(64);index:idx_properties_mls"`
	ReceivedAt  *time.Time `json:"received_at,omitempty"  gorm:"index"`
	LastSyncID  *string    `json:"last_sync_id,omitempty" gorm:"type:char(36)"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Property.
func (Property) TableName() string { return "properties" }

// PropertyDetails holds the extended attributes for exactly one Property.
// Detail payloads correlate by the property's address string on write, but
// the stored link is the property id. Zero or one row per property.
type PropertyDetails struct {
	ID           string    `json:"id"           gorm:"type:char(36);primaryKey"`
	PropertyID   string    `json:"property_id"  gorm:"type:char(36);not null;uniqueIndex:ux_details_property"`
	ListPrice    *string   `json:"list_price,omitempty"     gorm:"type:varchar(64)"`
	PricePerSqft *string   `json:"price_per_sqft,omitempty" gorm:"type:varchar(64)"`
	Status       *string   `json:"status,omitempty"         gorm:"type:varchar(64)"`
	PropertySize *string   `json:"property_size,omitempty"  gorm:"type:varchar(64)"`
	LandSize     *string   `json:"land_size,omitempty"      gorm:"type:varchar(64)"`
	Rooms        Rooms     `json:"rooms,omitempty"          gorm:"type:text"`
	Remarks      *string   `json:"remarks,omitempty"        gorm:"type:text"`
	ListingBy    *string   `json:"listing_by,omitempty"     gorm:"type:varchar(255)"`
	VirtualTour  *string   `json:"virtual_tour,omitempty"   gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Property is the parent listing. Details are cascade-deleted when the
	// listing is removed (by dedup or sync).
	Property Property `json:"-" gorm:"foreignKey:PropertyID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for PropertyDetails.
func (PropertyDetails) TableName() string { return "property_details" }

// WebhookPropertyDetailsLog is the append-only archive of every raw detail
// payload received, whether or not it matched a property. Only the Processed
// flag is ever mutated after insert.
type WebhookPropertyDetailsLog struct {
	ID         string         `json:"id"          gorm:"type:char(36);primaryKey"`
	Payload    datatypes.JSON `json:"payload"     gorm:"not null"`
	Processed  bool           `json:"processed"   gorm:"not null;default:false"`
	ReceivedAt time.Time      `json:"received_at" gorm:"index"`
}

// TableName returns the database table name for WebhookPropertyDetailsLog.
func (WebhookPropertyDetailsLog) TableName() string { return "webhook_property_details" }

// SyncOperation records one replace-all sync run. Rows are created once per
// run and never updated or deleted; the ID doubles as the tag written onto
// every property the run touched.
type SyncOperation struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	Source        string    `json:"source"         gorm:"type:varchar(64);not null"`
	StartedAt     time.Time `json:"started_at"     gorm:"index"`
	PropertyCount int       `json:"property_count" gorm:"not null"`
}

// TableName returns the database table name for SyncOperation.
func (SyncOperation) TableName() string { return "sync_operations" }

// Post is a blog article managed from the admin area and rendered on the
// public site. Slugs are unique among live posts; deletion is soft so a
// removed article can be restored.
type Post struct {
	ID          string         `json:"id"          gorm:"type:char(36);primaryKey"`
	Slug        string         `json:"slug"        gorm:"type:varchar(255);not null;uniqueIndex:ux_posts_slug"`
	Title       string         `json:"title"       gorm:"type:varchar(255);not null"`
	Excerpt     string         `json:"excerpt"     gorm:"type:text"`
	Body        string         `json:"body"        gorm:"type:text;not null"`
	CoverImage  string         `json:"cover_image" gorm:"type:text"`
	Published   bool           `json:"published"   gorm:"not null;default:false;index"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string { return "posts" }
