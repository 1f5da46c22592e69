// Package services defines the business logic for webhook ingestion,
// deduplication, sync runs, detail attachment, and blog posts. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed
// at the handler layer.
package services

import "errors"

// Webhook ingestion and sync errors.
var (
	// ErrMissingAddress is returned when a detail payload carries no address
	// and therefore cannot be correlated with any property.
	ErrMissingAddress = errors.New("missing address in property details payload")

	// ErrNoMatchingProperty is returned when a detail payload's address does
	// not match any existing property. The raw payload is still archived.
	ErrNoMatchingProperty = errors.New("no matching property found")

	// ErrNoValidProperties is returned when a sync payload contains no entry
	// with an address or title.
	ErrNoValidProperties = errors.New("no valid properties in payload")
)

// Blog post errors.
var (
	// ErrPostNotFound indicates the requested post does not exist or is not
	// visible to the caller (unpublished on the public site).
	ErrPostNotFound = errors.New("post not found")

	// ErrEmptyPostTitle is returned when a post is created or updated with
	// an empty title.
	ErrEmptyPostTitle = errors.New("post title is empty")

	// ErrSlugTaken is returned when the derived or supplied slug collides
	// with an existing post.
	ErrSlugTaken = errors.New("post slug already exists")
)
