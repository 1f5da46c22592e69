// Package services – PostService
//
// This file implements the blog post use-cases backing the admin area and
// the public site. Posts are the only content here that a human edits
// directly; everything else flows in over webhooks.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/apexcre/estate-backend/internal/domain"
	"github.com/apexcre/estate-backend/internal/repo"
)

// PostInput carries the editable fields of a post. An empty Slug is derived
// from the title.
type PostInput struct {
	Title      string
	Slug       string
	Excerpt    string
	Body       string
	CoverImage string
	Published  bool
}

// PostService implements blog post management.
type PostService struct {
	// DB is the database handle used for all post operations.
	DB *gorm.DB
}

// Create inserts a new post. The slug must be unique; a collision yields
// ErrSlugTaken. Publishing at creation sets published_at.
func (s *PostService) Create(ctx context.Context, in PostInput) (*domain.Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrEmptyPostTitle
	}
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		return nil, ErrEmptyPostTitle
	}

	p := &domain.Post{
		ID:         uuid.NewString(),
		Slug:       slug,
		Title:      title,
		Excerpt:    in.Excerpt,
		Body:       in.Body,
		CoverImage: in.CoverImage,
		Published:  in.Published,
		CreatedAt:  time.Now().UTC(),
	}
	if in.Published {
		now := time.Now().UTC()
		p.PublishedAt = &now
	}
	if err := repo.CreatePost(ctx, s.DB, p); err != nil {
		if isDuplicate(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return p, nil
}

// Update overwrites the editable fields of an existing post. Transitioning
// to published stamps published_at; a post already published keeps its
// original timestamp.
func (s *PostService) Update(ctx context.Context, id string, in PostInput) (*domain.Post, error) {
	existing, err := repo.GetPost(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrEmptyPostTitle
	}
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = Slugify(title)
	}

	p := &domain.Post{
		Slug:        slug,
		Title:       title,
		Excerpt:     in.Excerpt,
		Body:        in.Body,
		CoverImage:  in.CoverImage,
		Published:   in.Published,
		PublishedAt: existing.PublishedAt,
	}
	if in.Published && existing.PublishedAt == nil {
		now := time.Now().UTC()
		p.PublishedAt = &now
	}
	if err := repo.UpdatePost(ctx, s.DB, id, p); err != nil {
		if isDuplicate(err) {
			return nil, ErrSlugTaken
		}
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return repo.GetPost(ctx, s.DB, id)
}

// Delete soft-deletes a post.
func (s *PostService) Delete(ctx context.Context, id string) error {
	err := repo.DeletePost(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrPostNotFound
	}
	return err
}

// GetBySlug returns one post. When publishedOnly is set (public site),
// drafts are reported as missing.
func (s *PostService) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*domain.Post, error) {
	p, err := repo.GetPostBySlug(ctx, s.DB, slug, publishedOnly)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	return p, err
}

// ListPage returns a page of posts plus the total for pagination metadata.
func (s *PostService) ListPage(ctx context.Context, publishedOnly bool, page, pageSize int) ([]domain.Post, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	total, err := repo.CountPosts(ctx, s.DB, publishedOnly)
	if err != nil {
		return nil, 0, err
	}
	posts, err := repo.ListPostsPage(ctx, s.DB, publishedOnly, (page-1)*pageSize, pageSize)
	return posts, total, err
}

// isDuplicate detects unique-constraint violations across drivers that may
// not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
