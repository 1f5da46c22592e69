// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Post model.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/apexcre/estate-backend/internal/domain"
)

// CreatePost inserts a new blog post.
func CreatePost(ctx context.Context, db *gorm.DB, p *domain.Post) error {
	return db.WithContext(ctx).Create(p).Error
}

// GetPost fetches a post by id, or ErrNotFound.
func GetPost(ctx context.Context, db *gorm.DB, id string) (*domain.Post, error) {
	var p domain.Post
	if err := db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPostBySlug fetches a post by slug. When publishedOnly is set (the
// public site), draft posts behave as missing.
func GetPostBySlug(ctx context.Context, db *gorm.DB, slug string, publishedOnly bool) (*domain.Post, error) {
	q := db.WithContext(ctx).Where("slug = ?", slug)
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	var p domain.Post
	if err := q.First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CountPosts returns the number of posts, optionally restricted to
// published ones.
func CountPosts(ctx context.Context, db *gorm.DB, publishedOnly bool) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Post{})
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListPostsPage returns a page of posts, newest first.
func ListPostsPage(ctx context.Context, db *gorm.DB, publishedOnly bool, offset, limit int) ([]domain.Post, error) {
	q := db.WithContext(ctx).Order("created_at desc")
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	var out []domain.Post
	err := q.Offset(offset).Limit(limit).Find(&out).Error
	return out, err
}

// UpdatePost overwrites the editable fields of a post. Returns ErrNotFound
// when the id does not exist.
func UpdatePost(ctx context.Context, db *gorm.DB, id string, p *domain.Post) error {
	res := db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ?", id).
		Select("slug", "title", "excerpt", "body", "cover_image", "published", "published_at").
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeletePost soft-deletes a post. Returns ErrNotFound when nothing matched.
func DeletePost(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
