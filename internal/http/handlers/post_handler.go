// Blog post handlers.
//
// Public reads:
//   - GET /posts         (published only, paged)
//   - GET /posts/{slug}  (published only)
//
// Admin mutations (X-API-Key gated at the router):
//   - POST   /admin/posts
//   - PUT    /admin/posts/{id}
//   - DELETE /admin/posts/{id}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apexcre/estate-backend/internal/domain"
	"github.com/apexcre/estate-backend/internal/services"
	"github.com/apexcre/estate-backend/internal/utils"
)

// PostRequest is the JSON payload for creating or updating a post.
type PostRequest struct {
	Title      string `json:"title" binding:"required" example:"Market update, Q3"`
	Slug       string `json:"slug,omitempty" example:"market-update-q3"`
	Excerpt    string `json:"excerpt,omitempty"`
	Body       string `json:"body" binding:"required"`
	CoverImage string `json:"cover_image,omitempty"`
	Published  bool   `json:"published"`
}

// PostListResponse is the paged blog index payload.
type PostListResponse struct {
	Items    []domain.Post `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

func (r PostRequest) input() services.PostInput {
	return services.PostInput{
		Title:      r.Title,
		Slug:       r.Slug,
		Excerpt:    r.Excerpt,
		Body:       r.Body,
		CoverImage: r.CoverImage,
		Published:  r.Published,
	}
}

// ListPosts godoc
// @ID          listPosts
// @Summary     List published blog posts
// @Tags        Posts
// @Produce     json
// @Param       page      query int false "Page number (1-based)" default(1)
// @Param       page_size query int false "Items per page"        default(20)
// @Success     200 {object} handlers.PostListResponse
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /posts [get]
func (h *Handlers) ListPosts(c *gin.Context) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	pageSize := utils.AtoiDefault(c.Query("page_size"), 20)

	items, total, err := h.posts.ListPage(c.Request.Context(), true, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list posts")
		return
	}
	ok(c, http.StatusOK, PostListResponse{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// GetPost godoc
// @ID          getPost
// @Summary     Read one published post by slug
// @Tags        Posts
// @Produce     json
// @Param       slug path string true "Post slug"
// @Success     200 {object} domain.Post
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /posts/{slug} [get]
func (h *Handlers) GetPost(c *gin.Context) {
	p, err := h.posts.GetBySlug(c.Request.Context(), c.Param("slug"), true)
	if errors.Is(err, services.ErrPostNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}

// CreatePost godoc
// @ID          createPost
// @Summary     Create a blog post
// @Tags        Posts
// @Accept      json
// @Produce     json
// @Param       X-API-Key header string true  "Admin API key"
// @Param       body      body   handlers.PostRequest true "Post payload"
// @Success     201 {object} domain.Post
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     409 {object} handlers.ErrorResponse "Slug already exists"
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /admin/posts [post]
func (h *Handlers) CreatePost(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title and body are required")
		return
	}
	p, err := h.posts.Create(c.Request.Context(), req.input())
	if err != nil {
		h.postError(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, p)
}

// UpdatePost godoc
// @ID          updatePost
// @Summary     Update a blog post
// @Tags        Posts
// @Accept      json
// @Produce     json
// @Param       X-API-Key header string true "Admin API key"
// @Param       id        path   string true "Post ID (UUID)" format(uuid)
// @Param       body      body   handlers.PostRequest true "Post payload"
// @Success     200 {object} domain.Post
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Failure     409 {object} handlers.ErrorResponse
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /admin/posts/{id} [put]
func (h *Handlers) UpdatePost(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title and body are required")
		return
	}
	p, err := h.posts.Update(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		h.postError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, p)
}

// DeletePost godoc
// @ID          deletePost
// @Summary     Delete a blog post
// @Tags        Posts
// @Produce     json
// @Param       X-API-Key header string true "Admin API key"
// @Param       id        path   string true "Post ID (UUID)" format(uuid)
// @Success     204 {string} string "No Content"
// @Failure     404 {object} handlers.ErrorResponse
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /admin/posts/{id} [delete]
func (h *Handlers) DeletePost(c *gin.Context) {
	err := h.posts.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, services.ErrPostNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

// postError maps post service sentinels onto HTTP results.
func (h *Handlers) postError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrPostNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
	case errors.Is(err, services.ErrEmptyPostTitle):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post title is empty")
	case errors.Is(err, services.ErrSlugTaken):
		fail(c, http.StatusConflict, ErrCodeConflict, "post slug already exists")
	default:
		fail(c, http.StatusInternalServerError, fallback, err.Error())
	}
}
