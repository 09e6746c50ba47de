package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/pulse/internal/service"
	"github.com/d60-Lab/pulse/pkg/response"
)

// ListPosts returns the global feed, newest first.
// @Summary List posts
// @Tags posts
// @Param page query int false "page" default(1)
// @Param page_size query int false "page size" default(20)
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	page, pageSize := pageParams(c)
	posts, err := h.content.ListPosts(c.Request.Context(), page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "posts": posts})
}

// GetPost returns one post with author, likes and comments.
// @Summary Get a post
// @Tags posts
// @Param post_id path string true "post id"
// @Produce json
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{post_id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.content.GetPost(c.Request.Context(), c.Param("post_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, post)
}

// ListUserPosts returns one author's posts, newest first.
// @Summary List a user's posts
// @Tags posts
// @Param username path string true "username"
// @Param page query int false "page" default(1)
// @Param page_size query int false "page size" default(20)
// @Produce json
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/user/{username} [get]
func (h *Handler) ListUserPosts(c *gin.Context) {
	page, pageSize := pageParams(c)
	posts, err := h.content.ListUserPosts(c.Request.Context(), c.Param("username"), page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "posts": posts})
}

type createPostJSON struct {
	Content string `json:"content"`
}

// CreatePost creates a post from multipart form data (text and/or image) or
// a plain JSON body when no image is attached.
// @Summary Create a post
// @Tags posts
// @Accept mpfd
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "idempotency key"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /api/v1/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var in service.CreatePostInput
	if c.ContentType() == "application/json" {
		var body createPostJSON
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		in.Content = body.Content
	} else {
		in.Content = c.PostForm("content")
		img, err := formImage(c, "image")
		if err != nil {
			response.BadRequest(c, "unreadable image upload")
			return
		}
		in.Image = img
	}

	post, err := h.content.CreatePost(c.Request.Context(), user.ID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, post)
}

// ToggleLike likes or unlikes a post.
// @Summary Toggle like on a post
// @Tags posts
// @Param post_id path string true "post id"
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]bool}
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{post_id}/like [post]
func (h *Handler) ToggleLike(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	liked, err := h.engagement.ToggleLike(c.Request.Context(), user.ID, c.Param("post_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"liked": liked})
}

// DeletePost removes an owned post and all of its comments.
// @Summary Delete a post
// @Tags posts
// @Param post_id path string true "post id"
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{post_id} [delete]
func (h *Handler) DeletePost(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if err := h.content.DeletePost(c.Request.Context(), user.ID, c.Param("post_id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
