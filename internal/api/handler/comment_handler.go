package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/pulse/pkg/response"
)

// ListComments returns a post's comments, newest first.
// @Summary List comments on a post
// @Tags comments
// @Param post_id path string true "post id"
// @Param page query int false "page" default(1)
// @Param page_size query int false "page size" default(20)
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/comments/post/{post_id} [get]
func (h *Handler) ListComments(c *gin.Context) {
	page, pageSize := pageParams(c)
	comments, err := h.content.ListComments(c.Request.Context(), c.Param("post_id"), page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "comments": comments})
}

type createCommentRequest struct {
	Content string `json:"content" binding:"required,notblank"`
}

// CreateComment attaches a comment to a post.
// @Summary Comment on a post
// @Tags comments
// @Param post_id path string true "post id"
// @Param request body createCommentRequest true "comment body"
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "idempotency key"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/comments/post/{post_id} [post]
func (h *Handler) CreateComment(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "comment content is required")
		return
	}
	comment, err := h.content.CreateComment(c.Request.Context(), user.ID, c.Param("post_id"), req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, comment)
}

// DeleteComment removes an owned comment from its post.
// @Summary Delete a comment
// @Tags comments
// @Param comment_id path string true "comment id"
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/comments/{comment_id} [delete]
func (h *Handler) DeleteComment(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if err := h.content.DeleteComment(c.Request.Context(), user.ID, c.Param("comment_id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
