package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/pulse/internal/api/middleware"
	"github.com/d60-Lab/pulse/internal/service"
	"github.com/d60-Lab/pulse/pkg/response"
)

// Sync upserts the local record for the authenticated principal.
// @Summary Sync the authenticated user into the local store
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /api/v1/users/sync [post]
func (h *Handler) Sync(c *gin.Context) {
	user, created, err := h.users.Resolve(c.Request.Context(), middleware.PrincipalID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if created {
		response.Created(c, user)
		return
	}
	response.Success(c, user)
}

// Me returns the authenticated user's record.
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/users/me [get]
func (h *Handler) Me(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	response.Success(c, user)
}

// Profile returns a public profile by username.
// @Summary Public profile
// @Tags users
// @Param username path string true "username"
// @Produce json
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/users/profile/{username} [get]
func (h *Handler) Profile(c *gin.Context) {
	profile, err := h.users.Profile(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, profile)
}

// UpdateProfile edits profile fields; images arrive as multipart files.
// @Summary Update the authenticated user's profile
// @Tags users
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /api/v1/users/profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var in service.UpdateProfileInput
	for field, dst := range map[string]**string{
		"first_name": &in.FirstName,
		"last_name":  &in.LastName,
		"bio":        &in.Bio,
		"location":   &in.Location,
	} {
		if v, ok := c.GetPostForm(field); ok {
			val := v
			*dst = &val
		}
	}
	pic, err := formImage(c, "profile_picture")
	if err != nil {
		response.BadRequest(c, "unreadable profile picture")
		return
	}
	in.ProfilePicture = pic
	banner, err := formImage(c, "banner_image")
	if err != nil {
		response.BadRequest(c, "unreadable banner image")
		return
	}
	in.BannerImage = banner

	user, err := h.users.UpdateProfile(c.Request.Context(), middleware.PrincipalID(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, user)
}

// ToggleFollow follows or unfollows the target user.
// @Summary Toggle follow on a user
// @Tags users
// @Param user_id path string true "target user id"
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]bool}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/users/follow/{user_id} [post]
func (h *Handler) ToggleFollow(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	following, err := h.relations.ToggleFollow(c.Request.Context(), user.ID, c.Param("user_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"following": following})
}

// Following lists who a user follows.
// @Summary List followed users
// @Tags users
// @Param user_id path string true "user id"
// @Param page query int false "page" default(1)
// @Param page_size query int false "page size" default(20)
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/users/{user_id}/following [get]
func (h *Handler) Following(c *gin.Context) {
	page, pageSize := pageParams(c)
	list, err := h.relations.Following(c.Request.Context(), c.Param("user_id"), page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// Followers lists a user's followers.
// @Summary List followers
// @Tags users
// @Param user_id path string true "user id"
// @Param page query int false "page" default(1)
// @Param page_size query int false "page size" default(20)
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/users/{user_id}/followers [get]
func (h *Handler) Followers(c *gin.Context) {
	page, pageSize := pageParams(c)
	list, err := h.relations.Followers(c.Request.Context(), c.Param("user_id"), page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}
