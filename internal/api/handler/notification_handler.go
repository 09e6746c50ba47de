package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/pulse/pkg/response"
)

// ListNotifications returns the caller's notifications, newest first.
// @Summary List notifications
// @Tags notifications
// @Param page query int false "page" default(1)
// @Param page_size query int false "page size" default(20)
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)
	list, err := h.notifications.List(c.Request.Context(), user.ID, page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "notifications": list})
}

// DeleteNotification removes one of the caller's notifications.
// @Summary Delete a notification
// @Tags notifications
// @Param notification_id path string true "notification id"
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/notifications/{notification_id} [delete]
func (h *Handler) DeleteNotification(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if err := h.notifications.Delete(c.Request.Context(), user.ID, c.Param("notification_id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
