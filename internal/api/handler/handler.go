package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/pulse/internal/api/middleware"
	"github.com/d60-Lab/pulse/internal/imagestore"
	"github.com/d60-Lab/pulse/internal/model"
	"github.com/d60-Lab/pulse/internal/service"
	"github.com/d60-Lab/pulse/pkg/logger"
	"github.com/d60-Lab/pulse/pkg/response"
)

// Handler bundles the domain services behind the HTTP surface.
type Handler struct {
	users         service.UserService
	relations     service.RelationshipService
	engagement    service.EngagementService
	content       service.ContentService
	notifications service.NotificationService
}

func New(
	users service.UserService,
	relations service.RelationshipService,
	engagement service.EngagementService,
	content service.ContentService,
	notifications service.NotificationService,
) *Handler {
	return &Handler{
		users:         users,
		relations:     relations,
		engagement:    engagement,
		content:       content,
		notifications: notifications,
	}
}

// currentUser resolves the authenticated principal to its local user record.
// A principal that never called sync gets a 404, matching the resolver
// contract.
func (h *Handler) currentUser(c *gin.Context) (*model.User, bool) {
	u, err := h.users.Current(c.Request.Context(), middleware.PrincipalID(c))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return u, true
}

// fail maps the service error taxonomy onto HTTP status classes.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalid):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrUpstream):
		logger.Warn("upstream dependency failed", zap.Error(err))
		response.BadGateway(c, "upstream service failed")
	default:
		logger.Error("request failed", zap.Error(err), zap.String("path", c.FullPath()))
		response.InternalError(c, err)
	}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}

// formImage pulls an optional image file out of a multipart form. Absence is
// not an error; unreadable payloads are.
func formImage(c *gin.Context, field string) (*imagestore.Image, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	return readImage(fh)
}

func readImage(fh *multipart.FileHeader) (*imagestore.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &imagestore.Image{Data: data, ContentType: contentType}, nil
}
