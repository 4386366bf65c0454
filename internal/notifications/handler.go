package notifications

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborcrew/boatmarket/pkg/common"
	"github.com/harborcrew/boatmarket/pkg/logger"
)

// Handler exposes the owner notification endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the notification endpoints on the given router group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/owners/:owner_id/fraud-warnings", h.GetFraudWarnings)
	api.PUT("/notifications/:id/read", h.MarkAsRead)
}

func (h *Handler) GetFraudWarnings(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Param("owner_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid owner ID")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	warnings, total, err := h.service.GetOwnerFraudWarnings(c.Request.Context(), ownerID, limit, offset)
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("unable to list fraud warnings", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "Unable to list fraud warnings")
		return
	}

	common.SuccessResponse(c, gin.H{
		"warnings": warnings,
		"total":    total,
	})
}

func (h *Handler) MarkAsRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), id); err != nil {
		logger.WithContext(c.Request.Context()).Error("unable to mark notification read", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "Unable to mark notification as read")
		return
	}
	common.SuccessResponse(c, gin.H{"id": id, "is_read": true})
}
