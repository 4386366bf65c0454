package fraud

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborcrew/boatmarket/pkg/common"
	"github.com/harborcrew/boatmarket/pkg/logger"
)

// Handler exposes the fraud detection HTTP endpoints.
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the fraud endpoints on the given router group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	fraud := api.Group("/fraud")
	{
		fraud.POST("/check", h.CheckFraud)
		fraud.GET("/flagged", h.GetFlaggedProfiles)
		fraud.GET("/statistics", h.GetStatistics)
		fraud.GET("/profiles/:user_id", h.GetProfile)
		fraud.GET("/profiles/:user_id/cancellations", h.GetCancellations)
		fraud.GET("/profiles/:user_id/analysis", h.AnalyzeUser)
	}
}

// CheckFraudRequest scores either a stored user or an ad hoc feature vector.
type CheckFraudRequest struct {
	UserID   string         `json:"user_id,omitempty"`
	Features *FeatureVector `json:"features,omitempty"`
}

// CheckFraud runs fraud detection and always answers 200; detection itself
// never fails, only input parsing can.
func (h *Handler) CheckFraud(c *gin.Context) {
	var req CheckFraudRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.UserID != "" {
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid user ID")
			return
		}
		verdict, err := h.service.ScoreUser(c.Request.Context(), userID)
		if err != nil {
			logger.WithContext(c.Request.Context()).Error("unable to score user", zap.Error(err))
			common.ErrorResponse(c, http.StatusInternalServerError, "Unable to run fraud check")
			return
		}
		common.SuccessResponse(c, verdict)
		return
	}

	if req.Features == nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Either user_id or features is required")
		return
	}
	verdict := h.service.DetectFraud(c.Request.Context(), *req.Features)
	common.SuccessResponse(c, verdict)
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "No fraud profile found for this user")
			return
		}
		logger.WithContext(c.Request.Context()).Error("unable to load fraud profile", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "Unable to load fraud profile")
		return
	}
	common.SuccessResponse(c, profile)
}

func (h *Handler) GetCancellations(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	records, err := h.service.GetCancellations(c.Request.Context(), userID, limit)
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("unable to load cancellations", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "Unable to load cancellation history")
		return
	}
	common.SuccessResponse(c, records)
}

func (h *Handler) AnalyzeUser(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	analysis, err := h.service.AnalyzeUserBehavior(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "No fraud profile found for this user")
			return
		}
		logger.WithContext(c.Request.Context()).Error("unable to analyze user behavior", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "Unable to analyze user behavior")
		return
	}
	common.SuccessResponse(c, analysis)
}

func (h *Handler) GetFlaggedProfiles(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	profiles, err := h.service.GetFlaggedProfiles(c.Request.Context(), limit, offset)
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("unable to list flagged profiles", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "Unable to list flagged profiles")
		return
	}
	common.SuccessResponse(c, profiles)
}

func (h *Handler) GetStatistics(c *gin.Context) {
	stats, err := h.service.GetStatistics(c.Request.Context())
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("unable to load fraud statistics", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "Unable to load fraud statistics")
		return
	}
	common.SuccessResponse(c, stats)
}

func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid user ID")
		return uuid.Nil, false
	}
	return userID, true
}
