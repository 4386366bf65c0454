package cancellation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborcrew/boatmarket/pkg/common"
	"github.com/harborcrew/boatmarket/pkg/logger"
	"github.com/harborcrew/boatmarket/pkg/validation"
)

// Handler exposes the booking cancellation endpoint.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the cancellation endpoint on the given router group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.PUT("/bookings/:id/cancel", h.CancelBooking)
}

func (h *Handler) CancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid booking ID")
		return
	}

	var req CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		var verr *validation.ValidationError
		if errors.As(err, &verr) {
			common.ErrorResponse(c, http.StatusBadRequest, verr.Error())
			return
		}
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Cancel(c.Request.Context(), bookingID, req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, ErrBookingNotFound):
			common.ErrorResponse(c, http.StatusNotFound, "Booking not found")
		case errors.Is(err, ErrAlreadyCancelled):
			common.ErrorResponse(c, http.StatusConflict, "Booking is already cancelled")
		default:
			logger.WithContext(c.Request.Context()).Error("unable to cancel booking",
				zap.String("booking_id", bookingID.String()), zap.Error(err))
			common.ErrorResponse(c, http.StatusInternalServerError, "Unable to cancel booking")
		}
		return
	}

	common.SuccessResponse(c, result)
}
