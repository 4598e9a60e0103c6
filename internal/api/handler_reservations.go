package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cabin-booking-backend/internal/booking"
	"cabin-booking-backend/internal/model"
)

type createReservationRequest struct {
	CabinID    int64   `json:"cabinId" binding:"required"`
	StartDate  string  `json:"startDate" binding:"required"`
	EndDate    string  `json:"endDate" binding:"required"`
	TotalPrice float64 `json:"totalPrice"`
}

type createReservationResponse struct {
	Reservation model.Reservation `json:"reservation"`
	Warning     string            `json:"warning,omitempty"`
}

// CreateReservation handles POST /api/reservations.
func (h *Handler) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := booking.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		abortWithError(c, err)
		return
	}

	result, err := h.ledger.CreateReservation(c.Request.Context(), session(c), req.CabinID, r, req.TotalPrice)
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := createReservationResponse{Reservation: result.Reservation}
	if result.Warning != nil {
		resp.Warning = result.Warning.Error()
	}
	c.JSON(http.StatusCreated, resp)
}

// ListReservations handles GET /api/reservations (admin): the full history,
// newest first, with the cabin embedded.
func (h *Handler) ListReservations(c *gin.Context) {
	reservations, err := h.store.ListReservations(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservations)
}

// CancelReservation handles POST /api/reservations/{reservation_id}/cancel
// (admin). Cancelling an already-cancelled reservation succeeds without
// changing anything.
func (h *Handler) CancelReservation(c *gin.Context) {
	reservationID, err := strconv.ParseInt(c.Param("reservation_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return
	}

	if err := h.ledger.CancelReservation(c.Request.Context(), reservationID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
