package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"cabin-booking-backend/internal/booking"
	"cabin-booking-backend/internal/model"
)

// cabinResponse is a cabin enriched with its service ids and projected
// display status.
type cabinResponse struct {
	model.Cabin
	ServiceIDs    []int64    `json:"serviceIds"`
	NextAvailable *time.Time `json:"nextAvailable,omitempty"`
}

func (h *Handler) cabinResponse(c *gin.Context, cabin model.Cabin) cabinResponse {
	resp := cabinResponse{Cabin: cabin}
	resp.ServiceIDs = make([]int64, 0, len(cabin.Services))
	for _, svc := range cabin.Services {
		resp.ServiceIDs = append(resp.ServiceIDs, svc.ID)
	}

	// The reservation set only matters for Reserved cabins; maintenance and
	// availability are not date-driven, so the projector gets an empty slice.
	var active []model.Reservation
	if cabin.Status == model.StatusReserved {
		if rows, err := h.store.ActiveReservationsForCabin(c.Request.Context(), cabin.ID); err == nil {
			active = rows
		}
	}
	resp.NextAvailable = booking.ProjectStatus(cabin, active).NextAvailable
	return resp
}

// ListCabins handles GET /api/cabins.
func (h *Handler) ListCabins(c *gin.Context) {
	cabins, err := h.store.ListCabins(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := make([]cabinResponse, 0, len(cabins))
	for _, cabin := range cabins {
		responses = append(responses, h.cabinResponse(c, cabin))
	}
	c.JSON(http.StatusOK, responses)
}

// FilterCabins handles GET /api/cabins/filter. Partial or inverted date input
// deactivates the date filter rather than erroring; a superseded evaluation
// is reported so the client keeps its newer result.
func (h *Handler) FilterCabins(c *gin.Context) {
	filters := booking.Filters{
		Type:      c.Query("type"),
		StartDate: c.Query("start"),
		EndDate:   c.Query("end"),
	}
	if v := c.Query("min_capacity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min_capacity"})
			return
		}
		filters.MinCapacity = n
	}
	for _, raw := range c.QueryArray("service") {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service id"})
			return
		}
		filters.ServiceIDs = append(filters.ServiceIDs, id)
	}

	cabins, err := h.store.ListCabins(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	matched, err := h.filter.Apply(c.Request.Context(), cabins, filters)
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := make([]cabinResponse, 0, len(matched))
	for _, cabin := range matched {
		responses = append(responses, h.cabinResponse(c, cabin))
	}
	c.JSON(http.StatusOK, responses)
}

// CheckAvailability handles GET /api/cabins/{cabin_id}/availability.
func (h *Handler) CheckAvailability(c *gin.Context) {
	cabinID, err := strconv.ParseInt(c.Param("cabin_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cabin id"})
		return
	}

	r, err := booking.ParseDateRange(c.Query("start"), c.Query("end"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	available, err := h.ledger.Checker().IsAvailable(c.Request.Context(), cabinID, r)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cabinId": cabinID, "available": available})
}

// ListServices handles GET /api/services.
func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.store.ListServices(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, services)
}

type cabinRequest struct {
	Type        model.CabinType   `json:"type" binding:"required,oneof=Small Medium Large"`
	BasePrice   float64           `json:"basePrice" binding:"min=0"`
	Capacity    int               `json:"capacity" binding:"required,min=1"`
	Description string            `json:"description"`
	ImageURL    string            `json:"imageUrl"`
	Status      model.CabinStatus `json:"status" binding:"omitempty,oneof=Available Reserved UnderMaintenance"`
}

// CreateCabin handles POST /api/cabins (admin).
func (h *Handler) CreateCabin(c *gin.Context) {
	var req cabinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cabin := model.Cabin{
		Type:        req.Type,
		BasePrice:   req.BasePrice,
		Capacity:    req.Capacity,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Status:      req.Status,
	}
	if cabin.Status == "" {
		cabin.Status = model.StatusAvailable
	}

	if err := h.store.CreateCabin(c.Request.Context(), &cabin); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cabin)
}

// UpdateCabin handles PUT /api/cabins/{cabin_id} (admin).
func (h *Handler) UpdateCabin(c *gin.Context) {
	cabinID, err := strconv.ParseInt(c.Param("cabin_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cabin id"})
		return
	}

	var req cabinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cabin := model.Cabin{
		ID:          cabinID,
		Type:        req.Type,
		BasePrice:   req.BasePrice,
		Capacity:    req.Capacity,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Status:      req.Status,
	}
	// An update that omits status keeps the stored one; the ledger owns the
	// Available/Reserved transitions and an edit must not undo them.
	if cabin.Status == "" {
		current, err := h.store.CabinByID(c.Request.Context(), cabinID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		cabin.Status = current.Status
	}

	if err := h.store.UpdateCabin(c.Request.Context(), &cabin); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cabin)
}

// DeleteCabin handles DELETE /api/cabins/{cabin_id} (admin).
func (h *Handler) DeleteCabin(c *gin.Context) {
	cabinID, err := strconv.ParseInt(c.Param("cabin_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cabin id"})
		return
	}

	if err := h.store.DeleteCabin(c.Request.Context(), cabinID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type syncServicesRequest struct {
	ServiceIDs []int64 `json:"serviceIds"`
}

// SyncCabinServices handles PUT /api/cabins/{cabin_id}/services (admin):
// replaces the cabin's amenity set with the given service ids.
func (h *Handler) SyncCabinServices(c *gin.Context) {
	cabinID, err := strconv.ParseInt(c.Param("cabin_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cabin id"})
		return
	}

	var req syncServicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.SyncCabinServices(c.Request.Context(), cabinID, req.ServiceIDs); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
