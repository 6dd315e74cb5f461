package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"loco-dispatcher/internal/model"
	"loco-dispatcher/internal/store"
)

type serviceRequest struct {
	StationID   int64             `json:"station_id"`
	ServiceType model.ServiceType `json:"service_type"`
}

// PerformService records a completed service for a locomotive.
func (h *Handler) PerformService(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		abortWithError(c, err)
		return
	}
	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.store.RecordService(c.Request.Context(), store.ServiceRequest{
		LocomotiveID: id,
		StationID:    req.StationID,
		Type:         req.ServiceType,
		At:           h.now(),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Service completed successfully", "service": entry})
}
