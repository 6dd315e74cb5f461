package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListStations returns every station.
func (h *Handler) ListStations(c *gin.Context) {
	stations, err := h.store.Stations(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stations)
}

// ListTrains returns every train.
func (h *Handler) ListTrains(c *gin.Context) {
	trains, err := h.store.Trains(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, trains)
}

// ListShoulders returns every shoulder with its station names.
func (h *Handler) ListShoulders(c *gin.Context) {
	shoulders, err := h.store.Shoulders(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, shoulders)
}

// ListLocomotives returns every locomotive with its current station name.
func (h *Handler) ListLocomotives(c *gin.Context) {
	locos, err := h.store.Locomotives(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, locos)
}

// GetLocomotive returns one locomotive.
func (h *Handler) GetLocomotive(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		abortWithError(c, err)
		return
	}
	loco, err := h.store.Locomotive(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, loco)
}
