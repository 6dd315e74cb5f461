package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"loco-dispatcher/internal/importer"
	"loco-dispatcher/internal/metrics"
	"loco-dispatcher/internal/store"
)

type createAssignmentRequest struct {
	LocomotiveID int64    `json:"locomotive_id" binding:"required"`
	TrainID      int64    `json:"train_id" binding:"required"`
	ShoulderID   int64    `json:"shoulder_id" binding:"required"`
	StartTime    string   `json:"start_time" binding:"required"`
	EndTime      string   `json:"end_time" binding:"required"`
	Note         string   `json:"note"`
	DistanceKm   *float64 `json:"distance_km"`
}

// ListAssignments returns every assignment, newest first.
func (h *Handler) ListAssignments(c *gin.Context) {
	rows, err := h.store.Assignments(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// CreateAssignment classifies and stores a manually entered assignment.
// Overlaps are stored with status conflict and still answer 201.
func (h *Handler) CreateAssignment(c *gin.Context) {
	var req createAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := parseBodyTime("start_time", req.StartTime)
	if err != nil {
		abortWithError(c, err)
		return
	}
	end, err := parseBodyTime("end_time", req.EndTime)
	if err != nil {
		abortWithError(c, err)
		return
	}

	created, err := h.store.CreateAssignment(c.Request.Context(), store.NewAssignment{
		LocomotiveID: req.LocomotiveID,
		TrainID:      req.TrainID,
		ShoulderID:   req.ShoulderID,
		Start:        start,
		End:          end,
		Note:         req.Note,
		DistanceKm:   req.DistanceKm,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	metrics.IncAssignment("manual", string(created.Assignment.Status))
	if created.Classification.Conflict() && h.dispatcher != nil {
		h.dispatcher.Dispatch(created.Assignment.LocomotiveID)
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":              created.Assignment.ID,
		"status":          created.Assignment.Status,
		"conflict_reason": created.Assignment.ConflictReason,
		"conflicts_with":  created.Classification.ConflictsWith,
		"required_fuel":   created.Assignment.RequiredFuel,
	})
}

// parseBodyTime accepts RFC 3339 only. Spreadsheet layouts are for imports.
func parseBodyTime(field, raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s must be an ISO-8601 timestamp", errBadRequest, field)
}

// ListConflicts returns conflict assignments, optionally limited to a window.
func (h *Handler) ListConflicts(c *gin.Context) {
	from, err := queryTime(c, "from")
	if err != nil {
		abortWithError(c, err)
		return
	}
	to, err := queryTime(c, "to")
	if err != nil {
		abortWithError(c, err)
		return
	}

	rows, err := h.store.Conflicts(c.Request.Context(), from, to)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ImportAssignments accepts a multipart "file" upload (XLSX or CSV).
func (h *Handler) ImportAssignments(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	header, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}
	if header.Size == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "uploaded file is empty"})
		return
	}
	f, err := header.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	summary, err := h.importer.Import(c.Request.Context(), filepath.Base(header.Filename), f)
	switch {
	case errors.Is(err, importer.ErrEmpty), errors.Is(err, importer.ErrUnreadable):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
