package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"loco-dispatcher/internal/dispatch"
	"loco-dispatcher/internal/metrics"
	"loco-dispatcher/internal/model"
	"loco-dispatcher/internal/report"
)

type efficiencyRow struct {
	LocomotiveID      int64  `json:"locomotive_id"`
	LocomotiveNumber  string `json:"locomotive_number"`
	TotalRunHours     string `json:"total_run_hours"`
	TotalIdleHours    string `json:"total_idle_hours"`
	TotalServiceHours string `json:"total_service_hours"`
	EfficiencyPercent string `json:"efficiency_percent"`
}

type locoStats struct {
	Working int64 `json:"working"`
	Service int64 `json:"service"`
	Reserve int64 `json:"reserve"`
}

type kpiResponse struct {
	CompletedRate   float64   `json:"completed_rate"`
	FleetEfficiency string    `json:"fleet_efficiency"`
	BusiestLoco     string    `json:"busiest_loco"`
	IdlestLoco      string    `json:"idlest_loco"`
	ConflictCount   int64     `json:"conflict_count"`
	LocoStats       locoStats `json:"loco_stats"`
}

const notAvailable = "N/A"

// efficiencyReport loads the window's data and runs the aggregator.
func (h *Handler) efficiencyReport(c *gin.Context, window dispatch.Interval) ([]dispatch.Efficiency, error) {
	ctx := c.Request.Context()
	locos, err := h.store.Locomotives(ctx)
	if err != nil {
		return nil, err
	}
	views, err := h.store.AssignmentsInWindow(ctx, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	return dispatch.EfficiencyReport(window, locomotiveModels(locos), assignmentModels(views)), nil
}

// Efficiency returns per-locomotive utilisation, figures formatted to one decimal.
func (h *Handler) Efficiency(c *gin.Context) {
	window, err := h.efficiencyWindow(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	rows, err := h.efficiencyReport(c, window)
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]efficiencyRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, efficiencyRow{
			LocomotiveID:      r.LocomotiveID,
			LocomotiveNumber:  r.LocomotiveNumber,
			TotalRunHours:     report.Hours(r.RunMinutes),
			TotalIdleHours:    report.Hours(r.IdleMinutes),
			TotalServiceHours: report.Hours(r.ServiceMinutes),
			EfficiencyPercent: report.Percent(r.Percent),
		})
	}
	c.JSON(http.StatusOK, out)
}

// ExportEfficiency renders the efficiency report as an XLSX or PDF attachment.
func (h *Handler) ExportEfficiency(c *gin.Context) {
	format := report.Format(c.DefaultQuery("format", string(report.FormatXLSX)))
	if format.ContentType() == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported format %q", format)})
		return
	}
	window, err := h.efficiencyWindow(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	rows, err := h.efficiencyReport(c, window)
	if err != nil {
		abortWithError(c, err)
		return
	}

	data, err := report.Build(format, window, rows)
	metrics.IncExport(string(format), err)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename(window, format)))
	c.Data(http.StatusOK, format.ContentType(), data)
}

// KPIs summarises the fleet for the dashboard.
func (h *Handler) KPIs(c *gin.Context) {
	ctx := c.Request.Context()
	counts, err := h.store.DashboardCounts(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}
	work, err := h.store.LocomotiveWork(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}
	day := startOfDay(h.now())
	rows, err := h.efficiencyReport(c, dispatch.Interval{Start: day.AddDate(0, 0, -7), End: day.Add(24 * time.Hour)})
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := kpiResponse{
		FleetEfficiency: report.Percent(dispatch.FleetEfficiency(rows)),
		BusiestLoco:     notAvailable,
		IdlestLoco:      notAvailable,
		ConflictCount:   counts.ConflictAssignments,
		LocoStats: locoStats{
			Working: counts.LocomotivesByStatus[model.LocoEnroute],
			Service: counts.LocomotivesByStatus[model.LocoService],
			Reserve: counts.LocomotivesByStatus[model.LocoIdle],
		},
	}
	if counts.TotalAssignments > 0 {
		resp.CompletedRate = float64(counts.CompletedAssignments) / float64(counts.TotalAssignments) * 100
	}

	busiest, idlest := -1, -1
	for i, w := range work {
		if w.Assignments > 0 && (busiest < 0 || w.Assignments > work[busiest].Assignments) {
			busiest = i
		}
		if idlest < 0 || w.Worked < work[idlest].Worked {
			idlest = i
		}
	}
	if busiest >= 0 {
		resp.BusiestLoco = work[busiest].LocomotiveNumber
	}
	if idlest >= 0 {
		resp.IdlestLoco = work[idlest].LocomotiveNumber
	}
	c.JSON(http.StatusOK, resp)
}
