package api

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"loco-dispatcher/internal/dispatch"
	"loco-dispatcher/internal/parse"
)

var errBadRequest = errors.New("bad request")

// startOfDay truncates t to midnight UTC.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// queryTime reads an optional timestamp query parameter. Accepts RFC3339,
// a bare date, epoch milliseconds, or any import timestamp layout.
func queryTime(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil && len(raw) >= 10 {
		t := time.UnixMilli(ms).UTC()
		return &t, nil
	}
	t, err := parse.Timestamp(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s %q", errBadRequest, key, raw)
	}
	return &t, nil
}

// readWindow reads from/to, filling gaps from the defaults. The result may be
// empty or inverted.
func readWindow(c *gin.Context, defaultFrom, defaultTo time.Time) (dispatch.Interval, error) {
	from, err := queryTime(c, "from")
	if err != nil {
		return dispatch.Interval{}, err
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return dispatch.Interval{}, err
	}
	w := dispatch.Interval{Start: defaultFrom, End: defaultTo}
	if from != nil {
		w.Start = *from
	}
	if to != nil {
		w.End = *to
	}
	return w, nil
}

// queryWindow is readWindow for endpoints that need a non-empty window.
func queryWindow(c *gin.Context, defaultFrom, defaultTo time.Time) (dispatch.Interval, error) {
	w, err := readWindow(c, defaultFrom, defaultTo)
	if err != nil {
		return w, err
	}
	if !w.Valid() {
		return w, fmt.Errorf("%w: from must be before to", errBadRequest)
	}
	return w, nil
}

// graphWindow defaults to today UTC.
func (h *Handler) graphWindow(c *gin.Context) (dispatch.Interval, error) {
	day := startOfDay(h.now())
	return queryWindow(c, day, day.Add(24*time.Hour))
}

// efficiencyWindow defaults to the last seven days through the end of today.
// An empty or inverted window is passed through and reports zeros.
func (h *Handler) efficiencyWindow(c *gin.Context) (dispatch.Interval, error) {
	day := startOfDay(h.now())
	return readWindow(c, day.AddDate(0, 0, -7), day.Add(24*time.Hour))
}

func pathID(c *gin.Context, key string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(key), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", errBadRequest, key)
	}
	return id, nil
}
