package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"loco-dispatcher/internal/dispatch"
	"loco-dispatcher/internal/importer"
	"loco-dispatcher/internal/store"
)

// Dispatcher queues a conflict notification for a locomotive.
type Dispatcher interface {
	Dispatch(locomotiveID int64)
}

// Options are the non-store dependencies of the handlers. Zero values are usable.
type Options struct {
	Rules          dispatch.Rules
	Dispatcher     Dispatcher
	WebPush        *webpush.Options
	MaxUploadBytes int64
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	rules      dispatch.Rules
	importer   *importer.Service
	dispatcher Dispatcher
	webpush    *webpush.Options
	maxUpload  int64
	now        func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, opts Options) *Handler {
	if opts.Rules == (dispatch.Rules{}) {
		opts.Rules = dispatch.DefaultRules
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 16 << 20
	}
	var d importer.Dispatcher
	if opts.Dispatcher != nil {
		d = opts.Dispatcher
	}
	return &Handler{
		store:      s,
		rules:      opts.Rules,
		importer:   importer.NewService(s, d),
		dispatcher: opts.Dispatcher,
		webpush:    opts.WebPush,
		maxUpload:  opts.MaxUploadBytes,
		now:        time.Now,
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// abortWithError maps store and validation errors onto HTTP statuses.
func abortWithError(c *gin.Context, err error) {
	var nf *store.NotFoundError
	switch {
	case errors.As(err, &nf):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, dispatch.ErrShoulderNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrInvalidInterval), errors.Is(err, store.ErrValidation), errors.Is(err, errBadRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
