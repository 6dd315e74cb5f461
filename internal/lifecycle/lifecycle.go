// Package lifecycle periodically advances assignment and locomotive status
// from wall-clock time.
package lifecycle

import (
	"context"
	"log"
	"time"

	"loco-dispatcher/config"
	"loco-dispatcher/internal/metrics"
	"loco-dispatcher/internal/store"
)

// Advancer is the store operation the service drives.
type Advancer interface {
	AdvanceLifecycle(ctx context.Context, now time.Time) (store.LifecycleResult, error)
}

// Service runs lifecycle passes on a timer.
type Service struct {
	cfg   config.LifecycleConfig
	store Advancer
	now   func() time.Time
}

// NewService creates a lifecycle service.
func NewService(cfg config.LifecycleConfig, s Advancer) *Service {
	return &Service{cfg: cfg, store: s, now: time.Now}
}

// Run executes a pass immediately and then every configured interval until
// ctx is done.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Println("Lifecycle updater is disabled. Not starting.")
		return
	}
	log.Println("Starting lifecycle updater...")

	s.RunOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Lifecycle updater shutting down.")
			return
		case <-timer.C:
			s.RunOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// RunOnce performs a single pass. Failures are logged and retried on the next tick.
func (s *Service) RunOnce(ctx context.Context) store.LifecycleResult {
	res, err := s.store.AdvanceLifecycle(ctx, s.now().UTC())
	if err != nil {
		log.Printf("Lifecycle pass failed: %v", err)
		return res
	}
	metrics.AddLifecycle(res.Activated, res.Completed, res.Enroute, res.Idled)
	if res != (store.LifecycleResult{}) {
		log.Printf("Lifecycle pass: %d activated, %d completed, %d locomotives enroute, %d idled",
			res.Activated, res.Completed, res.Enroute, res.Idled)
	}
	return res
}
