package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"loco-dispatcher/config"
	"loco-dispatcher/internal/store"
)

type fakeAdvancer struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (f *fakeAdvancer) AdvanceLifecycle(ctx context.Context, now time.Time) (store.LifecycleResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	if f.err != nil {
		return store.LifecycleResult{}, f.err
	}
	return store.LifecycleResult{Activated: 1}, nil
}

func (f *fakeAdvancer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestRunOnce_UsesUTCClock(t *testing.T) {
	adv := &fakeAdvancer{}
	svc := NewService(config.LifecycleConfig{Enabled: true, Interval: time.Hour}, adv)
	local := time.Date(2025, 3, 10, 12, 0, 0, 0, time.FixedZone("ALMT", 5*3600))
	svc.now = func() time.Time { return local }

	res := svc.RunOnce(context.Background())
	assert.Equal(t, store.LifecycleResult{Activated: 1}, res)
	if assert.Len(t, adv.calls, 1) {
		assert.Equal(t, time.UTC, adv.calls[0].Location())
		assert.True(t, local.Equal(adv.calls[0]))
	}
}

func TestRunOnce_Error(t *testing.T) {
	adv := &fakeAdvancer{err: errors.New("db down")}
	svc := NewService(config.LifecycleConfig{Enabled: true, Interval: time.Hour}, adv)

	assert.Equal(t, store.LifecycleResult{}, svc.RunOnce(context.Background()))
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	adv := &fakeAdvancer{}
	svc := NewService(config.LifecycleConfig{Enabled: true, Interval: 10 * time.Millisecond}, adv)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return adv.count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_Disabled(t *testing.T) {
	adv := &fakeAdvancer{}
	svc := NewService(config.LifecycleConfig{Enabled: false, Interval: time.Millisecond}, adv)

	svc.Run(context.Background())
	assert.Zero(t, adv.count())
}
