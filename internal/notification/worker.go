package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"loco-dispatcher/internal/metrics"
	"loco-dispatcher/internal/model"
	"loco-dispatcher/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Subscriptions is the part of the store the workers read and prune.
type Subscriptions interface {
	Subscribers(ctx context.Context, locomotiveID int64) ([]model.PushSubscription, error)
	Locomotive(ctx context.Context, id int64) (*store.LocomotiveView, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// Message is the JSON push payload for a conflict.
type Message struct {
	Title        string `json:"title"`
	Body         string `json:"body"`
	LocomotiveID int64  `json:"locomotive_id"`
}

// WorkerPool sends conflict notifications for locomotives.
type WorkerPool struct {
	size    int
	jobs    chan int64
	subs    Subscriptions
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, subs Subscriptions, webpushOptions *webpush.Options) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size*16),
		subs:    subs,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case locomotiveID := <-wp.jobs:
			wp.notifyConflict(ctx, locomotiveID)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a conflict notification. It never blocks the caller; when
// the queue is full the notification is dropped.
func (wp *WorkerPool) Dispatch(locomotiveID int64) {
	select {
	case wp.jobs <- locomotiveID:
	default:
		log.Printf("Notification queue full, dropping conflict notice for locomotive %d", locomotiveID)
	}
}

func (wp *WorkerPool) notifyConflict(ctx context.Context, locomotiveID int64) {
	subscriptions, err := wp.subs.Subscribers(ctx, locomotiveID)
	if err != nil {
		log.Printf("Error fetching subscriptions for locomotive %d: %v", locomotiveID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	label := fmt.Sprintf("#%d", locomotiveID)
	if loco, err := wp.subs.Locomotive(ctx, locomotiveID); err != nil {
		log.Printf("Error fetching locomotive %d: %v", locomotiveID, err)
	} else if loco.Number != "" {
		label = loco.Number
	}

	payload, err := json.Marshal(Message{
		Title:        "Assignment conflict",
		Body:         fmt.Sprintf("Locomotive %s has overlapping assignments", label),
		LocomotiveID: locomotiveID,
	})
	if err != nil {
		log.Printf("Error encoding notification for locomotive %d: %v", locomotiveID, err)
		return
	}

	log.Printf("Sending %d conflict notifications for locomotive %d", len(subscriptions), locomotiveID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		metrics.IncNotification(metrics.ResultError)
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		metrics.IncNotification(metrics.ResultExpired)
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.subs.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
		return
	}
	metrics.IncNotification(metrics.ResultSuccess)
}
