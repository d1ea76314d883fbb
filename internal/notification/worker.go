package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"repairdesk-backend/internal/model"
)

// EventKind names a lifecycle change worth telling the customer about.
type EventKind string

const (
	EventRequestAccepted EventKind = "request_accepted"
	EventRequestRejected EventKind = "request_rejected"
	EventRepairCompleted EventKind = "repair_completed"
)

// Event is one unit of work for the pool: notify every subscriber of the
// given repair request about a lifecycle change.
type Event struct {
	RequestID int64
	Kind      EventKind
}

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Event
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Event, size),
		db:      db,
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
	log.Printf("notification worker %d started", id)
	for {
		select {
		case event := <-wp.jobs:
			wp.notifySubscribers(ctx, event)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends a job to the worker pool.
func (wp *WorkerPool) Dispatch(event Event) {
	wp.jobs <- event
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Event {
	return wp.jobs
}

// notifySubscribers fetches the subscriptions attached to the request and
// pushes the event message to each of them.
func (wp *WorkerPool) notifySubscribers(ctx context.Context, event Event) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_request_mapping srm ON srm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("srm.repair_request_id = ?", event.RequestID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("error fetching subscriptions for request %d: %v", event.RequestID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	label := fmt.Sprintf("#%d", event.RequestID)
	var request model.RepairRequest
	if err := wp.db.WithContext(ctx).
		Select("device_info").
		First(&request, event.RequestID).Error; err != nil {
		log.Printf("error fetching request %d: %v", event.RequestID, err)
	} else if request.DeviceInfo != "" {
		label = fmt.Sprintf("#%d (%s)", event.RequestID, request.DeviceInfo)
	}

	var message string
	switch event.Kind {
	case EventRequestAccepted:
		message = fmt.Sprintf("Your repair request %s has been accepted.", label)
	case EventRequestRejected:
		message = fmt.Sprintf("Your repair request %s has been declined.", label)
	case EventRepairCompleted:
		message = fmt.Sprintf("The repair for request %s is complete and ready for pickup.", label)
	default:
		message = fmt.Sprintf("Your repair request %s has been updated.", label)
	}

	log.Printf("sending %d notifications for request %d", len(subscriptions), event.RequestID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification, pruning the
// subscription if the push service reports it gone.
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
		log.Printf("error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("subscription for endpoint %s is expired, deleting", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
