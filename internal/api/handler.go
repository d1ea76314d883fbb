package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"repairdesk-backend/internal/notification"
	"repairdesk-backend/internal/store"
)

// Dispatcher hands lifecycle events to the notification worker pool.
type Dispatcher interface {
	Dispatch(event notification.Event)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	loc      *time.Location
	webpush  *webpush.Options
	notifier Dispatcher
}

// NewHandler creates a new API handler. loc is the business timezone used
// to interpret plain-date query parameters. notifier may be nil, in which
// case lifecycle events are not pushed.
func NewHandler(s store.Store, loc *time.Location, webpushOptions *webpush.Options, notifier Dispatcher) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		store:    s,
		loc:      loc,
		webpush:  webpushOptions,
		notifier: notifier,
	}
}

func (h *Handler) dispatch(event notification.Event) {
	if h.notifier != nil {
		h.notifier.Dispatch(event)
	}
}
