package application

import (
	"context"
	"io"
	"time"
)

// BookingEventType names a booking lifecycle change.
type BookingEventType string

const (
	BookingCreated BookingEventType = "booking.created"
	BookingUpdated BookingEventType = "booking.updated"
	BookingDeleted BookingEventType = "booking.deleted"
)

// BookingEvent is published after a booking change has been committed.
type BookingEvent struct {
	Type       BookingEventType
	Booking    Booking
	ActorID    int64
	OccurredAt time.Time
}

// BookingNotifier delivers booking events. Delivery failures never undo the
// change that produced the event.
type BookingNotifier interface {
	NotifyBooking(ctx context.Context, event BookingEvent) error
}

// BlobStore holds uploaded minutes documents.
type BlobStore interface {
	Save(ctx context.Context, upload Upload) (Attachment, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
