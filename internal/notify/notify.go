// Package notify delivers booking events by email, to a Kafka topic or to
// NATS subjects.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/meeting-rooms/internal/application"
	"github.com/example/meeting-rooms/internal/config"
	"github.com/example/meeting-rooms/internal/timezone"
)

// Notifier is an application.BookingNotifier that owns resources.
type Notifier interface {
	application.BookingNotifier
	Close() error
}

// New builds the notifier selected by cfg.Provider. Unknown providers fall
// back to Noop.
func New(cfg config.NotifyConfig, zone timezone.Normalizer, logger *slog.Logger) (Notifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case config.NotifySES:
		mailer, err := NewSESMailer(cfg.SES, zone, logger)
		if err != nil {
			return nil, err
		}
		return mailer, nil
	case config.NotifyKafka:
		publisher, err := NewKafkaPublisher(cfg.Kafka, logger)
		if err != nil {
			return nil, err
		}
		return publisher, nil
	case config.NotifyNATS:
		publisher, err := NewNATSPublisher(cfg.NATS, logger)
		if err != nil {
			return nil, err
		}
		return publisher, nil
	case config.NotifyNoop, "":
		return Noop{logger: logger}, nil
	default:
		logger.Warn("unknown notification provider, using noop", "provider", cfg.Provider)
		return Noop{logger: logger}, nil
	}
}

// Noop logs events and drops them.
type Noop struct {
	logger *slog.Logger
}

// NotifyBooking implements application.BookingNotifier.
func (n Noop) NotifyBooking(ctx context.Context, event application.BookingEvent) error {
	if n.logger != nil {
		n.logger.DebugContext(ctx, "booking event dropped", "event", event.Type, "booking_id", event.Booking.ID)
	}
	return nil
}

// Close implements Notifier.
func (Noop) Close() error { return nil }

// eventPayload is the wire form of a booking event.
type eventPayload struct {
	Type        string    `json:"type"`
	BookingID   int64     `json:"booking_id"`
	Title       string    `json:"title"`
	RoomID      int64     `json:"room_id"`
	RoomName    string    `json:"room_name"`
	OrganizerID int64     `json:"organizer_id"`
	Organizer   string    `json:"organizer"`
	Start       time.Time `json:"start_time"`
	End         time.Time `json:"end_time"`
	ActorID     int64     `json:"actor_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func newPayload(event application.BookingEvent) eventPayload {
	b := event.Booking
	return eventPayload{
		Type:        string(event.Type),
		BookingID:   b.ID,
		Title:       b.Title,
		RoomID:      b.RoomID,
		RoomName:    b.RoomName,
		OrganizerID: b.OrganizerID,
		Organizer:   b.OrganizerUsername,
		Start:       b.Start.UTC(),
		End:         b.End.UTC(),
		ActorID:     event.ActorID,
		OccurredAt:  event.OccurredAt.UTC(),
	}
}

func describe(event application.BookingEvent, zone timezone.Normalizer) (subject, body string) {
	b := event.Booking
	var verb string
	switch event.Type {
	case application.BookingCreated:
		verb = "booked"
	case application.BookingUpdated:
		verb = "updated"
	case application.BookingDeleted:
		verb = "cancelled"
	default:
		verb = string(event.Type)
	}
	const layout = "2006-01-02 15:04"
	subject = fmt.Sprintf("Meeting %s: %s", verb, b.Title)
	body = fmt.Sprintf("%s\n\nRoom: %s\nFrom: %s\nTo:   %s (%s)\n",
		subject,
		b.RoomName,
		zone.In(b.Start).Format(layout),
		zone.In(b.End).Format(layout),
		zone.Name(),
	)
	return subject, body
}
