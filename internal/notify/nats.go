package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/example/meeting-rooms/internal/application"
	"github.com/example/meeting-rooms/internal/config"
)

type natsConn interface {
	PublishMsg(msg *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// NATSPublisher publishes booking events on "<subject>.<event type>", for
// example meetings.bookings.booking.created.
type NATSPublisher struct {
	conn    natsConn
	subject string
	logger  *slog.Logger
}

// NewNATSPublisher connects to cfg.URL.
func NewNATSPublisher(cfg config.NATSConfig, logger *slog.Logger) (*NATSPublisher, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("notify: nats url is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name("meeting-rooms"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err, "component", "nats_publisher")
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("notify: connect to nats: %w", err)
	}
	return newNATSPublisher(conn, cfg.Subject, logger), nil
}

func newNATSPublisher(conn natsConn, subject string, logger *slog.Logger) *NATSPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if subject == "" {
		subject = "meetings.bookings"
	}
	return &NATSPublisher{conn: conn, subject: subject, logger: logger.With("component", "nats_publisher")}
}

// NotifyBooking implements application.BookingNotifier. It waits for the
// server to acknowledge the publish or for ctx to end.
func (p *NATSPublisher) NotifyBooking(ctx context.Context, event application.BookingEvent) error {
	data, err := json.Marshal(newPayload(event))
	if err != nil {
		return fmt.Errorf("encode booking event: %w", err)
	}
	msg := nats.NewMsg(p.subject + "." + string(event.Type))
	msg.Header.Set(headerEventType, string(event.Type))
	msg.Header.Set("room-id", strconv.FormatInt(event.Booking.RoomID, 10))
	msg.Data = data

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish booking event: %w", err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush booking event: %w", err)
	}
	p.logger.DebugContext(ctx, "booking event published", "event", event.Type, "subject", msg.Subject)
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
