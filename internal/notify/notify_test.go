package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/meeting-rooms/internal/application"
	"github.com/example/meeting-rooms/internal/config"
	"github.com/example/meeting-rooms/internal/timezone"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func sampleEvent(eventType application.BookingEventType, email string) application.BookingEvent {
	return application.BookingEvent{
		Type: eventType,
		Booking: application.Booking{
			ID:                9,
			Title:             "Planning",
			RoomID:            3,
			RoomName:          "Atrium",
			OrganizerID:       1,
			OrganizerUsername: "alice",
			OrganizerEmail:    email,
			Start:             time.Date(2024, 6, 3, 7, 0, 0, 0, time.UTC),
			End:               time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC),
		},
		ActorID:    1,
		OccurredAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

type sesStub struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (s *sesStub) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	s.inputs = append(s.inputs, params)
	if s.err != nil {
		return nil, s.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESMailer_NotifyBooking(t *testing.T) {
	zone := timezone.MustNew("Africa/Nairobi")
	cfg := config.SESConfig{FromAddress: "rooms@example.com", FromName: "Meeting Rooms"}

	t.Run("emails the organizer", func(t *testing.T) {
		client := &sesStub{}
		mailer := newSESMailer(client, cfg, zone, quietLogger)

		require.NoError(t, mailer.NotifyBooking(context.Background(), sampleEvent(application.BookingCreated, "alice@example.com")))
		require.Len(t, client.inputs, 1)

		input := client.inputs[0]
		assert.Equal(t, "Meeting Rooms <rooms@example.com>", aws.ToString(input.Source))
		assert.Equal(t, []string{"alice@example.com"}, input.Destination.ToAddresses)
		assert.Equal(t, "Meeting booked: Planning", aws.ToString(input.Message.Subject.Data))
		assert.Contains(t, aws.ToString(input.Message.Body.Text.Data), "From: 2024-06-03 10:00")
		assert.Contains(t, aws.ToString(input.Message.Body.Text.Data), "Africa/Nairobi")
	})

	t.Run("skips organizers without email", func(t *testing.T) {
		client := &sesStub{}
		mailer := newSESMailer(client, cfg, zone, quietLogger)

		require.NoError(t, mailer.NotifyBooking(context.Background(), sampleEvent(application.BookingDeleted, "")))
		assert.Empty(t, client.inputs)
	})

	t.Run("wraps client errors", func(t *testing.T) {
		boom := errors.New("throttled")
		mailer := newSESMailer(&sesStub{err: boom}, cfg, zone, quietLogger)

		err := mailer.NotifyBooking(context.Background(), sampleEvent(application.BookingUpdated, "alice@example.com"))
		assert.ErrorIs(t, err, boom)
	})
}

type writerStub struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *writerStub) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *writerStub) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_NotifyBooking(t *testing.T) {
	writer := &writerStub{}
	publisher := newKafkaPublisher(writer, quietLogger)

	require.NoError(t, publisher.NotifyBooking(context.Background(), sampleEvent(application.BookingUpdated, "")))
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "3", string(msg.Key))
	assert.Equal(t, []kafka.Header{{Key: headerEventType, Value: []byte("booking.updated")}}, msg.Headers)

	var payload eventPayload
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "booking.updated", payload.Type)
	assert.Equal(t, int64(9), payload.BookingID)
	assert.Equal(t, "Atrium", payload.RoomName)
	assert.Equal(t, "alice", payload.Organizer)

	require.NoError(t, publisher.Close())
	assert.True(t, writer.closed)

	failing := newKafkaPublisher(&writerStub{err: errors.New("no leader")}, quietLogger)
	assert.Error(t, failing.NotifyBooking(context.Background(), sampleEvent(application.BookingCreated, "")))
}

type natsConnStub struct {
	published []*nats.Msg
	flushes   int
	drained   bool
	flushErr  error
}

func (c *natsConnStub) PublishMsg(msg *nats.Msg) error {
	c.published = append(c.published, msg)
	return nil
}

func (c *natsConnStub) FlushWithContext(ctx context.Context) error {
	c.flushes++
	return c.flushErr
}

func (c *natsConnStub) Drain() error {
	c.drained = true
	return nil
}

func TestNATSPublisher_NotifyBooking(t *testing.T) {
	conn := &natsConnStub{}
	publisher := newNATSPublisher(conn, "", quietLogger)

	require.NoError(t, publisher.NotifyBooking(context.Background(), sampleEvent(application.BookingDeleted, "")))
	require.Len(t, conn.published, 1)
	assert.Equal(t, 1, conn.flushes)

	msg := conn.published[0]
	assert.Equal(t, "meetings.bookings.booking.deleted", msg.Subject)
	assert.Equal(t, "booking.deleted", msg.Header.Get(headerEventType))
	assert.Equal(t, "3", msg.Header.Get("room-id"))

	var payload eventPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, "booking.deleted", payload.Type)
	assert.Equal(t, int64(9), payload.BookingID)

	require.NoError(t, publisher.Close())
	assert.True(t, conn.drained)

	failing := newNATSPublisher(&natsConnStub{flushErr: context.DeadlineExceeded}, "rooms", quietLogger)
	err := failing.NotifyBooking(context.Background(), sampleEvent(application.BookingCreated, ""))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNew(t *testing.T) {
	zone := timezone.MustNew("UTC")

	n, err := New(config.NotifyConfig{Provider: "noop"}, zone, quietLogger)
	require.NoError(t, err)
	assert.IsType(t, Noop{}, n)
	assert.NoError(t, n.NotifyBooking(context.Background(), sampleEvent(application.BookingCreated, "")))

	n, err = New(config.NotifyConfig{Provider: "carrier-pigeon"}, zone, quietLogger)
	require.NoError(t, err)
	assert.IsType(t, Noop{}, n)

	_, err = New(config.NotifyConfig{Provider: "ses"}, zone, quietLogger)
	assert.Error(t, err, "sender address is required")

	_, err = New(config.NotifyConfig{Provider: "ses", SES: config.SESConfig{FromAddress: "rooms@example.com", Region: "us-east-1"}}, zone, quietLogger)
	assert.ErrorContains(t, err, "access key id and secret are required")

	n, err = New(config.NotifyConfig{Provider: "ses", SES: config.SESConfig{
		FromAddress: "rooms@example.com", Region: "us-east-1", AccessKeyID: "AKID", SecretAccessKey: "secret",
	}}, zone, quietLogger)
	require.NoError(t, err)
	assert.IsType(t, &SESMailer{}, n)

	_, err = New(config.NotifyConfig{Provider: "kafka", Kafka: config.KafkaConfig{Topic: "t"}}, zone, quietLogger)
	assert.Error(t, err, "brokers are required")

	_, err = New(config.NotifyConfig{Provider: "nats"}, zone, quietLogger)
	assert.Error(t, err, "url is required")

	n, err = New(config.NotifyConfig{Provider: "kafka", Kafka: config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t"}}, zone, quietLogger)
	require.NoError(t, err)
	assert.IsType(t, &KafkaPublisher{}, n)
	assert.NoError(t, n.Close())
}
