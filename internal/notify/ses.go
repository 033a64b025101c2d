package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/example/meeting-rooms/internal/application"
	"github.com/example/meeting-rooms/internal/config"
	"github.com/example/meeting-rooms/internal/timezone"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESMailer emails the organizer about changes to their booking.
type SESMailer struct {
	client      sesAPI
	fromAddress string
	fromName    string
	zone        timezone.Normalizer
	logger      *slog.Logger
}

// NewSESMailer builds a mailer signing with the static credentials in cfg.
func NewSESMailer(cfg config.SESConfig, zone timezone.Normalizer, logger *slog.Logger) (*SESMailer, error) {
	if strings.TrimSpace(cfg.FromAddress) == "" {
		return nil, fmt.Errorf("notify: SES sender address is empty")
	}
	if strings.TrimSpace(cfg.AccessKeyID) == "" || strings.TrimSpace(cfg.SecretAccessKey) == "" {
		return nil, fmt.Errorf("notify: SES access key id and secret are required")
	}
	awsCfg := aws.Config{
		Region: cfg.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	}
	return newSESMailer(ses.NewFromConfig(awsCfg), cfg, zone, logger), nil
}

func newSESMailer(client sesAPI, cfg config.SESConfig, zone timezone.Normalizer, logger *slog.Logger) *SESMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SESMailer{
		client:      client,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		zone:        zone,
		logger:      logger.With("component", "ses_mailer"),
	}
}

// NotifyBooking implements application.BookingNotifier. Organizers without an
// email address are skipped.
func (m *SESMailer) NotifyBooking(ctx context.Context, event application.BookingEvent) error {
	to := strings.TrimSpace(event.Booking.OrganizerEmail)
	if to == "" {
		m.logger.DebugContext(ctx, "organizer has no email, skipping", "booking_id", event.Booking.ID)
		return nil
	}

	subject, body := describe(event, m.zone)
	source := m.fromAddress
	if m.fromName != "" {
		source = fmt.Sprintf("%s <%s>", m.fromName, m.fromAddress)
	}
	input := &ses.SendEmailInput{
		Source:      aws.String(source),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
	}

	result, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}
	m.logger.InfoContext(ctx, "booking email sent",
		"booking_id", event.Booking.ID,
		"event", event.Type,
		"message_id", aws.ToString(result.MessageId),
	)
	return nil
}

// Close implements Notifier.
func (m *SESMailer) Close() error { return nil }
