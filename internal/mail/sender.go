// Package mail delivers purchase confirmation emails. Delivery is always
// best-effort: failures are logged and reported as a boolean, never raised.
package mail

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog"
)

// Sender is the raw mail transport.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SESSender delivers through AWS SES.
type SESSender struct {
	client *sesv2.Client
	from   string
}

func NewSESSender(cfg aws.Config, from string) *SESSender {
	return &SESSender{
		client: sesv2.NewFromConfig(cfg),
		from:   from,
	}
}

func (s *SESSender) Send(ctx context.Context, to, subject, body string) error {
	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	return err
}

// LogSender writes mail to the log instead of sending it. Used when no mail
// transport is configured.
type LogSender struct {
	Log zerolog.Logger
}

func (s LogSender) Send(_ context.Context, to, subject, body string) error {
	s.Log.Info().
		Str("to", to).
		Str("subject", subject).
		Msg("mail transport not configured, logging instead")
	s.Log.Debug().Str("body", body).Msg("mail body")
	return nil
}
