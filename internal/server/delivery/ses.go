package delivery

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/dmitrijs2005/easebox-identity/internal/logging"
)

type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESEmailSender delivers mail through Amazon SES (v2 API).
type SESEmailSender struct {
	client sesAPI
	from   string
	log    logging.Logger
}

func NewSESEmailSender(ctx context.Context, c AWSConfig, from string, log logging.Logger) (*SESEmailSender, error) {
	cfg, err := loadAWSConfig(ctx, c)
	if err != nil {
		return nil, err
	}
	client := sesv2.NewFromConfig(cfg, func(o *sesv2.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
	})
	return newSESEmailSender(client, from, log), nil
}

func newSESEmailSender(client sesAPI, from string, log logging.Logger) *SESEmailSender {
	return &SESEmailSender{client: client, from: from, log: log.With("module", "delivery", "backend", "ses")}
}

func (s *SESEmailSender) SendEmail(ctx context.Context, to, subject, html string) bool {
	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(html), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		s.log.Error(ctx, "ses send failed", "to", to, "error", err)
		return false
	}

	s.log.Debug(ctx, "email sent", "to", to, "message_id", aws.ToString(out.MessageId))
	return true
}
