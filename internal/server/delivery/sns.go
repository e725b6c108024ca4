package delivery

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/dmitrijs2005/easebox-identity/internal/logging"
)

type snsAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSender delivers SMS through Amazon SNS direct publish.
type SNSSender struct {
	client   snsAPI
	senderID string
	log      logging.Logger
}

func NewSNSSender(ctx context.Context, c AWSConfig, senderID string, log logging.Logger) (*SNSSender, error) {
	cfg, err := loadAWSConfig(ctx, c)
	if err != nil {
		return nil, err
	}
	client := sns.NewFromConfig(cfg, func(o *sns.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
	})
	return newSNSSender(client, senderID, log), nil
}

func newSNSSender(client snsAPI, senderID string, log logging.Logger) *SNSSender {
	return &SNSSender{client: client, senderID: senderID, log: log.With("module", "delivery", "backend", "sns")}
}

func (s *SNSSender) SendSMS(ctx context.Context, to, body string) bool {
	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
	}
	if s.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(s.senderID)}
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(to),
		Message:           aws.String(body),
		MessageAttributes: attrs,
	})
	if err != nil {
		s.log.Error(ctx, "sns publish failed", "to", to, "error", err)
		return false
	}

	s.log.Debug(ctx, "sms sent", "message_id", aws.ToString(out.MessageId))
	return true
}
