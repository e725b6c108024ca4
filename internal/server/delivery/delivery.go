// Package delivery sends verification codes to users over email and SMS.
//
// Senders report success as a bool: callers only need to know whether the
// message left the process, the reason is logged here.
package delivery

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, html string) bool
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) bool
}

// AWSConfig carries the settings shared by the SES and SNS senders.
// Empty credentials fall back to the default AWS provider chain.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

func loadAWSConfig(ctx context.Context, c AWSConfig) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		))
	}
	return loadDefaultAWSConfig(ctx, opts...)
}
