package email

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESAPI is the subset of the SES v2 client used by SESSender.
type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESConfig configures an SESSender.
type SESConfig struct {
	// Region is the AWS region of the SES identity (e.g., "us-east-1").
	Region string

	// FromAddress must be a verified SES identity.
	FromAddress string

	// To receives every contact submission.
	To []string

	// AccessKey/SecretKey are optional; the default credential chain is used
	// when they are empty.
	AccessKey string
	SecretKey string

	// Endpoint overrides the SES endpoint (LocalStack and similar).
	Endpoint string
}

// SESSender sends templated messages through Amazon SES v2.
type SESSender struct {
	api   SESAPI
	from  string
	to    []string
	store *TemplateStore
}

// NewSESSender wraps an existing SES API client.
func NewSESSender(api SESAPI, from string, to []string, store *TemplateStore) *SESSender {
	return &SESSender{api: api, from: from, to: to, store: store}
}

// ConnectSES loads AWS configuration and returns an SESSender.
// The timeout applies to loading the AWS configuration.
func ConnectSES(ctx context.Context, cfg SESConfig, store *TemplateStore, timeout time.Duration) (*SESSender, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewSESSender(client, cfg.FromAddress, cfg.To, store), nil
}

// SendTemplate renders req locally and sends it with SES.
func (s *SESSender) SendTemplate(ctx context.Context, req TemplateRequest) error {
	msg, err := renderForDelivery(s.store, req, s.to)
	if err != nil {
		return err
	}
	return s.Send(ctx, *msg)
}

// Send sends msg with SES.
func (s *SESSender) Send(ctx context.Context, msg Message) error {
	if err := msg.check(); err != nil {
		return err
	}

	body := &types.Body{}
	if msg.TextBody != "" {
		body.Text = utf8Content(msg.TextBody)
	}
	if msg.HTMLBody != "" {
		body.Html = utf8Content(msg.HTMLBody)
	}

	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: msg.To},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: utf8Content(msg.Subject),
				Body:    body,
			},
		},
	}
	if msg.ReplyTo != "" {
		in.ReplyToAddresses = []string{msg.ReplyTo}
	}

	if _, err := s.api.SendEmail(ctx, in); err != nil {
		return fmt.Errorf("email: ses send: %w", err)
	}
	return nil
}

func utf8Content(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}
