package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	appconfig "github.com/amorlink/engage/internal/config"
	"github.com/amorlink/engage/internal/domain"
)

// SESTransport sends mail through AWS SES v2.
type SESTransport struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
}

// NewSESTransport creates an SES v2 transport from static credentials.
func NewSESTransport(ctx context.Context, cfg appconfig.SESConfig) (*SESTransport, error) {
	creds := credentials.NewStaticCredentialsProvider(
		cfg.AccessKey,
		cfg.SecretKey,
		"", // session token (empty for static creds)
	)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &SESTransport{
		client:    sesv2.NewFromConfig(awsCfg),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}, nil
}

// Send dispatches one message. The campaign category rides along as a
// message tag so provider-side analytics can segment by campaign family.
func (t *SESTransport) Send(ctx context.Context, msg domain.Message) (Result, error) {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", t.fromName, t.fromEmail)),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTMLBody)},
					Text: &types.Content{Data: aws.String(msg.TextBody)},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("category"), Value: aws.String(string(msg.Category))},
		},
	}

	out, err := t.client.SendEmail(ctx, input)
	if err != nil {
		return Result{}, fmt.Errorf("ses send to %s: %w", msg.To, err)
	}

	var externalID string
	if out.MessageId != nil {
		externalID = *out.MessageId
	}
	return Result{ExternalID: externalID}, nil
}
