package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

const ProviderSES = "ses"

// SESAPI is the subset of the SES v2 client used by SESSender.
type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender sends simulation emails through Amazon SES v2.
type SESSender struct {
	client    SESAPI
	renderer  *Renderer
	fromLocal string
	baseURL   string
	now       func() time.Time
}

// NewSESSender loads AWS credentials from the default chain for region.
func NewSESSender(ctx context.Context, region, fromLocal, baseURL string, renderer *Renderer) (*SESSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSESSenderWithClient(sesv2.NewFromConfig(cfg), fromLocal, baseURL, renderer), nil
}

func NewSESSenderWithClient(client SESAPI, fromLocal, baseURL string, renderer *Renderer) *SESSender {
	return &SESSender{
		client:    client,
		renderer:  renderer,
		fromLocal: fromLocal,
		baseURL:   strings.TrimRight(baseURL, "/"),
		now:       time.Now,
	}
}

func (s *SESSender) SendSimulationEmail(ctx context.Context, msg Message) (Receipt, error) {
	if msg.ToEmail == "" {
		return Receipt{}, ErrMissingRecipient
	}
	content, err := s.renderer.Render(Vars{
		EmployeeName: msg.ToName,
		CampaignName: msg.CampaignName,
		TemplateName: msg.TemplateName,
		ClickURL:     TrackingURL(s.baseURL, "/events/click", msg.TrackingToken),
		ReportURL:    TrackingURL(s.baseURL, "/events/report-phish", msg.TrackingToken),
		Badge:        msg.DataClass,
	})
	if err != nil {
		return Receipt{}, err
	}

	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.fromLocal + "@" + msg.FromDomain),
		Destination:      &types.Destination{ToAddresses: []string{msg.ToEmail}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(content.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(content.Text), Charset: aws.String("UTF-8")},
					Html: &types.Content{Data: aws.String(content.HTML), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("tenant_id"), Value: aws.String(msg.TenantID)},
			{Name: aws.String("campaign_id"), Value: aws.String(msg.CampaignID)},
			{Name: aws.String("recipient_id"), Value: aws.String(msg.RecipientID)},
		},
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("ses send: %w", err)
	}
	if out.MessageId == nil || *out.MessageId == "" {
		return Receipt{}, errors.New("ses send: empty message id")
	}
	return Receipt{
		Provider:   ProviderSES,
		MessageID:  *out.MessageId,
		AcceptedAt: s.now().UTC(),
	}, nil
}
