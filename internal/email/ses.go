package email

import (
	"context"
	"fmt"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/metrics"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// sesAPI is the part of the SES client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender sends email through AWS SES.
type SESSender struct {
	client    sesAPI
	fromEmail string
	fromName  string
	clientURL string
}

// NewSESSender loads the default AWS credential chain for region.
func NewSESSender(region, fromEmail, fromName, clientURL string) (*SESSender, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESSender{
		client:    ses.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		clientURL: clientURL,
	}, nil
}

func (s *SESSender) SendOTP(ctx context.Context, to, name, code string, ttl time.Duration) error {
	err := s.send(ctx, to, otpMessage(name, code, ttl))
	metrics.RecordEmail("otp", err)
	if err != nil {
		return fmt.Errorf("failed to send OTP email: %w", err)
	}
	return nil
}

func (s *SESSender) SendWelcome(ctx context.Context, to, name string) error {
	err := s.send(ctx, to, welcomeMessage(name, s.clientURL))
	metrics.RecordEmail("welcome", err)
	if err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}

func (s *SESSender) send(ctx context.Context, to string, msg message) error {
	from := s.fromEmail
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(from),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
				Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
			},
		},
	})
	return err
}
