package sns

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/occamy/fieldops-api/internal/config"
	"github.com/occamy/fieldops-api/internal/domain"
	pkgphone "github.com/occamy/fieldops-api/internal/pkg/phone"
)

// CodeSender delivers a one-time code to a phone number. A single attempt
// per call; delivery failure propagates to the caller, never retried here.
type CodeSender interface {
	SendCode(ctx context.Context, phoneNumber, code string) error
}

type sender struct {
	client      *sns.Client
	senderID    string
	countryCode string
}

// NewSender builds the production SNS-backed sender.
func NewSender(cfg *config.Config) (CodeSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &sender{
		client:      sns.NewFromConfig(awsCfg),
		senderID:    cfg.SMSSenderID,
		countryCode: cfg.PhoneCountryCode,
	}, nil
}

func (s *sender) SendCode(ctx context.Context, phoneNumber, code string) error {
	to := pkgphone.Format(s.countryCode, phoneNumber)
	message := fmt.Sprintf("Your Occamy verification code: %s\n\nValid for 5 minutes. Do not share this code.", code)

	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &to,
		Message:     &message,
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(s.senderID),
			},
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish to %s: %w", to, domain.ErrDeliveryFailed)
	}
	return nil
}

// DevSender surfaces the code through the local log instead of sending it
// externally. Only constructed when config.DevMode() is true; a production
// deployment can never reach this path.
type DevSender struct{}

func (DevSender) SendCode(_ context.Context, phoneNumber, code string) error {
	slog.Info("dev fallback: code not sent over SMS", "phone", phoneNumber, "code", code)
	return nil
}
