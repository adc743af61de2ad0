// internal/notify/notifier.go

// Package notify sends best-effort order confirmations. Every failure is
// logged and swallowed: a lost email must never fail a placed order.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	awsclients "shop-assistant/internal/common/aws"
	"shop-assistant/internal/common/config"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/common/metrics"
)

// emailSender matches the SES wrapper.
type emailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// smsSender matches the SNS wrapper.
type smsSender interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// OrderConfirmation carries everything the confirmation templates need.
type OrderConfirmation struct {
	OrderNumber string
	Total       float64
	Currency    string
	Email       string
	Phone       string
}

type Notifier struct {
	email     emailSender
	sms       smsSender
	emailFrom string
	smsSender string
	enabled   bool
	logger    logger.Logger
}

// New builds the notifier from config. When notifications are disabled the
// AWS clients are never constructed.
func New(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	n := &Notifier{
		emailFrom: cfg.EmailFrom,
		smsSender: cfg.SMSSender,
		enabled:   cfg.Enabled,
		logger:    log.With(map[string]interface{}{"component": "notify"}),
	}
	if !cfg.Enabled {
		return n, nil
	}

	sesClient, err := awsclients.NewSESClient(ctx, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to build ses client: %w", err)
	}
	snsClient, err := awsclients.NewSNSClient(ctx, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to build sns client: %w", err)
	}
	n.email = sesClient
	n.sms = snsClient
	return n, nil
}

// OrderPlaced sends the confirmation over whichever channels the shopper
// provided. Best effort on both.
func (n *Notifier) OrderPlaced(ctx context.Context, conf OrderConfirmation) {
	if !n.enabled {
		return
	}
	if conf.Email != "" && n.email != nil {
		n.sendEmail(ctx, conf)
	}
	if conf.Phone != "" && n.sms != nil {
		n.sendSMS(ctx, conf)
	}
}

func (n *Notifier) sendEmail(ctx context.Context, conf OrderConfirmation) {
	subject := fmt.Sprintf("Order %s confirmed", conf.OrderNumber)
	body := fmt.Sprintf(
		"Thanks for your order!\n\nOrder number: %s\nTotal: %.2f %s\n\nWe'll let you know when it ships.",
		conf.OrderNumber, conf.Total, conf.Currency,
	)

	_, err := n.email.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(n.emailFrom),
		Destination: &sestypes.Destination{ToAddresses: []string{conf.Email}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		metrics.ExternalCallFailures.WithLabelValues("ses").Inc()
		n.logger.Warn("order confirmation email failed", map[string]interface{}{
			"orderNumber": conf.OrderNumber,
			"error":       err.Error(),
		})
	}
}

func (n *Notifier) sendSMS(ctx context.Context, conf OrderConfirmation) {
	message := fmt.Sprintf("Order %s confirmed, total %.2f %s. Thanks for shopping with us!",
		conf.OrderNumber, conf.Total, conf.Currency)

	input := &sns.PublishInput{
		PhoneNumber: aws.String(conf.Phone),
		Message:     aws.String(message),
	}
	if _, err := n.sms.Publish(ctx, input); err != nil {
		metrics.ExternalCallFailures.WithLabelValues("sns").Inc()
		n.logger.Warn("order confirmation sms failed", map[string]interface{}{
			"orderNumber": conf.OrderNumber,
			"error":       err.Error(),
		})
	}
}
