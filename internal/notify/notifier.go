// Package notify delivers registration notices to the operator and the participant.
package notify

import (
	"context"
	"fmt"
	"strings"

	awsclient "regdesk/internal/common/aws"
	"regdesk/internal/common/errors"
	"regdesk/internal/common/logger"
	"regdesk/internal/models"
)

// Notifier surfaces a notice. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, notice models.Notice) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, notice models.Notice) error

func (f NotifierFunc) Notify(ctx context.Context, notice models.Notice) error {
	return f(ctx, notice)
}

// LogNotifier writes notices to the structured log.
type LogNotifier struct {
	logger logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) Notify(_ context.Context, notice models.Notice) error {
	n.logger.Info(notice.Message, map[string]interface{}{
		"kind": notice.Kind,
		"code": notice.Code,
	})
	return nil
}

// SMSConfig controls pass delivery over SNS.
type SMSConfig struct {
	SenderID    string
	CountryCode string
}

func (c *SMSConfig) Validate() error {
	if !strings.HasPrefix(c.CountryCode, "+") || len(c.CountryCode) < 2 {
		return fmt.Errorf("country_code must look like +91")
	}
	return nil
}

// SMSNotifier texts the issued registration code to the participant.
type SMSNotifier struct {
	publisher awsclient.SNSPublisher
	config    SMSConfig
	logger    logger.Logger
}

func NewSMSNotifier(publisher awsclient.SNSPublisher, config SMSConfig, log logger.Logger) (*SMSNotifier, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sms configuration: %w", err)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &SMSNotifier{publisher: publisher, config: config, logger: log}, nil
}

// Notify only acts on registration notices that carry a mobile number.
func (n *SMSNotifier) Notify(ctx context.Context, notice models.Notice) error {
	if notice.Kind != models.NoticeRegistered || notice.Mobile == "" {
		return nil
	}

	phone := n.config.CountryCode + notice.Mobile
	body := fmt.Sprintf("Hello %s, your registration code is %s. Show it at the entry desk.", notice.Name, notice.Code)

	out, err := n.publisher.Publish(ctx, awsclient.SMSInput(phone, body, n.config.SenderID))
	if err != nil {
		return errors.NewNotificationSendFailedError("sms", err)
	}

	fields := map[string]interface{}{"code": notice.Code}
	if out != nil && out.MessageId != nil {
		fields["message_id"] = *out.MessageId
	}
	n.logger.Info("Registration SMS sent", fields)
	return nil
}

// MultiNotifier fans a notice out to every notifier. Delivery failures are
// logged and never returned, so a registration is never failed by them.
type MultiNotifier struct {
	notifiers []Notifier
	logger    logger.Logger
}

func NewMultiNotifier(log logger.Logger, notifiers ...Notifier) *MultiNotifier {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &MultiNotifier{notifiers: notifiers, logger: log}
}

func (m *MultiNotifier) Notify(ctx context.Context, notice models.Notice) error {
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, notice); err != nil {
			m.logger.Warn("Notification delivery failed", map[string]interface{}{
				"kind":  notice.Kind,
				"code":  notice.Code,
				"error": err.Error(),
			})
		}
	}
	return nil
}
