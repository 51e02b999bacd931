package authflow

import (
	"context"
	"fmt"
)

// EmailDelivery is satisfied by the SMTP mailer.
type EmailDelivery interface {
	SendEmail(to, subject, body string) error
}

// TopicDelivery is satisfied by the SNS publisher.
type TopicDelivery interface {
	Publish(ctx context.Context, payload any) error
}

// EmailSender delivers verification codes over SMTP.
type EmailSender struct {
	mailer EmailDelivery
}

func NewEmailSender(mailer EmailDelivery) *EmailSender {
	return &EmailSender{mailer: mailer}
}

func (s *EmailSender) SendCode(ctx context.Context, email, code string) error {
	body := fmt.Sprintf("Your RentX verification code is %s.", code)
	return s.mailer.SendEmail(email, "RentX verification code", body)
}

// TopicSender delivers verification codes through an SNS topic; a subscriber
// bridges them to the SMS gateway.
type TopicSender struct {
	topic TopicDelivery
}

func NewTopicSender(topic TopicDelivery) *TopicSender {
	return &TopicSender{topic: topic}
}

func (s *TopicSender) SendCode(ctx context.Context, email, code string) error {
	return s.topic.Publish(ctx, map[string]string{
		"target_email": email,
		"code":         code,
	})
}
