package mailer

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Dispatcher delivers a plain-text email to a single recipient. Callers must
// treat a returned error as "not delivered" and roll back anything that
// depended on delivery (for example a freshly stored one-time code).
type Dispatcher interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Publisher is the slice of the AMQP publisher the queue dispatcher needs.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueDispatcher enqueues email jobs on RabbitMQ for the email worker.
// The broker ack stands in for delivery: a publish failure is a dispatch
// failure, so upstream invalidation still applies.
type QueueDispatcher struct {
	Pub Publisher
}

func NewQueueDispatcher(pub Publisher) *QueueDispatcher {
	return &QueueDispatcher{Pub: pub}
}

func (d *QueueDispatcher) Send(ctx context.Context, to, subject, body string) error {
	return d.Pub.PublishJSON(ctx, EmailJob{To: to, Subject: subject, Text: body})
}

// Discard logs instead of sending. Used when MAIL_SEND_ENABLED=false so
// local development never emails real addresses.
type Discard struct {
	Logger *logrus.Logger
}

func (d Discard) Send(_ context.Context, to, subject, _ string) error {
	if d.Logger != nil {
		d.Logger.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("mail sending disabled; dropping email")
	}
	return nil
}

var _ Dispatcher = Discard{}
