package service

import (
	"context"
	"time"

	"github.com/vibast-solutions/ms-go-social-auth/app/entity"

	"github.com/sirupsen/logrus"
)

const dispatchTimeout = 10 * time.Second

type Notifier interface {
	SendConfirmation(ctx context.Context, email, code string) error
	SendRecovery(ctx context.Context, email, code string) error
}

type AsyncRunner func(task func())

// EventDispatcher only logs delivery failures.
type EventDispatcher struct {
	notifier    Notifier
	asyncRunner AsyncRunner
}

type EventDispatcherOption func(*EventDispatcher)

func WithAsyncRunner(runner AsyncRunner) EventDispatcherOption {
	return func(d *EventDispatcher) {
		if runner != nil {
			d.asyncRunner = runner
		}
	}
}

func NewEventDispatcher(notifier Notifier, opts ...EventDispatcherOption) *EventDispatcher {
	d := &EventDispatcher{
		notifier: notifier,
		asyncRunner: func(task func()) {
			go task()
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *EventDispatcher) Dispatch(events ...entity.Event) {
	if len(events) == 0 {
		return
	}

	d.asyncRunner(func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		for _, event := range events {
			d.handle(ctx, event)
		}
	})
}

func (d *EventDispatcher) handle(ctx context.Context, event entity.Event) {
	var err error
	fields := logrus.Fields{"event": event.EventName()}

	switch e := event.(type) {
	case entity.UserCreated:
		fields["user_id"] = e.UserID
		logrus.WithFields(fields).Info("User created")
		return
	case entity.ConfirmationCodeIssued:
		fields["user_id"] = e.UserID
		err = d.notifier.SendConfirmation(ctx, e.Email, e.Code)
	case entity.RecoveryCodeIssued:
		fields["user_id"] = e.UserID
		err = d.notifier.SendRecovery(ctx, e.Email, e.Code)
	default:
		logrus.WithFields(fields).Warn("No handler for event")
		return
	}

	if err != nil {
		logrus.WithError(err).WithFields(fields).Error("Failed to deliver notification")
		return
	}
	logrus.WithFields(fields).Debug("Notification delivered")
}
