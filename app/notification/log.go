package notification

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotifier writes codes to the log instead of mailing them. Used when no
// mail provider is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (LogNotifier) SendConfirmation(_ context.Context, email, code string) error {
	logrus.WithFields(logrus.Fields{
		"email": email,
		"code":  code,
	}).Info("Email confirmation code issued")
	return nil
}

func (LogNotifier) SendRecovery(_ context.Context, email, code string) error {
	logrus.WithFields(logrus.Fields{
		"email": email,
		"code":  code,
	}).Info("Password recovery code issued")
	return nil
}
