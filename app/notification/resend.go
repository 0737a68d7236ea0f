package notification

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v3"
)

const (
	confirmationSubject = "Confirm your email"
	recoverySubject     = "Reset your password"
)

type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendNotifier mails verification codes through the Resend API.
type ResendNotifier struct {
	sender emailSender
	from   string
	appURL string
}

func NewResendNotifier(apiKey, from, appURL string) *ResendNotifier {
	return newResendNotifier(resend.NewClient(apiKey).Emails, from, appURL)
}

func newResendNotifier(sender emailSender, from, appURL string) *ResendNotifier {
	return &ResendNotifier{
		sender: sender,
		from:   from,
		appURL: strings.TrimRight(appURL, "/"),
	}
}

func (n *ResendNotifier) SendConfirmation(ctx context.Context, email, code string) error {
	link := n.link("/auth/registration-confirmation", "code", code)
	body := renderMessage(
		"Thank you for registering. Follow the link below to confirm your email address.",
		"Confirm email",
		link,
	)

	if err := n.send(ctx, email, confirmationSubject, body); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	return nil
}

func (n *ResendNotifier) SendRecovery(ctx context.Context, email, code string) error {
	link := n.link("/auth/new-password", "recoveryCode", code)
	body := renderMessage(
		"We received a request to reset your password. If it was not you, ignore this email.",
		"Choose a new password",
		link,
	)

	if err := n.send(ctx, email, recoverySubject, body); err != nil {
		return fmt.Errorf("send recovery email: %w", err)
	}
	return nil
}

func (n *ResendNotifier) send(ctx context.Context, to, subject, body string) error {
	_, err := n.sender.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	})
	return err
}

func (n *ResendNotifier) link(path, param, code string) string {
	return n.appURL + path + "?" + url.Values{param: []string{code}}.Encode()
}

func renderMessage(text, action, link string) string {
	escaped := html.EscapeString(link)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family:Arial,Helvetica,sans-serif;">
  <p>%s</p>
  <p><a href="%s">%s</a></p>
  <p>If the link does not work, copy it into your browser:<br>%s</p>
</body>
</html>`, html.EscapeString(text), escaped, html.EscapeString(action), escaped)
}
