// Package email sends transactional mail via Resend. Email is best-effort:
// callers log failures and never fail the request over them.
package email

import (
	"fmt"
	"log"

	"github.com/resend/resend-go/v3"
)

// Mailer sends account and billing notifications.
type Mailer struct {
	client *resend.Client
	from   string
}

// NewMailer creates a Mailer. With an empty API key every send becomes a
// logged no-op, which keeps local development working without credentials.
func NewMailer(apiKey, from string) *Mailer {
	m := &Mailer{from: from}
	if apiKey != "" {
		m.client = resend.NewClient(apiKey)
	}
	return m
}

// SendWelcome greets a new account and mentions the trial window.
func (m *Mailer) SendWelcome(to string, trialDays int) error {
	subject := "Welcome to FaceLens"
	html := fmt.Sprintf(
		"<p>Your account is ready. Your free trial runs for %d days. Subscribe any time to keep API access afterwards.</p>",
		trialDays,
	)
	return m.send(to, subject, html)
}

// SendReceipt confirms a successful subscription purchase.
func (m *Mailer) SendReceipt(to string, amount float64) error {
	subject := "Your FaceLens subscription"
	html := fmt.Sprintf(
		"<p>Thanks for subscribing! Your card was charged $%.2f. Metered usage will appear on your next invoice.</p>",
		amount,
	)
	return m.send(to, subject, html)
}

func (m *Mailer) send(to, subject, html string) error {
	if m.client == nil {
		log.Printf("[Email] No API key configured, skipping %q to %s", subject, to)
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	sent, err := m.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	log.Printf("[Email] Sent %q to %s (id %s)", subject, to, sent.Id)
	return nil
}
