package email

import (
	"context" // Request-scoped cancellation
	"errors"  // Sentinel errors
	"fmt"     // Template formatting
	"strings" // Address checks
	"time"    // Date formatting

	"github.com/resend/resend-go/v2" // Transactional email provider
	"github.com/sirupsen/logrus"     // Logging library

	"ganamos/internal/utils" // Sats formatting
)

// internalDomain marks managed child accounts that have no real inbox
const internalDomain = "@ganamos.app"

// ErrNotConfigured is returned when no API key is configured
var ErrNotConfigured = errors.New("email API key not configured")

// Sender sends transactional email through Resend
type Sender struct {
	client *resend.Client // Resend API client
	from   string         // From address
}

// NewSender creates a Sender; a missing key yields a sender that refuses to send
func NewSender(apiKey, from string) *Sender {
	var client *resend.Client
	if apiKey != "" {
		client = resend.NewClient(apiKey)
	}
	if from == "" {
		from = "Ganamos <noreply@ganamos.earth>"
	}
	return &Sender{client: client, from: from}
}

// Deliverable reports whether the address belongs to a real inbox.
// Managed child accounts carry internal addresses that must never be mailed.
func Deliverable(address string) bool {
	return address != "" && !strings.Contains(address, internalDomain)
}

// Send sends one HTML email
func (s *Sender) Send(ctx context.Context, to, subject, html string) (string, error) {
	if s.client == nil {
		return "", ErrNotConfigured
	}
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,       // From address
		To:      []string{to}, // Single recipient
		Subject: subject,      // Subject line
		Html:    html,         // HTML body
	})
	if err != nil {
		return "", err
	}
	return sent.Id, nil
}

// TransferParams describes one side of an internal transfer notification
type TransferParams struct {
	ToEmail    string    // Recipient address
	UserName   string    // Recipient display name
	AmountSats int64     // Transferred amount
	OtherName  string    // Name of the other party
	Date       time.Time // When the transfer happened
}

// SendBitcoinSent notifies the sender of a completed transfer
func (s *Sender) SendBitcoinSent(ctx context.Context, p TransferParams) error {
	amount := utils.FormatSatsValue(p.AmountSats)
	subject := "You sent " + amount
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>You sent <strong>%s</strong> to %s on %s.</p><p>— Ganamos</p>",
		p.UserName, amount, p.OtherName, p.Date.Format("January 2, 2006"),
	)
	return s.logged(ctx, p.ToEmail, subject, html)
}

// SendBitcoinReceived notifies the receiver of a completed transfer
func (s *Sender) SendBitcoinReceived(ctx context.Context, p TransferParams) error {
	amount := utils.FormatSatsValue(p.AmountSats)
	subject := "You received " + amount
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>You received <strong>%s</strong> from %s on %s.</p><p>— Ganamos</p>",
		p.UserName, amount, p.OtherName, p.Date.Format("January 2, 2006"),
	)
	return s.logged(ctx, p.ToEmail, subject, html)
}

// SummaryParams is the content of the daily summary email
type SummaryParams struct {
	ToEmail      string // Recipient address
	NewPosts     int64  // Posts created in the window
	FixedPosts   int64  // Posts fixed in the window
	Transactions int64  // Completed transactions in the window
	SatsMoved    int64  // Total sats across those transactions
}

// SendDailySummary sends the once-a-day activity digest
func (s *Sender) SendDailySummary(ctx context.Context, p SummaryParams) (string, error) {
	html := fmt.Sprintf(
		"<p>Daily summary:</p><ul><li>%d new posts</li><li>%d posts fixed</li><li>%d transactions, %s moved</li></ul>",
		p.NewPosts, p.FixedPosts, p.Transactions, utils.FormatSatsValue(p.SatsMoved),
	)
	return s.Send(ctx, p.ToEmail, "Ganamos daily summary", html)
}

// logged sends and logs the outcome; used for best-effort notifications
func (s *Sender) logged(ctx context.Context, to, subject, html string) error {
	id, err := s.Send(ctx, to, subject, html)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"subject": subject,     // Which email failed
			"error":   err.Error(), // Provider error
		}).Error("Failed to send email")
		return err
	}
	logrus.WithFields(logrus.Fields{
		"subject":    subject, // Which email was sent
		"message_id": id,      // Provider message ID
	}).Info("Email sent")
	return nil
}
