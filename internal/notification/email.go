package notification

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/beyondborders/donation-service/internal"
	datamodel "github.com/beyondborders/donation-service/internal/core/datamodel/donation"
)

// Mailer delivers one rendered message. The SMTP implementation is swapped
// for a log-only sender in development and a stub in tests.
type Mailer interface {
	Send(to, subject, htmlBody, textBody string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	cfg    internal.NotificationConfig
}

func NewSMTPMailer(cfg internal.NotificationConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		cfg:    cfg,
	}
}

func (m *SMTPMailer) Send(to, subject, htmlBody, textBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.FromAddress)
	msg.SetHeader("To", to)
	if m.cfg.ReplyToAddress != "" {
		msg.SetHeader("Reply-To", m.cfg.ReplyToAddress)
	}
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", textBody)
	msg.AddAlternative("text/html", htmlBody)

	return m.dialer.DialAndSend(msg)
}

// LogMailer logs messages instead of sending them. Used in development when
// no SMTP host is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(to, subject, htmlBody, textBody string) error {
	m.logger.Info("email delivery skipped (no SMTP configured)",
		"to", to,
		"subject", subject)
	return nil
}

// FormatAmount renders a USD currency value like "$1,234.56".
func FormatAmount(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	parts := strings.SplitN(s, ".", 2)
	whole := parts[0]

	neg := strings.HasPrefix(whole, "-")
	if neg {
		whole = whole[1:]
	}
	for i := len(whole) - 3; i > 0; i -= 3 {
		whole = whole[:i] + "," + whole[i:]
	}
	if neg {
		whole = "-" + whole
	}
	return "$" + whole + "." + parts[1]
}

// ---- message rendering ----

func receiptSubject(cfg internal.NotificationConfig) string {
	return fmt.Sprintf("Thank you for your donation to %s", cfg.OrganizationName)
}

func adminAlertSubject(d *datamodel.Donation) string {
	return fmt.Sprintf("New Donation Received - %s %s", FormatAmount(d.Amount), d.DonationType)
}

func donationDate(d *datamodel.Donation) string {
	at := d.CreatedAt
	if d.CompletedAt != nil {
		at = *d.CompletedAt
	}
	return at.Format("January 2, 2006")
}

func dedicationLine(d *datamodel.Donation) string {
	if !d.DedicateGift || d.DedicateName == "" {
		return ""
	}
	switch d.DedicationType {
	case datamodel.DedicationMemory:
		return fmt.Sprintf("In memory of %s", d.DedicateName)
	default:
		return fmt.Sprintf("In honor of %s", d.DedicateName)
	}
}

func renderReceiptText(cfg internal.NotificationConfig, d *datamodel.Donation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s %s,\n\n", d.FirstName, d.LastName)
	fmt.Fprintf(&b, "Thank you for your generous %s donation of %s to %s.\n\n",
		d.DonationType, FormatAmount(d.Amount), cfg.OrganizationName)
	fmt.Fprintf(&b, "Donation ID: %s\n", d.ID)
	fmt.Fprintf(&b, "Date: %s\n", donationDate(d))
	if line := dedicationLine(d); line != "" {
		fmt.Fprintf(&b, "Dedication: %s\n", line)
	}
	b.WriteString("\nThis letter serves as your receipt for tax purposes. No goods or services were provided in exchange for this contribution.\n")
	if cfg.TaxID != "" {
		fmt.Fprintf(&b, "Tax ID: %s\n", cfg.TaxID)
	}
	fmt.Fprintf(&b, "\n%s\n%s\n", cfg.OrganizationName, cfg.OrganizationAddress)
	return b.String()
}

func renderReceiptHTML(cfg internal.NotificationConfig, d *datamodel.Donation) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><body style=\"font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto;\">")
	fmt.Fprintf(&b, "<h2>Thank you for your donation</h2>")
	fmt.Fprintf(&b, "<p>Dear %s %s,</p>", d.FirstName, d.LastName)
	fmt.Fprintf(&b, "<p>Thank you for your generous %s donation of <strong>%s</strong> to %s.</p>",
		d.DonationType, FormatAmount(d.Amount), cfg.OrganizationName)
	b.WriteString("<ul>")
	fmt.Fprintf(&b, "<li>Donation ID: %s</li>", d.ID)
	fmt.Fprintf(&b, "<li>Date: %s</li>", donationDate(d))
	if line := dedicationLine(d); line != "" {
		fmt.Fprintf(&b, "<li>Dedication: %s</li>", line)
	}
	b.WriteString("</ul>")
	b.WriteString("<p>This letter serves as your receipt for tax purposes. No goods or services were provided in exchange for this contribution.</p>")
	if cfg.TaxID != "" {
		fmt.Fprintf(&b, "<p>Tax ID: %s</p>", cfg.TaxID)
	}
	fmt.Fprintf(&b, "<p>%s<br>%s</p>", cfg.OrganizationName, cfg.OrganizationAddress)
	b.WriteString("</body></html>")
	return b.String()
}

func renderAdminAlertText(d *datamodel.Donation) string {
	var b strings.Builder
	b.WriteString("A new donation was completed.\n\n")
	fmt.Fprintf(&b, "Donation ID: %s\n", d.ID)
	fmt.Fprintf(&b, "Amount: %s (%s)\n", FormatAmount(d.Amount), d.DonationType)
	fmt.Fprintf(&b, "Donor: %s\n", d.DonorName())
	if !d.IsAnonymous {
		fmt.Fprintf(&b, "Email: %s\n", d.Email)
	}
	if line := dedicationLine(d); line != "" {
		fmt.Fprintf(&b, "Dedication: %s\n", line)
	}
	fmt.Fprintf(&b, "Completed: %s\n", donationDate(d))
	return b.String()
}

func renderAdminAlertHTML(d *datamodel.Donation) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><body style=\"font-family: Arial, sans-serif; color: #333;\">")
	b.WriteString("<h2>New Donation Received</h2><ul>")
	fmt.Fprintf(&b, "<li>Donation ID: %s</li>", d.ID)
	fmt.Fprintf(&b, "<li>Amount: %s (%s)</li>", FormatAmount(d.Amount), d.DonationType)
	fmt.Fprintf(&b, "<li>Donor: %s</li>", d.DonorName())
	if !d.IsAnonymous {
		fmt.Fprintf(&b, "<li>Email: %s</li>", d.Email)
	}
	if line := dedicationLine(d); line != "" {
		fmt.Fprintf(&b, "<li>Dedication: %s</li>", line)
	}
	fmt.Fprintf(&b, "<li>Completed: %s</li>", donationDate(d))
	b.WriteString("</ul></body></html>")
	return b.String()
}
