package email

import (
	"bytes"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/khaki/internal/config"
	mail "github.com/xhit/go-simple-mail/v2"
)

//go:embed templates/*.html
var templatesFS embed.FS

// ChangedDay is one day whose hours were changed.
type ChangedDay struct {
	Date  string
	Hours string
}

// UpdateNotification tells a user that the administrator changed their calendar.
type UpdateNotification struct {
	UserEmail   string
	UserName    string
	ChangedBy   string
	Days        []ChangedDay
	Total       string
	CalendarURL string
}

// ReminderNotification asks a user to fill in the hours of a week.
type ReminderNotification struct {
	UserEmail   string
	UserName    string
	WeekStart   string
	WeekEnd     string
	Deadline    string
	CalendarURL string
}

// NotificationService sends notification mails.
type NotificationService struct {
	config    *config.EmailConfig
	templates *template.Template
	send      func(to, subject, body string) error
}

// New creates a new email notification service.
func New(cfg *config.EmailConfig) (*NotificationService, error) {
	if cfg == nil {
		cfg = &config.EmailConfig{}
	}

	t, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	n := &NotificationService{
		config:    cfg,
		templates: t,
	}
	n.send = n.sendEmail
	return n, nil
}

// SendCalendarUpdated notifies a user about hours changed on their behalf.
func (n *NotificationService) SendCalendarUpdated(notification UpdateNotification) error {
	subject := fmt.Sprintf("[khaki] %s updated %d day(s) of your calendar", notification.ChangedBy, len(notification.Days))
	return n.deliver(notification.UserEmail, notification.UserName, subject, "updated.html", notification)
}

// SendReminder asks a user to record the hours of a past week.
func (n *NotificationService) SendReminder(notification ReminderNotification) error {
	subject := fmt.Sprintf("[khaki] No hours recorded for %s - %s", notification.WeekStart, notification.WeekEnd)
	return n.deliver(notification.UserEmail, notification.UserName, subject, "reminder.html", notification)
}

func (n *NotificationService) deliver(to, name, subject, tmpl string, data any) error {
	if !n.config.Enabled {
		log.Debug("Email notifications are disabled, skipping notification")
		return nil
	}

	if to == "" {
		log.Warn("User email is empty, skipping notification", "user", name)
		return nil
	}

	body, err := n.render(tmpl, data)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	if n.config.DryRun {
		log.Info("DRY RUN: Would send email notification", "to", to, "subject", subject)
		return nil
	}

	return n.send(to, subject, body)
}

func (n *NotificationService) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := n.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sendEmail sends an email using go-simple-mail library.
func (n *NotificationService) sendEmail(to, subject, body string) error {
	server := mail.NewSMTPClient()
	server.Host = n.config.SMTPHost
	server.Port = n.config.SMTPPort
	server.Username = n.config.Username
	server.Password = n.config.Password

	switch {
	case n.config.UseSSL:
		server.Encryption = mail.EncryptionSSLTLS
	case n.config.UseTLS:
		server.Encryption = mail.EncryptionSTARTTLS
	default:
		server.Encryption = mail.EncryptionNone
	}

	if n.config.InsecureSkipVerify {
		server.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	server.KeepAlive = false
	server.ConnectTimeout = 10 * time.Second
	server.SendTimeout = 10 * time.Second

	smtpClient, err := server.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() {
		if closeErr := smtpClient.Close(); closeErr != nil {
			log.Warn("Failed to close SMTP client", "error", closeErr)
		}
	}()

	fromName := n.config.FromName
	if fromName == "" {
		fromName = "khaki"
	}

	msg := mail.NewMSG()
	msg.SetFrom(fmt.Sprintf("%s <%s>", fromName, n.config.FromEmail))
	msg.AddTo(to)
	msg.SetSubject(subject)
	msg.SetBody(mail.TextHTML, body)

	if err := msg.Send(smtpClient); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Info("Email notification sent successfully", "to", to, "subject", subject)
	return nil
}
