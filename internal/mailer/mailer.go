package mailer

import (
	"fmt"
	"strconv"
	"time"

	"github.com/clubcal/clubcal-backend/internal/config"
	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// Mailer sends invitation emails over SMTP. New returns nil when no SMTP
// host is configured; callers treat a nil Mailer as "email disabled" and the
// invite link is surfaced to the issuing owner instead.
type Mailer struct {
	dialer *gomail.Dialer
	sender string
}

func New(cfg *config.Config) *Mailer {
	if cfg.SMTPHost == "" {
		return nil
	}
	port, err := strconv.Atoi(cfg.SMTPPort)
	if err != nil {
		port = 587
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, port, cfg.SMTPUser, cfg.SMTPPass),
		sender: cfg.SMTPSender,
	}
}

// SendInvite emails the coach their invitation link.
func (m *Mailer) SendInvite(to, clubName, inviteURL string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("Message-ID", generateMessageID())
	msg.SetHeader("Date", time.Now().Format(time.RFC1123Z))
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("You have been invited to join %s", clubName))
	msg.SetBody("text/plain", fmt.Sprintf(
		"You have been invited to join %s as a coach.\n\nAccept the invitation here: %s\n\nThe link expires in 7 days.",
		clubName, inviteURL,
	))
	msg.AddAlternative("text/html", fmt.Sprintf(
		`<p>You have been invited to join <b>%s</b> as a coach.</p><p><a href="%s">Accept the invitation</a></p><p>The link expires in 7 days.</p>`,
		clubName, inviteURL,
	))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send invite email: %w", err)
	}
	return nil
}

func generateMessageID() string {
	return fmt.Sprintf("<%s@clubcal.app>", uuid.New().String())
}
