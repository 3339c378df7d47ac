package notification

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/potlucky/potluck-api/internal/config"
)

// InviteMailer delivers invitation links to prospective guests.
type InviteMailer interface {
	SendInvite(recipientEmail, partyName, inviteURL string) error
}

// SMTPInviteMailer sends invitation emails using an SMTP server.
type SMTPInviteMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPInviteMailer constructs a new SMTPInviteMailer from config.
func NewSMTPInviteMailer(cfg config.EmailConfig) (*SMTPInviteMailer, error) {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return nil, fmt.Errorf("smtp_host is required")
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("email from address is required")
	}

	return &SMTPInviteMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
	}, nil
}

// SendInvite dispatches an invitation email to a prospective guest.
func (m *SMTPInviteMailer) SendInvite(recipientEmail, partyName, inviteURL string) error {
	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n",
		m.from, recipientEmail, fmt.Sprintf("You are invited to %s", partyName))

	body := strings.Builder{}
	body.WriteString("Hello,\n\n")
	body.WriteString(fmt.Sprintf("You've been invited to %s.\n", partyName))
	body.WriteString("Open the link below to join and pick what you'll bring:\n\n")
	body.WriteString(inviteURL + "\n\n")
	body.WriteString("The invitation may expire or run out of uses. If you did not expect this email, you can ignore it.\n\n")
	body.WriteString("Thanks,\nThe Potlucky Team\n")

	message := []byte(headers + body.String())

	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var auth smtp.Auth
	if strings.TrimSpace(m.username) != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{recipientEmail}, message)
}
