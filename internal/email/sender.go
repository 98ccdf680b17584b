package email

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"
)

// ErrSendFailed marks a mail transport failure. Callers treat it as a soft
// failure: the reset record it was meant to deliver stays in place and simply
// expires unused.
var ErrSendFailed = errors.New("failed to send email")

// SMTPConfig holds the mail transport settings. From address and display name
// come from deployment configuration, never from code.
type SMTPConfig struct {
	Host        string
	Port        string
	Username    string
	Password    string
	FromAddress string
	FromName    string
}

func (c *SMTPConfig) validate() error {
	if c.Host == "" || c.Port == "" || c.FromAddress == "" {
		return errors.New("invalid SMTP configuration")
	}
	return nil
}

var resetCodeTemplate = template.Must(template.New("reset_code").Parse(`<html>
<body>
<p>Hello,</p>
<p>Your password reset code is:</p>
<h2>{{.Code}}</h2>
<p>The code expires in {{.ExpiresIn}}. If you did not request a password reset, you can ignore this email.</p>
<p>{{.FromName}}</p>
</body>
</html>`))

// Sender delivers emails over SMTP. Best effort, at most one attempt per call.
type Sender struct {
	config *SMTPConfig
}

func NewSender(config *SMTPConfig) (*Sender, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &Sender{config: config}, nil
}

// SendResetCodeEmail renders the reset-code template and sends it to the
// given address.
func (s *Sender) SendResetCodeEmail(_ context.Context, to string, code string, expiresAt time.Time) error {
	expiresIn := time.Until(expiresAt).Round(time.Minute)

	var body strings.Builder
	err := resetCodeTemplate.Execute(&body, map[string]string{
		"Code":      code,
		"ExpiresIn": expiresIn.String(),
		"FromName":  s.config.FromName,
	})
	if err != nil {
		return fmt.Errorf("failed to render reset code email: %w", err)
	}

	return s.send(to, "Your password reset code", body.String())
}

func (s *Sender) send(to, subject, htmlBody string) error {
	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.config.FromName, s.config.FromAddress, to, subject, htmlBody))

	addr := fmt.Sprintf("%s:%s", s.config.Host, s.config.Port)
	if err := smtp.SendMail(addr, auth, s.config.FromAddress, []string{to}, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}
