package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/Nivk0/ktpilot-rag-bot/internal/config"
)

type EmailSender interface {
	SendResetCode(toEmail, code string) error
}

type SMTPEmailSender struct {
	config *config.Config
}

func NewSMTPEmailSender(cfg *config.Config) *SMTPEmailSender {
	return &SMTPEmailSender{config: cfg}
}

const resetCodeHTMLTemplate = `
<html>
<body style="font-family: sans-serif;">
  <h2>KTPilot password reset</h2>
  <p>Your password reset code is:</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 4px;">{{.Code}}</p>
  <p>The code expires in 15 minutes. If you did not request a reset, ignore this email.</p>
</body>
</html>`

// SendResetCode emails a 6-digit recovery code to the user.
func (s *SMTPEmailSender) SendResetCode(toEmail, code string) error {
	if s.config.SMTPHost == "" {
		return fmt.Errorf("SMTP is not configured")
	}

	tpl, err := template.New("reset").Parse(resetCodeHTMLTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse email template: %w", err)
	}

	var body bytes.Buffer
	if err := tpl.Execute(&body, struct{ Code string }{Code: code}); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	headers := []string{
		"From: " + s.config.SMTPFrom,
		"To: " + toEmail,
		"Subject: Your KTPilot password reset code",
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
	}
	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + body.String()

	auth := smtp.PlainAuth("", s.config.SMTPUser, s.config.SMTPPass, s.config.SMTPHost)
	addr := s.config.SMTPHost + ":" + s.config.SMTPPort

	if err := smtp.SendMail(addr, auth, s.config.SMTPFrom, []string{toEmail}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}
