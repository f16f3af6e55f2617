package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"github.com/projectpulse/backend/internal/config"
	"github.com/projectpulse/backend/pkg/logger"
)

// MailMessage is one outbound HTML email.
type MailMessage struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Mailer delivers a message. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg *MailMessage) error
}

// NewMailer returns an SMTP mailer, or a mailer that only logs when mail is
// disabled or the account is not configured.
func NewMailer(cfg *config.MailConfig) Mailer {
	if !cfg.Enabled || cfg.Host == "" || cfg.Username == "" {
		logger.Infof("[Email] Mail delivery disabled, messages will be logged only")
		return logMailer{}
	}
	return &SMTPMailer{cfg: *cfg}
}

type logMailer struct{}

func (logMailer) Send(_ context.Context, msg *MailMessage) error {
	logger.Info().Strs("to", msg.To).Str("subject", msg.Subject).Msg("[Email] delivery disabled, message dropped")
	return nil
}

// SMTPMailer sends mail through an authenticated SMTP account.
type SMTPMailer struct {
	cfg config.MailConfig
}

func (m *SMTPMailer) Send(ctx context.Context, msg *MailMessage) error {
	if len(msg.To) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("From: %s\r\n", from))
	message.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ",")))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	message.WriteString("\r\n")
	message.WriteString(msg.HTML)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	var err error
	if m.cfg.UseTLS {
		err = m.sendTLS(addr, auth, from, msg.To, message.String())
	} else {
		err = smtp.SendMail(addr, auth, from, msg.To, []byte(message.String()))
	}
	if err != nil {
		return fmt.Errorf("smtp send to %v: %w", msg.To, err)
	}

	logger.Infof("[Email] Sent %q to %v", msg.Subject, msg.To)
	return nil
}

// sendTLS speaks SMTP over an implicit TLS connection (port 465).
func (m *SMTPMailer) sendTLS(addr string, auth smtp.Auth, from string, to []string, message string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.Host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(message)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// --- message templates ---

func mailLayout(title, greetingName string, paragraphs ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	sb.WriteString(fmt.Sprintf("<h2>%s</h2>", html.EscapeString(title)))
	sb.WriteString(fmt.Sprintf("<p>Hello %s,</p>", html.EscapeString(greetingName)))
	for _, p := range paragraphs {
		sb.WriteString("<p>" + p + "</p>")
	}
	sb.WriteString("<hr><p style=\"color: #888; font-size: 12px;\">ProjectPulse</p>")
	sb.WriteString("</body></html>")
	return sb.String()
}

func codeBlock(code string) string {
	return fmt.Sprintf("<span style=\"font-size: 24px; letter-spacing: 4px; font-weight: bold;\">%s</span>",
		html.EscapeString(code))
}

// AccountCreatedMail tells a new user their username and gives them a code to
// choose their own password. The password itself is never mailed.
func AccountCreatedMail(to, name, username, code string, validHours int) *MailMessage {
	return &MailMessage{
		To:      []string{to},
		Subject: "Your ProjectPulse account",
		HTML: mailLayout("Welcome to ProjectPulse", name,
			fmt.Sprintf("An account has been created for you with the username <b>%s</b>.", html.EscapeString(username)),
			"Use this code on the reset password page to set your password:",
			codeBlock(code),
			fmt.Sprintf("The code is valid for %d hours.", validHours),
		),
	}
}

// VerificationMail carries the email verification code for self-registration.
func VerificationMail(to, name, code string) *MailMessage {
	return &MailMessage{
		To:      []string{to},
		Subject: "Verify your ProjectPulse email",
		HTML: mailLayout("Verify your email", name,
			"Enter this code to verify your email address:",
			codeBlock(code),
		),
	}
}

// PasswordResetMail carries a password reset code.
func PasswordResetMail(to, name, code string, validMinutes int) *MailMessage {
	return &MailMessage{
		To:      []string{to},
		Subject: "ProjectPulse password reset",
		HTML: mailLayout("Password reset", name,
			"Use this code to reset your password:",
			codeBlock(code),
			fmt.Sprintf("The code expires in %d minutes. If you did not ask for a reset you can ignore this email.", validMinutes),
		),
	}
}
