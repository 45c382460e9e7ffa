package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/config"
	"go.uber.org/zap"
)

type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP mailer when SMTP is configured and a log-only mailer otherwise.
func New(cfg config.SMTPConfig, logger *zap.Logger) Mailer {
	if cfg.Enabled() {
		return &SMTPMailer{cfg: cfg, logger: logger}
	}
	logger.Warn("SMTP not configured, emails will only be logged")
	return &LogMailer{logger: logger}
}

type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{msg.To}, buildMIME(m.cfg.From, msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	m.logger.Info("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

type LogMailer struct {
	logger *zap.Logger
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email (not sent)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.TextBody))
	return nil
}

func buildMIME(from string, msg Message) []byte {
	const boundary = "mmv-boundary-7f3a"
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	if msg.HTMLBody == "" {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(msg.TextBody)
		return b.Bytes()
	}
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s\r\n", boundary, msg.TextBody)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s\r\n", boundary, msg.HTMLBody)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return b.Bytes()
}

var (
	invitationHTML = template.Must(template.New("invitation").Parse(
		`<p>Hello{{if .Name}} {{.Name}}{{end}},</p>
<p>You have been invited to join as a <strong>{{.Role}}</strong>.</p>
<p><a href="{{.Link}}">Accept your invitation</a> before {{.Expires}}.</p>`))
	resetHTML = template.Must(template.New("reset").Parse(
		`<p>Hello{{if .Name}} {{.Name}}{{end}},</p>
<p><a href="{{.Link}}">Reset your password</a>. The link expires at {{.Expires}}.</p>
<p>If you did not ask for this you can ignore this email.</p>`))
)

type linkData struct {
	Name    string
	Role    string
	Link    string
	Expires string
}

func render(t *template.Template, d linkData) string {
	var b strings.Builder
	if err := t.Execute(&b, d); err != nil {
		return ""
	}
	return b.String()
}

func InvitationMessage(to, name, role, link string, expires time.Time) Message {
	d := linkData{Name: name, Role: strings.ToLower(role), Link: link, Expires: expires.UTC().Format(time.RFC1123)}
	return Message{
		To:       to,
		Subject:  "You're invited to MMV Freelance",
		TextBody: fmt.Sprintf("You have been invited to join as a %s.\nAccept here: %s\nThe link expires %s.", d.Role, link, d.Expires),
		HTMLBody: render(invitationHTML, d),
	}
}

func PasswordResetMessage(to, name, link string, expires time.Time) Message {
	d := linkData{Name: name, Link: link, Expires: expires.UTC().Format(time.RFC1123)}
	return Message{
		To:       to,
		Subject:  "Reset your password",
		TextBody: fmt.Sprintf("Reset your password here: %s\nThe link expires %s.", link, d.Expires),
		HTMLBody: render(resetHTML, d),
	}
}
