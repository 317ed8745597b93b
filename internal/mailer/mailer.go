package mailer

import (
	"context"
	"fmt"
	"mime/quotedprintable"
	"net/smtp"
	"strings"

	"github.com/neotogether/neotogether/internal/config"
	"github.com/neotogether/neotogether/internal/telemetry"
)

// Mailer submits magic-link emails over SMTP. Delivery is best-effort:
// failures are logged and swallowed so login and signup flows never fail
// because of a downstream mail problem.
type Mailer struct {
	cfg   config.SMTPConfig
	debug bool
}

func New(cfg config.SMTPConfig, debug bool) *Mailer {
	return &Mailer{cfg: cfg, debug: debug}
}

// SendMagicLink emails a single-use login link. Returns whether the mail
// was handed to the SMTP server; callers only log the outcome.
func (m *Mailer) SendMagicLink(ctx context.Context, email, token, frontendURL string) bool {
	logger := telemetry.LogFromContext(ctx).WithFields(map[string]interface{}{
		"operation": "send_magic_link",
		"to":        email,
	})

	magicLink := fmt.Sprintf("%s/auth/verify?token=%s", frontendURL, token)

	if m.debug {
		logger.WithField("magic_link", magicLink).Info("Debug mode: magic link not emailed")
		return true
	}

	msg := buildMessage(m.cfg.FromEmail, email, "Your Neo Together Login Link", magicLink)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var smtpAuth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		smtpAuth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, smtpAuth, m.cfg.FromEmail, []string{email}, msg); err != nil {
		logger.WithError(err).Error("Failed to send magic link email")
		return false
	}

	logger.Info("Magic link email sent")
	return true
}

func buildMessage(from, to, subject, magicLink string) []byte {
	text := fmt.Sprintf(
		"Welcome to Neo Together!\r\n\r\n"+
			"Click the link below to log in to your account:\r\n%s\r\n\r\n"+
			"This link will expire in 15 minutes.\r\n"+
			"If you didn't request this email, you can safely ignore it.\r\n",
		magicLink,
	)

	html := fmt.Sprintf(
		`<html><body>`+
			`<h1>Welcome to Neo Together!</h1>`+
			`<p>Click the link below to log in to your account:</p>`+
			`<p><a href="%s">Log In to Neo Together</a></p>`+
			`<p>Or copy and paste this link into your browser:</p>`+
			`<p>%s</p>`+
			`<p>This link will expire in 15 minutes.<br>`+
			`If you didn't request this email, you can safely ignore it.</p>`+
			`</body></html>`,
		magicLink, magicLink,
	)

	const boundary = "neo-together-alt"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	writePart(&b, boundary, "text/plain; charset=utf-8", text)
	writePart(&b, boundary, "text/html; charset=utf-8", html)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}

func writePart(b *strings.Builder, boundary, contentType, body string) {
	fmt.Fprintf(b, "--%s\r\n", boundary)
	fmt.Fprintf(b, "Content-Type: %s\r\n", contentType)
	b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
	qp := quotedprintable.NewWriter(b)
	qp.Write([]byte(body))
	qp.Close()
	b.WriteString("\r\n")
}
