package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neotogether/neotogether/internal/config"
)

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage(
		"no-reply@neotogether.app",
		"alice@example.com",
		"Your Neo Together Login Link",
		"https://app.example.com/auth/verify?token=abc123",
	))

	assert.Contains(t, msg, "From: no-reply@neotogether.app\r\n")
	assert.Contains(t, msg, "To: alice@example.com\r\n")
	assert.Contains(t, msg, "Subject: Your Neo Together Login Link\r\n")
	assert.Contains(t, msg, "multipart/alternative")
	assert.Contains(t, msg, "text/plain; charset=utf-8")
	assert.Contains(t, msg, "text/html; charset=utf-8")
	assert.Contains(t, msg, "https://app.example.com/auth/verify?token=3Dabc123")
	assert.Contains(t, msg, "expire in 15 minutes")
	// Closing boundary terminates the message.
	assert.Contains(t, msg, "--neo-together-alt--\r\n")
}

func TestSendMagicLinkDebugMode(t *testing.T) {
	m := New(config.SMTPConfig{FromEmail: "no-reply@neotogether.app"}, true)

	// Debug mode never touches the network and reports success.
	sent := m.SendMagicLink(context.Background(), "alice@example.com", "token-123", "http://localhost:5173")
	assert.True(t, sent)
}
