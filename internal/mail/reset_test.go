package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userauth/api/internal/config"
)

type recordingSender struct {
	sent []Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestResetMailer_SendPasswordReset(t *testing.T) {
	sender := &recordingSender{}
	mailer, err := NewResetMailer(sender, "https://app.example/reset-password/", time.Hour)
	require.NoError(t, err)

	require.NoError(t, mailer.SendPasswordReset(context.Background(), "a@x.com", "abc123"))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "a@x.com", msg.To)
	assert.Equal(t, resetSubject, msg.Subject)
	assert.Contains(t, msg.Body, "https://app.example/reset-password/abc123")
	assert.Contains(t, msg.Body, "valid for 60 minutes")
	assert.Contains(t, msg.Body, "a@x.com")
}

func TestResetMailer_PropagatesSendError(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	mailer, err := NewResetMailer(sender, "http://localhost", time.Hour)
	require.NoError(t, err)

	err = mailer.SendPasswordReset(context.Background(), "a@x.com", "tok")
	assert.ErrorContains(t, err, "smtp down")
}

func TestNewSender(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	t.Run("log sender without host", func(t *testing.T) {
		sender, err := NewSender(config.MailConfig{}, logger)
		require.NoError(t, err)
		require.IsType(t, &LogSender{}, sender)

		require.NoError(t, sender.Send(context.Background(), Message{To: "a@x.com", Subject: "s"}))
		assert.Contains(t, buf.String(), "a@x.com")
	})

	t.Run("smtp sender with host", func(t *testing.T) {
		sender, err := NewSender(config.MailConfig{
			Host:     "smtp.example",
			Port:     587,
			Username: "u",
			Password: "p",
			From:     "no-reply@example",
			Timeout:  time.Second,
		}, logger)
		require.NoError(t, err)
		assert.IsType(t, &SMTPSender{}, sender)
	})

	t.Run("smtp sender requires from", func(t *testing.T) {
		_, err := NewSender(config.MailConfig{Host: "smtp.example", Port: 25}, logger)
		assert.Error(t, err)
	})
}
