package mail

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"
)

const resetSubject = "Reset your password"

// DefaultResetTemplate is executed with ResetParams.
const DefaultResetTemplate = `Hi,

We received a request to reset the password for {{.Email}}.

Open the link below to choose a new password:

{{.ResetURL}}

The link is valid for {{printf "%.f" .ExpiresIn.Minutes}} minutes and can be used once.

If you did not request a password reset, you can ignore this email.
`

type ResetParams struct {
	Email     string
	ResetURL  string
	ExpiresIn time.Duration
}

type ResetMailer struct {
	sender  Sender
	baseURL string
	ttl     time.Duration
	tmpl    *template.Template
}

func NewResetMailer(sender Sender, baseURL string, ttl time.Duration) (*ResetMailer, error) {
	tmpl, err := template.New("reset").Parse(DefaultResetTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse reset template: %w", err)
	}
	return &ResetMailer{
		sender:  sender,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		tmpl:    tmpl,
	}, nil
}

// SendPasswordReset emails a link carrying token to the given address.
func (m *ResetMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	body, err := m.render(ResetParams{
		Email:     to,
		ResetURL:  m.baseURL + "/" + token,
		ExpiresIn: m.ttl,
	})
	if err != nil {
		return err
	}

	return m.sender.Send(ctx, Message{
		To:      to,
		Subject: resetSubject,
		Body:    body,
	})
}

func (m *ResetMailer) render(params ResetParams) (string, error) {
	var sb strings.Builder
	if err := m.tmpl.Execute(&sb, params); err != nil {
		return "", fmt.Errorf("render reset email: %w", err)
	}
	return sb.String(), nil
}
