package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clinicalai/apiv1/utils"
	"go.uber.org/zap"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	Logger *zap.Logger
}

func (m LogMailer) Send(_ context.Context, msg Message) error {
	m.Logger.Info("outgoing email",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

type SendGrid struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

func NewSendGrid(apiKey, from, baseURL string, timeout time.Duration) *SendGrid {
	return &SendGrid{
		apiKey:  apiKey,
		from:    from,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type sgAddress struct {
	Email string `json:"email"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgRequest struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(sgRequest{
		Personalizations: []sgPersonalization{{To: []sgAddress{{Email: msg.To}}}},
		From:             sgAddress{Email: s.from},
		Subject:          msg.Subject,
		Content:          []sgContent{{Type: "text/plain", Value: msg.Body}},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// New picks SendGrid when an API key is configured and falls back to logging.
func New(apiKey, from, baseURL string, timeout time.Duration, logger *zap.Logger) Mailer {
	if apiKey == "" {
		return LogMailer{Logger: logger}
	}
	return NewSendGrid(apiKey, from, baseURL, timeout)
}

func VerificationMessage(to, token, baseURL string) Message {
	return Message{
		To:      to,
		Subject: "Verify your Clinical AI Assistant account",
		Body: fmt.Sprintf("Your verification token is %s\n\nPOST it to %s/api/auth/verify to confirm your email.",
			token, strings.TrimRight(baseURL, "/")),
	}
}

func ResetMessage(to, token, baseURL string) Message {
	return Message{
		To:      to,
		Subject: "Reset your Clinical AI Assistant password",
		Body: fmt.Sprintf("Your password reset token is %s\n\nIt expires in %d minutes. POST it with a new password to %s/api/auth/reset_password.",
			token, utils.CODE_DURATION, strings.TrimRight(baseURL, "/")),
	}
}
