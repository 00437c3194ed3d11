package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

var ErrSendFailed = errors.New("failed to send email")

// Sender delivers transactional mail. Callers treat delivery as best-effort.
type Sender interface {
	SendWelcome(ctx context.Context, to, loginURL string) error
}

type Config struct {
	ServerToken  string `mapstructure:"server_token"`
	AccountToken string `mapstructure:"account_token"`
	SenderEmail  string `mapstructure:"sender_email"`
}

// PostmarkSender delivers mail through Postmark's transactional API.
type PostmarkSender struct {
	client *postmark.Client
	from   string
}

func NewPostmarkSender(cfg Config) (*PostmarkSender, error) {
	if cfg.ServerToken == "" || cfg.SenderEmail == "" {
		return nil, errors.New("mail: server token and sender email are required")
	}
	return &PostmarkSender{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		from:   cfg.SenderEmail,
	}, nil
}

func (s *PostmarkSender) SendWelcome(ctx context.Context, to, loginURL string) error {
	body := fmt.Sprintf(
		"Hello,\n\nAn account has been created for you on ToggleHub.\n"+
			"Sign in here to get started:\n%s\n\nWelcome aboard!", loginURL)

	res, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.from,
		To:       to,
		Subject:  "Welcome to ToggleHub",
		TextBody: body,
		Tag:      "welcome",
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if res.ErrorCode > 0 {
		return errors.Join(ErrSendFailed, fmt.Errorf("postmark error %d: %s", res.ErrorCode, res.Message))
	}
	return nil
}

// NoopSender is used when mail is not configured (dev, tests).
type NoopSender struct{}

func (NoopSender) SendWelcome(ctx context.Context, to, loginURL string) error {
	return nil
}
