package mail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// emailsAPI is the part of the Resend client the sender uses.
type emailsAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendConfig addresses outgoing messages.
type ResendConfig struct {
	APIKey   string
	From     string
	To       string
	SiteName string
}

// ResendSender delivers contact requests through the Resend API.
type ResendSender struct {
	emails emailsAPI
	cfg    ResendConfig
	logger *zap.Logger
}

// NewResendSender builds a sender backed by the Resend SDK.
func NewResendSender(cfg ResendConfig, logger *zap.Logger) (*ResendSender, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("mail.resend_api_key is required")
	}
	if cfg.To == "" {
		return nil, fmt.Errorf("mail.to is required")
	}
	return newResendSender(resend.NewClient(cfg.APIKey).Emails, cfg, logger), nil
}

func newResendSender(emails emailsAPI, cfg ResendConfig, logger *zap.Logger) *ResendSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResendSender{emails: emails, cfg: cfg, logger: logger}
}

// Send validates req, renders it and hands it to Resend.
func (s *ResendSender) Send(ctx context.Context, req ContactRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	html, err := RenderHTML(req, s.cfg.SiteName)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRelayFailure, err)
	}
	sent, err := s.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.cfg.From,
		To:      []string{s.cfg.To},
		Subject: Subject(req),
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRelayFailure, err)
	}
	s.logger.Info("contact message relayed", zap.String("id", sent.Id), zap.String("location", req.Location))
	return nil
}
