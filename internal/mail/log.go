package mail

import (
	"context"

	"go.uber.org/zap"
)

// LogSender records contact requests in the log instead of sending them.
// It is used when no provider key is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender builds a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send validates req and logs it.
func (s *LogSender) Send(_ context.Context, req ContactRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	s.logger.Warn("mail relay not configured, contact message only logged",
		zap.String("subject", Subject(req)),
		zap.String("email", req.Email),
		zap.String("preferred_time", req.PreferredTime),
	)
	return nil
}
