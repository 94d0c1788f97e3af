package identity

import (
	"context"
	"errors"

	"github.com/gigdesk/gigdesk-backend/pkg/logger"
)

// LogSender writes reset tokens to the log instead of delivering mail.
// Development environments only; production wires a real mail provider.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) (*LogSender, error) {
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &LogSender{logg: logg}, nil
}

func (s *LogSender) SendPasswordReset(ctx context.Context, email, rawToken string) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"email": email,
		"token": rawToken,
	})
	s.logg.Info(ctx, "password reset token issued")
	return nil
}
