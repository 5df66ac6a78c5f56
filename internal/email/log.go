package email

import (
	"context"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/metrics"
	"go.uber.org/zap"
)

// LogSender writes messages to the application log instead of delivering them.
// Used in development, where the OTP is read from the console.
type LogSender struct{}

func NewLogSender() *LogSender { return &LogSender{} }

func (LogSender) SendOTP(_ context.Context, to, name, code string, ttl time.Duration) error {
	logger.Log.Info("OTP email (not delivered)",
		zap.String("to", to),
		zap.String("name", name),
		zap.String("code", code),
		zap.Duration("ttl", ttl),
	)
	metrics.RecordEmail("otp", nil)
	return nil
}

func (LogSender) SendWelcome(_ context.Context, to, name string) error {
	logger.Log.Info("Welcome email (not delivered)", zap.String("to", to), zap.String("name", name))
	metrics.RecordEmail("welcome", nil)
	return nil
}
