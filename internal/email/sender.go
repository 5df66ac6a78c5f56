// Package email delivers the account verification and welcome messages.
package email

import (
	"context"
	"fmt"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/config"
)

// Sender delivers transactional email.
type Sender interface {
	SendOTP(ctx context.Context, to, name, code string, ttl time.Duration) error
	SendWelcome(ctx context.Context, to, name string) error
}

// NewSender builds the sender selected by cfg.Provider.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	switch cfg.Provider {
	case "ses":
		return NewSESSender(cfg.AWSRegion, cfg.FromEmail, cfg.FromName, cfg.ClientURL)
	case "log", "":
		return NewLogSender(), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
