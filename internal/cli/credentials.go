package cli

import (
	"encoding/json"
	"errors"
	"os"
	"time"
)

// Credentials is the session stored after login.
type Credentials struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
}

// LoadCredentials returns nil, nil when nobody is logged in.
func LoadCredentials() (*Credentials, error) {
	data, err := os.ReadFile(settings.CredentialsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// SaveCredentials writes the session readable by the owner only.
func SaveCredentials(creds *Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(settings.CredentialsPath, data, 0600)
}

func DeleteCredentials() error {
	err := os.Remove(settings.CredentialsPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Valid reports whether the token is present and unexpired at now.
func (c *Credentials) Valid(now time.Time) bool {
	return c != nil && c.Token != "" && now.Before(c.ExpiresAt)
}
