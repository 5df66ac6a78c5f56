package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("MEDIA_PROVIDER", "")
	t.Setenv("DB_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8787", cfg.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Media.Provider)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.NotEmpty(t, cfg.JWTSecret, "development gets a fallback secret")
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadRejectsIncompleteMediaProvider(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("MEDIA_PROVIDER", "cloudinary")
	t.Setenv("CLOUDINARY_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "CLOUDINARY_URL")
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC", d.DSN())

	d.URL = "postgres://x"
	assert.Equal(t, "postgres://x", d.DSN())
}

func TestDurationOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("MEDIA_PROVIDER", "local")
	t.Setenv("OTP_TTL", "2m")
	t.Setenv("GEMINI_TIMEOUT", "bogus")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 10*time.Second, cfg.Gemini.Timeout)
}
