package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(file, []byte("[api]\nbase_url = \"http://echoes.test\"\ntimeout = 7\n"), 0600))

	s, err := InitConfig(file)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "credentials"), s.CredentialsPath)
	assert.Equal(t, "http://echoes.test", GetString("api.base_url"))
	assert.Equal(t, 7, GetInt("api.timeout"))
	assert.Equal(t, "text", GetString("output.format"))

	t.Setenv("ECHOES_OUTPUT_FORMAT", "json")
	assert.Equal(t, "json", GetString("output.format"))
}

func TestMalformedConfigFileIsReported(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(file, []byte("[api\nbase_url = \"http://echoes.test\"\n"), 0600))

	_, err := InitConfig(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), file)

	_, err = InitConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.NoError(t, err)
}

func TestCredentialsRoundTrip(t *testing.T) {
	_, err := InitConfig(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	creds, err := LoadCredentials()
	require.NoError(t, err)
	assert.Nil(t, creds)
	assert.False(t, creds.Valid(time.Now()))

	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, SaveCredentials(&Credentials{Token: "t", ExpiresAt: now.Add(time.Hour), UserID: "u1"}))
	info, err := os.Stat(Current().CredentialsPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	creds, err = LoadCredentials()
	require.NoError(t, err)
	assert.True(t, creds.Valid(now))
	assert.False(t, creds.Valid(now.Add(2*time.Hour)))

	require.NoError(t, DeleteCredentials())
	require.NoError(t, DeleteCredentials())
}

func TestPrinterTable(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, Format: "json"}
	require.NoError(t, p.Table([]string{"ID", "Title"}, [][]string{{"w1", "Rain"}}))
	assert.JSONEq(t, `[{"id":"w1","title":"Rain"}]`, buf.String())

	buf.Reset()
	p.Format = "text"
	require.NoError(t, p.Table([]string{"ID", "Title"}, [][]string{{"w1", "Rain"}}))
	assert.Contains(t, buf.String(), "w1  Rain")
}
