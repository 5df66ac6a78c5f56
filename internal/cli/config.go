// Package cli holds the pieces of the echoes command-line client: its viper
// configuration, stored credentials, the resty API client and output helpers.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Settings is the resolved CLI configuration.
type Settings struct {
	Dir             string
	ConfigFile      string
	CredentialsPath string
}

var settings Settings

func defaultConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = home
		}
		return filepath.Join(appData, "echoes", "cli"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "echoes", "cli"), nil
}

// InitConfig loads config.toml from configPath, or from the user config
// directory when configPath is empty. ECHOES_* environment variables
// override file values (ECHOES_API_BASE_URL for api.base_url).
func InitConfig(configPath string) (Settings, error) {
	dir := filepath.Dir(configPath)
	file := configPath
	if configPath == "" {
		var err error
		dir, err = defaultConfigDir()
		if err != nil {
			return Settings{}, err
		}
		file = filepath.Join(dir, "config.toml")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return Settings{}, err
	}

	viper.SetConfigType("toml")
	viper.SetDefault("api.base_url", "http://localhost:8787")
	viper.SetDefault("api.timeout", 30)
	viper.SetDefault("output.format", "text")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", filepath.Join(dir, "echoes-cli.log"))

	viper.SetEnvPrefix("ECHOES")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigFile(file)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Settings{}, fmt.Errorf("read %s: %w", file, err)
		}
	}

	settings = Settings{Dir: dir, ConfigFile: file, CredentialsPath: filepath.Join(dir, "credentials")}
	return settings, nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetString returns a configuration value, expanding ~ in path keys.
func GetString(key string) string {
	value := viper.GetString(key)
	if key == "log.file" {
		return expandPath(value)
	}
	return value
}

func GetInt(key string) int {
	return viper.GetInt(key)
}

// SetString stores a value and writes the config file.
func SetString(key, value string) error {
	viper.Set(key, value)
	return viper.WriteConfigAs(settings.ConfigFile)
}

// Current returns the settings of the last InitConfig call.
func Current() Settings {
	return settings
}
