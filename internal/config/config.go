package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type HTTPConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
	RetryMax       int `toml:"retry_max"`
	RetryBackoffMs int `toml:"retry_backoff_ms"`
}

type UIConfig struct {
	GuardMinDelayMs int `toml:"guard_min_delay_ms"`
	ToastSeconds    int `toml:"toast_seconds"`
}

type DebugConfig struct {
	LogResponses bool   `toml:"log_responses"`
	LogFile      string `toml:"log_file"`
}

type Config struct {
	BaseURL string      `toml:"base_url"`
	DataDir string      `toml:"data_dir"`
	HTTP    HTTPConfig  `toml:"http"`
	UI      UIConfig    `toml:"ui"`
	Debug   DebugConfig `toml:"debug"`
}

func Default() Config {
	defaultDataDir := defaultDataDir()
	return Config{
		BaseURL: "http://127.0.0.1:8000",
		DataDir: defaultDataDir,
		HTTP: HTTPConfig{
			TimeoutSeconds: 30,
			RetryMax:       2,
			RetryBackoffMs: 250,
		},
		UI: UIConfig{
			GuardMinDelayMs: 500,
			ToastSeconds:    3,
		},
		Debug: DebugConfig{
			LogResponses: false,
			LogFile:      filepath.Join(defaultDataDir, "skydeck.log"),
		},
	}
}

func LoadOrCreate(path string) (Config, error) {
	config := Default()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return config, err
			}

			configData, err := toml.Marshal(config)
			if err != nil {
				return config, err
			}

			if err := os.WriteFile(path, configData, 0o644); err != nil {
				return config, err
			}

			return config, nil
		}

		return config, err
	}

	configData, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}

	if err := toml.Unmarshal(configData, &config); err != nil {
		return config, err
	}

	config.DataDir = expandPath(config.DataDir)
	config.BaseURL = strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")

	if config.BaseURL == "" {
		return config, errors.New("base_url is required")
	}

	if config.HTTP.TimeoutSeconds <= 0 {
		config.HTTP.TimeoutSeconds = 30
	}

	if config.HTTP.RetryMax < 0 {
		config.HTTP.RetryMax = 0
	}

	if config.UI.GuardMinDelayMs < 0 {
		config.UI.GuardMinDelayMs = 0
	}

	return config, nil
}

func defaultDataDir() string {
	homeDir, _ := os.UserHomeDir()

	if homeDir == "" {
		return ".skydeck"
	}

	return filepath.Join(homeDir, ".skydeck")
}

func expandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		homeDir, _ := os.UserHomeDir()

		if homeDir != "" {
			trimmed := strings.TrimPrefix(path, "~")
			trimmed = strings.TrimPrefix(trimmed, string(os.PathSeparator))

			return filepath.Join(homeDir, trimmed)
		}
	}

	return path
}
