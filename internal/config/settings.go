package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/methodic-labs/chronicle-bulk-downloader/internal/chronicle"
)

// HardMaxRatePerSecond is the upper bound on the configurable outbound
// request rate. Configurations above it are refused, not clamped.
const HardMaxRatePerSecond = 10

// Settings holds all configuration options.
type Settings struct {
	// Download settings
	DownloadsPath          string  `json:"downloads_path"`
	BaseURL                string  `json:"base_url"`
	RatePerSecond          float64 `json:"rate_per_second"`
	RateBurst              int     `json:"rate_burst"`
	MaxInFlight            int     `json:"max_in_flight"`
	MaxConcurrentDownloads int     `json:"max_concurrent_downloads"`

	// Retry behavior
	MaxRetries            int     `json:"max_retries"`
	RetryBaseDelaySeconds float64 `json:"retry_base_delay_seconds"`
	RetryMaxDelaySeconds  float64 `json:"retry_max_delay_seconds"`
	RequestTimeoutSeconds float64 `json:"request_timeout_seconds"`

	// Post-run behavior
	CleanZeroByte bool `json:"clean_zero_byte"`
	Archive       bool `json:"archive"`

	// Filter behavior
	StrictInclude bool `json:"strict_include"`

	// Last-used request shape, persisted for the TUI between sessions.
	StudyID         string   `json:"study_id"`
	ParticipantIDs  string   `json:"participant_ids"`
	InclusiveFilter bool     `json:"inclusive_filter"`
	DataTypes       []string `json:"data_types"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		DownloadsPath:          filepath.Join(homeDir, "Chronicle"),
		BaseURL:                chronicle.DefaultBaseURL,
		RatePerSecond:          2,
		RateBurst:              4,
		MaxInFlight:            4,
		MaxConcurrentDownloads: 4,

		MaxRetries:            5,
		RetryBaseDelaySeconds: 0.5,
		RetryMaxDelaySeconds:  30,
		RequestTimeoutSeconds: 60,

		DataTypes: []string{"raw"},
	}
}

// Load reads settings from a JSON file. A missing file yields defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, goerr.Wrap(err, "read settings file", goerr.V("path", path))
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, goerr.Wrap(err, "parse settings file", goerr.V("path", path))
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return goerr.Wrap(err, "create settings directory", goerr.V("dir", dir))
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "encode settings")
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultPath returns the per-user settings file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", goerr.Wrap(err, "resolve user config directory")
	}
	return filepath.Join(dir, "chronicle-dl", "settings.json"), nil
}

// Validate rejects configurations the downloader must not run with.
func (s *Settings) Validate() error {
	if s.RatePerSecond <= 0 {
		return goerr.New("rate_per_second must be positive",
			goerr.V("rate", s.RatePerSecond))
	}
	if s.RatePerSecond > HardMaxRatePerSecond {
		return goerr.New("rate_per_second exceeds the hard ceiling",
			goerr.V("rate", s.RatePerSecond), goerr.V("ceiling", HardMaxRatePerSecond))
	}
	if s.RateBurst < 1 {
		return goerr.New("rate_burst must be at least 1")
	}
	if s.MaxInFlight < 1 {
		return goerr.New("max_in_flight must be at least 1")
	}
	if s.MaxConcurrentDownloads < 1 {
		return goerr.New("max_concurrent_downloads must be at least 1")
	}
	if s.MaxRetries < 1 {
		return goerr.New("max_retries must be at least 1")
	}
	return nil
}

// RetryPolicy converts the retry settings into the fetch client's policy.
func (s *Settings) RetryPolicy() chronicle.RetryPolicy {
	return chronicle.RetryPolicy{
		MaxAttempts: s.MaxRetries,
		BaseDelay:   time.Duration(s.RetryBaseDelaySeconds * float64(time.Second)),
		MaxDelay:    time.Duration(s.RetryMaxDelaySeconds * float64(time.Second)),
		Multiplier:  2.0,
	}
}

// RequestTimeout returns the per-request timeout.
func (s *Settings) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds * float64(time.Second))
}
