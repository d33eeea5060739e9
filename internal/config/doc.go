// Package config provides configuration management for
// chronicle-bulk-downloader.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - Logger construction with token redaction
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// 2 requests/second against the Chronicle API
//	// 4 concurrent downloads
//	// 5 retry attempts with exponential backoff
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/settings.json")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// # Saving Settings
//
//	settings.DownloadsPath = "/data/chronicle"
//	err := settings.Save("/path/to/settings.json")
//
// # Rate ceiling policy
//
// The outbound request rate is a configuration value with a hard upper
// bound (HardMaxRatePerSecond). Validate refuses configurations above the
// bound instead of silently clamping them; the Chronicle API is shared
// research infrastructure and the ceiling is not a tunable the user can
// bypass.
package config
