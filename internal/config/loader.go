// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Enforce UTC as the process timezone to prevent drift bugs. The BST
//     adjustment applied to raw event timestamps is explicit and localized;
//     nothing else in the service may depend on the host zone.
//  2. Load a .env file via godotenv (non-fatal if absent).
//  3. Use envconfig to process struct tags and populate the Config struct.
//  4. Populate BuildInfo from linker-injected variables.
//  5. Validate the struct using go-playground/validator.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Build metadata injected via -ldflags "-X prison-events/internal/config.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// LoadConfig loads, defaults, and validates the service configuration.
// It returns an error describing the first invalid or missing value.
func LoadConfig() (*Config, error) {
	time.Local = time.UTC

	// A missing dotenv file is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	cfg.Build = BuildInfo{
		Version: Version,
		Commit:  Commit,
		Date:    Date,
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}
