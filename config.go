package payu

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// Config holds the merchant credentials and knobs for one Client.
type Config struct {
	Environment  Environment
	BaseURL      string // optional override, mainly for tests
	PosID        string // merchant point-of-sale identifier
	ClientID     string // OAuth client id (usually equal to PosID)
	ClientSecret string
	SecondKey    string // MD5 key used for notification signatures
	HTTPTimeout  time.Duration

	// Optional collaborators; nil selects the defaults.
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Validate checks the fields every client needs.
func (c Config) Validate() error {
	if strings.TrimSpace(c.PosID) == "" {
		return errors.New("payu: pos id is required")
	}
	if strings.TrimSpace(c.ClientID) == "" {
		return errors.New("payu: client id is required")
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		return errors.New("payu: client secret is required")
	}
	switch c.Environment {
	case EnvironmentSandbox, EnvironmentProduction:
	case "":
		return errors.New("payu: environment is required")
	default:
		return fmt.Errorf("payu: unknown environment %q", c.Environment)
	}
	return nil
}

// ConfigFromEnv reads configuration from PAYU_* environment variables and
// optional .env files.
func ConfigFromEnv() (Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	cfg := Config{
		Environment:  Environment(valueOrDefault(k.String("PAYU_ENVIRONMENT"), string(EnvironmentSandbox))),
		BaseURL:      strings.TrimSpace(k.String("PAYU_BASE_URL")),
		PosID:        strings.TrimSpace(k.String("PAYU_POS_ID")),
		ClientID:     strings.TrimSpace(k.String("PAYU_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(k.String("PAYU_CLIENT_SECRET")),
		SecondKey:    strings.TrimSpace(k.String("PAYU_SECOND_KEY")),
		HTTPTimeout:  parseDuration(k.String("PAYU_HTTP_TIMEOUT"), "30s"),
	}
	if cfg.ClientID == "" {
		cfg.ClientID = cfg.PosID
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}
