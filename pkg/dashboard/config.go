package dashboard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/jusunglee/mbta-board/internal/bikes"
	"github.com/jusunglee/mbta-board/internal/feed"
	"github.com/jusunglee/mbta-board/internal/gtfsrt"
	"github.com/jusunglee/mbta-board/internal/mbta"
)

// Alert sources
const (
	AlertsJSONAPI = "jsonapi"
	AlertsGTFSRT  = "gtfsrt"
)

// Config holds configuration for the board client
type Config struct {
	// APIKey is optional; the API serves keyless clients at a lower rate limit
	APIKey         string
	BaseURL        string        `validate:"required,url"`
	BikesFeedURL   string        `validate:"required,url"`
	AlertsSource   string        `validate:"oneof=jsonapi gtfsrt"`
	AlertsFeedURL  string        `validate:"omitempty,url"`
	UpdateInterval time.Duration `validate:"gte=1s"`
	RequestTimeout time.Duration `validate:"gte=100ms"`
	MaxConcurrent  int           `validate:"gte=1,lte=64"`
	Kiosk          bool
	// CatalogPath is a YAML catalog; empty uses the built-in one
	CatalogPath string
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:        mbta.DefaultBaseURL,
		BikesFeedURL:   bikes.DefaultFeedURL,
		AlertsSource:   AlertsJSONAPI,
		AlertsFeedURL:  gtfsrt.DefaultFeedURL,
		UpdateInterval: feed.DefaultUpdateInterval,
		RequestTimeout: feed.DefaultRequestTimeout,
		MaxConcurrent:  feed.DefaultConcurrency,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.AlertsSource == AlertsGTFSRT && c.AlertsFeedURL == "" {
		return errors.New("invalid config: gtfsrt alerts need an alerts feed URL")
	}
	return nil
}

// ConfigFromEnv applies environment overrides to DefaultConfig. The given
// env files are loaded first; with none, a .env in the working directory is
// loaded if present. Variables already set in the environment win.
func ConfigFromEnv(envFiles ...string) (Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	strs := map[string]*string{
		"MBTA_API_KEY":    &cfg.APIKey,
		"MBTA_BASE_URL":   &cfg.BaseURL,
		"BIKES_FEED_URL":  &cfg.BikesFeedURL,
		"ALERTS_SOURCE":   &cfg.AlertsSource,
		"ALERTS_FEED_URL": &cfg.AlertsFeedURL,
		"BOARD_CATALOG":   &cfg.CatalogPath,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("BOARD_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("BOARD_INTERVAL: %w", err)
		}
		cfg.UpdateInterval = d
	}
	if v := os.Getenv("BOARD_KIOSK"); v != "" {
		kiosk, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("BOARD_KIOSK: %w", err)
		}
		cfg.Kiosk = kiosk
	}

	return cfg, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}
