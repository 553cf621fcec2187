// Package config provides environment-driven configuration for snowlens.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Backend holds the connection settings for the ServiceNow instance.
type Backend struct {
	Instance       string        `envconfig:"INSTANCE"`
	Username       string        `envconfig:"USERNAME"`
	Password       string        `envconfig:"PASSWORD"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	FetchLimit     int           `envconfig:"FETCH_LIMIT" default:"1000"`
}

// Thresholds are the tuning knobs of the analysis rules. The defaults match
// the platform debugging extension this tool replaces; none of them is
// load-bearing and every one can be overridden from the environment.
type Thresholds struct {
	// IdleGap is the minimum inter-event silence reported as an idle period.
	IdleGap time.Duration `envconfig:"IDLE_GAP" default:"500ms"`
	// LLMShare is the fraction of total duration above which LLM time
	// triggers a recommendation.
	LLMShare float64 `envconfig:"LLM_SHARE" default:"0.5"`
	// LLMTotalSeconds is the absolute LLM time that triggers the same
	// recommendation regardless of share.
	LLMTotalSeconds float64 `envconfig:"LLM_TOTAL_SECONDS" default:"10"`
	// CategorySeconds is the summed duration above which a non-LLM slowest
	// category triggers a recommendation.
	CategorySeconds float64 `envconfig:"CATEGORY_SECONDS" default:"5"`
	// GapAlertCount is the number of idle gaps that triggers an
	// investigate-idle-periods recommendation.
	GapAlertCount int `envconfig:"GAP_ALERT_COUNT" default:"3"`
	// LargeGapSeconds is the single-gap size that triggers the same
	// recommendation regardless of count.
	LargeGapSeconds float64 `envconfig:"LARGE_GAP_SECONDS" default:"2"`
	// TrendChange is the relative first-vs-last bucket change beyond which
	// the trend verdict flips from stable.
	TrendChange float64 `envconfig:"TREND_CHANGE" default:"0.10"`
	// SlowOutlier and FastOutlier are the mean multipliers that mark a
	// conversation as an outlier.
	SlowOutlier float64 `envconfig:"SLOW_OUTLIER" default:"1.5"`
	FastOutlier float64 `envconfig:"FAST_OUTLIER" default:"0.5"`
	// SlowestLimit caps the ranked slowest-operations list.
	SlowestLimit int `envconfig:"SLOWEST_LIMIT" default:"10"`
}

// Config is the root configuration struct.
type Config struct {
	Backend    Backend
	Thresholds Thresholds
	// MappingsFile optionally points at a JSON file overriding the built-in
	// table-to-field mappings.
	MappingsFile string `envconfig:"MAPPINGS_FILE"`
}

// Load reads SNOWLENS_* environment variables into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("SNOWLENS", cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings required to reach the backend.
func (c *Config) Validate() error {
	if c.Backend.Instance == "" {
		return fmt.Errorf("SNOWLENS_INSTANCE is required (instance name or full URL)")
	}
	if c.Backend.Username == "" || c.Backend.Password == "" {
		return fmt.Errorf("SNOWLENS_USERNAME and SNOWLENS_PASSWORD are required")
	}
	return nil
}

// BaseURL normalizes the configured instance into a full https URL. A bare
// instance name resolves to the standard hosted domain.
func (c *Config) BaseURL() string {
	instance := strings.TrimSpace(c.Backend.Instance)
	switch {
	case strings.HasPrefix(instance, "http://"), strings.HasPrefix(instance, "https://"):
		return strings.TrimRight(instance, "/")
	case !strings.Contains(instance, "."):
		return fmt.Sprintf("https://%s.service-now.com", instance)
	default:
		return "https://" + strings.TrimRight(instance, "/")
	}
}
