package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Backend.RequestTimeout)
	assert.Equal(t, 1000, cfg.Backend.FetchLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.Thresholds.IdleGap)
	assert.Equal(t, 0.5, cfg.Thresholds.LLMShare)
	assert.Equal(t, 0.10, cfg.Thresholds.TrendChange)
	assert.Equal(t, 1.5, cfg.Thresholds.SlowOutlier)
	assert.Equal(t, 0.5, cfg.Thresholds.FastOutlier)
	assert.Equal(t, 10, cfg.Thresholds.SlowestLimit)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SNOWLENS_INSTANCE", "dev12345")
	t.Setenv("SNOWLENS_USERNAME", "admin")
	t.Setenv("SNOWLENS_PASSWORD", "secret")
	t.Setenv("SNOWLENS_REQUEST_TIMEOUT", "5s")
	t.Setenv("SNOWLENS_IDLE_GAP", "250ms")
	t.Setenv("SNOWLENS_MAPPINGS_FILE", "/etc/snowlens/mappings.json")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "dev12345", cfg.Backend.Instance)
	assert.Equal(t, 5*time.Second, cfg.Backend.RequestTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Thresholds.IdleGap)
	assert.Equal(t, "/etc/snowlens/mappings.json", cfg.MappingsFile)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Validate())

	cfg.Backend.Instance = "dev12345"
	assert.Error(t, cfg.Validate())

	cfg.Backend.Username = "admin"
	cfg.Backend.Password = "secret"
	assert.NoError(t, cfg.Validate())
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		instance string
		want     string
	}{
		{"dev12345", "https://dev12345.service-now.com"},
		{"https://dev12345.service-now.com/", "https://dev12345.service-now.com"},
		{"http://localhost:8080", "http://localhost:8080"},
		{"snow.example.com", "https://snow.example.com"},
	}

	for _, tt := range tests {
		cfg := &Config{Backend: Backend{Instance: tt.instance}}
		assert.Equal(t, tt.want, cfg.BaseURL(), "instance %q", tt.instance)
	}
}
