// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	// Verify a few key defaults to ensure the mechanism works.
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "storyhud", cfg.Logger.ServiceName)
	assert.Equal(t, "http://localhost:1234/v1/chat/completions", cfg.Oracle.URL)
	assert.Equal(t, 30*time.Second, cfg.Oracle.Timeout)
	assert.Equal(t, 1, cfg.Capture.Quality)
	assert.True(t, cfg.Capture.IncludeCursor)
	assert.Equal(t, "Segoe UI", cfg.Overlay.FontFace)
	assert.Equal(t, 2500*time.Millisecond, cfg.Settle.MaxWait)
	assert.Equal(t, 0.006, cfg.Settle.ChangeRatio)
	assert.Equal(t, 100*time.Millisecond, cfg.Input.EventDelay)
	assert.Equal(t, 16, cfg.Agent.MaxStoryLines)
	assert.Equal(t, 3, cfg.Agent.MaxParseFailures)
	assert.Equal(t, DefaultTask, cfg.Agent.Goal)
}

func TestModelDims(t *testing.T) {
	dims := func(q int) [2]int {
		w, h := CaptureConfig{Quality: q}.ModelDims()
		return [2]int{w, h}
	}
	assert.Equal(t, [2]int{1536, 864}, dims(1))
	assert.Equal(t, [2]int{1024, 576}, dims(2))
	assert.Equal(t, [2]int{512, 288}, dims(3))
	// Unknown quality falls back to the highest preset.
	assert.Equal(t, [2]int{1536, 864}, dims(7))
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Core Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		assert.NoError(t, cfg.Validate(), "a default config should validate")

		invalidQuality := *cfg
		invalidQuality.Capture.Quality = 4
		err := invalidQuality.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "capture.quality must be 1, 2 or 3")

		missingURL := *cfg
		missingURL.Oracle.URL = ""
		err = missingURL.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "oracle.url is a required configuration field")

		badTimeout := *cfg
		badTimeout.Oracle.Timeout = 0
		err = badTimeout.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "oracle.timeout must be a positive duration")

		badStory := *cfg
		badStory.Agent.MaxStoryLines = 0
		err = badStory.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "agent.max_story_lines must be a positive integer")

		badAlpha := *cfg
		badAlpha.Overlay.PanelAlpha = 300
		err = badAlpha.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "overlay.panel_alpha must be between 0 and 255")
	})

	t.Run("Settle Validation", func(t *testing.T) {
		valid := SettleConfig{
			Enabled:        true,
			MaxWait:        2500 * time.Millisecond,
			CheckInterval:  100 * time.Millisecond,
			SampleWidth:    256,
			SampleHeight:   144,
			ChangeRatio:    0.006,
			RequiredStable: 2,
		}
		assert.NoError(t, valid.Validate())

		disabled := valid
		disabled.Enabled = false
		disabled.ChangeRatio = 2.0
		assert.NoError(t, disabled.Validate(), "disabled settle config should always be valid")

		badRatio := valid
		badRatio.ChangeRatio = 1.5
		err := badRatio.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "change_ratio must be between 0.0 and 1.0")

		badSample := valid
		badSample.SampleHeight = 0
		err = badSample.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "sample dimensions must be positive integers")

		badInterval := valid
		badInterval.CheckInterval = 0
		err = badInterval.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "check_interval must be a positive duration")
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
oracle:
  url: "http://10.0.0.2:8080/v1/chat/completions"
  model: "llava"
capture:
  quality: 3
agent:
  goal: "open notepad and type hello"
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		err := v.ReadConfig(bytes.NewBuffer(yamlBytes))
		require.NoError(t, err)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "http://10.0.0.2:8080/v1/chat/completions", cfg.Oracle.URL)
		assert.Equal(t, "llava", cfg.Oracle.Model)
		assert.Equal(t, 3, cfg.Capture.Quality)
		assert.Equal(t, "open notepad and type hello", cfg.Agent.Goal)
		// Check a default value was also loaded.
		assert.Equal(t, "info", cfg.Logger.Level)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("capture.quality", 0) // Intentionally invalid

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "capture.quality must be 1, 2 or 3")
	})

	t.Run("Dump Dir Expansion", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("agent.dump_dir", "~/storyhud-dumps")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.NotContains(t, cfg.Agent.DumpDir, "~", "tilde should be expanded")
		assert.Contains(t, cfg.Agent.DumpDir, "storyhud-dumps")
	})
}

// -- Struct and Mapping Tests --

func TestConfigStructureMapping(t *testing.T) {
	yamlInput := `
logger:
  level: debug
  log_file: /var/log/storyhud.log
settle:
  max_wait: 5s
  change_ratio: 0.01
input:
  event_delay: 250ms
`
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	err := v.ReadConfig(bytes.NewBufferString(yamlInput))
	require.NoError(t, err)

	var cfg Config
	err = v.Unmarshal(&cfg)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "/var/log/storyhud.log", cfg.Logger.LogFile)
	assert.Equal(t, 5*time.Second, cfg.Settle.MaxWait)
	assert.Equal(t, 0.01, cfg.Settle.ChangeRatio)
	assert.Equal(t, 250*time.Millisecond, cfg.Input.EventDelay)
}
