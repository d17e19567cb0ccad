// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration, populated by viper
// from config.yaml, STORYHUD_* environment variables and CLI flags.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Oracle  OracleConfig  `mapstructure:"oracle" yaml:"oracle"`
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Overlay OverlayConfig `mapstructure:"overlay" yaml:"overlay"`
	Settle  SettleConfig  `mapstructure:"settle" yaml:"settle"`
	Input   InputConfig   `mapstructure:"input" yaml:"input"`
	Agent   AgentConfig   `mapstructure:"agent" yaml:"agent"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// OracleConfig describes the OpenAI-compatible vision endpoint that
// narrates each screenshot.
type OracleConfig struct {
	URL              string        `mapstructure:"url" yaml:"url"`
	Model            string        `mapstructure:"model" yaml:"model"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Temperature      float64       `mapstructure:"temperature" yaml:"temperature"`
	TopP             float64       `mapstructure:"top_p" yaml:"top_p"`
	MaxTokens        int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	FrequencyPenalty float64       `mapstructure:"frequency_penalty" yaml:"frequency_penalty"`
	MinCallInterval  time.Duration `mapstructure:"min_call_interval" yaml:"min_call_interval"`
}

// CaptureConfig selects the screenshot quality preset and cursor policy.
type CaptureConfig struct {
	Quality       int  `mapstructure:"quality" yaml:"quality"`
	IncludeCursor bool `mapstructure:"include_cursor" yaml:"include_cursor"`
}

// qualityPresets maps the quality knob to the dimensions of the frame
// sent to the oracle. Capture is always full resolution; these are the
// downsample targets.
var qualityPresets = map[int][2]int{
	1: {1536, 864},
	2: {1024, 576},
	3: {512, 288},
}

// ModelDims returns the oracle image dimensions for the configured quality.
func (c CaptureConfig) ModelDims() (width, height int) {
	d, ok := qualityPresets[c.Quality]
	if !ok {
		d = qualityPresets[1]
	}
	return d[0], d[1]
}

// OverlayConfig exposes the HUD knobs worth tuning per machine.
type OverlayConfig struct {
	Margin       int    `mapstructure:"margin" yaml:"margin"`
	FontFace     string `mapstructure:"font_face" yaml:"font_face"`
	PanelEnabled bool   `mapstructure:"panel_enabled" yaml:"panel_enabled"`
	PanelAlpha   int    `mapstructure:"panel_alpha" yaml:"panel_alpha"`
}

// SettleConfig controls the post-action screen stability polling.
type SettleConfig struct {
	Enabled        bool          `mapstructure:"enabled" yaml:"enabled"`
	MaxWait        time.Duration `mapstructure:"max_wait" yaml:"max_wait"`
	CheckInterval  time.Duration `mapstructure:"check_interval" yaml:"check_interval"`
	SampleWidth    int           `mapstructure:"sample_width" yaml:"sample_width"`
	SampleHeight   int           `mapstructure:"sample_height" yaml:"sample_height"`
	ChangeRatio    float64       `mapstructure:"change_ratio" yaml:"change_ratio"`
	RequiredStable int           `mapstructure:"required_stable" yaml:"required_stable"`
}

// InputConfig paces synthetic input injection.
type InputConfig struct {
	EventDelay    time.Duration `mapstructure:"event_delay" yaml:"event_delay"`
	DragStepPause time.Duration `mapstructure:"drag_step_pause" yaml:"drag_step_pause"`
}

// AgentConfig drives the control loop itself.
type AgentConfig struct {
	Goal             string        `mapstructure:"goal" yaml:"goal"`
	InitialStory     string        `mapstructure:"initial_story" yaml:"initial_story"`
	MaxStoryLines    int           `mapstructure:"max_story_lines" yaml:"max_story_lines"`
	MaxParseFailures int           `mapstructure:"max_parse_failures" yaml:"max_parse_failures"`
	MaxSteps         int           `mapstructure:"max_steps" yaml:"max_steps"`
	PreCapturePause  time.Duration `mapstructure:"pre_capture_pause" yaml:"pre_capture_pause"`
	PostRenderPause  time.Duration `mapstructure:"post_render_pause" yaml:"post_render_pause"`
	DumpEnabled      bool          `mapstructure:"dump_enabled" yaml:"dump_enabled"`
	DumpDir          string        `mapstructure:"dump_dir" yaml:"dump_dir"`

	// Start-menu wait heuristic, normalized coordinates. Clicks at or
	// left of StartMenuMaxX and at or below StartMenuMinY get the longer
	// post-click pause.
	StartMenuMaxX float64 `mapstructure:"start_menu_max_x" yaml:"start_menu_max_x"`
	StartMenuMinY float64 `mapstructure:"start_menu_min_y" yaml:"start_menu_min_y"`
}

// DefaultTask is the canned demonstration goal used when no task is given.
const DefaultTask = "Open Microsoft Paint from the Start menu then use the mouse to draw a simple " +
	"cat face with two circles for eyes one triangle for nose and curved line for smile then " +
	"save the file as cat in the Pictures folder and close Paint when done"

// SetDefaults initializes default values for every configuration parameter.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "storyhud")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Oracle --
	v.SetDefault("oracle.url", "http://localhost:1234/v1/chat/completions")
	v.SetDefault("oracle.model", "qwen3-vl-2b-instruct")
	v.SetDefault("oracle.timeout", "30s")
	v.SetDefault("oracle.temperature", 0.7)
	v.SetDefault("oracle.top_p", 0.8)
	v.SetDefault("oracle.max_tokens", 800)
	v.SetDefault("oracle.frequency_penalty", 1.1)
	v.SetDefault("oracle.min_call_interval", "0s")

	// -- Capture --
	v.SetDefault("capture.quality", 1)
	v.SetDefault("capture.include_cursor", true)

	// -- Overlay --
	v.SetDefault("overlay.margin", 10)
	v.SetDefault("overlay.font_face", "Segoe UI")
	v.SetDefault("overlay.panel_enabled", true)
	v.SetDefault("overlay.panel_alpha", 110)

	// -- Settle --
	v.SetDefault("settle.enabled", true)
	v.SetDefault("settle.max_wait", "2500ms")
	v.SetDefault("settle.check_interval", "100ms")
	v.SetDefault("settle.sample_width", 256)
	v.SetDefault("settle.sample_height", 144)
	v.SetDefault("settle.change_ratio", 0.006)
	v.SetDefault("settle.required_stable", 2)

	// -- Input --
	v.SetDefault("input.event_delay", "100ms")
	v.SetDefault("input.drag_step_pause", "10ms")

	// -- Agent --
	v.SetDefault("agent.goal", DefaultTask)
	v.SetDefault("agent.initial_story", "")
	v.SetDefault("agent.max_story_lines", 16)
	v.SetDefault("agent.max_parse_failures", 3)
	v.SetDefault("agent.max_steps", 0)
	v.SetDefault("agent.pre_capture_pause", "50ms")
	v.SetDefault("agent.post_render_pause", "100ms")
	v.SetDefault("agent.dump_enabled", false)
	v.SetDefault("agent.dump_dir", "dump")
	v.SetDefault("agent.start_menu_max_x", 120)
	v.SetDefault("agent.start_menu_min_y", 900)
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a new configuration instance from a viper
// object, expanding `~` in paths and validating the result.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Agent.DumpDir != "" {
		expanded, err := homedir.Expand(cfg.Agent.DumpDir)
		if err != nil {
			return nil, fmt.Errorf("expanding agent.dump_dir: %w", err)
		}
		cfg.Agent.DumpDir = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if _, ok := qualityPresets[c.Capture.Quality]; !ok {
		return fmt.Errorf("capture.quality must be 1, 2 or 3, got %d", c.Capture.Quality)
	}
	if c.Oracle.URL == "" {
		return fmt.Errorf("oracle.url is a required configuration field")
	}
	if c.Oracle.Timeout <= 0 {
		return fmt.Errorf("oracle.timeout must be a positive duration")
	}
	if c.Oracle.MaxTokens <= 0 {
		return fmt.Errorf("oracle.max_tokens must be a positive integer")
	}
	if c.Agent.MaxStoryLines <= 0 {
		return fmt.Errorf("agent.max_story_lines must be a positive integer")
	}
	if c.Agent.MaxParseFailures <= 0 {
		return fmt.Errorf("agent.max_parse_failures must be a positive integer")
	}
	if err := c.Settle.Validate(); err != nil {
		return fmt.Errorf("settle configuration invalid: %w", err)
	}
	if c.Overlay.PanelAlpha < 0 || c.Overlay.PanelAlpha > 255 {
		return fmt.Errorf("overlay.panel_alpha must be between 0 and 255")
	}
	return nil
}

// Validate checks the settle detector settings.
func (s *SettleConfig) Validate() error {
	if !s.Enabled {
		return nil
	}
	if s.ChangeRatio < 0 || s.ChangeRatio > 1 {
		return fmt.Errorf("change_ratio must be between 0.0 and 1.0")
	}
	if s.SampleWidth <= 0 || s.SampleHeight <= 0 {
		return fmt.Errorf("sample dimensions must be positive integers")
	}
	if s.CheckInterval <= 0 {
		return fmt.Errorf("check_interval must be a positive duration")
	}
	if s.RequiredStable <= 0 {
		return fmt.Errorf("required_stable must be a positive integer")
	}
	return nil
}
