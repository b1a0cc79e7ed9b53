// Package config holds the service configuration. Values come from
// built-in defaults, overlaid by an optional YAML file, overlaid by
// TTSGW_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/CarbonComputed/TTSAPIGateway/internal/audio"
	"github.com/CarbonComputed/TTSAPIGateway/internal/encoder"
)

// Config is the root service configuration.
type Config struct {
	// Listen is the HTTP bind address.
	Listen string `yaml:"listen" env:"TTSGW_LISTEN"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"TTSGW_LOG_LEVEL"`

	Engine    EngineConfig    `yaml:"engine"`
	Defaults  RequestDefaults `yaml:"defaults"`
	Assembly  AssemblyConfig  `yaml:"assembly"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// EngineConfig selects and configures the synthesis backend.
type EngineConfig struct {
	// Type is one of mock, exec, http.
	Type string `yaml:"type" env:"TTSGW_ENGINE"`
	// Concurrency is how many synthesis calls the backend tolerates at
	// once. The loaded model is a single shared resource; 1 serializes.
	Concurrency int `yaml:"concurrency" env:"TTSGW_ENGINE_CONCURRENCY"`
	// ChunkTimeout is the synthesis deadline per chunk.
	ChunkTimeout time.Duration `yaml:"chunk_timeout" env:"TTSGW_ENGINE_CHUNK_TIMEOUT"`

	// Command is the exec backend's worker command line.
	Command string `yaml:"command" env:"TTSGW_ENGINE_COMMAND"`
	// BaseURL is the http backend's synthesis server address.
	BaseURL string `yaml:"base_url" env:"TTSGW_ENGINE_BASE_URL"`
	// Timeout is the http backend's per-request timeout.
	Timeout time.Duration `yaml:"timeout" env:"TTSGW_ENGINE_TIMEOUT"`
}

// RequestDefaults fills fields a /generate request leaves unset.
type RequestDefaults struct {
	Voice         string `yaml:"voice" env:"TTSGW_DEFAULT_VOICE"`
	MaxChars      int    `yaml:"max_chars" env:"TTSGW_DEFAULT_MAX_CHARS"`
	MaxWords      int    `yaml:"max_words" env:"TTSGW_DEFAULT_MAX_WORDS"`
	Format        string `yaml:"format" env:"TTSGW_DEFAULT_FORMAT"`
	CombineMethod string `yaml:"combine_method" env:"TTSGW_DEFAULT_COMBINE_METHOD"`
	Bitrate       string `yaml:"bitrate" env:"TTSGW_BITRATE"`
}

// AssemblyConfig mirrors audio.AssemblyConfig for the config file.
type AssemblyConfig struct {
	PauseMS     int     `yaml:"pause_ms" env:"TTSGW_PAUSE_MS"`
	FadeMS      int     `yaml:"fade_ms" env:"TTSGW_FADE_MS"`
	SegmentPeak float64 `yaml:"segment_peak" env:"TTSGW_SEGMENT_PEAK"`
	FinalPeak   float64 `yaml:"final_peak" env:"TTSGW_FINAL_PEAK"`
}

// CacheConfig controls the in-memory segment cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled" env:"TTSGW_CACHE_ENABLED"`
	// CapacityBytes bounds the compressed cache size.
	CapacityBytes int64 `yaml:"capacity_bytes" env:"TTSGW_CACHE_CAPACITY"`
}

// RateLimitConfig bounds request throughput across all clients.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" env:"TTSGW_RATE_LIMIT_ENABLED"`
	RPS     float64 `yaml:"rps" env:"TTSGW_RATE_LIMIT_RPS"`
	Burst   int     `yaml:"burst" env:"TTSGW_RATE_LIMIT_BURST"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:   ":5050",
		LogLevel: "info",
		Engine: EngineConfig{
			Type:         "exec",
			Concurrency:  1,
			ChunkTimeout: 30 * time.Second,
			Command:      "kitten-tts-worker",
			BaseURL:      "http://localhost:8880",
			Timeout:      45 * time.Second,
		},
		Defaults: RequestDefaults{
			Voice:         "expr-voice-2-f",
			MaxChars:      400,
			MaxWords:      50,
			Format:        "mp3",
			CombineMethod: "simple",
			Bitrate:       "128k",
		},
		Assembly: AssemblyConfig{
			PauseMS:     150,
			FadeMS:      10,
			SegmentPeak: 0.85,
			FinalPeak:   0.95,
		},
		Cache: CacheConfig{
			Enabled:       true,
			CapacityBytes: 64 << 20,
		},
		RateLimit: RateLimitConfig{
			Enabled: false,
			RPS:     5,
			Burst:   10,
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	switch c.Engine.Type {
	case "mock", "exec", "http":
	default:
		return fmt.Errorf("invalid engine type %q: must be one of mock, exec, http", c.Engine.Type)
	}
	if c.Engine.Concurrency < 1 {
		return fmt.Errorf("engine concurrency must be at least 1, got %d", c.Engine.Concurrency)
	}
	if c.Engine.Type == "exec" && c.Engine.Command == "" {
		return fmt.Errorf("engine command cannot be empty for the exec backend")
	}
	if c.Engine.Type == "http" && c.Engine.BaseURL == "" {
		return fmt.Errorf("engine base_url cannot be empty for the http backend")
	}
	if c.Defaults.MaxChars <= 0 || c.Defaults.MaxWords <= 0 {
		return fmt.Errorf("default max_chars and max_words must be positive")
	}
	if _, err := encoder.ParseFormat(c.Defaults.Format); err != nil {
		return fmt.Errorf("default format: %w", err)
	}
	if _, err := audio.ParseStrategy(c.Defaults.CombineMethod); err != nil {
		return fmt.Errorf("default combine_method: %w", err)
	}
	if err := c.AssemblyConfig().Validate(); err != nil {
		return err
	}
	if c.Cache.Enabled && c.Cache.CapacityBytes <= 0 {
		return fmt.Errorf("cache capacity must be positive when the cache is enabled")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1) {
		return fmt.Errorf("rate limit rps must be positive and burst at least 1")
	}
	return nil
}

// AssemblyConfig converts the file representation into the audio
// package's assembly parameters. The strategy is filled per request.
func (c *Config) AssemblyConfig() audio.AssemblyConfig {
	return audio.AssemblyConfig{
		PauseMS:     c.Assembly.PauseMS,
		FadeMS:      c.Assembly.FadeMS,
		SegmentPeak: c.Assembly.SegmentPeak,
		FinalPeak:   c.Assembly.FinalPeak,
		Strategy:    audio.StrategyDirect,
	}
}
