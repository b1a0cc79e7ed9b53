package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// Load builds the configuration: defaults, then the YAML file at path
// (optional when path is empty), then TTSGW_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		applyViper(v, &cfg)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyViper overlays only keys the file actually sets, so file and
// environment precedence stay predictable.
func applyViper(v *viper.Viper, cfg *Config) {
	if v.IsSet("listen") {
		cfg.Listen = v.GetString("listen")
	}
	if v.IsSet("log_level") {
		cfg.LogLevel = v.GetString("log_level")
	}

	if v.IsSet("engine.type") {
		cfg.Engine.Type = v.GetString("engine.type")
	}
	if v.IsSet("engine.concurrency") {
		cfg.Engine.Concurrency = v.GetInt("engine.concurrency")
	}
	if v.IsSet("engine.chunk_timeout") {
		cfg.Engine.ChunkTimeout = v.GetDuration("engine.chunk_timeout")
	}
	if v.IsSet("engine.command") {
		cfg.Engine.Command = v.GetString("engine.command")
	}
	if v.IsSet("engine.base_url") {
		cfg.Engine.BaseURL = v.GetString("engine.base_url")
	}
	if v.IsSet("engine.timeout") {
		cfg.Engine.Timeout = v.GetDuration("engine.timeout")
	}

	if v.IsSet("defaults.voice") {
		cfg.Defaults.Voice = v.GetString("defaults.voice")
	}
	if v.IsSet("defaults.max_chars") {
		cfg.Defaults.MaxChars = v.GetInt("defaults.max_chars")
	}
	if v.IsSet("defaults.max_words") {
		cfg.Defaults.MaxWords = v.GetInt("defaults.max_words")
	}
	if v.IsSet("defaults.format") {
		cfg.Defaults.Format = v.GetString("defaults.format")
	}
	if v.IsSet("defaults.combine_method") {
		cfg.Defaults.CombineMethod = v.GetString("defaults.combine_method")
	}
	if v.IsSet("defaults.bitrate") {
		cfg.Defaults.Bitrate = v.GetString("defaults.bitrate")
	}

	if v.IsSet("assembly.pause_ms") {
		cfg.Assembly.PauseMS = v.GetInt("assembly.pause_ms")
	}
	if v.IsSet("assembly.fade_ms") {
		cfg.Assembly.FadeMS = v.GetInt("assembly.fade_ms")
	}
	if v.IsSet("assembly.segment_peak") {
		cfg.Assembly.SegmentPeak = v.GetFloat64("assembly.segment_peak")
	}
	if v.IsSet("assembly.final_peak") {
		cfg.Assembly.FinalPeak = v.GetFloat64("assembly.final_peak")
	}

	if v.IsSet("cache.enabled") {
		cfg.Cache.Enabled = v.GetBool("cache.enabled")
	}
	if v.IsSet("cache.capacity_bytes") {
		cfg.Cache.CapacityBytes = v.GetInt64("cache.capacity_bytes")
	}

	if v.IsSet("rate_limit.enabled") {
		cfg.RateLimit.Enabled = v.GetBool("rate_limit.enabled")
	}
	if v.IsSet("rate_limit.rps") {
		cfg.RateLimit.RPS = v.GetFloat64("rate_limit.rps")
	}
	if v.IsSet("rate_limit.burst") {
		cfg.RateLimit.Burst = v.GetInt("rate_limit.burst")
	}
}
