package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the gateway configuration.
type Config struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	ModelPath string `toml:"model"`
	ExecPath  string `toml:"exec"`

	// BlockingTimeout bounds a non-streaming completion; StreamTimeout bounds
	// a streaming one. TermGrace is how long to wait between the graceful
	// termination signal and the force kill.
	BlockingTimeout time.Duration `toml:"-"`
	StreamTimeout   time.Duration `toml:"-"`
	TermGrace       time.Duration `toml:"-"`

	// NoiseMarkers are substrings identifying diagnostic lines in the
	// executable's output. Configurable so the classifier can track banner
	// changes in the wrapped binary without a rebuild.
	NoiseMarkers []string `toml:"noise_markers"`

	// MaxConversations bounds the in-memory conversation store.
	// 0 disables eviction.
	MaxConversations int `toml:"max_conversations"`

	Defaults SamplingDefaults `toml:"defaults"`
}

// SamplingDefaults are applied to completion requests that omit a field.
type SamplingDefaults struct {
	Temperature float64 `toml:"temperature"`
	TopK        int     `toml:"top_k"`
	TopP        float64 `toml:"top_p"`
	NPredict    int     `toml:"n_predict"`
	Threads     int     `toml:"threads"`
	CtxSize     int     `toml:"ctx_size"`
}

// fileConfig mirrors Config for the TOML file, with durations as strings.
type fileConfig struct {
	Config
	BlockingTimeout string `toml:"blocking_timeout"`
	StreamTimeout   string `toml:"stream_timeout"`
	TermGrace       string `toml:"term_grace"`
}

// DefaultNoiseMarkers match the llama-cli banner, loader, sampler, and timing
// lines the classifier must discard.
func DefaultNoiseMarkers() []string {
	return []string{
		"llama_", "gguf_", "main:", "build:", "system_info:",
		"warning:", "sampler", "generate:", "eval time",
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:             "127.0.0.1",
		Port:             8080,
		BlockingTimeout:  30 * time.Second,
		StreamTimeout:    5 * time.Minute,
		TermGrace:        2 * time.Second,
		NoiseMarkers:     DefaultNoiseMarkers(),
		MaxConversations: 256,
		Defaults: SamplingDefaults{
			Temperature: 0.7,
			TopK:        40,
			TopP:        0.95,
			NPredict:    128,
			Threads:     4,
			CtxSize:     2048,
		},
	}
}

// LoadFile overlays a TOML config file onto cfg. Fields absent from the file
// keep their current values.
func LoadFile(path string, cfg *Config) error {
	fc := fileConfig{Config: *cfg}
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	*cfg = fc.Config

	for _, d := range []struct {
		raw string
		dst *time.Duration
	}{
		{fc.BlockingTimeout, &cfg.BlockingTimeout},
		{fc.StreamTimeout, &cfg.StreamTimeout},
		{fc.TermGrace, &cfg.TermGrace},
	} {
		if d.raw == "" {
			continue
		}
		dur, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		*d.dst = dur
	}
	return nil
}
