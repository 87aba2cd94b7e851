package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is built once at startup and passed by value afterwards.
type Config struct {
	Host  string
	Port  int
	Debug bool

	// Upstream chat-completion API. The caller supplies the credential per request.
	DefaultModel    string
	MaxTokens       int
	OpenAIBaseURL   string
	UpstreamTimeout time.Duration

	LogLevel     string
	LogFile      string // empty => stdout
	TelemetryDir string // empty => telemetry disabled

	MaxBodyBytes    int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

const ServiceName = "OpenAI Message Processor"

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", "8090")
	v.SetDefault("debug", "true")

	v.SetDefault("openai_default_model", "gpt-4o")
	v.SetDefault("openai_max_tokens", "1000")
	v.SetDefault("openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("openai_timeout", "60s")

	v.SetDefault("log_level", "INFO")
	v.SetDefault("log_file", "")
	v.SetDefault("telemetry_dir", "")

	v.SetDefault("max_body_bytes", "1048576")
	v.SetDefault("read_timeout", "30s")
	v.SetDefault("write_timeout", "90s")
	v.SetDefault("shutdown_timeout", "10s")
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	var (
		cfg Config
		err error
	)
	cfg.Host = strings.TrimSpace(v.GetString("host"))
	cfg.Debug = parseBool(v.GetString("debug"))
	cfg.DefaultModel = strings.TrimSpace(v.GetString("openai_default_model"))
	cfg.OpenAIBaseURL = strings.TrimRight(strings.TrimSpace(v.GetString("openai_base_url")), "/")
	cfg.LogLevel = strings.ToUpper(strings.TrimSpace(v.GetString("log_level")))
	cfg.LogFile = strings.TrimSpace(v.GetString("log_file"))
	cfg.TelemetryDir = strings.TrimSpace(v.GetString("telemetry_dir"))

	if cfg.Port, err = intOf(v, "port"); err != nil {
		return Config{}, err
	}
	if cfg.MaxTokens, err = intOf(v, "openai_max_tokens"); err != nil {
		return Config{}, err
	}
	maxBody, err := intOf(v, "max_body_bytes")
	if err != nil {
		return Config{}, err
	}
	cfg.MaxBodyBytes = int64(maxBody)

	if cfg.UpstreamTimeout, err = durationOf(v, "openai_timeout"); err != nil {
		return Config{}, err
	}
	if cfg.ReadTimeout, err = durationOf(v, "read_timeout"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = durationOf(v, "write_timeout"); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = durationOf(v, "shutdown_timeout"); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	switch {
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	case c.MaxTokens <= 0:
		return fmt.Errorf("OPENAI_MAX_TOKENS must be positive, got %d", c.MaxTokens)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	case c.UpstreamTimeout <= 0:
		return fmt.Errorf("OPENAI_TIMEOUT must be positive, got %s", c.UpstreamTimeout)
	case c.ReadTimeout <= 0:
		return fmt.Errorf("READ_TIMEOUT must be positive, got %s", c.ReadTimeout)
	case c.WriteTimeout <= 0:
		return fmt.Errorf("WRITE_TIMEOUT must be positive, got %s", c.WriteTimeout)
	case c.WriteTimeout <= c.UpstreamTimeout:
		return fmt.Errorf("WRITE_TIMEOUT (%s) must exceed OPENAI_TIMEOUT (%s)", c.WriteTimeout, c.UpstreamTimeout)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	case c.OpenAIBaseURL == "":
		return fmt.Errorf("OPENAI_BASE_URL is required")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Fields lists the effective settings in display order.
func (c Config) Fields() [][2]string {
	return [][2]string{
		{"HOST", c.Host},
		{"PORT", strconv.Itoa(c.Port)},
		{"DEBUG", strconv.FormatBool(c.Debug)},
		{"DEFAULT_MODEL", c.DefaultModel},
		{"MAX_TOKENS", strconv.Itoa(c.MaxTokens)},
		{"OPENAI_BASE_URL", c.OpenAIBaseURL},
		{"OPENAI_TIMEOUT", c.UpstreamTimeout.String()},
		{"LOG_LEVEL", c.LogLevel},
	}
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

func intOf(v *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", strings.ToUpper(key), raw)
	}
	return n, nil
}

// durationOf accepts Go duration strings and bare integers (seconds).
func durationOf(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", strings.ToUpper(key), raw)
	}
	return d, nil
}
