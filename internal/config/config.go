package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// App holds the runtime configuration loaded from environment variables
// and an optional config.yaml.
type App struct {
	Env      string `mapstructure:"app_env"`
	HTTPPort string `mapstructure:"http_port"`

	APIBaseURL   string        `mapstructure:"api_base_url"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	PageSize     int           `mapstructure:"page_size"`

	ChatURL            string        `mapstructure:"chat_ws_url"`
	ChatReconnectDelay time.Duration `mapstructure:"chat_reconnect_delay"`
	ChatBannerTTL      time.Duration `mapstructure:"chat_banner_ttl"`

	RedisAddr        string   `mapstructure:"redis_addr"`
	RateLimitBackend string   `mapstructure:"rate_limit_backend"`
	RateLimitPerMin  int      `mapstructure:"rate_limit_per_min"`
	CORSAllowOrigins []string `mapstructure:"cors_allow_origins"`

	CloudinaryCloudName string `mapstructure:"cloudinary_cloud_name"`
	CloudinaryAPISecret string `mapstructure:"cloudinary_api_secret"`

	Log   LogConfig   `mapstructure:",squash"`
	Trace TraceConfig `mapstructure:",squash"`
}

// LogConfig selects the zap encoder, level and optional rotated log file.
type LogConfig struct {
	Level  string `mapstructure:"log_level"`
	Format string `mapstructure:"log_format"`
	File   string `mapstructure:"log_file"`
}

// TraceConfig toggles the OpenTelemetry file exporter.
type TraceConfig struct {
	Enabled bool   `mapstructure:"trace_enabled"`
	File    string `mapstructure:"trace_file"`
}

// IsProduction reports whether gin should run in release mode.
func (a App) IsProduction() bool {
	return a.Env == "production" || a.Env == "prod"
}

// Load returns application config populated from the environment with
// sensible defaults. path may point at a config file; empty means look for
// ./config.yaml and carry on without it.
func Load(path string) (App, error) {
	if err := loadDotEnv(".env"); err != nil {
		return App{}, err
	}

	v := viper.New()

	v.SetDefault("app_env", "dev")
	v.SetDefault("http_port", "8080")
	v.SetDefault("api_base_url", "http://127.0.0.1:8000")
	v.SetDefault("fetch_timeout", "10s")
	v.SetDefault("page_size", 10)
	v.SetDefault("chat_ws_url", "ws://127.0.0.1:5000/ws/chat/")
	v.SetDefault("chat_reconnect_delay", "3s")
	v.SetDefault("chat_banner_ttl", "2s")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("rate_limit_backend", "memory")
	v.SetDefault("rate_limit_per_min", 120)
	v.SetDefault("cors_allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("cloudinary_cloud_name", "")
	v.SetDefault("cloudinary_api_secret", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("log_file", "")
	v.SetDefault("trace_enabled", false)
	v.SetDefault("trace_file", "logs/scholarhub_traces.log")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return App{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg App
	if err := v.Unmarshal(&cfg); err != nil {
		return App{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORSAllowOrigins = splitList(cfg.CORSAllowOrigins)

	if err := cfg.Validate(); err != nil {
		return App{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (a App) Validate() error {
	var port int
	if _, err := fmt.Sscanf(a.HTTPPort, "%d", &port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid config: http_port %q must be between 1 and 65535", a.HTTPPort)
	}
	if err := checkURL(a.APIBaseURL, "http", "https"); err != nil {
		return fmt.Errorf("invalid config: api_base_url: %w", err)
	}
	if err := checkURL(a.ChatURL, "ws", "wss"); err != nil {
		return fmt.Errorf("invalid config: chat_ws_url: %w", err)
	}
	if a.ChatReconnectDelay <= 0 {
		return fmt.Errorf("invalid config: chat_reconnect_delay must be positive")
	}
	if a.ChatBannerTTL <= 0 {
		return fmt.Errorf("invalid config: chat_banner_ttl must be positive")
	}
	if a.FetchTimeout <= 0 {
		return fmt.Errorf("invalid config: fetch_timeout must be positive")
	}
	if a.PageSize <= 0 {
		return fmt.Errorf("invalid config: page_size must be positive")
	}
	switch a.RateLimitBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid config: rate_limit_backend %q (memory|redis)", a.RateLimitBackend)
	}
	return nil
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%q must be an absolute %s URL", raw, strings.Join(schemes, "/"))
}

// loadDotEnv exports the variables of a .env file if there is one. Variables
// already set in the environment win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// splitList lets CORS_ALLOW_ORIGINS be given as one comma separated env value.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
