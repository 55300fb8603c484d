package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"value-bet-finder/internal/analysis"
	"value-bet-finder/internal/api"
)

// Defaults for configuration values.
const (
	DefaultConfigPath        = "valuebets.toml"
	DefaultPlan              = api.PlanEuropean
	DefaultTimeIntervalHours = 6
	DefaultRefreshInterval   = 10 * time.Minute
	DefaultRequestTimeout    = 30 * time.Second
	DefaultMaxRetries        = 0
	DefaultBoardDBPath       = ":memory:"
	DefaultPort              = "8080"
	DefaultAlertCooldown     = 30 * time.Minute
	DefaultRedisStream       = "valuebets.detected"

	MinRefreshInterval = time.Minute
)

// TimeIntervals lists the selectable fixture windows, in hours.
var TimeIntervals = []int{4, 6, 8, 10, 12, 16, 24}

// Config holds all application configuration.
type Config struct {
	Sportmonks SportmonksConfig `toml:"sportmonks"`
	Value      ValueConfig      `toml:"value"`
	Schedule   ScheduleConfig   `toml:"schedule"`
	Server     ServerConfig     `toml:"server"`
	Redis      RedisConfig      `toml:"redis"`
	Telegram   TelegramConfig   `toml:"telegram"`
}

type SportmonksConfig struct {
	APIToken          string   `toml:"api_token"`
	Plan              api.Plan `toml:"plan"`
	TimeIntervalHours int      `toml:"time_interval_hours"`
	RequestTimeout    Duration `toml:"request_timeout"`
	MaxRetries        int      `toml:"max_retries"`
	BaseURL           string   `toml:"base_url"`
}

// ValueConfig mirrors analysis.Config; every figure is a percentage except BetUnit.
type ValueConfig struct {
	Threshold  float64 `toml:"threshold"`
	Commission float64 `toml:"commission"`
	Discount   float64 `toml:"discount"`
	BetUnit    float64 `toml:"bet_unit"`
}

// Analysis converts to the finder's arithmetic inputs.
func (v ValueConfig) Analysis() analysis.Config {
	return analysis.Config{
		Threshold:  v.Threshold,
		Commission: v.Commission,
		Discount:   v.Discount,
		BetUnit:    v.BetUnit,
	}
}

type ScheduleConfig struct {
	RefreshInterval Duration `toml:"refresh_interval"`
	AlertCooldown   Duration `toml:"alert_cooldown"`
}

type ServerConfig struct {
	Port           string   `toml:"port"`
	BoardDBPath    string   `toml:"board_db_path"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type RedisConfig struct {
	URL      string `toml:"url"`
	Password string `toml:"password"`
	Stream   string `toml:"stream"`
}

type TelegramConfig struct {
	BotToken string `toml:"bot_token"`
	ChatID   int64  `toml:"chat_id"`
}

// Duration wraps time.Duration for TOML unmarshaling.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	value := analysis.DefaultConfig()
	return Config{
		Sportmonks: SportmonksConfig{
			Plan:              DefaultPlan,
			TimeIntervalHours: DefaultTimeIntervalHours,
			RequestTimeout:    Duration{DefaultRequestTimeout},
			MaxRetries:        DefaultMaxRetries,
			BaseURL:           api.DefaultBaseURL,
		},
		Value: ValueConfig{
			Threshold:  value.Threshold,
			Commission: value.Commission,
			Discount:   value.Discount,
			BetUnit:    value.BetUnit,
		},
		Schedule: ScheduleConfig{
			RefreshInterval: Duration{DefaultRefreshInterval},
			AlertCooldown:   Duration{DefaultAlertCooldown},
		},
		Server: ServerConfig{
			Port:           DefaultPort,
			BoardDBPath:    DefaultBoardDBPath,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Redis: RedisConfig{
			Stream: DefaultRedisStream,
		},
	}
}

// Load reads configuration from defaults, then the TOML file (if present), then
// environment variables (and .env file if present).
func Load() (Config, error) {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	path := DefaultConfigPath
	explicit := false
	if p := os.Getenv("VALUEBET_CONFIG"); p != "" {
		path = p
		explicit = true
	}

	cfg, err := LoadFile(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
		cfg = DefaultConfig()
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads a TOML config file layered over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("SPORTMONKS_API_TOKEN"); v != "" {
		cfg.Sportmonks.APIToken = v
	}
	if v := os.Getenv("SPORTMONKS_PLAN"); v != "" {
		cfg.Sportmonks.Plan = api.Plan(v)
	}
	if v := os.Getenv("SPORTMONKS_BASE_URL"); v != "" {
		cfg.Sportmonks.BaseURL = v
	}
	if v := os.Getenv("BOARD_DB_PATH"); v != "" {
		cfg.Server.BoardDBPath = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"VALUE_THRESHOLD", &cfg.Value.Threshold},
		{"BETFAIR_COMMISSION", &cfg.Value.Commission},
		{"BETFAIR_DISCOUNT", &cfg.Value.Discount},
		{"BET_UNIT", &cfg.Value.BetUnit},
	}
	for _, f := range floats {
		if v := os.Getenv(f.key); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("config: %s: could not convert %q to a number", f.key, v)
			}
			*f.dst = parsed
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"TIME_INTERVAL_HOURS", &cfg.Sportmonks.TimeIntervalHours},
		{"SPORTMONKS_MAX_RETRIES", &cfg.Sportmonks.MaxRetries},
	}
	for _, i := range ints {
		if v := os.Getenv(i.key); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("config: %s: could not convert %q to an integer", i.key, v)
			}
			*i.dst = parsed
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"REFRESH_INTERVAL", &cfg.Schedule.RefreshInterval.Duration},
		{"ALERT_COOLDOWN", &cfg.Schedule.AlertCooldown.Duration},
		{"REQUEST_TIMEOUT", &cfg.Sportmonks.RequestTimeout.Duration},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("config: %s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: TELEGRAM_CHAT_ID: could not convert %q to an integer", v)
		}
		cfg.Telegram.ChatID = id
	}

	return nil
}

// Validate checks the settings the finder cannot run without.
// The value arithmetic inputs are deliberately not range-checked.
func Validate(cfg Config) error {
	if cfg.Sportmonks.APIToken == "" {
		return fmt.Errorf("SPORTMONKS_API_TOKEN is required")
	}
	if !api.ValidPlan(cfg.Sportmonks.Plan) {
		return fmt.Errorf("SPORTMONKS_PLAN must be one of %v, got %q", api.Plans, cfg.Sportmonks.Plan)
	}
	if !slices.Contains(TimeIntervals, cfg.Sportmonks.TimeIntervalHours) {
		return fmt.Errorf("TIME_INTERVAL_HOURS must be one of %v, got %d", TimeIntervals, cfg.Sportmonks.TimeIntervalHours)
	}
	if cfg.Sportmonks.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %v", cfg.Sportmonks.RequestTimeout.Duration)
	}
	if cfg.Sportmonks.MaxRetries < 0 {
		return fmt.Errorf("SPORTMONKS_MAX_RETRIES must be non-negative, got %d", cfg.Sportmonks.MaxRetries)
	}
	if cfg.Schedule.RefreshInterval.Duration < MinRefreshInterval {
		return fmt.Errorf("REFRESH_INTERVAL must be at least %v, got %v", MinRefreshInterval, cfg.Schedule.RefreshInterval.Duration)
	}
	if cfg.Server.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	return nil
}

// FormatStartup returns a one-line summary of the active settings.
func FormatStartup(cfg Config) string {
	return fmt.Sprintf("plan=%s window=%dh threshold=%.2f%% commission=%.2f%% discount=%.2f%% unit=%.2f refresh=%s board=%s",
		cfg.Sportmonks.Plan, cfg.Sportmonks.TimeIntervalHours,
		cfg.Value.Threshold, cfg.Value.Commission, cfg.Value.Discount, cfg.Value.BetUnit,
		cfg.Schedule.RefreshInterval.Duration, cfg.Server.BoardDBPath)
}
