package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/dinewise/internal/domain/score"
)

// Config holds the dinewise API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Places   PlacesConfig   `yaml:"places"`
	Governor GovernorConfig `yaml:"governor"`
	Cache    CacheConfig    `yaml:"cache"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Ranking  RankingConfig  `yaml:"ranking"`
	Events   EventsConfig   `yaml:"events"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis/Valkey connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // "redis" or "memory"
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// PlacesConfig holds places provider settings.
type PlacesConfig struct {
	APIKey            string  `yaml:"api_key"`
	Endpoint          string  `yaml:"endpoint"` // empty = provider default
	MaxResults        int     `yaml:"max_results"`
	CostPerCall       float64 `yaml:"cost_per_call"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = no client-side smoothing
	Burst             int     `yaml:"burst"`
	MaxRetries        int     `yaml:"max_retries"`
	BaseBackoffMs     int     `yaml:"base_backoff_ms"`
	MaxBackoffMs      int     `yaml:"max_backoff_ms"`
	AttemptTimeoutSec int     `yaml:"attempt_timeout_sec"`
}

// GovernorConfig holds rate and cost limits for provider calls.
type GovernorConfig struct {
	WindowLimit      int     `yaml:"window_limit"`
	WindowSec        int     `yaml:"window_sec"`
	DailyCostLimit   float64 `yaml:"daily_cost_limit"`
	ResetHour        int     `yaml:"reset_hour"`
	TimeZone         string  `yaml:"time_zone"`
	AdvisoryFraction float64 `yaml:"advisory_fraction"`
}

// CacheConfig holds candidate cache settings.
type CacheConfig struct {
	MaxEntries          int `yaml:"max_entries"`
	TTLHours            int `yaml:"ttl_hours"`
	StaleRetentionHours int `yaml:"stale_retention_hours"`
}

// ScoringConfig holds compatibility weights. They are normalized at startup.
type ScoringConfig struct {
	Dietary   float64 `yaml:"dietary"`
	Cuisine   float64 `yaml:"cuisine"`
	Proximity float64 `yaml:"proximity"`
	Price     float64 `yaml:"price"`
}

// RankingConfig holds relaxation and output settings.
type RankingConfig struct {
	MinResults     int             `yaml:"min_results"`
	TopN           int             `yaml:"top_n"`
	RadiusGrowth   float64         `yaml:"radius_growth"`
	MaxRadius      int             `yaml:"max_radius"`
	MaxRadiusSteps int             `yaml:"max_radius_steps"`
	PriceEstimates map[int]float64 `yaml:"price_estimates"`
}

// EventsConfig holds advisory stream settings.
type EventsConfig struct {
	Buffer int `yaml:"buffer"`
}

// Weights returns the scoring weights as a domain value.
func (c ScoringConfig) Weights() score.Weights {
	return score.Weights{Dietary: c.Dietary, Cuisine: c.Cuisine, Proximity: c.Proximity, Price: c.Price}
}

// Location resolves the governor time zone.
func (c GovernorConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes, defaults and validates a YAML document.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	if c.Places.MaxResults <= 0 {
		c.Places.MaxResults = 20
	}
	if c.Places.CostPerCall <= 0 {
		c.Places.CostPerCall = 0.032
	}
	if c.Places.MaxRetries <= 0 {
		c.Places.MaxRetries = 3
	}
	if c.Places.BaseBackoffMs <= 0 {
		c.Places.BaseBackoffMs = 200
	}
	if c.Places.MaxBackoffMs <= 0 {
		c.Places.MaxBackoffMs = 2000
	}
	if c.Places.AttemptTimeoutSec <= 0 {
		c.Places.AttemptTimeoutSec = 10
	}

	if c.Governor.WindowLimit <= 0 {
		c.Governor.WindowLimit = 60
	}
	if c.Governor.WindowSec <= 0 {
		c.Governor.WindowSec = 60
	}
	if c.Governor.DailyCostLimit <= 0 {
		c.Governor.DailyCostLimit = 5
	}
	if c.Governor.TimeZone == "" {
		c.Governor.TimeZone = "UTC"
	}
	if c.Governor.AdvisoryFraction <= 0 {
		c.Governor.AdvisoryFraction = 0.8
	}

	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = 1024
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 24
	}
	if c.Cache.StaleRetentionHours <= 0 {
		c.Cache.StaleRetentionHours = 7 * 24
	}

	if c.Scoring == (ScoringConfig{}) {
		w := score.DefaultWeights
		c.Scoring = ScoringConfig{Dietary: w.Dietary, Cuisine: w.Cuisine, Proximity: w.Proximity, Price: w.Price}
	}

	if c.Ranking.MinResults <= 0 {
		c.Ranking.MinResults = 3
	}
	if c.Ranking.TopN <= 0 {
		c.Ranking.TopN = 3
	}
	if c.Ranking.RadiusGrowth <= 0 {
		c.Ranking.RadiusGrowth = 2
	}
	if c.Ranking.MaxRadius <= 0 {
		c.Ranking.MaxRadius = 50_000
	}
	if c.Ranking.MaxRadiusSteps <= 0 {
		c.Ranking.MaxRadiusSteps = 3
	}

	if c.Events.Buffer <= 0 {
		c.Events.Buffer = 16
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for the redis driver")
		}
	case "memory":
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"memory\", got %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Places.APIKey) == "" {
		return fmt.Errorf("places.api_key is required")
	}
	if c.Governor.ResetHour < 0 || c.Governor.ResetHour > 23 {
		return fmt.Errorf("governor.reset_hour must be between 0 and 23, got %d", c.Governor.ResetHour)
	}
	if c.Governor.AdvisoryFraction > 1 {
		return fmt.Errorf("governor.advisory_fraction must be in (0,1], got %v", c.Governor.AdvisoryFraction)
	}
	if _, err := c.Governor.Location(); err != nil {
		return fmt.Errorf("governor.time_zone: %w", err)
	}
	if err := c.Scoring.Weights().Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if c.Ranking.MinResults > c.Ranking.TopN {
		return fmt.Errorf("ranking.min_results (%d) must not exceed ranking.top_n (%d)",
			c.Ranking.MinResults, c.Ranking.TopN)
	}
	if c.Ranking.RadiusGrowth <= 1 {
		return fmt.Errorf("ranking.radius_growth must be > 1, got %v", c.Ranking.RadiusGrowth)
	}
	for level := range c.Ranking.PriceEstimates {
		if level < 0 || level > 4 {
			return fmt.Errorf("ranking.price_estimates: unknown price level %d", level)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
