package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. GARMIN_INSIGHTS_LOG_LEVEL
const EnvPrefix = "GARMIN_INSIGHTS"

// Checkpoint backends
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config represents the application configuration
type Config struct {
	Athlete   AthleteConfig   `mapstructure:"athlete" json:"athlete"`
	Scoring   ScoringConfig   `mapstructure:"scoring" json:"scoring"`
	Analysis  AnalysisConfig  `mapstructure:"analysis" json:"analysis"`
	Storage   StorageConfig   `mapstructure:"storage" json:"storage"`
	Redis     RedisConfig     `mapstructure:"redis" json:"redis"`
	Log       LogConfig       `mapstructure:"log" json:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" json:"telemetry"`
}

// AthleteConfig holds athlete-specific settings
type AthleteConfig struct {
	UserID           string  `mapstructure:"user_id" json:"user_id"`
	SleepTargetHours float64 `mapstructure:"sleep_target_hours" json:"sleep_target_hours"`
	StepGoal         int     `mapstructure:"step_goal" json:"step_goal"`
}

// ScoringConfig holds the tunable scoring constants
type ScoringConfig struct {
	Recovery  RecoveryConfig  `mapstructure:"recovery" json:"recovery"`
	SleepDebt SleepDebtConfig `mapstructure:"sleep_debt" json:"sleep_debt"`
}

// RecoveryConfig holds the recovery sub-score coefficients
type RecoveryConfig struct {
	HRVSlope       float64 `mapstructure:"hrv_slope" json:"hrv_slope"`
	HRVIntercept   float64 `mapstructure:"hrv_intercept" json:"hrv_intercept"`
	HRVWeight      float64 `mapstructure:"hrv_weight" json:"hrv_weight"`
	SleepSlope     float64 `mapstructure:"sleep_slope" json:"sleep_slope"`
	SleepIntercept float64 `mapstructure:"sleep_intercept" json:"sleep_intercept"`
	SleepWeight    float64 `mapstructure:"sleep_weight" json:"sleep_weight"`
	EnergyWeight   float64 `mapstructure:"energy_weight" json:"energy_weight"`
}

// SleepDebtConfig holds the debt window and impact band lower bounds in hours
type SleepDebtConfig struct {
	WindowDays  int     `mapstructure:"window_days" json:"window_days"`
	Moderate    float64 `mapstructure:"moderate" json:"moderate"`
	Significant float64 `mapstructure:"significant" json:"significant"`
	Severe      float64 `mapstructure:"severe" json:"severe"`
}

// AnalysisConfig holds history window sizes in days
type AnalysisConfig struct {
	HistoryDays  int `mapstructure:"history_days" json:"history_days"`
	LoadSeedDays int `mapstructure:"load_seed_days" json:"load_seed_days"` // 0 replays all stored load
}

// StorageConfig selects where days and checkpoints live
type StorageConfig struct {
	Path              string `mapstructure:"path" json:"path"`
	CheckpointBackend string `mapstructure:"checkpoint_backend" json:"checkpoint_backend"`
}

// RedisConfig holds the Redis connection used by the redis checkpoint backend
type RedisConfig struct {
	Addr     string `mapstructure:"addr" json:"addr"`
	Password string `mapstructure:"password" json:"password"`
	DB       int    `mapstructure:"db" json:"db"`
}

// LogConfig holds logging preferences
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// TelemetryConfig holds tracing preferences
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled" json:"enabled"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Athlete: AthleteConfig{
			SleepTargetHours: 7.5,
			StepGoal:         10000,
		},
		Scoring: ScoringConfig{
			Recovery: RecoveryConfig{
				HRVSlope:       80,
				HRVIntercept:   20,
				HRVWeight:      1.5,
				SleepSlope:     85,
				SleepIntercept: 15,
				SleepWeight:    1.0,
				EnergyWeight:   1.0,
			},
			SleepDebt: SleepDebtConfig{
				WindowDays:  7,
				Moderate:    2,
				Significant: 5,
				Severe:      8,
			},
		},
		Analysis: AnalysisConfig{
			HistoryDays:  60,
			LoadSeedDays: 0,
		},
		Storage: StorageConfig{
			CheckpointBackend: BackendSQLite,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "garmin-insights",
		},
	}
}

// Load reads the configuration from ~/.garmin-insights/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration file at path. Missing values fall back to
// DefaultConfig and GARMIN_INSIGHTS_* environment variables override the file
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ErrNoConfig
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	// Set default values
	setDefaults(v, DefaultConfig())

	// Enable environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	// Athlete
	v.SetDefault("athlete.user_id", d.Athlete.UserID)
	v.SetDefault("athlete.sleep_target_hours", d.Athlete.SleepTargetHours)
	v.SetDefault("athlete.step_goal", d.Athlete.StepGoal)

	// Scoring
	r := d.Scoring.Recovery
	v.SetDefault("scoring.recovery.hrv_slope", r.HRVSlope)
	v.SetDefault("scoring.recovery.hrv_intercept", r.HRVIntercept)
	v.SetDefault("scoring.recovery.hrv_weight", r.HRVWeight)
	v.SetDefault("scoring.recovery.sleep_slope", r.SleepSlope)
	v.SetDefault("scoring.recovery.sleep_intercept", r.SleepIntercept)
	v.SetDefault("scoring.recovery.sleep_weight", r.SleepWeight)
	v.SetDefault("scoring.recovery.energy_weight", r.EnergyWeight)
	v.SetDefault("scoring.sleep_debt.window_days", d.Scoring.SleepDebt.WindowDays)
	v.SetDefault("scoring.sleep_debt.moderate", d.Scoring.SleepDebt.Moderate)
	v.SetDefault("scoring.sleep_debt.significant", d.Scoring.SleepDebt.Significant)
	v.SetDefault("scoring.sleep_debt.severe", d.Scoring.SleepDebt.Severe)

	// Analysis
	v.SetDefault("analysis.history_days", d.Analysis.HistoryDays)
	v.SetDefault("analysis.load_seed_days", d.Analysis.LoadSeedDays)

	// Storage
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.checkpoint_backend", d.Storage.CheckpointBackend)

	// Redis
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)

	// Log
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	// Telemetry
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
}

// Save writes the configuration to ~/.garmin-insights/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the configuration to path
func SaveTo(cfg *Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return CreateExampleAt(path)
}

// CreateExampleAt creates an example config at path with a fresh user ID.
// An existing file is left untouched
func CreateExampleAt(path string) error {
	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Athlete.UserID = uuid.NewString()

	return SaveTo(&example, path)
}

// UserID parses the configured athlete ID
func (c *Config) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Athlete.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("athlete.user_id %q is not a UUID: %w", c.Athlete.UserID, err)
	}
	return id, nil
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if c.Athlete.UserID == "" {
		return errors.New("athlete.user_id is required - run `garmin-insights init` to generate one")
	}
	if _, err := c.UserID(); err != nil {
		return err
	}
	if c.Athlete.SleepTargetHours <= 0 || c.Athlete.SleepTargetHours > 24 {
		return fmt.Errorf("athlete.sleep_target_hours must be in (0, 24], got %v", c.Athlete.SleepTargetHours)
	}
	if c.Athlete.StepGoal <= 0 {
		return fmt.Errorf("athlete.step_goal must be positive, got %d", c.Athlete.StepGoal)
	}

	// Validate scoring
	r := c.Scoring.Recovery
	if r.HRVWeight < 0 || r.SleepWeight < 0 || r.EnergyWeight < 0 {
		return errors.New("scoring.recovery weights must not be negative")
	}
	if r.HRVWeight+r.SleepWeight+r.EnergyWeight == 0 {
		return errors.New("scoring.recovery needs at least one positive weight")
	}
	sd := c.Scoring.SleepDebt
	if sd.WindowDays <= 0 {
		return fmt.Errorf("scoring.sleep_debt.window_days must be positive, got %d", sd.WindowDays)
	}
	if !(0 < sd.Moderate && sd.Moderate < sd.Significant && sd.Significant < sd.Severe) {
		return fmt.Errorf("scoring.sleep_debt bands must be increasing, got %v/%v/%v", sd.Moderate, sd.Significant, sd.Severe)
	}

	// Validate windows
	if c.Analysis.HistoryDays < 7 {
		return fmt.Errorf("analysis.history_days must be at least 7, got %d", c.Analysis.HistoryDays)
	}
	if c.Analysis.LoadSeedDays < 0 {
		return fmt.Errorf("analysis.load_seed_days must not be negative, got %d", c.Analysis.LoadSeedDays)
	}

	// Validate storage
	switch c.Storage.CheckpointBackend {
	case BackendSQLite:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis.addr is required when storage.checkpoint_backend is \"redis\"")
		}
	default:
		return fmt.Errorf("storage.checkpoint_backend must be %q or %q, got %q", BackendSQLite, BackendRedis, c.Storage.CheckpointBackend)
	}

	// Validate logging
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be \"text\" or \"json\", got %q", c.Log.Format)
	}

	return nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".garmin-insights"), nil
}
