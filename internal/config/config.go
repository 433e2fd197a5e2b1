package config

import (
	"os"
	"strconv"
	"strings"

	"trustdebt/domain/balancer"
	"trustdebt/domain/grade"
	"trustdebt/domain/matrix"
	"trustdebt/domain/orthogonality"
	"trustdebt/internal/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config represents the complete application configuration
type Config struct {
	Engine   EngineConfig
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
}

// EngineConfig holds the calibration of one assessment run
type EngineConfig struct {
	OrthogonalityReject float64 `validate:"gte=0,lte=1"`
	OrthogonalityWarn   float64 `validate:"gte=0,ltefield=OrthogonalityReject"`
	MinShare            float64 `validate:"gte=0,ltfield=MaxShare"`
	MaxShare            float64 `validate:"gt=0,lte=1"`
	MaxIterations       int     `validate:"gte=0,lte=1000"`
	DepthPenalty        float64 `validate:"gte=0"`
	DiagonalBoost       float64 `validate:"gte=0"`
	VisibilityScale     float64 `validate:"gt=0"`
	GradeBoundaries     string  `validate:"required"`
	TrajectoryNoise     float64 `validate:"gte=0,lte=1"`
	ValidatorWorkers    int     `validate:"gte=1,lte=256"`
	BatchWorkers        int     `validate:"gte=1,lte=256"`
}

// DatabaseConfig holds database connection settings. An empty URL disables
// run history.
type DatabaseConfig struct {
	URL string `validate:"omitempty,url"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `validate:"required,numeric"`
	GinMode string `validate:"oneof=debug release test"`
}

// LogConfig selects logger verbosity and encoder
type LogConfig struct {
	Level string `validate:"oneof=ERROR WARN INFO DEBUG TRACE"`
	Mode  string `validate:"oneof=development production prod"`
}

// DefaultEngine returns the calibration starting point.
func DefaultEngine() EngineConfig {
	thresholds := orthogonality.DefaultThresholds()
	mc := matrix.DefaultConfig()
	return EngineConfig{
		OrthogonalityReject: thresholds.Reject,
		OrthogonalityWarn:   thresholds.Warn,
		MinShare:            thresholds.MinShare,
		MaxShare:            thresholds.MaxShare,
		MaxIterations:       balancer.DefaultConfig().MaxIterations,
		DepthPenalty:        mc.DepthPenalty,
		DiagonalBoost:       mc.DiagonalBoost,
		VisibilityScale:     100,
		GradeBoundaries:     grade.DefaultBoundaries().String(),
		TrajectoryNoise:     grade.DefaultNoise,
		ValidatorWorkers:    thresholds.Workers,
		BatchWorkers:        4,
	}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	def := DefaultEngine()
	cfg := &Config{
		Engine: EngineConfig{
			OrthogonalityReject: getEnvFloatOrDefault("TD_ORTHOGONALITY_REJECT", def.OrthogonalityReject),
			OrthogonalityWarn:   getEnvFloatOrDefault("TD_ORTHOGONALITY_WARN", def.OrthogonalityWarn),
			MinShare:            getEnvFloatOrDefault("TD_MIN_SHARE", def.MinShare),
			MaxShare:            getEnvFloatOrDefault("TD_MAX_SHARE", def.MaxShare),
			MaxIterations:       getEnvIntOrDefault("TD_BALANCER_MAX_ITERATIONS", def.MaxIterations),
			DepthPenalty:        getEnvFloatOrDefault("TD_DEPTH_PENALTY", def.DepthPenalty),
			DiagonalBoost:       getEnvFloatOrDefault("TD_DIAGONAL_BOOST", def.DiagonalBoost),
			VisibilityScale:     getEnvFloatOrDefault("TD_VISIBILITY_SCALE", def.VisibilityScale),
			GradeBoundaries:     getEnvOrDefault("TD_GRADE_BOUNDARIES", def.GradeBoundaries),
			TrajectoryNoise:     getEnvFloatOrDefault("TD_TRAJECTORY_NOISE", def.TrajectoryNoise),
			ValidatorWorkers:    getEnvIntOrDefault("TD_VALIDATOR_WORKERS", def.ValidatorWorkers),
			BatchWorkers:        getEnvIntOrDefault("TD_BATCH_WORKERS", def.BatchWorkers),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Log: LogConfig{
			Level: strings.ToUpper(getEnvOrDefault("LOG_LEVEL", "INFO")),
			Mode:  getEnvOrDefault("LOG_MODE", "development"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints and that the grade table parses
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return c.Engine.Validate()
}

// Validate checks the engine calibration on its own
func (e EngineConfig) Validate() error {
	if err := validate.Struct(e); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if _, err := grade.ParseBoundaries(e.GradeBoundaries); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

// Thresholds returns the validator gate.
func (e EngineConfig) Thresholds() orthogonality.Thresholds {
	return orthogonality.Thresholds{
		Reject:   e.OrthogonalityReject,
		Warn:     e.OrthogonalityWarn,
		MinShare: e.MinShare,
		MaxShare: e.MaxShare,
		Workers:  e.ValidatorWorkers,
	}
}

// Balancer returns the balancing loop configuration.
func (e EngineConfig) Balancer() balancer.Config {
	return balancer.Config{Thresholds: e.Thresholds(), MaxIterations: e.MaxIterations}
}

// Matrix returns the debt multipliers.
func (e EngineConfig) Matrix() matrix.Config {
	return matrix.Config{DepthPenalty: e.DepthPenalty, DiagonalBoost: e.DiagonalBoost}
}

// Boundaries parses the grade table.
func (e EngineConfig) Boundaries() (grade.Boundaries, error) {
	return grade.ParseBoundaries(e.GradeBoundaries)
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
