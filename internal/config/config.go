// Package config holds the physics tuning used by the simulation.
//
// Values come from three layers, later layers winning: DefaultPhysics(),
// an optional YAML file (Load), and PHYSICS_* environment variables
// (PhysicsFromEnv).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/chewxy/math32"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid physics config")

// Physics holds every tunable of the physics core.
type Physics struct {
	Gravity            float32       `yaml:"gravity"`             // m/s², negative is down
	MaxDelta           float32       `yaml:"max_delta"`           // dt clamp in seconds
	GroundFriction     float32       `yaml:"ground_friction"`     // per-tick xz decay when grounded
	AirResistance      float32       `yaml:"air_resistance"`      // per-tick xz decay when airborne
	DefaultFriction    float32       `yaml:"default_friction"`    // filled into bodies with no friction
	DefaultRestitution float32       `yaml:"default_restitution"` // filled into bodies with no restitution
	GridSize           float32       `yaml:"grid_size"`           // spatial grid cell edge in meters
	SearchMargin       float32       `yaml:"search_margin"`       // added to bounding radius for broad phase
	ResolveIterations  int           `yaml:"resolve_iterations"`  // resolver passes per body per tick
	MultiCell          bool          `yaml:"multi_cell"`          // register bodies in every overlapped cell
	Workers            int           `yaml:"workers"`             // goroutines for the integration phase
	TickBudget         time.Duration `yaml:"tick_budget"`         // slow-tick warning threshold
}

// DefaultPhysics returns the tuning the city runs with.
func DefaultPhysics() Physics {
	return Physics{
		Gravity:            -20.0,
		MaxDelta:           0.1,
		GroundFriction:     0.85,
		AirResistance:      0.99,
		DefaultFriction:    0.5,
		DefaultRestitution: 0.3,
		GridSize:           10.0,
		SearchMargin:       5.0,
		ResolveIterations:  1,
		MultiCell:          false,
		Workers:            1,
		TickBudget:         4 * time.Millisecond,
	}
}

// Load reads a YAML file on top of DefaultPhysics. A missing file is not an
// error: the defaults are returned as-is.
func Load(path string) (Physics, error) {
	cfg := DefaultPhysics()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultPhysics(), fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// PhysicsFromEnv returns base with environment variable overrides applied.
func PhysicsFromEnv(base Physics) Physics {
	cfg := base

	if v, ok := getEnvFloat("PHYSICS_GRAVITY"); ok {
		cfg.Gravity = v
	}
	if v, ok := getEnvFloat("PHYSICS_MAX_DELTA"); ok && v > 0 {
		cfg.MaxDelta = v
	}
	if v, ok := getEnvFloat("PHYSICS_GROUND_FRICTION"); ok {
		cfg.GroundFriction = v
	}
	if v, ok := getEnvFloat("PHYSICS_AIR_RESISTANCE"); ok {
		cfg.AirResistance = v
	}
	if v, ok := getEnvFloat("PHYSICS_GRID_SIZE"); ok && v > 0 {
		cfg.GridSize = v
	}
	if v, ok := getEnvFloat("PHYSICS_SEARCH_MARGIN"); ok && v >= 0 {
		cfg.SearchMargin = v
	}
	if v := getEnvInt("PHYSICS_RESOLVE_ITERATIONS", 0); v > 0 {
		cfg.ResolveIterations = v
	}
	if v := getEnvInt("PHYSICS_WORKERS", 0); v > 0 {
		cfg.Workers = v
	}
	switch os.Getenv("PHYSICS_MULTI_CELL") {
	case "true", "1":
		cfg.MultiCell = true
	case "false", "0":
		cfg.MultiCell = false
	}
	if d, err := time.ParseDuration(os.Getenv("PHYSICS_TICK_BUDGET")); err == nil && d > 0 {
		cfg.TickBudget = d
	}

	return cfg
}

// Validate reports the first out-of-range field. NaN and infinite values
// are out of range everywhere.
func (p Physics) Validate() error {
	switch {
	case math32.IsNaN(p.Gravity) || math32.IsInf(p.Gravity, 0):
		return fmt.Errorf("%w: gravity must be finite, got %v", ErrInvalidConfig, p.Gravity)
	case !positive(p.MaxDelta):
		return fmt.Errorf("%w: max_delta must be positive, got %v", ErrInvalidConfig, p.MaxDelta)
	case !(p.GroundFriction > 0 && p.GroundFriction <= 1):
		return fmt.Errorf("%w: ground_friction must be in (0,1], got %v", ErrInvalidConfig, p.GroundFriction)
	case !(p.AirResistance > 0 && p.AirResistance <= 1):
		return fmt.Errorf("%w: air_resistance must be in (0,1], got %v", ErrInvalidConfig, p.AirResistance)
	case !(p.DefaultFriction >= 0 && p.DefaultFriction <= 1):
		return fmt.Errorf("%w: default_friction must be in [0,1], got %v", ErrInvalidConfig, p.DefaultFriction)
	case !(p.DefaultRestitution >= 0 && p.DefaultRestitution <= 1):
		return fmt.Errorf("%w: default_restitution must be in [0,1], got %v", ErrInvalidConfig, p.DefaultRestitution)
	case !positive(p.GridSize):
		return fmt.Errorf("%w: grid_size must be positive, got %v", ErrInvalidConfig, p.GridSize)
	case !(p.SearchMargin >= 0) || math32.IsInf(p.SearchMargin, 1):
		return fmt.Errorf("%w: search_margin must not be negative, got %v", ErrInvalidConfig, p.SearchMargin)
	case p.ResolveIterations < 1:
		return fmt.Errorf("%w: resolve_iterations must be at least 1, got %d", ErrInvalidConfig, p.ResolveIterations)
	case p.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, p.Workers)
	}
	return nil
}

// positive rejects zero, negatives, NaN and +Inf.
func positive(v float32) bool {
	return v > 0 && !math32.IsInf(v, 1)
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string) (float32, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, false
	}
	return float32(f), true
}
