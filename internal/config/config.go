package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/VoidMesh/pathfinder/internal/rover"
	"github.com/VoidMesh/pathfinder/internal/terrain"
)

var (
	ErrUnknownPreset = errors.New("unknown terrain preset")
	ErrInvalidConfig = errors.New("invalid configuration")
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Terrain     terrain.Config    `yaml:"terrain"`
	Pathfinding PathfindingConfig `yaml:"pathfinding"`
	Rover       RoverConfig       `yaml:"rover"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	CORSEnabled     bool          `yaml:"cors_enabled"`
}

type PathfindingConfig struct {
	ElevationWeight    float64       `yaml:"elevation_weight"`
	SteepPenaltyFactor float64       `yaml:"steep_penalty_factor"`
	MaxSteps           int           `yaml:"max_steps"`
	Timeout            time.Duration `yaml:"timeout"`
}

type RoverConfig struct {
	Speed           float64       `yaml:"speed"`
	ReplanInterval  time.Duration `yaml:"replan_interval"`
	OptimizedWeight float64       `yaml:"optimized_weight"`
	SpawnRadius     int           `yaml:"spawn_radius"`
}

type MaintenanceConfig struct {
	TickInterval  time.Duration `yaml:"tick_interval"`
	PreloadRadius int           `yaml:"preload_radius"`
	ViewRadius    int           `yaml:"view_radius"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Prefix string `yaml:"prefix"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	opts := rover.DefaultOptions()
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    75 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
			CORSEnabled:     true,
		},
		Terrain: terrain.DefaultConfig(),
		Pathfinding: PathfindingConfig{
			ElevationWeight:    opts.ElevationWeight,
			SteepPenaltyFactor: opts.SteepPenaltyFactor,
			MaxSteps:           2_000_000,
			Timeout:            5 * time.Second,
		},
		Rover: RoverConfig{
			Speed:           opts.Speed,
			ReplanInterval:  opts.ReplanInterval,
			OptimizedWeight: opts.OptimizedWeight,
			SpawnRadius:     opts.SpawnRadius,
		},
		Maintenance: MaintenanceConfig{
			TickInterval:  100 * time.Millisecond,
			PreloadRadius: opts.PreloadRadius,
			ViewRadius:    opts.ViewRadius,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Prefix: "pathfinder",
		},
	}
}

// Load builds the configuration in layers: defaults, the TERRAIN_PRESET
// preset, the CONFIG_FILE YAML overlay, then individual environment
// variables.
func Load() (*Config, error) {
	cfg := Defaults()

	if preset := getEnvStr("TERRAIN_PRESET", ""); preset != "" {
		if err := ApplyPreset(&cfg.Terrain, preset); err != nil {
			return nil, err
		}
	}

	if path := getEnvStr("CONFIG_FILE", ""); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML document at path. Keys absent from the file
// keep their current values.
func (c *Config) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvStr("PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", c.Server.RequestTimeout)
	c.Server.CORSEnabled = getEnvBool("CORS_ENABLED", c.Server.CORSEnabled)

	c.Terrain.Width = getEnvInt("TERRAIN_WIDTH", c.Terrain.Width)
	c.Terrain.Height = getEnvInt("TERRAIN_HEIGHT", c.Terrain.Height)
	c.Terrain.MaxElevation = getEnvFloat("MAX_ELEVATION", c.Terrain.MaxElevation)
	c.Terrain.ChunkSize = getEnvInt("CHUNK_SIZE", c.Terrain.ChunkSize)
	c.Terrain.Seed = getEnvInt64("TERRAIN_SEED", c.Terrain.Seed)
	c.Terrain.Scale = getEnvFloat("NOISE_SCALE", c.Terrain.Scale)
	c.Terrain.Octaves = getEnvInt("NOISE_OCTAVES", c.Terrain.Octaves)
	c.Terrain.Persistence = getEnvFloat("NOISE_PERSISTENCE", c.Terrain.Persistence)
	c.Terrain.Lacunarity = getEnvFloat("NOISE_LACUNARITY", c.Terrain.Lacunarity)
	c.Terrain.ObstacleProbability = getEnvFloat("OBSTACLE_PROBABILITY", c.Terrain.ObstacleProbability)
	c.Terrain.NoiseBackend = getEnvStr("NOISE_BACKEND", c.Terrain.NoiseBackend)

	c.Pathfinding.ElevationWeight = getEnvFloat("ELEVATION_WEIGHT", c.Pathfinding.ElevationWeight)
	c.Pathfinding.SteepPenaltyFactor = getEnvFloat("STEEP_PENALTY_FACTOR", c.Pathfinding.SteepPenaltyFactor)
	c.Pathfinding.MaxSteps = getEnvInt("SEARCH_MAX_STEPS", c.Pathfinding.MaxSteps)
	c.Pathfinding.Timeout = getEnvDuration("SEARCH_TIMEOUT", c.Pathfinding.Timeout)

	c.Rover.Speed = getEnvFloat("ROVER_SPEED", c.Rover.Speed)
	c.Rover.ReplanInterval = getEnvDuration("ROVER_REPLAN_INTERVAL", c.Rover.ReplanInterval)
	c.Rover.OptimizedWeight = getEnvFloat("ROVER_OPTIMIZED_WEIGHT", c.Rover.OptimizedWeight)
	c.Rover.SpawnRadius = getEnvInt("ROVER_SPAWN_RADIUS", c.Rover.SpawnRadius)

	c.Maintenance.TickInterval = getEnvDuration("MAINTENANCE_INTERVAL", c.Maintenance.TickInterval)
	c.Maintenance.PreloadRadius = getEnvInt("PRELOAD_RADIUS", c.Maintenance.PreloadRadius)
	c.Maintenance.ViewRadius = getEnvInt("VIEW_RADIUS", c.Maintenance.ViewRadius)

	c.Logging.Level = getEnvStr("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnvStr("LOG_FORMAT", c.Logging.Format)
	c.Logging.Prefix = getEnvStr("LOG_PREFIX", c.Logging.Prefix)
}

// Validate checks every section. Terrain problems wrap
// terrain.ErrInvalidConfig, everything else wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.Terrain.Validate(); err != nil {
		return err
	}

	switch {
	case c.Server.Port == "":
		return fmt.Errorf("%w: server port is empty", ErrInvalidConfig)
	case c.Server.WriteTimeout > 0 && c.Server.WriteTimeout < c.Server.RequestTimeout:
		return fmt.Errorf("%w: write_timeout %s is shorter than request_timeout %s",
			ErrInvalidConfig, c.Server.WriteTimeout, c.Server.RequestTimeout)
	case c.Pathfinding.ElevationWeight < 0:
		return fmt.Errorf("%w: elevation_weight %g is negative", ErrInvalidConfig, c.Pathfinding.ElevationWeight)
	case c.Pathfinding.SteepPenaltyFactor < 0:
		return fmt.Errorf("%w: steep_penalty_factor %g is negative", ErrInvalidConfig, c.Pathfinding.SteepPenaltyFactor)
	case c.Pathfinding.MaxSteps < 0:
		return fmt.Errorf("%w: max_steps %d is negative", ErrInvalidConfig, c.Pathfinding.MaxSteps)
	case c.Rover.Speed <= 0:
		return fmt.Errorf("%w: rover speed %g must be positive", ErrInvalidConfig, c.Rover.Speed)
	case c.Rover.ReplanInterval <= 0:
		return fmt.Errorf("%w: replan_interval %s must be positive", ErrInvalidConfig, c.Rover.ReplanInterval)
	case c.Rover.OptimizedWeight < 0:
		return fmt.Errorf("%w: optimized_weight %g is negative", ErrInvalidConfig, c.Rover.OptimizedWeight)
	case c.Rover.SpawnRadius < 0:
		return fmt.Errorf("%w: spawn_radius %d is negative", ErrInvalidConfig, c.Rover.SpawnRadius)
	case c.Maintenance.TickInterval <= 0:
		return fmt.Errorf("%w: tick_interval %s must be positive", ErrInvalidConfig, c.Maintenance.TickInterval)
	case c.Maintenance.PreloadRadius < 0:
		return fmt.Errorf("%w: preload_radius %d is negative", ErrInvalidConfig, c.Maintenance.PreloadRadius)
	case c.Maintenance.ViewRadius < c.Maintenance.PreloadRadius:
		return fmt.Errorf("%w: view_radius %d is smaller than preload_radius %d",
			ErrInvalidConfig, c.Maintenance.ViewRadius, c.Maintenance.PreloadRadius)
	}
	return nil
}

// RoverOptions collects the settings rovers and one-off searches use.
func (c *Config) RoverOptions() rover.Options {
	return rover.Options{
		Speed:              c.Rover.Speed,
		ReplanInterval:     c.Rover.ReplanInterval,
		OptimizedWeight:    c.Rover.OptimizedWeight,
		ElevationWeight:    c.Pathfinding.ElevationWeight,
		SteepPenaltyFactor: c.Pathfinding.SteepPenaltyFactor,
		MaxSteps:           c.Pathfinding.MaxSteps,
		SearchTimeout:      c.Pathfinding.Timeout,
		PreloadRadius:      c.Maintenance.PreloadRadius,
		ViewRadius:         c.Maintenance.ViewRadius,
		SpawnRadius:        c.Rover.SpawnRadius,
	}
}

func getEnvStr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
