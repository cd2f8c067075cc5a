package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoidMesh/pathfinder/internal/noise"
	"github.com/VoidMesh/pathfinder/internal/terrain"
)

// clearEnv blanks every variable Load consults so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TERRAIN_PRESET", "CONFIG_FILE",
		"PORT", "READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT", "REQUEST_TIMEOUT", "CORS_ENABLED",
		"TERRAIN_WIDTH", "TERRAIN_HEIGHT", "MAX_ELEVATION", "CHUNK_SIZE", "TERRAIN_SEED",
		"NOISE_SCALE", "NOISE_OCTAVES", "NOISE_PERSISTENCE", "NOISE_LACUNARITY", "OBSTACLE_PROBABILITY", "NOISE_BACKEND",
		"ELEVATION_WEIGHT", "STEEP_PENALTY_FACTOR", "SEARCH_MAX_STEPS", "SEARCH_TIMEOUT",
		"ROVER_SPEED", "ROVER_REPLAN_INTERVAL", "ROVER_OPTIMIZED_WEIGHT", "ROVER_SPAWN_RADIUS",
		"MAINTENANCE_INTERVAL", "PRELOAD_RADIUS", "VIEW_RADIUS",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_PREFIX",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.GreaterOrEqual(t, cfg.Server.WriteTimeout, cfg.Server.RequestTimeout)
	assert.True(t, cfg.Server.CORSEnabled)
	assert.Equal(t, terrain.DefaultConfig(), cfg.Terrain)
	assert.Equal(t, 1.0, cfg.Pathfinding.ElevationWeight)
	assert.Equal(t, 10.0, cfg.Pathfinding.SteepPenaltyFactor)
	assert.Equal(t, 10.0, cfg.Rover.Speed)
	assert.Equal(t, 5*time.Second, cfg.Rover.ReplanInterval)
	assert.Equal(t, 3.0, cfg.Rover.OptimizedWeight)
	assert.Equal(t, 1, cfg.Maintenance.PreloadRadius)
	assert.Equal(t, 5, cfg.Maintenance.ViewRadius)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("TERRAIN_WIDTH", "4096")
	t.Setenv("TERRAIN_SEED", "-17")
	t.Setenv("NOISE_BACKEND", noise.BackendValue)
	t.Setenv("OBSTACLE_PROBABILITY", "0.2")
	t.Setenv("SEARCH_TIMEOUT", "750ms")
	t.Setenv("CORS_ENABLED", "false")
	t.Setenv("VIEW_RADIUS", "8")
	t.Setenv("CHUNK_SIZE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.False(t, cfg.Server.CORSEnabled)
	assert.Equal(t, 4096, cfg.Terrain.Width)
	assert.Equal(t, int64(-17), cfg.Terrain.Seed)
	assert.Equal(t, noise.BackendValue, cfg.Terrain.NoiseBackend)
	assert.Equal(t, 0.2, cfg.Terrain.ObstacleProbability)
	assert.Equal(t, 750*time.Millisecond, cfg.Pathfinding.Timeout)
	assert.Equal(t, 8, cfg.Maintenance.ViewRadius)
	assert.Equal(t, 256, cfg.Terrain.ChunkSize, "unparsable values fall back")
}

func TestLoad_Presets(t *testing.T) {
	tests := []struct {
		preset    string
		width     int
		chunkSize int
		octaves   int
	}{
		{preset: "test", width: 2048, chunkSize: 128, octaves: 4},
		{preset: "performance", width: 15000, chunkSize: 512, octaves: 3},
		{preset: "beautiful", width: 15000, chunkSize: 256, octaves: 8},
	}

	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("TERRAIN_PRESET", tt.preset)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.width, cfg.Terrain.Width)
			assert.Equal(t, tt.chunkSize, cfg.Terrain.ChunkSize)
			assert.Equal(t, tt.octaves, cfg.Terrain.Octaves)
			assert.Equal(t, 0.5, cfg.Terrain.Persistence, "presets leave unset fields alone")
		})
	}

	t.Run("env beats preset", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TERRAIN_PRESET", "test")
		t.Setenv("CHUNK_SIZE", "64")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 64, cfg.Terrain.ChunkSize)
		assert.Equal(t, 2048, cfg.Terrain.Width)
	})

	t.Run("unknown preset", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TERRAIN_PRESET", "photorealistic")

		cfg, err := Load()
		assert.Nil(t, cfg)
		assert.True(t, errors.Is(err, ErrUnknownPreset))
	})
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "pathfinder.yaml")
	doc := `
server:
  port: "7070"
  request_timeout: 15s
terrain:
  width: 1000
  height: 800
  seed: 42
  noise_backend: value
pathfinding:
  max_steps: 5000
rover:
  replan_interval: 2s
maintenance:
  view_radius: 3
logging:
  format: logfmt
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TERRAIN_PRESET", "test")
	t.Setenv("TERRAIN_SEED", "99")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 1000, cfg.Terrain.Width)
	assert.Equal(t, 800, cfg.Terrain.Height)
	assert.Equal(t, 128, cfg.Terrain.ChunkSize, "preset value survives keys the file omits")
	assert.Equal(t, int64(99), cfg.Terrain.Seed, "env wins over the file")
	assert.Equal(t, noise.BackendValue, cfg.Terrain.NoiseBackend)
	assert.Equal(t, 5000, cfg.Pathfinding.MaxSteps)
	assert.Equal(t, 2*time.Second, cfg.Rover.ReplanInterval)
	assert.Equal(t, 3, cfg.Maintenance.ViewRadius)
	assert.Equal(t, "logfmt", cfg.Logging.Format)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
}

func TestLoad_ConfigFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

		_, err := Load()
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("malformed yaml", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("terrain: [unclosed"), 0o600))
		t.Setenv("CONFIG_FILE", path)

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "invalid.yaml")
		require.NoError(t, os.WriteFile(path, []byte("terrain:\n  chunk_size: 0\n"), 0o600))
		t.Setenv("CONFIG_FILE", path)

		_, err := Load()
		assert.True(t, errors.Is(err, terrain.ErrInvalidConfig))
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		expectErr error
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "bad terrain", mutate: func(c *Config) { c.Terrain.Width = 0 }, expectErr: terrain.ErrInvalidConfig},
		{name: "empty port", mutate: func(c *Config) { c.Server.Port = "" }, expectErr: ErrInvalidConfig},
		{name: "write deadline before request timeout", mutate: func(c *Config) { c.Server.WriteTimeout = 10 * time.Second }, expectErr: ErrInvalidConfig},
		{name: "no write deadline", mutate: func(c *Config) { c.Server.WriteTimeout = 0 }},
		{name: "oversized chunk", mutate: func(c *Config) { c.Terrain.ChunkSize = 100000 }, expectErr: terrain.ErrInvalidConfig},
		{name: "negative weight", mutate: func(c *Config) { c.Pathfinding.ElevationWeight = -1 }, expectErr: ErrInvalidConfig},
		{name: "zero weight allowed", mutate: func(c *Config) { c.Pathfinding.ElevationWeight = 0 }},
		{name: "negative steep penalty", mutate: func(c *Config) { c.Pathfinding.SteepPenaltyFactor = -1 }, expectErr: ErrInvalidConfig},
		{name: "negative budget", mutate: func(c *Config) { c.Pathfinding.MaxSteps = -1 }, expectErr: ErrInvalidConfig},
		{name: "zero speed", mutate: func(c *Config) { c.Rover.Speed = 0 }, expectErr: ErrInvalidConfig},
		{name: "zero replan interval", mutate: func(c *Config) { c.Rover.ReplanInterval = 0 }, expectErr: ErrInvalidConfig},
		{name: "negative spawn radius", mutate: func(c *Config) { c.Rover.SpawnRadius = -1 }, expectErr: ErrInvalidConfig},
		{name: "zero tick interval", mutate: func(c *Config) { c.Maintenance.TickInterval = 0 }, expectErr: ErrInvalidConfig},
		{name: "view inside preload", mutate: func(c *Config) { c.Maintenance.ViewRadius = 0 }, expectErr: ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.expectErr), "got %v", err)
		})
	}
}

func TestConfig_RoverOptions(t *testing.T) {
	cfg := Defaults()
	cfg.Pathfinding.MaxSteps = 1234
	cfg.Maintenance.ViewRadius = 7

	opts := cfg.RoverOptions()
	assert.Equal(t, 1234, opts.MaxSteps)
	assert.Equal(t, 7, opts.ViewRadius)
	assert.Equal(t, cfg.Rover.OptimizedWeight, opts.OptimizedWeight)
	assert.Equal(t, cfg.Pathfinding.Timeout, opts.SearchTimeout)
}

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{"beautiful", "performance", "test"}, Presets())

	cfg := terrain.DefaultConfig()
	require.NoError(t, ApplyPreset(&cfg, "beautiful"))
	assert.Equal(t, 400.0, cfg.MaxElevation)
	assert.NoError(t, cfg.Validate())
}
