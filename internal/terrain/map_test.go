package terrain

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoidMesh/pathfinder/internal/chunk"
	"github.com/VoidMesh/pathfinder/internal/noise"
	"github.com/VoidMesh/pathfinder/internal/testutil"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 128
	cfg.Height = 96
	cfg.ChunkSize = 16
	cfg.Seed = 4242
	cfg.ObstacleProbability = 0.2
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		expectErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "zero width", mutate: func(c *Config) { c.Width = 0 }, expectErr: true},
		{name: "negative height", mutate: func(c *Config) { c.Height = -5 }, expectErr: true},
		{name: "zero chunk size", mutate: func(c *Config) { c.ChunkSize = 0 }, expectErr: true},
		{name: "negative chunk size", mutate: func(c *Config) { c.ChunkSize = -16 }, expectErr: true},
		{name: "chunk larger than world", mutate: func(c *Config) { c.ChunkSize = 100000 }, expectErr: true},
		{name: "chunk spans the longer side", mutate: func(c *Config) { c.ChunkSize = c.Width }},
		{name: "zero max elevation", mutate: func(c *Config) { c.MaxElevation = 0 }, expectErr: true},
		{name: "zero scale", mutate: func(c *Config) { c.Scale = 0 }, expectErr: true},
		{name: "no octaves", mutate: func(c *Config) { c.Octaves = 0 }, expectErr: true},
		{name: "zero persistence", mutate: func(c *Config) { c.Persistence = 0 }, expectErr: true},
		{name: "negative lacunarity", mutate: func(c *Config) { c.Lacunarity = -2 }, expectErr: true},
		{name: "obstacle probability above one", mutate: func(c *Config) { c.ObstacleProbability = 1.5 }, expectErr: true},
		{name: "obstacle probability of one", mutate: func(c *Config) { c.ObstacleProbability = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.expectErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNew(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	t.Run("rejects malformed config", func(t *testing.T) {
		cfg := smallConfig()
		cfg.ChunkSize = 0
		m, err := New(cfg)
		assert.Nil(t, m)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})

	t.Run("rejects unknown backend", func(t *testing.T) {
		cfg := smallConfig()
		cfg.NoiseBackend = "gpu"
		m, err := New(cfg)
		assert.Nil(t, m)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})

	t.Run("builds each backend", func(t *testing.T) {
		for _, backend := range []string{noise.BackendPerlin, noise.BackendValue, noise.BackendFlat} {
			cfg := smallConfig()
			cfg.NoiseBackend = backend
			m, err := New(cfg)
			require.NoError(t, err, backend)
			assert.Equal(t, cfg.Seed, m.Seed())
			assert.Equal(t, 0, m.Stats().Resident)
		}
	})
}

func TestMap_DeterminismAcrossEviction(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	for _, backend := range []string{noise.BackendPerlin, noise.BackendValue} {
		t.Run(backend, func(t *testing.T) {
			cfg := smallConfig()
			cfg.NoiseBackend = backend
			m, err := New(cfg)
			require.NoError(t, err)

			before := make(map[[2]int]float64)
			for x := 0; x < cfg.Width; x += 3 {
				for y := 0; y < cfg.Height; y += 5 {
					before[[2]int{x, y}] = m.Elevation(x, y)
				}
			}

			// Evict everything except the chunk at the origin, then query in
			// reverse order.
			m.UnloadDistantChunks(0, 0, 0)
			require.Equal(t, 1, m.Stats().Resident)

			for x := cfg.Width - 1; x >= 0; x-- {
				for y := cfg.Height - 1; y >= 0; y-- {
					want, ok := before[[2]int{x, y}]
					if !ok {
						continue
					}
					require.Equal(t, want, m.Elevation(x, y), "elevation changed at (%d,%d)", x, y)
				}
			}
		})
	}
}

func TestMap_OutOfBoundsIsObstacle(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	cfg := smallConfig()
	cfg.ObstacleProbability = 0
	m, err := New(cfg)
	require.NoError(t, err)

	tests := []struct {
		name string
		x, y int
	}{
		{name: "negative x", x: -1, y: 5},
		{name: "negative y", x: 5, y: -1},
		{name: "x equals width", x: cfg.Width, y: 0},
		{name: "y equals height", x: 0, y: cfg.Height},
		{name: "far away", x: 1 << 30, y: -(1 << 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, chunk.Obstacle, m.Elevation(tt.x, tt.y))
			assert.True(t, m.IsObstacle(tt.x, tt.y))
			assert.False(t, m.InBounds(tt.x, tt.y))
		})
	}

	assert.Equal(t, 0, m.Stats().Resident, "out-of-bounds queries must not materialize chunks")
	assert.False(t, m.IsObstacle(cfg.Width-1, cfg.Height-1))
}

func TestMap_ElevationRange(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	m, err := New(smallConfig())
	require.NoError(t, err)

	obstacles := 0
	for x := 0; x < m.Width(); x++ {
		for y := 0; y < m.Height(); y++ {
			v := m.Elevation(x, y)
			if v == chunk.Obstacle {
				obstacles++
				continue
			}
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, m.MaxElevation())
		}
	}
	assert.Greater(t, obstacles, 0)
}

func TestMap_ChunkMaterializationCount(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	cfg := smallConfig()
	cfg.Width, cfg.Height, cfg.ChunkSize = 16, 16, 4
	m, err := NewWithField(cfg, noise.NewFlat(cfg.Seed, 5))
	require.NoError(t, err)

	m.Elevation(1, 1) // chunk (0,0)
	m.Elevation(9, 6) // chunk (2,1)
	assert.Equal(t, int64(2), m.Stats().Generated)

	m.Elevation(10, 7) // chunk (2,1) again
	assert.Equal(t, int64(2), m.Stats().Generated)
	assert.Equal(t, 2, m.Stats().Resident)
}

func TestMap_VisibleChunks(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	cfg := smallConfig() // 8 x 6 chunks of 16
	m, err := NewWithField(cfg, noise.NewFlat(1, 5))
	require.NoError(t, err)

	t.Run("interior diamond", func(t *testing.T) {
		coords := m.VisibleChunks(3*16+2, 2*16+9, 1)
		assert.Equal(t, []chunk.Coord{
			{X: 2, Y: 2},
			{X: 3, Y: 1}, {X: 3, Y: 2}, {X: 3, Y: 3},
			{X: 4, Y: 2},
		}, coords)
	})

	t.Run("clipped at origin", func(t *testing.T) {
		coords := m.VisibleChunks(0, 0, 2)
		assert.ElementsMatch(t, []chunk.Coord{
			{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: 2},
			{X: 1, Y: 0}, {X: 1, Y: 1},
			{X: 2, Y: 0},
		}, coords)
	})

	t.Run("radius zero", func(t *testing.T) {
		assert.Equal(t, []chunk.Coord{{X: 7, Y: 5}}, m.VisibleChunks(cfg.Width-1, cfg.Height-1, 0))
	})

	t.Run("negative radius", func(t *testing.T) {
		assert.Empty(t, m.VisibleChunks(10, 10, -1))
	})

	t.Run("center outside the world", func(t *testing.T) {
		assert.Equal(t, []chunk.Coord{{X: 0, Y: 0}}, m.VisibleChunks(-16, 0, 1))
		assert.Empty(t, m.VisibleChunks(cfg.Width+64, 0, 2))
	})

	t.Run("huge radius is clipped to the grid", func(t *testing.T) {
		done := make(chan []chunk.Coord, 1)
		go func() { done <- m.VisibleChunks(0, 0, math.MaxInt) }()

		select {
		case coords := <-done:
			assert.Len(t, coords, 8*6)
			assert.Equal(t, chunk.Coord{X: 0, Y: 0}, coords[0])
			assert.Equal(t, chunk.Coord{X: 7, Y: 5}, coords[len(coords)-1])
		case <-time.After(2 * time.Second):
			t.Fatal("VisibleChunks did not return for radius math.MaxInt")
		}

		assert.Len(t, m.VisibleChunks(math.MinInt/2, math.MaxInt/2, math.MaxInt), 8*6)
		assert.Len(t, m.VisibleChunks(0, 0, 40000), 8*6)
	})

	assert.Equal(t, 0, m.Stats().Resident, "VisibleChunks must not materialize chunks")
}

func TestMap_UnloadDistantChunks(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	cfg := smallConfig()
	m, err := New(cfg)
	require.NoError(t, err)

	for x := 0; x < cfg.Width; x += cfg.ChunkSize {
		for y := 0; y < cfg.Height; y += cfg.ChunkSize {
			m.Elevation(x, y)
		}
	}
	require.Equal(t, 48, m.Stats().Resident)

	centerX, centerY := 70, 40
	center := m.ChunkOf(centerX, centerY)
	removed := m.UnloadDistantChunks(centerX, centerY, 2)
	assert.Greater(t, removed, 0)

	for _, c := range m.Store().Resident() {
		assert.LessOrEqual(t, c.Manhattan(center), 2)
	}
	for _, c := range m.VisibleChunks(centerX, centerY, 2) {
		assert.True(t, m.Store().IsResident(c), "chunk %v inside the radius should stay resident", c)
	}
}

func TestMap_Preload(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	m, err := New(smallConfig())
	require.NoError(t, err)

	require.NoError(t, m.Preload(context.Background(), 40, 40, 1))
	for _, c := range m.VisibleChunks(40, 40, 1) {
		assert.True(t, m.Store().IsResident(c))
	}
	assert.Equal(t, int64(5), m.Stats().Generated)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = m.Preload(ctx, 100, 80, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
