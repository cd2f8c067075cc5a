package config

import (
	"fmt"
	"sort"

	"github.com/VoidMesh/pathfinder/internal/terrain"
)

// presets adjust the terrain section only. Fields left zero keep their
// current value.
var presets = map[string]terrain.Config{
	// Small world for quick iteration and tests.
	"test": {
		Width:               2048,
		Height:              2048,
		MaxElevation:        250,
		ChunkSize:           128,
		Scale:               0.01,
		Octaves:             4,
		ObstacleProbability: 0.05,
	},
	// Full-size world tuned for throughput: bigger chunks, fewer octaves.
	"performance": {
		Width:               15000,
		Height:              15000,
		MaxElevation:        250,
		ChunkSize:           512,
		Scale:               0.01,
		Octaves:             3,
		ObstacleProbability: 0.03,
	},
	// Full-size world with more detail and taller relief.
	"beautiful": {
		Width:               15000,
		Height:              15000,
		MaxElevation:        400,
		ChunkSize:           256,
		Scale:               0.005,
		Octaves:             8,
		ObstacleProbability: 0.05,
	},
}

// Presets lists the available preset names.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset overlays the named preset onto cfg.
func ApplyPreset(cfg *terrain.Config, name string) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("%w: %q (available: %v)", ErrUnknownPreset, name, Presets())
	}

	if p.Width > 0 {
		cfg.Width = p.Width
	}
	if p.Height > 0 {
		cfg.Height = p.Height
	}
	if p.MaxElevation > 0 {
		cfg.MaxElevation = p.MaxElevation
	}
	if p.ChunkSize > 0 {
		cfg.ChunkSize = p.ChunkSize
	}
	if p.Scale > 0 {
		cfg.Scale = p.Scale
	}
	if p.Octaves > 0 {
		cfg.Octaves = p.Octaves
	}
	if p.ObstacleProbability > 0 {
		cfg.ObstacleProbability = p.ObstacleProbability
	}
	return nil
}
