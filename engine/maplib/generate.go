package maplib

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig controls map generation. The zero value plus a Size gives the
// classic board.
type GenConfig struct {
	Name      string
	Size      int     // tiles per side
	Seed      int64   // only used when Roughness > 0
	Roughness float64 // amplitude of the simplex layer added to the base pattern
	BaseSize  int     // corner base edge length
}

// DefaultGenConfig is the 20x20 board with 4x4 corner bases
func DefaultGenConfig() GenConfig {
	return GenConfig{Name: "classic", Size: 20, BaseSize: 4}
}

// Generate builds a map. Without roughness the layout is fixed: a mountain
// rim outside 0.6 of the size from the centre, a sin*cos field of mountains
// and lakes, and bases in the low and high corners. Same config, same map.
func Generate(cfg GenConfig) *TileMap {
	if cfg.Size <= 0 {
		cfg.Size = DefaultGenConfig().Size
	}
	if cfg.BaseSize <= 0 {
		cfg.BaseSize = DefaultGenConfig().BaseSize
	}
	n := cfg.Size
	tm := NewTileMap(cfg.Name, n, n)

	var noise opensimplex.Noise
	if cfg.Roughness > 0 {
		noise = opensimplex.NewNormalized(cfg.Seed)
	}

	half := float64(n) / 2
	for x := range n {
		for z := range n {
			t := tm.At(x, z)
			field := math.Sin(float64(x)*0.5) * math.Cos(float64(z)*0.5)
			if noise != nil {
				// NewNormalized is in [0,1); centre it
				field += cfg.Roughness * (2*octaveNoise(noise, float64(x), float64(z), 3, 0.15, 0.5) - 1)
			}
			rim := math.Hypot(float64(x)-half, float64(z)-half)

			switch {
			case rim > float64(n)*0.6:
				t.Terrain = TerrainMountain
			case field > 0.5:
				t.Terrain = TerrainMountain
			case field < -0.5:
				t.Terrain = TerrainWater
			}
			b := cfg.BaseSize
			if (x < b && z < b) || (x > n-b-1 && z > n-b-1) {
				t.Terrain = TerrainBase
			}
		}
	}
	return tm
}

// octaveNoise layers several frequencies, normalized to the range of noise
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	for range octaves {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}
