package maplib

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// TerrainType defines the terrain of a tile
type TerrainType string

const (
	TerrainGrass    TerrainType = "GRASS"
	TerrainWater    TerrainType = "WATER"
	TerrainMountain TerrainType = "MOUNTAIN"
	TerrainBase     TerrainType = "BASE"
)

// Walkable reports whether ground units may be placed on the terrain
func (t TerrainType) Walkable() bool {
	return t == TerrainGrass || t == TerrainBase
}

// Elevation is the rendered height of the terrain surface
func (t TerrainType) Elevation() float64 {
	switch t {
	case TerrainWater:
		return -0.2
	case TerrainMountain:
		return 1.5
	case TerrainBase:
		return 0.1
	}
	return 0
}

// TileSize is the world-space edge length of one tile
const TileSize = 2.0

// ErrBadMap is returned for a map whose tile count does not match its size
// or which names an unknown terrain.
var ErrBadMap = errors.New("malformed map")

// Tile is one grid cell
type Tile struct {
	X       int         `json:"x"`
	Z       int         `json:"z"`
	Terrain TerrainType `json:"type"`
}

// TileMap is the square-grid board. Tiles are stored column-major: all z for
// x = 0 first.
type TileMap struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Tiles  []Tile `json:"tiles"`
}

// NewTileMap creates an all-grass map
func NewTileMap(name string, width, height int) *TileMap {
	tm := &TileMap{
		Name:   name,
		Width:  width,
		Height: height,
		Tiles:  make([]Tile, width*height),
	}
	for x := range width {
		for z := range height {
			tm.Tiles[x*height+z] = Tile{X: x, Z: z, Terrain: TerrainGrass}
		}
	}
	return tm
}

// At returns a pointer to the tile at (x, z), or nil off the board
func (tm *TileMap) At(x, z int) *Tile {
	if !tm.InBounds(x, z) {
		return nil
	}
	return &tm.Tiles[x*tm.Height+z]
}

// InBounds checks if coordinates are within map bounds
func (tm *TileMap) InBounds(x, z int) bool {
	return x >= 0 && z >= 0 && x < tm.Width && z < tm.Height
}

// Walkable is false off the board
func (tm *TileMap) Walkable(x, z int) bool {
	t := tm.At(x, z)
	return t != nil && t.Terrain.Walkable()
}

// TileToWorld returns the world ground position of a tile's centre. The
// board spans [-W*TileSize/2, W*TileSize/2) around the origin, so tile 0 is
// centred on the low edge.
func (tm *TileMap) TileToWorld(x, z int) (wx, wz float64) {
	wx = float64(x)*TileSize - float64(tm.Width)*TileSize/2
	wz = float64(z)*TileSize - float64(tm.Height)*TileSize/2
	return
}

// WorldToTile returns the tile whose centre is nearest the point
func (tm *TileMap) WorldToTile(wx, wz float64) (x, z int) {
	x = int(math.Floor((wx+float64(tm.Width)*TileSize/2)/TileSize + 0.5))
	z = int(math.Floor((wz+float64(tm.Height)*TileSize/2)/TileSize + 0.5))
	return
}

// Fill sets terrain for a rectangular region, clipped to the board
func (tm *TileMap) Fill(x1, z1, x2, z2 int, terrain TerrainType) {
	for x := x1; x <= x2; x++ {
		for z := z1; z <= z2; z++ {
			if t := tm.At(x, z); t != nil {
				t.Terrain = terrain
			}
		}
	}
}

// Counts returns how many tiles carry each terrain
func (tm *TileMap) Counts() map[TerrainType]int {
	out := make(map[TerrainType]int)
	for _, t := range tm.Tiles {
		out[t.Terrain]++
	}
	return out
}

func (tm *TileMap) validate() error {
	if tm.Width <= 0 || tm.Height <= 0 || len(tm.Tiles) != tm.Width*tm.Height {
		return fmt.Errorf("%w: %dx%d with %d tiles", ErrBadMap, tm.Width, tm.Height, len(tm.Tiles))
	}
	for i, t := range tm.Tiles {
		switch t.Terrain {
		case TerrainGrass, TerrainWater, TerrainMountain, TerrainBase:
		default:
			return fmt.Errorf("%w: tile %d terrain %q", ErrBadMap, i, t.Terrain)
		}
		if t.X*tm.Height+t.Z != i {
			return fmt.Errorf("%w: tile %d at (%d,%d) out of order", ErrBadMap, i, t.X, t.Z)
		}
	}
	return nil
}

// SaveJSON saves the map to a JSON file
func (tm *TileMap) SaveJSON(path string) error {
	data, err := json.MarshalIndent(tm, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadJSON loads and validates a map from a JSON file
func LoadJSON(path string) (*TileMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tm TileMap
	if err := json.Unmarshal(data, &tm); err != nil {
		return nil, err
	}
	if err := tm.validate(); err != nil {
		return nil, err
	}
	return &tm, nil
}
