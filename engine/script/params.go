package script

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedParam is returned when a block parameter cannot be parsed.
var ErrMalformedParam = errors.New("malformed parameter")

// DefaultWait is used when a WAIT block has an empty duration.
const DefaultWait = time.Second

// Point is a position on the ground plane (world X and Z).
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Z float64 `json:"z" yaml:"z"`
}

// Dist returns the planar distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Z-p.Z)
}

// ParseTarget parses "x,y" into a ground point.
func ParseTarget(s string) (Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("target %q: %w", s, ErrMalformedParam)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return Point{}, fmt.Errorf("target %q: %w", s, ErrMalformedParam)
	}
	z, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || math.IsNaN(z) || math.IsInf(z, 0) {
		return Point{}, fmt.Errorf("target %q: %w", s, ErrMalformedParam)
	}
	return Point{X: x, Z: z}, nil
}

// ParseDuration parses a WAIT duration in seconds. An empty string means
// DefaultWait; negative values are malformed.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultWait, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || secs < 0 || math.IsNaN(secs) || secs > math.MaxInt64/float64(time.Second) {
		return 0, fmt.Errorf("duration %q: %w", s, ErrMalformedParam)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// ParseTimes parses a REPEAT count. Counts below one are valid and mean
// zero iterations.
func ParseTimes(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("times %q: %w", s, ErrMalformedParam)
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}

// FormatTarget renders p the way the editor writes targets.
func FormatTarget(p Point) string {
	return strconv.FormatFloat(p.X, 'f', -1, 64) + "," + strconv.FormatFloat(p.Z, 'f', -1, 64)
}
