package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Box is a longitude/latitude bounding box, inclusive on every edge.
type Box struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// Contains reports whether (lon, lat) lies inside the box.
func (b Box) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

// Covers reports whether o lies entirely inside b.
func (b Box) Covers(o Box) bool {
	return o.MinLon >= b.MinLon && o.MaxLon <= b.MaxLon && o.MinLat >= b.MinLat && o.MaxLat <= b.MaxLat
}

func (b Box) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// ParseBox parses "minLon,minLat,maxLon,maxLat".
func ParseBox(s string) (Box, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Box{}, fmt.Errorf("bounding box %q: want minLon,minLat,maxLon,maxLat", s)
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Box{}, fmt.Errorf("bounding box %q: %w", s, err)
		}
		v[i] = f
	}

	b := Box{MinLon: v[0], MinLat: v[1], MaxLon: v[2], MaxLat: v[3]}
	if b.MinLon >= b.MaxLon || b.MinLat >= b.MaxLat {
		return Box{}, fmt.Errorf("bounding box %q: min must be below max", s)
	}
	return b, nil
}

// Bounds drives coordinate validation. A pair outside Swap is assumed to have
// its columns reversed and is swapped once; the final pair must lie in Accept.
type Bounds struct {
	Swap   Box
	Accept Box
}

// DefaultBounds covers Ho Chi Minh City (accept) inside southern Vietnam (swap).
var DefaultBounds = Bounds{
	Swap:   Box{MinLon: 105, MinLat: 8, MaxLon: 108, MaxLat: 12},
	Accept: Box{MinLon: 106, MinLat: 10, MaxLon: 107.2, MaxLat: 11.1},
}

// Validate checks that the accept box sits inside the swap box.
func (b Bounds) Validate() error {
	if !b.Swap.Covers(b.Accept) {
		return errors.New("accept box must lie inside swap box")
	}
	return nil
}

// Coords parses and validates a raw longitude/latitude pair.
func (b Bounds) Coords(rawLon, rawLat string) (lon, lat float64, ok bool) {
	lon, okLon := ParseNumeric(rawLon)
	lat, okLat := ParseNumeric(rawLat)
	if !okLon || !okLat {
		return 0, 0, false
	}
	return b.Check(lon, lat)
}

// Check swaps lon/lat when they fall outside the swap box, then accepts the
// pair only when it lies in the accept box.
func (b Bounds) Check(lon, lat float64) (float64, float64, bool) {
	if !b.Swap.Contains(lon, lat) {
		lon, lat = lat, lon
	}
	if !b.Accept.Contains(lon, lat) {
		return 0, 0, false
	}
	return lon, lat, true
}
