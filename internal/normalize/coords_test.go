package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundsCheck(t *testing.T) {
	tests := []struct {
		name        string
		lon, lat    float64
		expectedLon float64
		expectedLat float64
		ok          bool
	}{
		{"in region", 106.7, 10.7, 106.7, 10.7, true},
		{"reversed columns", 10.7, 106.7, 106.7, 10.7, true},
		{"far away", 50, 50, 0, 0, false},
		{"inside swap box but outside target", 105.5, 9.0, 0, 0, false},
		{"accept edge inclusive", 107.2, 11.1, 107.2, 11.1, true},
		{"zero pair", 0, 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lon, lat, ok := DefaultBounds.Check(tt.lon, tt.lat)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expectedLon, lon)
			assert.Equal(t, tt.expectedLat, lat)
		})
	}
}

func TestBoundsCheck_SwapIsSymmetric(t *testing.T) {
	lon1, lat1, ok1 := DefaultBounds.Check(10.7, 106.7)
	lon2, lat2, ok2 := DefaultBounds.Check(106.7, 10.7)

	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, lon1, lon2)
	assert.Equal(t, lat1, lat2)
}

func TestBoundsCoords(t *testing.T) {
	lon, lat, ok := DefaultBounds.Coords("106,65", "10,78")
	require.True(t, ok)
	assert.InDelta(t, 106.65, lon, 1e-9)
	assert.InDelta(t, 10.78, lat, 1e-9)

	_, _, ok = DefaultBounds.Coords("", "10.7")
	assert.False(t, ok, "missing longitude rejects the row")

	_, _, ok = DefaultBounds.Coords("abc", "def")
	assert.False(t, ok)
}

func TestParseBox(t *testing.T) {
	b, err := ParseBox("106, 10, 107.2, 11.1")
	require.NoError(t, err)
	assert.Equal(t, DefaultBounds.Accept, b)
	assert.Equal(t, "106,10,107.2,11.1", b.String())

	_, err = ParseBox("106,10,107.2")
	assert.Error(t, err)

	_, err = ParseBox("106,10,x,11")
	assert.Error(t, err)

	_, err = ParseBox("107,10,106,11")
	assert.Error(t, err)
}

func TestBoundsValidate(t *testing.T) {
	require.NoError(t, DefaultBounds.Validate())

	bad := Bounds{Swap: Box{106, 10, 107, 11}, Accept: Box{105, 9, 108, 12}}
	assert.Error(t, bad.Validate())
}
