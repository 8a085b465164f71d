package dataset

import (
	"github.com/couchcryptid/remote-sensing-etl/internal/domain"
	"github.com/couchcryptid/remote-sensing-etl/internal/fields"
	"github.com/couchcryptid/remote-sensing-etl/internal/normalize"
	"github.com/couchcryptid/remote-sensing-etl/internal/source"
)

// Normalizer turns decoded tables into observations.
type Normalizer struct {
	bounds normalize.Bounds
}

// NewNormalizer creates a Normalizer validating coordinates against bounds.
func NewNormalizer(bounds normalize.Bounds) Normalizer {
	return Normalizer{bounds: bounds}
}

// Normalize resolves t's headers once and emits one observation per row with
// valid coordinates, all dated date. It returns the number of dropped rows.
func (n Normalizer) Normalize(t *source.Table, date domain.Date) ([]domain.Observation, int) {
	m := fields.Resolve(t.Header)

	lonCol, hasLon := m.Column(fields.Longitude)
	latCol, hasLat := m.Column(fields.Latitude)
	if !hasLon || !hasLat {
		return nil, len(t.Rows)
	}

	out := make([]domain.Observation, 0, len(t.Rows))
	dropped := 0
	for _, row := range t.Rows {
		lon, lat, ok := n.bounds.Coords(source.Cell(row, lonCol.Index), source.Cell(row, latCol.Index))
		if !ok {
			dropped++
			continue
		}

		out = append(out, domain.Observation{
			RegionCode:   text(row, m, fields.RegionCode),
			RegionName:   text(row, m, fields.RegionName),
			ParentRegion: text(row, m, fields.ParentRegion),
			LandUse:      text(row, m, fields.LandUse),
			Lon:          lon,
			Lat:          lat,
			Date:         date,
			NDVI:         number(row, m, fields.NDVI),
			LST:          number(row, m, fields.LST),
			TVDI:         number(row, m, fields.TVDI),
		})
	}
	return out, dropped
}

func text(row []string, m fields.Mapping, f fields.Field) string {
	col, ok := m.Column(f)
	if !ok {
		return ""
	}
	return normalize.Text(source.Cell(row, col.Index))
}

func number(row []string, m fields.Mapping, f fields.Field) *float64 {
	col, ok := m.Column(f)
	if !ok {
		return nil
	}
	return normalize.FloatPtr(source.Cell(row, col.Index))
}
