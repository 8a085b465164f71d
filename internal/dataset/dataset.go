package dataset

import (
	"cmp"
	"slices"

	"github.com/couchcryptid/remote-sensing-etl/internal/domain"
	"github.com/couchcryptid/remote-sensing-etl/internal/normalize"
)

// Dataset is the merged long-format corpus sorted by (RegionName, Date), with
// region-less rows last. It is immutable once built: accessors return fresh
// slices and copies of the index values.
type Dataset struct {
	observations []domain.Observation
}

// DateValue is one region on one date projected for map views: identity
// columns, the requested index as Value, and all three indices.
type DateValue struct {
	RegionCode   string       `json:"region_code,omitempty"`
	RegionName   string       `json:"region_name"`
	ParentRegion string       `json:"parent_region,omitempty"`
	LandUse      string       `json:"land_use,omitempty"`
	Lon          float64      `json:"lon"`
	Lat          float64      `json:"lat"`
	Index        domain.Index `json:"index"`
	Value        *float64     `json:"value"`
	NDVI         *float64     `json:"ndvi"`
	LST          *float64     `json:"lst"`
	TVDI         *float64     `json:"tvdi"`
}

// New builds a Dataset from observations in any order. Ties keep input order.
func New(obs []domain.Observation) *Dataset {
	sorted := cloneAll(obs)
	slices.SortStableFunc(sorted, compareObservations)
	return &Dataset{observations: sorted}
}

func compareObservations(a, b domain.Observation) int {
	if (a.RegionName == "") != (b.RegionName == "") {
		if a.RegionName == "" {
			return 1
		}
		return -1
	}
	if c := cmp.Compare(a.RegionName, b.RegionName); c != 0 {
		return c
	}
	return a.Date.Compare(b.Date)
}

// Len returns the number of observations.
func (d *Dataset) Len() int {
	return len(d.observations)
}

// Observations returns a copy of the full corpus in sort order.
func (d *Dataset) Observations() []domain.Observation {
	return cloneAll(d.observations)
}

func cloneAll(obs []domain.Observation) []domain.Observation {
	out := make([]domain.Observation, len(obs))
	for i, o := range obs {
		out[i] = o.Clone()
	}
	return out
}

// Timepoints returns the distinct observation dates, ascending.
func (d *Dataset) Timepoints() []domain.Date {
	seen := make(map[domain.Date]bool)
	var dates []domain.Date
	for _, o := range d.observations {
		if !seen[o.Date] {
			seen[o.Date] = true
			dates = append(dates, o.Date)
		}
	}
	slices.SortFunc(dates, domain.Date.Compare)
	return dates
}

// Regions returns the distinct region names in sort order.
func (d *Dataset) Regions() []string {
	var names []string
	for _, o := range d.observations {
		if len(names) == 0 || names[len(names)-1] != o.RegionName {
			names = append(names, o.RegionName)
		}
	}
	return names
}

// ValuesForDate returns every observation on date projected onto idx.
func (d *Dataset) ValuesForDate(date domain.Date, idx domain.Index) ([]DateValue, error) {
	idx, err := domain.ParseIndex(string(idx))
	if err != nil {
		return nil, err
	}

	var out []DateValue
	for _, o := range d.observations {
		if o.Date != date {
			continue
		}
		o = o.Clone()
		out = append(out, DateValue{
			RegionCode:   o.RegionCode,
			RegionName:   o.RegionName,
			ParentRegion: o.ParentRegion,
			LandUse:      o.LandUse,
			Lon:          o.Lon,
			Lat:          o.Lat,
			Index:        idx,
			Value:        o.Value(idx),
			NDVI:         o.NDVI,
			LST:          o.LST,
			TVDI:         o.TVDI,
		})
	}
	return out, nil
}

// SeriesForRegion returns one region's observations ordered by date. The name
// is matched after the same trimming and NFC folding applied on load.
func (d *Dataset) SeriesForRegion(name string) []domain.Observation {
	name = normalize.Text(name)
	var out []domain.Observation
	for _, o := range d.observations {
		if o.RegionName == name {
			out = append(out, o.Clone())
		}
	}
	return out
}
