package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownIndex is returned when an index name is not NDVI, LST or TVDI.
var ErrUnknownIndex = errors.New("unknown index")

// Index names one of the remote-sensing metrics carried by an observation.
type Index string

const (
	NDVI Index = "NDVI"
	LST  Index = "LST"
	TVDI Index = "TVDI"
)

// Indices lists every index in canonical order.
var Indices = []Index{NDVI, LST, TVDI}

// ParseIndex matches an index name case-insensitively.
func ParseIndex(s string) (Index, error) {
	s = strings.TrimSpace(s)
	for _, idx := range Indices {
		if strings.EqualFold(s, string(idx)) {
			return idx, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownIndex, s)
}

// Date is a calendar date without time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// NewDate returns the date and true only when y-m-d is a real calendar day.
func NewDate(y int, m time.Month, d int) (Date, bool) {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || t.Month() != m || t.Day() != d {
		return Date{}, false
	}
	return Date{Year: y, Month: m, Day: d}, true
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date: %w", err)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Compare returns -1, 0 or +1 ordering d against o chronologically.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(dateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Observation is one region on one date after normalization. Coordinates are
// always inside the configured target bounds; index values are nil when absent.
type Observation struct {
	RegionCode   string   `json:"region_code,omitempty"`
	RegionName   string   `json:"region_name"`
	ParentRegion string   `json:"parent_region,omitempty"`
	LandUse      string   `json:"land_use,omitempty"`
	Lon          float64  `json:"lon"`
	Lat          float64  `json:"lat"`
	Date         Date     `json:"date"`
	NDVI         *float64 `json:"ndvi"`
	LST          *float64 `json:"lst"`
	TVDI         *float64 `json:"tvdi"`
}

// Value returns the observation's value for idx, or nil when absent or unknown.
func (o Observation) Value(idx Index) *float64 {
	switch idx {
	case NDVI:
		return o.NDVI
	case LST:
		return o.LST
	case TVDI:
		return o.TVDI
	default:
		return nil
	}
}

// Clone returns a copy of o that shares no index values with it.
func (o Observation) Clone() Observation {
	o.NDVI = clonePtr(o.NDVI)
	o.LST = clonePtr(o.LST)
	o.TVDI = clonePtr(o.TVDI)
	return o
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Key identifies the observation by region and date, e.g. "26734|Phường 1|2023-03-15".
func (o Observation) Key() string {
	return o.RegionCode + "|" + o.RegionName + "|" + o.Date.String()
}
