// Package csvexport writes the long-format dataset as canonical CSV: one row
// per observation, dot decimals, ISO dates, empty cells for absent values.
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/remote-sensing-etl/internal/dataset"
	"github.com/couchcryptid/remote-sensing-etl/internal/domain"
	"github.com/jszwec/csvutil"
)

// Record is one exported row. Field order is the column order.
type Record struct {
	RegionCode   string      `csv:"region_code"`
	RegionName   string      `csv:"region_name"`
	ParentRegion string      `csv:"parent_region"`
	LandUse      string      `csv:"land_use"`
	Lon          Decimal     `csv:"lon"`
	Lat          Decimal     `csv:"lat"`
	Date         domain.Date `csv:"date"`
	NDVI         *Decimal    `csv:"ndvi"`
	LST          *Decimal    `csv:"lst"`
	TVDI         *Decimal    `csv:"tvdi"`
}

// Decimal is a float encoded in shortest plain notation, never exponent form.
type Decimal float64

func (d Decimal) MarshalText() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(d), 'f', -1, 64), nil
}

func (d *Decimal) UnmarshalText(b []byte) error {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*d = Decimal(f)
	return nil
}

// NewRecord projects an observation onto the export columns.
func NewRecord(o domain.Observation) Record {
	return Record{
		RegionCode:   o.RegionCode,
		RegionName:   o.RegionName,
		ParentRegion: o.ParentRegion,
		LandUse:      o.LandUse,
		Lon:          Decimal(o.Lon),
		Lat:          Decimal(o.Lat),
		Date:         o.Date,
		NDVI:         decimalPtr(o.NDVI),
		LST:          decimalPtr(o.LST),
		TVDI:         decimalPtr(o.TVDI),
	}
}

// Write encodes ds to w with a header row, even when ds is empty.
func Write(w io.Writer, ds *dataset.Dataset) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if err := enc.EncodeHeader(Record{}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	for _, o := range ds.Observations() {
		if err := enc.Encode(NewRecord(o)); err != nil {
			return fmt.Errorf("encode %s: %w", o.Key(), err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func decimalPtr(v *float64) *Decimal {
	if v == nil {
		return nil
	}
	d := Decimal(*v)
	return &d
}
