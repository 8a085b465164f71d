// Package fields resolves loosely named CSV headers to the semantic fields of
// an observation.
package fields

// Field is a semantic column of a source file.
type Field string

const (
	RegionCode   Field = "region_code"
	RegionName   Field = "region_name"
	Longitude    Field = "longitude"
	Latitude     Field = "latitude"
	NDVI         Field = "ndvi"
	LST          Field = "lst"
	TVDI         Field = "tvdi"
	ParentRegion Field = "parent_region"
	LandUse      Field = "land_use"
)

// Alias is one acceptable raw header for a field. ExactOnly aliases take no
// part in the substring fallback; single letters like "x" would otherwise
// match almost any header.
type Alias struct {
	Name      string
	ExactOnly bool
}

// Entry lists a field's aliases in priority order.
type Entry struct {
	Field   Field
	Aliases []Alias
}

func aliases(names ...string) []Alias {
	out := make([]Alias, len(names))
	for i, n := range names {
		out[i] = Alias{Name: n}
	}
	return out
}

// Catalog is the static alias table. Alias lists must stay disjoint between
// fields; nothing at runtime stops two fields claiming the same header.
var Catalog = []Entry{
	{Field: RegionCode, Aliases: aliases("ma_xa", "MaPhuong", "ma_phuong", "region_code")},
	{Field: RegionName, Aliases: aliases("ten_xa", "TenPhuong", "ten_phuong", "region_name")},
	{Field: Longitude, Aliases: append(aliases("toa_do_x", "lon", "longitude", "lng"), Alias{Name: "x", ExactOnly: true})},
	{Field: Latitude, Aliases: append(aliases("toa_do_y", "lat", "latitude"), Alias{Name: "y", ExactOnly: true})},
	{Field: NDVI, Aliases: aliases("NDVI")},
	{Field: LST, Aliases: aliases("LST")},
	{Field: TVDI, Aliases: aliases("TVDI")},
	{Field: ParentRegion, Aliases: aliases("ma_tinh", "ten_tinh", "Quan", "district")},
	{Field: LandUse, Aliases: aliases("loai", "landuse", "land_use")},
}
