package fields

import "strings"

// Column is a resolved header: its trimmed name and position in the row.
type Column struct {
	Name  string
	Index int
}

// Mapping holds at most one column per field. Fields missing from the map are
// absent for the whole file.
type Mapping map[Field]Column

// Column returns the column resolved for f.
func (m Mapping) Column(f Field) (Column, bool) {
	c, ok := m[f]
	return c, ok
}

// Has reports whether f resolved to a header.
func (m Mapping) Has(f Field) bool {
	_, ok := m[f]
	return ok
}

// Resolve maps headers against the default Catalog.
func Resolve(headers []string) Mapping {
	return ResolveWith(Catalog, headers)
}

// ResolveWith maps headers against catalog. For each field, an exact
// case-insensitive match on any alias (tried in alias order) wins; otherwise
// the first alias that is a substring of some header wins. Within one alias the
// leftmost matching header is chosen.
func ResolveWith(catalog []Entry, headers []string) Mapping {
	cleaned := make([]string, len(headers))
	for i, h := range headers {
		cleaned[i] = cleanHeader(h)
	}

	m := make(Mapping, len(catalog))
	for _, entry := range catalog {
		if col, ok := resolveField(entry.Aliases, cleaned); ok {
			m[entry.Field] = col
		}
	}
	return m
}

func resolveField(aliases []Alias, headers []string) (Column, bool) {
	for _, a := range aliases {
		for i, h := range headers {
			if strings.EqualFold(h, a.Name) {
				return Column{Name: h, Index: i}, true
			}
		}
	}

	for _, a := range aliases {
		if a.ExactOnly {
			continue
		}
		needle := strings.ToLower(a.Name)
		for i, h := range headers {
			if strings.Contains(strings.ToLower(h), needle) {
				return Column{Name: h, Index: i}, true
			}
		}
	}
	return Column{}, false
}

func cleanHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}
