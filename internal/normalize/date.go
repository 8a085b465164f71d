package normalize

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/remote-sensing-etl/internal/domain"
)

// DateSource records where an observation date came from.
type DateSource string

const (
	DateFromFilename DateSource = "filename"
	DateFromModTime  DateSource = "mtime"
)

// filenameDateRe matches day, month, 4-digit year separated by any single
// non-digit, e.g. "15-03-2023", "1_4_2024", "15.03.2023".
var filenameDateRe = regexp.MustCompile(`(\d{1,2})\D(\d{1,2})\D(\d{4})`)

// ResolveDate extracts the observation date from a filename, falling back to
// the file's modification time (truncated to a UTC calendar date) when the
// name carries no valid date. It always yields a date.
func ResolveDate(filename string, modTime time.Time) (domain.Date, DateSource) {
	if d, ok := DateFromName(filename); ok {
		return d, DateFromFilename
	}
	return domain.DateOf(modTime.UTC()), DateFromModTime
}

// DateFromName parses the first day-month-year pattern in the base name of
// filename, without its extension.
func DateFromName(filename string) (domain.Date, bool) {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	m := filenameDateRe.FindStringSubmatch(base)
	if len(m) != 4 {
		return domain.Date{}, false
	}

	day, errD := strconv.Atoi(m[1])
	month, errM := strconv.Atoi(m[2])
	year, errY := strconv.Atoi(m[3])
	if errD != nil || errM != nil || errY != nil {
		return domain.Date{}, false
	}
	return domain.NewDate(year, time.Month(month), day)
}
