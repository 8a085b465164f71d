package normalize

import "strconv"

func formatCanonical(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
