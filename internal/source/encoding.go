package source

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrUndecodable is returned when a file is not text under either encoding.
var ErrUndecodable = errors.New("undecodable file")

const encodingUTF8 = "utf-8"

var utf8BOM = []byte("\xef\xbb\xbf")

// secondaryEncodings are the charmap fallbacks selectable by name.
var secondaryEncodings = map[string]*charmap.Charmap{
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"windows-1258": charmap.Windows1258,
	"cp1258":       charmap.Windows1258,
}

// Encoding is a named secondary text encoding.
type Encoding struct {
	Name string
	enc  encoding.Encoding
}

// LookupEncoding resolves a secondary encoding by name, case-insensitively.
func LookupEncoding(name string) (Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	cm, ok := secondaryEncodings[key]
	if !ok {
		return Encoding{}, fmt.Errorf("unsupported encoding %q", name)
	}
	return Encoding{Name: key, enc: cm}, nil
}

// decodeText returns data as UTF-8 text. UTF-8 (BOM stripped) is tried first,
// then the secondary encoding. Binary content fails both.
func decodeText(data []byte, secondary Encoding) (string, string, error) {
	primary := bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(primary) && !looksBinary(primary) {
		return string(primary), encodingUTF8, nil
	}

	if secondary.enc == nil {
		return "", "", fmt.Errorf("%w: not valid %s", ErrUndecodable, encodingUTF8)
	}
	decoded, _, err := transform.Bytes(secondary.enc.NewDecoder(), data)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s: %w", ErrUndecodable, secondary.Name, err)
	}
	if looksBinary(decoded) {
		return "", "", fmt.Errorf("%w: binary content under %s and %s", ErrUndecodable, encodingUTF8, secondary.Name)
	}
	return string(decoded), secondary.Name, nil
}

// looksBinary flags NUL bytes and dense control characters, which no text
// export contains.
func looksBinary(b []byte) bool {
	if bytes.IndexByte(b, 0) >= 0 {
		return true
	}
	control := 0
	for _, c := range b {
		if c < 0x20 && c != '\n' && c != '\r' && c != '\t' {
			control++
		}
	}
	return len(b) > 0 && control*10 > len(b)
}
