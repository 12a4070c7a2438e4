// Package csvline tokenizes and serializes product CSV files one line at a time.
//
// The dialect is deliberately small: fields are separated by commas, a field
// may be wrapped in double quotes, and a doubled quote inside a quoted field is
// a literal quote. Every field is trimmed. Quoted fields cannot span lines and
// an unbalanced quote never fails; the rest of the line simply stays quoted.
package csvline

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// Split tokenizes a single CSV line into trimmed fields.
//
// The result always has one more field than the number of commas outside
// quotes, so a line ending in a comma yields a trailing empty field.
func Split(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"' && inQuotes && i+1 < len(line) && line[i+1] == '"':
			current.WriteByte('"')
			i++
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}

	return append(fields, strings.TrimSpace(current.String()))
}

// Lines splits file text on newlines. Carriage returns are left in place and
// disappear when Split trims the last field.
func Lines(text string) []string {
	return strings.Split(text, "\n")
}

// IsBlank reports whether a line holds only whitespace.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// Quote wraps s in double quotes, doubling any quotes it contains.
func Quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Join joins already-serialized fields into one line.
func Join(fields []string) string {
	return strings.Join(fields, ",")
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normalize turns uploaded bytes into text ready for Lines: a leading UTF-8
// byte order mark is dropped and invalid UTF-8 sequences become U+FFFD.
func Normalize(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}

	var b strings.Builder
	b.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
		} else {
			b.WriteRune(r)
		}
		data = data[size:]
	}
	return b.String()
}
