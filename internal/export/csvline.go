package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// ParseLine splits one CSV line into fields: comma separated, double-quote
// delimited, embedded quotes doubled. Stray quotes inside unquoted fields
// are kept as data. An empty line yields no fields.
func ParseLine(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	fields, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv line: %w", err)
	}
	return fields, nil
}

// Codec serializes rows. Every field is quoted; fields that are not valid
// UTF-8 are first decoded from the legacy charset.
type Codec struct {
	legacy encoding.Encoding
}

// NewCodec returns a Codec repairing fields with charset, which is any
// WHATWG encoding label ("windows-1256", "iso-8859-1", ...). An empty
// charset disables repair; invalid bytes are then replaced with U+FFFD.
func NewCodec(charset string) (*Codec, error) {
	if strings.TrimSpace(charset) == "" {
		return &Codec{}, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", charset, err)
	}
	return &Codec{legacy: enc}, nil
}

// FormatLine quotes each field, doubles embedded quotes and joins with commas.
func (c *Codec) FormatLine(fields []string) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(c.toUTF8(f), `"`, `""`))
		b.WriteByte('"')
	}
	return b.String()
}

// toUTF8 returns s unchanged when it is valid UTF-8.
func (c *Codec) toUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	if c != nil && c.legacy != nil {
		if decoded, err := c.legacy.NewDecoder().String(s); err == nil && utf8.ValidString(decoded) {
			return decoded
		}
	}
	return strings.ToValidUTF8(s, "�")
}

// FormatLine formats with a Codec that does no charset repair.
func FormatLine(fields []string) string {
	return (*Codec)(nil).FormatLine(fields)
}
