// Package codec encodes and decodes fixed-column-width text records,
// the wire shape shared by CNAB 240/400 segments and boleto strings.
package codec

import (
	"fmt"
	"strings"

	"github.com/obrafin/recon-go/internal/domain"
)

// Align selects how a value sits inside its field.
type Align int

const (
	// Left-aligned text field, padded (usually with spaces) on the right.
	// Overlong values truncate, reported through the warn hook.
	Left Align = iota
	// Right-aligned numeric field, padded (usually with zeros) on the
	// left. Overlong values are a hard ErrFormat: numeric data is never
	// silently truncated.
	Right
)

// FieldSpec describes one fixed-width field.
type FieldSpec struct {
	Name  string
	Width int
	Align Align
	Pad   byte
}

// RecordSpec is an ordered sequence of fields forming one record line.
type RecordSpec struct {
	Name   string
	Fields []FieldSpec
}

// TotalWidth is the exact line length the spec encodes to.
func (s RecordSpec) TotalWidth() int {
	w := 0
	for _, f := range s.Fields {
		w += f.Width
	}
	return w
}

// WarnFunc receives non-fatal encode notices (text truncation).
type WarnFunc func(field, message string)

// Encode renders values into one fixed-width line. Missing values encode
// as an empty (fully padded) field. A right-aligned value longer than its
// field width fails with ErrFormat.
func Encode(spec RecordSpec, values map[string]string, warn WarnFunc) (string, error) {
	var sb strings.Builder
	sb.Grow(spec.TotalWidth())

	for _, f := range spec.Fields {
		v := values[f.Name]
		if len(v) > f.Width {
			if f.Align == Right {
				return "", &domain.ErrFormat{
					Field:   f.Name,
					Message: fmt.Sprintf("value %q exceeds width %d", v, f.Width),
				}
			}
			if warn != nil {
				warn(f.Name, fmt.Sprintf("text value truncated from %d to %d characters", len(v), f.Width))
			}
			v = v[:f.Width]
		}
		pad := strings.Repeat(string(f.Pad), f.Width-len(v))
		if f.Align == Right {
			sb.WriteString(pad)
			sb.WriteString(v)
		} else {
			sb.WriteString(v)
			sb.WriteString(pad)
		}
	}
	return sb.String(), nil
}

// Decode splits one fixed-width line back into per-field values, with
// padding stripped according to each field's alignment. The line must be
// exactly the spec's total width.
func Decode(spec RecordSpec, line string) (map[string]string, error) {
	if len(line) != spec.TotalWidth() {
		return nil, &domain.ErrFormat{
			Field:   spec.Name,
			Message: fmt.Sprintf("line is %d characters, expected %d", len(line), spec.TotalWidth()),
		}
	}

	values := make(map[string]string, len(spec.Fields))
	pos := 0
	for _, f := range spec.Fields {
		raw := line[pos : pos+f.Width]
		pos += f.Width

		if f.Align == Right {
			values[f.Name] = strings.TrimLeft(raw, string(f.Pad))
		} else {
			values[f.Name] = strings.TrimRight(raw, string(f.Pad))
		}
	}
	return values, nil
}
