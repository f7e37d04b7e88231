package export

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// BOM is the UTF-8 byte-order mark every rewritten file starts with.
const BOM = "\xEF\xBB\xBF"

// Header labels of the computed grid columns as they appear in exports.
const (
	LabelGovernorate     = "المحافظة"
	LabelProductsOrdered = "اجمالي المنتجات المطلوبة"
	LabelCustomerNote    = "ملاحظات العميل"
)

// DefaultUnwantedColumns are dropped from every order export.
var DefaultUnwantedColumns = []string{
	"Grand Total (Base)",
	"Grand Total (Purchased)",
	"Total Refunded",
	"Allocated sources",
	"Pickup Location Code",
	"Created by (Login as Customer)",
	"Tracking Information",
	"Lock",
	"Meta Order ID",
}

// DefaultPhoneColumn is the column deduplicated by default.
const DefaultPhoneColumn = "Customer Phone"

var (
	// ErrEmptyFile is returned for content that is empty once the BOM is removed.
	ErrEmptyFile = errors.New("empty file")
	// ErrNoHeader is returned when the first line is blank.
	ErrNoHeader = errors.New("empty csv header")
)

// Policy decides which header columns are removed.
type Policy struct {
	// UnwantedColumns are matched exactly against trimmed header names.
	UnwantedColumns []string
	// PhoneColumn is kept at its first occurrence only.
	PhoneColumn string
}

// DefaultPolicy returns the stock removal policy.
func DefaultPolicy() Policy {
	return Policy{
		UnwantedColumns: slices.Clone(DefaultUnwantedColumns),
		PhoneColumn:     DefaultPhoneColumn,
	}
}

// RemovalIndexes returns the ascending header indexes to drop: every
// unwanted column plus all but the first phone column.
func (p Policy) RemovalIndexes(header []string) []int {
	var indexes []int
	seenPhone := false

	for i, name := range header {
		trimmed := strings.TrimSpace(name)
		remove := slices.Contains(p.UnwantedColumns, trimmed)

		if p.PhoneColumn != "" && trimmed == p.PhoneColumn {
			if seenPhone {
				remove = true
			}
			seenPhone = true
		}

		if remove {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

// Outcome describes one rewrite.
type Outcome struct {
	OriginalHeader     []string
	Header             []string
	Removed            []string
	RemovedIndexes     []int
	DuplicatePhones    int
	Rows               int
	HasGovernorate     bool
	HasProductsOrdered bool
}

// Changed reports whether any column was removed.
func (o Outcome) Changed() bool { return len(o.RemovedIndexes) > 0 }

// Rewrite parses content, drops the policy's columns from the header and
// every data row, and re-serializes it with every field quoted and a
// leading BOM. Blank lines are dropped. Content without removable columns
// is still re-serialized.
func (p Policy) Rewrite(content []byte, codec *Codec) ([]byte, Outcome, error) {
	var out Outcome

	content = bytes.TrimPrefix(content, []byte(BOM))
	if len(content) == 0 {
		return nil, out, ErrEmptyFile
	}

	lines := strings.Split(string(content), "\n")
	if strings.TrimSpace(lines[0]) == "" {
		return nil, out, ErrNoHeader
	}

	header, err := ParseLine(strings.TrimRight(lines[0], "\r"))
	if err != nil {
		return nil, out, fmt.Errorf("parse header: %w", err)
	}
	out.OriginalHeader = header
	out.HasGovernorate = slices.Contains(header, LabelGovernorate)
	out.HasProductsOrdered = slices.Contains(header, LabelProductsOrdered)

	remove := p.RemovalIndexes(header)
	out.RemovedIndexes = remove
	for _, i := range remove {
		if strings.TrimSpace(header[i]) == p.PhoneColumn {
			out.DuplicatePhones++
		}
		out.Removed = append(out.Removed, header[i])
	}

	out.Header = dropIndexes(header, remove)

	csvLines := make([]string, 0, len(lines))
	csvLines = append(csvLines, codec.FormatLine(out.Header))

	for n, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		row, err := ParseLine(line)
		if err != nil {
			return nil, out, fmt.Errorf("parse line %d: %w", n+2, err)
		}
		csvLines = append(csvLines, codec.FormatLine(dropIndexes(row, remove)))
		out.Rows++
	}

	var b bytes.Buffer
	b.Grow(len(content) + len(BOM) + out.Rows*4)
	b.WriteString(BOM)
	b.WriteString(strings.Join(csvLines, "\n"))

	return b.Bytes(), out, nil
}

// dropIndexes returns fields without the positions in sorted indexes.
// Positions past the end of fields are ignored.
func dropIndexes(fields []string, indexes []int) []string {
	if len(indexes) == 0 {
		return fields
	}
	kept := make([]string, 0, len(fields))
	for i, f := range fields {
		if _, found := slices.BinarySearch(indexes, i); !found {
			kept = append(kept, f)
		}
	}
	return kept
}
