// Package csv provides tokenizing and header helpers for the delimited
// regulatory dataset exports consumed by the import pipeline.
//
// The exports are "CSV-like" rather than CSV: fields may be wrapped in
// double quotes and contain the delimiter while quoted, but files also
// show up with unbalanced quotes, bare quotes mid-field, and Excel
// artifacts in headers. encoding/csv rejects several of those shapes, so
// tokenizing is done with a small quote-aware scanner that always returns
// whatever it parsed.
package csv

import "strings"

// Delimiter separates fields in dataset export lines.
const Delimiter = ','

// Quote wraps fields that may contain the delimiter.
const Quote = '"'

// Tokenize splits one line of delimiter-separated text into its field
// values. Fields wrapped in quotes may contain the delimiter; the quote
// characters themselves are stripped from the output.
//
// A line with an unterminated quote yields the rest of the line as part
// of the open field. Tokenize never fails and never drops input; callers
// are responsible for rejecting rows with too few fields.
func Tokenize(line string) []string {
	fields := make([]string, 0, 16)
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == Quote:
			inQuotes = !inQuotes
		case r == Delimiter && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, current.String())

	return fields
}

// CleanHeader normalizes a header cell for lookup: strips a UTF-8 BOM,
// Excel formula wrapping (`="..."`), surrounding whitespace and quotes,
// and lower-cases the result.
func CleanHeader(s string) string {
	return strings.ToLower(CleanCell(s))
}

// CleanCell strips a UTF-8 BOM, Excel formula wrapping (`="..."`), stray
// surrounding quotes, and whitespace from a data cell.
func CleanCell(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	// Excel sometimes exports text cells as ="value" to defeat type coercion.
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	s = strings.Trim(s, "\"")
	return strings.TrimSpace(s)
}

// HeaderIndex maps cleaned column names to their position in a row.
type HeaderIndex map[string]int

// MakeHeaderIndex builds a HeaderIndex from a tokenized header row.
// Build it once per file and reuse it for every data row.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		idx[CleanHeader(h)] = i
	}
	return idx
}

// Lookup returns the cleaned cell value for the named column, or the
// empty string when the column is absent or the row is too short.
func (idx HeaderIndex) Lookup(row []string, column string) string {
	pos, ok := idx[strings.ToLower(column)]
	if !ok || pos >= len(row) {
		return ""
	}
	return CleanCell(row[pos])
}
