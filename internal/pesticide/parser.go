package pesticide

import (
	"context"
	"strings"

	"github.com/linkln33/garden-buddy-sub000/internal/csv"
	"github.com/linkln33/garden-buddy-sub000/internal/logging"
)

// ParseStats summarizes one parse pass over a dataset export.
type ParseStats struct {
	RowsSeen    int // non-blank data rows encountered
	RowsParsed  int // rows that produced a canonical record
	RowsSkipped int // rows dropped (short row, missing product name)
}

// Parser converts a raw dataset export blob into canonical records.
// A shared crop lookup cache is injected at construction; the parser
// itself holds no other state and is safe for concurrent use.
type Parser struct {
	crops *LookupCache
}

// NewParser creates a Parser backed by the given crop lookup cache.
// A nil cache disables memoization and resolves every label directly.
func NewParser(crops *LookupCache) *Parser {
	return &Parser{crops: crops}
}

// resolveCrop canonicalizes a crop label, going through the cache when
// one is configured.
func (p *Parser) resolveCrop(label string) string {
	if p.crops == nil {
		return NormalizeCrop(label)
	}
	return p.crops.Resolve(strings.ToLower(strings.TrimSpace(label)), NormalizeCrop)
}

// Parse tokenizes and normalizes a full export. The first line is the
// header; every subsequent non-blank line is one product row. Faulty
// rows are skipped and logged, never fatal: one bad row must not abort
// the batch. Empty or header-only input yields an empty record slice.
func (p *Parser) Parse(ctx context.Context, data string) ([]Record, ParseStats) {
	logger := logging.FromContext(ctx)

	var stats ParseStats

	lines := splitLines(data)
	if len(lines) == 0 {
		return nil, stats
	}

	header := csv.Tokenize(lines[0])
	idx := csv.MakeHeaderIndex(header)
	expectedCols := len(header)

	records := make([]Record, 0, len(lines)-1)
	for i, line := range lines[1:] {
		rowNum := i + 2 // 1-indexed line number in the export

		if strings.TrimSpace(line) == "" {
			continue
		}
		stats.RowsSeen++

		row := csv.Tokenize(line)
		if len(row) < expectedCols {
			stats.RowsSkipped++
			logger.Warn("skipping malformed row",
				"row", rowNum,
				"fields", len(row),
				"expected", expectedCols,
			)
			continue
		}

		rec, ok := p.buildRecord(logger, rowNum, idx, row)
		if !ok {
			stats.RowsSkipped++
			continue
		}

		records = append(records, rec)
		stats.RowsParsed++
	}

	return records, stats
}

// rowLogger is the minimal slog surface buildRecord needs; it keeps the
// row builder testable without a context.
type rowLogger interface {
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

// buildRecord assembles one canonical record from a tokenized row.
// Returns ok=false when the row fails required-field extraction.
func (p *Parser) buildRecord(log rowLogger, rowNum int, idx csv.HeaderIndex, row []string) (Record, bool) {
	productName := idx.Lookup(row, ColProductName)
	if productName == "" {
		log.Warn("skipping row without product name", "row", rowNum)
		return Record{}, false
	}

	rawStatus := idx.Lookup(row, ColApprovalStatus)
	status, matched := NormalizeStatus(rawStatus)
	if !matched && rawStatus != "" {
		// Permissive default inherited from the source registry; logged so
		// a deployment can audit how often it fires.
		log.Debug("unrecognized approval status, defaulting to approved",
			"row", rowNum,
			"status", rawStatus,
		)
	}

	var crops []string
	for _, label := range SplitList(idx.Lookup(row, ColApprovedCrops), ",") {
		crops = append(crops, p.resolveCrop(label))
	}

	return Record{
		ActiveSubstance:    idx.Lookup(row, ColActiveSubstance),
		ProductName:        productName,
		RegistrationNumber: idx.Lookup(row, ColRegistrationNumber),
		Status:             status,
		ApprovalDate:       idx.Lookup(row, ColApprovalDate),
		ExpiryDate:         idx.Lookup(row, ColExpiryDate),
		ApprovedCrops:      crops,
		MRLValues:          NormalizeMRL(idx.Lookup(row, ColMRL), p.resolveCrop),
		Jurisdictions:      NormalizeJurisdictions(idx.Lookup(row, ColMemberStates)),
		Restrictions:       SplitList(idx.Lookup(row, ColRestrictions), ";"),
		HazardCodes:        SplitList(idx.Lookup(row, ColHazards), ","),
	}, true
}

// splitLines splits on newlines, tolerating CRLF endings and a trailing
// newline.
func splitLines(data string) []string {
	data = strings.ReplaceAll(data, "\r\n", "\n")
	data = strings.TrimSuffix(data, "\n")
	if strings.TrimSpace(data) == "" {
		return nil
	}
	return strings.Split(data, "\n")
}
