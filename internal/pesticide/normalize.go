package pesticide

import (
	"regexp"
	"strconv"
	"strings"
)

// statusRule maps a lower-cased substring of the source's free-text
// approval status to its canonical value. Rules are evaluated in order
// and the first match wins, so match priority is explicit and testable
// rather than implied by branching.
type statusRule struct {
	substring string
	status    ApprovalStatus
}

var statusRules = []statusRule{
	{"approved", StatusApproved},
	{"authorised", StatusApproved},
	{"pending", StatusPending},
	{"under review", StatusPending},
	{"withdrawn", StatusWithdrawn},
	{"cancelled", StatusWithdrawn},
	{"expired", StatusExpired},
	{"not renewed", StatusExpired},
}

// NormalizeStatus maps free-text approval status onto the canonical enum.
// Unrecognized input defaults to approved; that default mirrors the
// upstream registry's behavior and callers that care can detect it via
// the second return value.
func NormalizeStatus(raw string) (ApprovalStatus, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, rule := range statusRules {
		if strings.Contains(s, rule.substring) {
			return rule.status, true
		}
	}
	return StatusApproved, false
}

// cropSynonyms maps lower-cased source spellings (botanical names, trade
// jargon) to the canonical crop names used across the store.
var cropSynonyms = map[string]string{
	"vine":                 "grapes",
	"vines":                "grapes",
	"grapevine":            "grapes",
	"vitis vinifera":       "grapes",
	"grape":                "grapes",
	"tomato":               "tomatoes",
	"solanum lycopersicum": "tomatoes",
	"potato":               "potatoes",
	"solanum tuberosum":    "potatoes",
	"apple":                "apples",
	"malus domestica":      "apples",
	"pear":                 "pears",
	"pyrus communis":       "pears",
	"wheat":                "wheat",
	"triticum aestivum":    "wheat",
	"barley":               "barley",
	"hordeum vulgare":      "barley",
	"maize":                "corn",
	"zea mays":             "corn",
	"oilseed rape":         "rapeseed",
	"brassica napus":       "rapeseed",
	"lettuce":              "lettuce",
	"lactuca sativa":       "lettuce",
	"cucumber":             "cucumbers",
	"cucumis sativus":      "cucumbers",
	"strawberry":           "strawberries",
	"fragaria":             "strawberries",
}

// NormalizeCrop canonicalizes a crop label against the synonym table.
// Unknown labels pass through trimmed and lower-cased, so novel crops
// still reconcile consistently with themselves.
func NormalizeCrop(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := cropSynonyms[s]; ok {
		return canonical
	}
	return s
}

// SplitList splits a list-valued field on sep, trims each token, and
// drops empty tokens.
func SplitList(raw, sep string) []string {
	var out []string
	for _, tok := range strings.Split(raw, sep) {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// NormalizeJurisdictions splits a comma-separated jurisdiction field into
// upper-cased codes, dropping duplicates while preserving first-seen order.
func NormalizeJurisdictions(raw string) []string {
	tokens := SplitList(raw, ",")
	seen := make(map[string]bool, len(tokens))
	var out []string
	for _, tok := range tokens {
		code := strings.ToUpper(tok)
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	return out
}

// mrlPattern matches one "<crop>: <number> <unit>" MRL segment.
var mrlPattern = regexp.MustCompile(`(?i)^(.+?):\s*([0-9.]+)\s*(mg/kg|ppm)$`)

// NormalizeMRL parses the semicolon-separated MRL field into structured
// threshold entries. Crop labels are canonicalized through resolve (the
// crop normalizer, possibly cache-backed). Segments that do not match the
// expected shape are skipped: partial MRL data is normal in these exports
// and is not an error.
func NormalizeMRL(raw string, resolve func(string) string) []MRLValue {
	var out []MRLValue
	for _, segment := range SplitList(raw, ";") {
		m := mrlPattern.FindStringSubmatch(segment)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		out = append(out, MRLValue{
			Crop:  resolve(m[1]),
			Value: value,
			Unit:  strings.ToLower(m[3]),
		})
	}
	return out
}
