package pesticide

import "strings"

// hazardTier assigns risk points to a set of hazard codes. Tiers are
// checked in order per code and the first matching tier wins, so a code
// contributes its most severe classification exactly once.
type hazardTier struct {
	codes  []string
	points int
}

var hazardTiers = []hazardTier{
	// Acute toxicity, category 1-2 (fatal)
	{[]string{"H300", "H310", "H330"}, 3},
	// Acute toxicity, category 3 (toxic)
	{[]string{"H301", "H311", "H331"}, 2},
	// Acute toxicity, category 4 (harmful)
	{[]string{"H302", "H312", "H332"}, 1},
	// Aquatic toxicity, acute/chronic category 1
	{[]string{"H400", "H410"}, 2},
	// Aquatic toxicity, lower categories
	{[]string{"H401", "H411"}, 1},
}

// NeutralSafetyRating is the rating assigned when no hazard data exists.
// Absence of hazard codes is not evidence of safety, so the neutral
// midpoint is used instead of the best rating.
const NeutralSafetyRating = 3

// SafetyRating derives a 1-5 rating (5 = safest) from a list of hazard
// classification codes. The rating is monotonically non-increasing in
// accumulated risk points.
func SafetyRating(hazardCodes []string) int {
	if len(hazardCodes) == 0 {
		return NeutralSafetyRating
	}

	riskScore := 0
	for _, code := range hazardCodes {
		riskScore += hazardPoints(code)
	}

	switch {
	case riskScore >= 6:
		return 1
	case riskScore >= 4:
		return 2
	case riskScore >= 2:
		return 3
	case riskScore >= 1:
		return 4
	default:
		return 5
	}
}

// hazardPoints returns the risk points for a single code, or 0 for codes
// outside the severity table (e.g. physical hazards like H225).
func hazardPoints(code string) int {
	code = strings.TrimSpace(code)
	for _, tier := range hazardTiers {
		for _, c := range tier.codes {
			if strings.EqualFold(code, c) {
				return tier.points
			}
		}
	}
	return 0
}
