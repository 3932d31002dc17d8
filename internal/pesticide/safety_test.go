package pesticide

import "testing"

func TestSafetyRating(t *testing.T) {
	tests := []struct {
		name  string
		codes []string
		want  int
	}{
		{"no data is neutral, not safe", nil, 3},
		{"empty slice is neutral", []string{}, 3},
		{"unknown codes score zero points", []string{"H225"}, 5},
		{"single mild acute", []string{"H302"}, 4},
		{"mild acute plus mild aquatic", []string{"H302", "H411"}, 3},
		{"fatal tier alone", []string{"H300"}, 3},
		{"fatal plus severe aquatic", []string{"H300", "H410"}, 2},
		{"two fatal codes", []string{"H300", "H330"}, 1},
		{"accumulation crosses 6", []string{"H301", "H311", "H400"}, 1},
		{"mid acute", []string{"H301"}, 3},
		{"mild inhalation", []string{"H332"}, 4},
		{"severe aquatic only", []string{"H400"}, 3},
		{"lowercase matches", []string{"h302"}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafetyRating(tt.codes); got != tt.want {
				t.Errorf("SafetyRating(%v) = %d, want %d", tt.codes, got, tt.want)
			}
		})
	}
}

// Adding a high-severity code must never raise the rating.
func TestSafetyRating_Monotonic(t *testing.T) {
	base := [][]string{
		nil,
		{"H302"},
		{"H411"},
		{"H302", "H411"},
		{"H301", "H400"},
		{"H300", "H310"},
	}
	severe := []string{"H300", "H330", "H410"}

	for _, codes := range base {
		before := SafetyRating(codes)
		if len(codes) == 0 {
			// Neutral no-data rating is exempt: it deliberately sits below
			// the zero-risk rating.
			continue
		}
		for _, extra := range severe {
			after := SafetyRating(append(append([]string{}, codes...), extra))
			if after > before {
				t.Errorf("rating increased after adding %s to %v: %d -> %d",
					extra, codes, before, after)
			}
		}
	}
}
