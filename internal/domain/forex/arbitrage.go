package forex

// Opportunity is a triangular rate inconsistency exceeding the threshold.
type Opportunity struct {
	Path   [3]string `json:"path"`
	Profit float64   `json:"profit"` // fractional gain per unit, e.g. 0.004 = 0.4%
}

// FindTriangular brute-forces all ordered currency triples and reports
// those whose round trip a -> b -> c -> a yields a profit above threshold.
// Quotes are keyed by concatenated pair (e.g. "EURGBP"); the inverse pair
// is consulted when a direct quote is absent. Triples with a missing leg
// are skipped. Derived cross rates through a common base always multiply
// to exactly 1, so callers must supply direct quotes per pair for the
// search to be meaningful.
func FindTriangular(quotes map[string]float64, currencies []string, threshold float64) []Opportunity {
	var opps []Opportunity

	for _, a := range currencies {
		for _, b := range currencies {
			if b == a {
				continue
			}
			for _, c := range currencies {
				if c == a || c == b {
					continue
				}

				ab, ok1 := pairRate(quotes, a, b)
				bc, ok2 := pairRate(quotes, b, c)
				ca, ok3 := pairRate(quotes, c, a)
				if !ok1 || !ok2 || !ok3 {
					continue
				}

				profit := ab*bc*ca - 1
				if profit > threshold {
					opps = append(opps, Opportunity{Path: [3]string{a, b, c}, Profit: profit})
				}
			}
		}
	}

	return opps
}

// pairRate looks up the from->to rate, falling back to the inverse pair.
func pairRate(quotes map[string]float64, from, to string) (float64, bool) {
	if r, ok := quotes[from+to]; ok && r > 0 {
		return r, true
	}
	if r, ok := quotes[to+from]; ok && r > 0 {
		return 1 / r, true
	}
	return 0, false
}
