package engine

import "sort"

// PairEvent is one discrete pair observation produced by extraction.
type PairEvent struct {
	Key        PairKey
	TimeMs     float64
	Correct    bool
	Hesitation bool
}

// ExtractPairEvents walks a session's keystroke sequence and emits one
// observation per adjacent 2- and 3-symbol window. Backspace entries are
// filtered out first, and windows never cross a whitespace-boundary symbol.
// A window's transition time is the sum of the per-symbol times of every
// symbol except the first: the first symbol's time reflects the transition
// into the window, which belongs to the preceding window. The function is
// stateless; hesitationMs comes from HesitationThreshold.
func ExtractPairEvents(keys []Keystroke, hesitationMs float64) (bigrams, trigrams []PairEvent) {
	filtered := make([]Keystroke, 0, len(keys))
	for _, k := range keys {
		if k.Symbol != Backspace {
			filtered = append(filtered, k)
		}
	}

	for i := 0; i+1 < len(filtered); i++ {
		a, b := filtered[i], filtered[i+1]
		if a.Symbol.IsBoundary() || b.Symbol.IsBoundary() {
			continue
		}
		bigrams = append(bigrams, PairEvent{
			Key:        NewPairKey(a.Symbol, b.Symbol),
			TimeMs:     b.TimeMs,
			Correct:    a.Correct && b.Correct,
			Hesitation: b.TimeMs > hesitationMs,
		})
	}

	for i := 0; i+2 < len(filtered); i++ {
		a, b, c := filtered[i], filtered[i+1], filtered[i+2]
		if a.Symbol.IsBoundary() || b.Symbol.IsBoundary() || c.Symbol.IsBoundary() {
			continue
		}
		trigrams = append(trigrams, PairEvent{
			Key:        NewPairKey(a.Symbol, b.Symbol, c.Symbol),
			TimeMs:     b.TimeMs + c.TimeMs,
			Correct:    a.Correct && b.Correct && c.Correct,
			Hesitation: b.TimeMs > hesitationMs || c.TimeMs > hesitationMs,
		})
	}

	return bigrams, trigrams
}

// HesitationThreshold derives the per-user hesitation cutoff: an absolute
// floor, or a multiple of the user's median inter-keystroke time, whichever
// is larger. Typing speed varies too much between users for a fixed
// constant.
func HesitationThreshold(medianTransitionMs float64, params Params) float64 {
	scaled := params.HesitationFactor * medianTransitionMs
	if scaled > params.HesitationFloorMs {
		return scaled
	}
	return params.HesitationFloorMs
}

// Median returns the median of the values, or 0 for an empty slice. The
// input is not modified.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
