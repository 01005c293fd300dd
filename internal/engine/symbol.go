// Package engine implements the adaptive-mastery core: per-symbol and
// per-pair statistics, anomaly detection, the skill-progression tree, and
// focus selection for the next practice text.
package engine

// Symbol identifies one practiced key. Non-printable control keys (enter,
// tab, backspace) are first-class symbols with their own sentinel values.
type Symbol rune

// Control-key sentinels.
const (
	Space     Symbol = ' '
	Enter     Symbol = '\n'
	Tab       Symbol = '\t'
	Backspace Symbol = '\x08'
)

var symbolLabels = map[Symbol]string{
	Space:     "<space>",
	Enter:     "<enter>",
	Tab:       "<tab>",
	Backspace: "<bksp>",
}

// Label returns a printable representation of the symbol.
func (s Symbol) Label() string {
	if label, ok := symbolLabels[s]; ok {
		return label
	}
	return string(rune(s))
}

// IsBoundary reports whether the symbol terminates a pair window. Pair
// windows never cross whitespace.
func (s Symbol) IsBoundary() bool {
	return s == Space || s == Enter || s == Tab
}

// Keystroke is one per-key record from the session capture layer: the
// expected symbol, elapsed time since the previous keystroke, and whether
// the typed key matched.
type Keystroke struct {
	Symbol  Symbol
	TimeMs  float64
	Correct bool
}
