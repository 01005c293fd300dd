package engine

// CharFocus is the weakest unlocked symbol under progression rules.
type CharFocus struct {
	Symbol     Symbol
	Confidence float64
}

// PairFocus is the worst confirmed pair anomaly.
type PairFocus struct {
	Key     PairKey
	Kind    AnomalyKind
	Percent float64
}

// FocusSelection is the snapshot handed to text generation. It is computed
// once when a session's text is generated and held immutable until the next
// session starts. Both fields may be populated at once.
type FocusSelection struct {
	Char *CharFocus
	Pair *PairFocus
}

// SelectFocus independently computes the weakest unlocked symbol and the
// single worst confirmed 2-symbol anomaly for the scope. The two signals
// are not combined numerically: confidence and anomaly percentage are not
// commensurable units.
func SelectFocus(tree *SkillTree, scope Scope, symbols *SymbolStats, bigrams *PairStats) FocusSelection {
	var sel FocusSelection

	if sym, ok := tree.FocusedSymbol(scope, symbols); ok {
		sel.Char = &CharFocus{Symbol: sym, Confidence: symbols.Confidence(sym)}
	}

	unlocked := tree.UnlockedSet(scope)
	if anomaly, ok := bigrams.WorstConfirmedAnomaly(unlocked, symbols, nil); ok {
		sel.Pair = &PairFocus{Key: anomaly.Key, Kind: anomaly.Kind, Percent: anomaly.Percent}
	}

	return sel
}

// PrimaryPair reports whether the pair focus outranks the symbol focus. A
// confirmed anomaly always wins: confirmation already survived a
// conservative multi-session gate.
func (f FocusSelection) PrimaryPair() bool {
	return f.Pair != nil
}

// Empty reports whether nothing needs focused work.
func (f FocusSelection) Empty() bool {
	return f.Char == nil && f.Pair == nil
}

// Label renders the selection for footers and logs.
func (f FocusSelection) Label() string {
	switch {
	case f.Pair != nil:
		return f.Pair.Key.Label()
	case f.Char != nil:
		return f.Char.Symbol.Label()
	default:
		return ""
	}
}
