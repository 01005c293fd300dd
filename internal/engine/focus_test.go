package engine

import "testing"

func TestSelectFocusPopulatesBothSignals(t *testing.T) {
	tree := NewSkillTree(DefaultBranches(), nil)
	stats := NewSymbolStats(DefaultParams())
	masterSymbols(stats, symbols("taoin"))
	stats.Restore('e', SymbolStat{FilteredTimeMs: 900, Confidence: 0.4, SampleCount: 30, TotalCount: 30})

	bigrams := NewPairStats(2, DefaultParams())
	installPair(bigrams, NewPairKey('t', 'a'), PairStat{
		SampleCount:  40,
		ErrorRateEMA: 0.3,
		ErrorStreak:  3,
	})

	sel := SelectFocus(tree, GlobalScope(), stats, bigrams)
	if sel.Char == nil || sel.Char.Symbol != 'e' {
		t.Fatalf("char focus = %+v, want e", sel.Char)
	}
	if sel.Pair == nil || sel.Pair.Key != NewPairKey('t', 'a') {
		t.Fatalf("pair focus = %+v, want ta", sel.Pair)
	}
	if sel.Empty() {
		t.Fatalf("selection with both signals reported empty")
	}
}

func TestConfirmedPairAlwaysOutranksChar(t *testing.T) {
	tree := NewSkillTree(DefaultBranches(), nil)
	stats := NewSymbolStats(DefaultParams())
	masterSymbols(stats, symbols("taoin"))
	// Desperately weak character against a barely-confirmed anomaly: the
	// anomaly still drives generation. The two numbers are never compared.
	stats.Restore('e', SymbolStat{FilteredTimeMs: 7000, Confidence: 0.05, SampleCount: 30, TotalCount: 30})
	restoreErrorRate(stats, 't', 0.1)
	restoreErrorRate(stats, 'a', 0.1)

	bigrams := NewPairStats(2, DefaultParams())
	// Expected 1-0.9*0.9 = 0.19; ratio = 0.32/0.19 ~ 1.7, percent ~ 68.
	installPair(bigrams, NewPairKey('t', 'a'), PairStat{
		SampleCount:  40,
		ErrorRateEMA: 0.32,
		ErrorStreak:  3,
	})

	sel := SelectFocus(tree, GlobalScope(), stats, bigrams)
	if !sel.PrimaryPair() {
		t.Fatalf("confirmed pair must outrank the char focus")
	}
	if sel.Label() != "ta" {
		t.Fatalf("label = %q, want the pair", sel.Label())
	}
}

func TestSelectFocusEmptyWhenEverythingMastered(t *testing.T) {
	tree := NewSkillTree(DefaultBranches(), nil)
	stats := NewSymbolStats(DefaultParams())
	masterSymbols(stats, symbols("etaoin"))
	bigrams := NewPairStats(2, DefaultParams())

	sel := SelectFocus(tree, GlobalScope(), stats, bigrams)
	if !sel.Empty() {
		t.Fatalf("mastered scope should yield an empty selection: %+v", sel)
	}
	if sel.PrimaryPair() {
		t.Fatalf("empty selection cannot have a primary pair")
	}
	if sel.Label() != "" {
		t.Fatalf("empty selection label = %q", sel.Label())
	}
}

func TestSelectFocusLabelFallsBackToChar(t *testing.T) {
	tree := NewSkillTree(DefaultBranches(), nil)
	stats := NewSymbolStats(DefaultParams())
	masterSymbols(stats, symbols("taoin"))
	stats.Restore('e', SymbolStat{FilteredTimeMs: 900, Confidence: 0.4, SampleCount: 30, TotalCount: 30})

	sel := SelectFocus(tree, GlobalScope(), stats, NewPairStats(2, DefaultParams()))
	if sel.PrimaryPair() {
		t.Fatalf("no confirmed pair, yet pair reported primary")
	}
	if sel.Label() != "e" {
		t.Fatalf("label = %q, want e", sel.Label())
	}
}

func TestSelectFocusIgnoresLockedPairs(t *testing.T) {
	tree := NewSkillTree(DefaultBranches(), nil)
	stats := NewSymbolStats(DefaultParams())
	masterSymbols(stats, symbols("etaoin"))

	bigrams := NewPairStats(2, DefaultParams())
	installPair(bigrams, NewPairKey('q', 'z'), PairStat{
		SampleCount:  40,
		ErrorRateEMA: 0.5,
		ErrorStreak:  3,
	})

	sel := SelectFocus(tree, GlobalScope(), stats, bigrams)
	if sel.Pair != nil {
		t.Fatalf("anomaly over locked symbols leaked into focus: %+v", sel.Pair)
	}
}
