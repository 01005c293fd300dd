package wordlist

import (
	"testing"

	"github.com/verte-zerg/keydrill/internal/engine"
)

func TestAllowedSymbols(t *testing.T) {
	unlocked := map[engine.Symbol]bool{}
	for _, r := range "etaoin" {
		unlocked[engine.Symbol(r)] = true
	}
	filter := AllowedSymbols(unlocked)

	for _, word := range []string{"note", "into", "nation"} {
		if !filter(word) {
			t.Fatalf("expected %q to pass with the core letters", word)
		}
	}
	for _, word := range []string{"stone", "don't", "Ten", ""} {
		if filter(word) {
			t.Fatalf("expected %q to be rejected", word)
		}
	}
}

func TestFilterKeepsOrder(t *testing.T) {
	unlocked := map[engine.Symbol]bool{}
	for _, r := range "etaoin" {
		unlocked[engine.Symbol(r)] = true
	}
	kept := Filter([]string{"note", "stone", "into"}, AllowedSymbols(unlocked))
	if len(kept) != 2 || kept[0] != "note" || kept[1] != "into" {
		t.Fatalf("kept = %v", kept)
	}
}

func TestEmbeddedCorpusCoversEarlyLevels(t *testing.T) {
	words := Embedded()
	if len(words) == 0 {
		t.Fatalf("embedded corpus is empty")
	}
	seen := map[string]int{}
	for _, word := range words {
		seen[word]++
		if seen[word] > 1 {
			t.Fatalf("embedded corpus contains duplicate %q", word)
		}
	}

	// The first progression level unlocks only a handful of letters; the
	// corpus has to offer real words for it.
	unlocked := map[engine.Symbol]bool{}
	for _, r := range "etaoin" {
		unlocked[engine.Symbol(r)] = true
	}
	if kept := Filter(words, AllowedSymbols(unlocked)); len(kept) < 10 {
		t.Fatalf("only %d corpus words typeable with the core letters", len(kept))
	}
}
