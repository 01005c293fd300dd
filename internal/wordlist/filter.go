// Package wordlist provides word list filtering helpers.
package wordlist

import "github.com/verte-zerg/keydrill/internal/engine"

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// AllowedSymbols returns a filter keeping only words typeable with the
// unlocked symbol set.
func AllowedSymbols(unlocked map[engine.Symbol]bool) FilterFunc {
	return func(word string) bool {
		if word == "" {
			return false
		}
		for _, r := range word {
			if !unlocked[engine.Symbol(r)] {
				return false
			}
		}
		return true
	}
}

// Filter applies fn to words and returns the kept subset.
func Filter(words []string, fn FilterFunc) []string {
	var kept []string
	for _, word := range words {
		if fn(word) {
			kept = append(kept, word)
		}
	}
	return kept
}
