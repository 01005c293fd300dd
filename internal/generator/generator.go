// Package generator builds practice text sequences.
package generator

import (
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/verte-zerg/keydrill/internal/engine"
)

// Generator produces randomized practice text biased toward the current
// focus selection.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeeded returns a deterministically seeded Generator.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Options shapes one generation run. Unlocked gates every emitted symbol;
// Focus biases word choice toward the weak symbol and the anomalous pair.
type Options struct {
	Words       int
	Unlocked    map[engine.Symbol]bool
	Focus       engine.FocusSelection
	FocusFactor float64
}

const defaultFocusFactor = 3.0

// Generate selects words from the corpus with focus-weighted sampling and
// applies symbol decorations permitted by the unlocked set. The corpus must
// already be filtered to typeable words; an empty corpus falls back to
// synthesized drills over the unlocked symbols.
func (g *Generator) Generate(corpus []string, opts Options) []string {
	if opts.Words <= 0 {
		return nil
	}
	if len(corpus) == 0 {
		return g.synthesize(opts)
	}

	factor := opts.FocusFactor
	if factor <= 0 {
		factor = defaultFocusFactor
	}

	weights := make([]float64, len(corpus))
	total := 0.0
	for i, word := range corpus {
		w := 1.0 + factor*float64(focusOccurrences(word, opts.Focus))
		weights[i] = w
		total += w
	}

	result := make([]string, 0, opts.Words)
	for i := 0; i < opts.Words; i++ {
		r := g.rnd.Float64() * total
		acc := 0.0
		idx := 0
		for j, w := range weights {
			acc += w
			if r <= acc {
				idx = j
				break
			}
		}
		result = append(result, g.decorate(corpus[idx], opts.Unlocked))
	}
	return result
}

// focusOccurrences counts how strongly a word exercises the selection. Pair
// occurrences count double: the transition is the scarce training signal.
func focusOccurrences(word string, focus engine.FocusSelection) int {
	count := 0
	if focus.Char != nil {
		count += strings.Count(word, string(rune(focus.Char.Symbol)))
	}
	if focus.Pair != nil {
		count += 2 * strings.Count(word, string(focus.Pair.Key))
	}
	return count
}

// decorate applies capitalization and trailing punctuation when the unlocked
// set permits the produced symbols.
func (g *Generator) decorate(word string, unlocked map[engine.Symbol]bool) string {
	runes := []rune(word)
	if len(runes) > 0 {
		upper := unicode.ToUpper(runes[0])
		if upper != runes[0] && unlocked[engine.Symbol(upper)] && g.rnd.Float64() < 0.25 {
			runes[0] = upper
			word = string(runes)
		}
	}

	if punct := unlockedFrom(".,'!?;:", unlocked); len(punct) > 0 && g.rnd.Float64() < 0.2 {
		word += string(rune(punct[g.rnd.Intn(len(punct))]))
	}
	return word
}

func unlockedFrom(set string, unlocked map[engine.Symbol]bool) []engine.Symbol {
	var out []engine.Symbol
	for _, r := range set {
		if unlocked[engine.Symbol(r)] {
			out = append(out, engine.Symbol(r))
		}
	}
	return out
}

// Join concatenates words with separators drawn from the unlocked
// whitespace symbols. Space always qualifies; newline and tab join in once
// their levels unlock, so whitespace gets practiced like any other symbol.
func (g *Generator) Join(words []string, unlocked map[engine.Symbol]bool) string {
	separators := []engine.Symbol{engine.Space}
	for _, sym := range []engine.Symbol{engine.Enter, engine.Tab} {
		if unlocked[sym] {
			separators = append(separators, sym)
		}
	}

	var b strings.Builder
	for i, word := range words {
		if i > 0 {
			sep := separators[0]
			if len(separators) > 1 && g.rnd.Float64() < 0.3 {
				sep = separators[1+g.rnd.Intn(len(separators)-1)]
			}
			b.WriteRune(rune(sep))
		}
		b.WriteString(word)
	}
	return b.String()
}

// synthesize builds pseudo-words from the unlocked symbols for the early
// levels where no corpus word is typeable yet.
func (g *Generator) synthesize(opts Options) []string {
	var pool []engine.Symbol
	for sym, ok := range opts.Unlocked {
		if ok && !sym.IsBoundary() && sym != engine.Backspace {
			pool = append(pool, sym)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	// Deterministic pool order regardless of map iteration.
	for i := 1; i < len(pool); i++ {
		for j := i; j > 0 && pool[j] < pool[j-1]; j-- {
			pool[j], pool[j-1] = pool[j-1], pool[j]
		}
	}

	// The focus symbol appears in every other synthesized word.
	var focusSym engine.Symbol
	hasFocus := false
	if opts.Focus.Char != nil && opts.Unlocked[opts.Focus.Char.Symbol] {
		focusSym = opts.Focus.Char.Symbol
		hasFocus = true
	}

	result := make([]string, 0, opts.Words)
	for i := 0; i < opts.Words; i++ {
		length := 3 + g.rnd.Intn(4)
		var b strings.Builder
		for j := 0; j < length; j++ {
			b.WriteRune(rune(pool[g.rnd.Intn(len(pool))]))
		}
		word := b.String()
		if hasFocus && i%2 == 0 && !strings.ContainsRune(word, rune(focusSym)) {
			runes := []rune(word)
			runes[g.rnd.Intn(len(runes))] = rune(focusSym)
			word = string(runes)
		}
		result = append(result, word)
	}
	return result
}
