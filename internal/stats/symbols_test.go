package stats

import (
	"strings"
	"testing"

	"github.com/verte-zerg/keydrill/internal/engine"
)

func seededSymbols() *engine.SymbolStats {
	stats := engine.NewSymbolStats(engine.DefaultParams())
	stats.Restore('e', engine.SymbolStat{
		FilteredTimeMs: 280, BestTimeMs: 260, Confidence: 1.22,
		SampleCount: 40, TotalCount: 42, ErrorCount: 2,
	})
	stats.Restore('t', engine.SymbolStat{
		FilteredTimeMs: 520, BestTimeMs: 480, Confidence: 0.66,
		SampleCount: 30, TotalCount: 33, ErrorCount: 3, ErrorRateEMA: 0.05,
	})
	return stats
}

func TestRenderSymbolTableWeakestFirst(t *testing.T) {
	var b strings.Builder
	err := RenderSymbolTable(&b, seededSymbols(), []engine.Symbol{'e', 't', 'a'})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()

	// Unseen 'a' has zero confidence and leads; 't' precedes 'e'.
	ai, ti, ei := strings.Index(out, "\na "), strings.Index(out, "\nt "), strings.Index(out, "\ne ")
	if ai < 0 || ti < 0 || ei < 0 {
		t.Fatalf("missing symbol rows in:\n%s", out)
	}
	if !(ai < ti && ti < ei) {
		t.Fatalf("rows not ordered weakest first:\n%s", out)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "a ") && !strings.Contains(line, "-") {
			t.Fatalf("unseen symbol should render dashes: %q", line)
		}
	}
}

func confirmedBigrams(symbols *engine.SymbolStats) *engine.PairStats {
	params := engine.DefaultParams()
	bigrams := engine.NewPairStats(2, params)
	key := engine.NewPairKey('t', 'e')
	for i := 0; i < 25; i++ {
		bigrams.Update(key, 400, false, false, uint32(i))
	}
	for i := 0; i < 3; i++ {
		bigrams.UpdateStreaks(key, symbols, nil)
	}
	return bigrams
}

func TestRenderAnomalies(t *testing.T) {
	symbols := seededSymbols()
	empty := engine.NewPairStats(2, engine.DefaultParams())
	trigrams := engine.NewPairStats(3, engine.DefaultParams())
	unlocked := map[engine.Symbol]bool{'e': true, 't': true}

	var b strings.Builder
	if err := RenderAnomalies(&b, empty, trigrams, symbols, unlocked); err != nil {
		t.Fatalf("render empty: %v", err)
	}
	if !strings.Contains(b.String(), "None.") {
		t.Fatalf("expected the empty marker in:\n%s", b.String())
	}

	b.Reset()
	bigrams := confirmedBigrams(symbols)
	if err := RenderAnomalies(&b, bigrams, trigrams, symbols, unlocked); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, "te") || !strings.Contains(out, "error") {
		t.Fatalf("confirmed anomaly missing from:\n%s", out)
	}
	if !strings.Contains(out, "Trigram marginal signal:") {
		t.Fatalf("marginal signal line missing from:\n%s", out)
	}
}

func TestRenderTree(t *testing.T) {
	tree := engine.NewSkillTree(engine.DefaultBranches(), nil)
	var b strings.Builder
	if err := RenderTree(&b, tree, engine.NewSymbolStats(engine.DefaultParams())); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()
	for _, want := range []string{"Lowercase a-z", "in progress", "locked", "1/6 Core", "0/26"} {
		if !strings.Contains(out, want) {
			t.Fatalf("tree output missing %q:\n%s", want, out)
		}
	}
}
