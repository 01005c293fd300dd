package engine

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestApplySessionUpdatesEveryStore(t *testing.T) {
	eng := New(DefaultParams(), DefaultBranches(), nil)

	keys := append(word("tea", 250), Keystroke{Symbol: Space, TimeMs: 250, Correct: true})
	keys = append(keys, word("eat", 250)...)
	eng.ApplySession(keys)

	if eng.SessionCount() != 1 {
		t.Fatalf("session count = %d", eng.SessionCount())
	}
	for _, sym := range []Symbol{'t', 'e', 'a'} {
		if !eng.Symbols.Observed(sym) {
			t.Fatalf("symbol %q not recorded", sym.Label())
		}
	}
	if _, ok := eng.Bigrams.Stat(NewPairKey('t', 'e')); !ok {
		t.Fatalf("bigram te not recorded")
	}
	if _, ok := eng.Trigrams.Stat(NewPairKey('e', 'a', 't')); !ok {
		t.Fatalf("trigram eat not recorded")
	}
	if stat, _ := eng.Bigrams.Stat(NewPairKey('e', 'a')); stat.LastSeenSession != 0 {
		t.Fatalf("first session ordinal = %d, want 0", stat.LastSeenSession)
	}
}

func TestApplySessionAdvancesTree(t *testing.T) {
	eng := New(DefaultParams(), DefaultBranches(), nil)

	// Six core letters typed fast and clean: confidence clears 1.0 on the
	// first sample at 250ms against a ~343ms target.
	var keys []Keystroke
	for i := 0; i < 3; i++ {
		keys = append(keys, word("etaoin", 250)...)
		keys = append(keys, Keystroke{Symbol: Space, TimeMs: 250, Correct: true})
	}
	eng.ApplySession(keys)

	if got := eng.Tree.BranchProgress(BranchLowercase).CurrentLevel; got != 1 {
		t.Fatalf("level after a clean core session = %d, want 1", got)
	}
}

func TestApplySessionHandlesPartialData(t *testing.T) {
	eng := New(DefaultParams(), DefaultBranches(), nil)

	// An abandoned session can be arbitrarily short.
	eng.ApplySession([]Keystroke{{Symbol: 'e', TimeMs: 300, Correct: true}})
	eng.ApplySession(nil)

	if eng.SessionCount() != 2 {
		t.Fatalf("session count = %d, want 2", eng.SessionCount())
	}
	if eng.Bigrams.Len() != 0 {
		t.Fatalf("single keystroke produced pairs: %d", eng.Bigrams.Len())
	}
}

func randomHistory(rng *rand.Rand, sessions int) [][]Keystroke {
	alphabet := []Symbol{'e', 't', 'a', 'o', 'i', 'n', 's', 'h', 'r', 'd'}
	history := make([][]Keystroke, 0, sessions)
	for s := 0; s < sessions; s++ {
		n := 20 + rng.Intn(30)
		keys := make([]Keystroke, 0, n)
		for i := 0; i < n; i++ {
			var sym Symbol
			switch {
			case rng.Intn(8) == 0:
				sym = Space
			case rng.Intn(40) == 0:
				sym = Backspace
			default:
				sym = alphabet[rng.Intn(len(alphabet))]
			}
			keys = append(keys, Keystroke{
				Symbol:  sym,
				TimeMs:  100 + float64(rng.Intn(1200)),
				Correct: rng.Intn(10) != 0,
			})
		}
		history = append(history, keys)
	}
	return history
}

func TestReplayMatchesLiveIncremental(t *testing.T) {
	history := randomHistory(rand.New(rand.NewSource(7)), 500)

	live := New(DefaultParams(), DefaultBranches(), nil)
	for _, keys := range history {
		live.ApplySession(keys)
	}

	replayed := New(DefaultParams(), DefaultBranches(), nil)
	replayed.Replay(history)

	if live.SessionCount() != replayed.SessionCount() {
		t.Fatalf("session counts diverged: %d vs %d", live.SessionCount(), replayed.SessionCount())
	}
	if !reflect.DeepEqual(live.Symbols.stats, replayed.Symbols.stats) {
		t.Fatalf("symbol stats diverged between live and replay")
	}
	if !reflect.DeepEqual(live.Bigrams.stats, replayed.Bigrams.stats) {
		t.Fatalf("bigram stats diverged between live and replay")
	}
	if !reflect.DeepEqual(live.Trigrams.stats, replayed.Trigrams.stats) {
		t.Fatalf("trigram stats diverged between live and replay")
	}
	if !reflect.DeepEqual(live.Tree.Snapshot(), replayed.Tree.Snapshot()) {
		t.Fatalf("tree progress diverged between live and replay")
	}

	// The derived focus must agree too; it feeds text generation directly.
	a, b := live.Focus(GlobalScope()), replayed.Focus(GlobalScope())
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("focus selections diverged: %+v vs %+v", a, b)
	}
}

func TestTrigramTableStaysWithinCap(t *testing.T) {
	params := DefaultParams()
	params.MaxTrigramEntries = 50
	eng := New(params, DefaultBranches(), nil)

	rng := rand.New(rand.NewSource(3))
	for _, keys := range randomHistory(rng, 60) {
		eng.ApplySession(keys)
	}
	if eng.Trigrams.Len() > 50 {
		t.Fatalf("trigram table = %d entries, cap 50", eng.Trigrams.Len())
	}
}
