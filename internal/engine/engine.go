package engine

// Engine owns the stores and runs the single-threaded session-end path. All
// updates happen synchronously when a session finishes; there are no
// background workers and no locking. A session that ends early feeds its
// partial keystroke data through the same path.
type Engine struct {
	Params   Params
	Symbols  *SymbolStats
	Bigrams  *PairStats
	Trigrams *PairStats
	Tree     *SkillTree

	sessions uint32
}

// New builds an engine with empty statistics over the given branch
// definitions and optional saved tree progress.
func New(params Params, defs []BranchDef, saved Progress) *Engine {
	return &Engine{
		Params:   params,
		Symbols:  NewSymbolStats(params),
		Bigrams:  NewPairStats(2, params),
		Trigrams: NewPairStats(3, params),
		Tree:     NewSkillTree(defs, saved),
	}
}

// SessionCount is the number of sessions applied so far. It is also the
// ordinal assigned to the next session, which drives pair recency.
func (e *Engine) SessionCount() uint32 { return e.sessions }

// ApplySession feeds one completed (or abandoned) session's keystrokes
// through the full update path and returns the skill-tree changeset.
func (e *Engine) ApplySession(keys []Keystroke) Changeset {
	session := e.sessions
	e.sessions++

	times := make([]float64, 0, len(keys))
	for _, k := range keys {
		if k.Correct && k.Symbol != Backspace {
			times = append(times, k.TimeMs)
		}
	}
	threshold := HesitationThreshold(Median(times), e.Params)
	bigramEvents, trigramEvents := ExtractPairEvents(keys, threshold)

	for _, k := range keys {
		if k.Correct {
			e.Symbols.UpdateCorrect(k.Symbol, k.TimeMs)
		} else {
			e.Symbols.UpdateError(k.Symbol)
		}
	}

	for _, ev := range bigramEvents {
		e.Bigrams.Update(ev.Key, ev.TimeMs, ev.Correct, ev.Hesitation, session)
		e.Bigrams.UpdateStreaks(ev.Key, e.Symbols, nil)
	}
	for _, ev := range trigramEvents {
		e.Trigrams.Update(ev.Key, ev.TimeMs, ev.Correct, ev.Hesitation, session)
		e.Trigrams.UpdateStreaks(ev.Key, e.Symbols, e.Bigrams)
	}
	e.Trigrams.Prune(e.sessions, e.Symbols, e.Bigrams)

	return e.Tree.Update(e.Symbols)
}

// Replay runs the identical update path over a full keystroke history in
// order. Starting from an empty engine, replaying the log produces the same
// statistics as the live incremental path: replay correctness is the
// persistence contract, so pair stats never need a durable cache.
func (e *Engine) Replay(history [][]Keystroke) {
	for _, keys := range history {
		e.ApplySession(keys)
	}
}

// Focus computes the focus selection for the scope from current statistics.
func (e *Engine) Focus(scope Scope) FocusSelection {
	return SelectFocus(e.Tree, scope, e.Symbols, e.Bigrams)
}
