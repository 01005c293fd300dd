// Package stats contains statistics calculations and reporting.
package stats

import (
	"context"
	"io"

	"github.com/verte-zerg/keydrill/internal/engine"
	"github.com/verte-zerg/keydrill/internal/model"
	"github.com/verte-zerg/keydrill/internal/store"
)

// Report bundles session history with live engine state for rendering.
type Report struct {
	Sessions []model.SessionAggregate
	Engine   *engine.Engine
}

// BuildReport loads the filtered session list. The engine must already be
// rebuilt from the keystroke log.
func BuildReport(ctx context.Context, st *store.Store, eng *engine.Engine, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	return Report{Sessions: sessions, Engine: eng}, nil
}

// Render writes the full stats report: session summary, per-symbol table,
// confirmed difficulties, and the progression tree.
func (r Report) Render(w io.Writer, width int) error {
	if err := RenderSummary(w, r.Sessions, width); err != nil {
		return err
	}
	eng := r.Engine
	if eng == nil {
		return nil
	}
	scope := engine.GlobalScope()
	if err := RenderSymbolTable(w, eng.Symbols, eng.Tree.UnlockedSymbols(scope)); err != nil {
		return err
	}
	if err := RenderAnomalies(w, eng.Bigrams, eng.Trigrams, eng.Symbols, eng.Tree.UnlockedSet(scope)); err != nil {
		return err
	}
	return RenderTree(w, eng.Tree, eng.Symbols)
}
