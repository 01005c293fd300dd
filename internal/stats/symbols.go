package stats

import (
	"fmt"
	"io"
	"sort"

	"github.com/verte-zerg/keydrill/internal/engine"
)

// RenderSymbolTable prints per-symbol statistics for the unlocked set,
// weakest first.
func RenderSymbolTable(w io.Writer, symbols *engine.SymbolStats, unlocked []engine.Symbol) error {
	type row struct {
		sym        engine.Symbol
		confidence float64
		observed   bool
		stat       engine.SymbolStat
	}
	rows := make([]row, 0, len(unlocked))
	for _, sym := range unlocked {
		stat, ok := symbols.Stat(sym)
		rows = append(rows, row{sym: sym, confidence: stat.Confidence, observed: ok && stat.TotalCount > 0, stat: stat})
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No symbols unlocked.")
		return err
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].confidence == rows[j].confidence {
			return rows[i].sym < rows[j].sym
		}
		return rows[i].confidence < rows[j].confidence
	})

	if _, err := fmt.Fprintln(w, "Per-Symbol"); err != nil {
		return err
	}
	headers := []string{"Symbol", "Confidence", "Avg (ms)", "Best (ms)", "Accuracy", "Samples"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		if !r.observed {
			tableRows = append(tableRows, []string{r.sym.Label(), "-", "-", "-", "-", "0"})
			continue
		}
		best := "-"
		if r.stat.SampleCount > 0 {
			best = fmt.Sprintf("%.0f", r.stat.BestTimeMs)
		}
		tableRows = append(tableRows, []string{
			r.sym.Label(),
			fmt.Sprintf("%.2f", r.confidence),
			fmt.Sprintf("%.0f", r.stat.FilteredTimeMs),
			best,
			fmt.Sprintf("%.1f%%", (1-engine.LaplaceRate(r.stat.ErrorCount, r.stat.TotalCount))*100),
			fmt.Sprintf("%d", r.stat.TotalCount),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderAnomalies prints every confirmed pair anomaly over the unlocked set,
// worst first, and the share of trigrams carrying signal beyond their parts.
func RenderAnomalies(w io.Writer, bigrams, trigrams *engine.PairStats, symbols *engine.SymbolStats, unlocked map[engine.Symbol]bool) error {
	anomalies := bigrams.ConfirmedAnomalies(unlocked, symbols, nil)
	anomalies = append(anomalies, trigrams.ConfirmedAnomalies(unlocked, symbols, bigrams)...)
	sort.SliceStable(anomalies, func(i, j int) bool { return anomalies[i].Percent > anomalies[j].Percent })

	if _, err := fmt.Fprintln(w, "Confirmed Difficulties"); err != nil {
		return err
	}
	if len(anomalies) == 0 {
		if _, err := fmt.Fprintln(w, "None. Pair transitions track their parts."); err != nil {
			return err
		}
		return writeGain(w, trigrams, bigrams, symbols)
	}

	headers := []string{"Pair", "Axis", "Worse By", "Samples"}
	tableRows := make([][]string, 0, len(anomalies))
	for _, a := range anomalies {
		samples := 0
		src := bigrams
		if len(a.Key.Symbols()) == 3 {
			src = trigrams
		}
		if stat, ok := src.Stat(a.Key); ok {
			samples = stat.SampleCount
		}
		tableRows = append(tableRows, []string{
			a.Key.Label(),
			a.Kind.String(),
			fmt.Sprintf("+%.0f%%", a.Percent),
			fmt.Sprintf("%d", samples),
		})
	}
	rightAlign := map[int]bool{2: true, 3: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return writeGain(w, trigrams, bigrams, symbols)
}

func writeGain(w io.Writer, trigrams, bigrams *engine.PairStats, symbols *engine.SymbolStats) error {
	gain := engine.MarginalGain(trigrams, bigrams, symbols)
	_, err := fmt.Fprintf(w, "Trigram marginal signal: %.0f%%\n\n", gain*100)
	return err
}

// RenderTree prints the branch progression table.
func RenderTree(w io.Writer, tree *engine.SkillTree, symbols *engine.SymbolStats) error {
	if _, err := fmt.Fprintln(w, "Skill Tree"); err != nil {
		return err
	}
	headers := []string{"Branch", "Status", "Level", "Mastered"}
	var tableRows [][]string
	for _, def := range tree.Branches() {
		bp := tree.BranchProgress(def.ID)
		level := "-"
		if bp.Status == engine.InProgress {
			level = fmt.Sprintf("%d/%d %s", bp.CurrentLevel+1, len(def.Levels), def.Levels[bp.CurrentLevel].Name)
		}
		confident, total := tree.ConfidentKeys(def.ID, symbols)
		tableRows = append(tableRows, []string{
			def.Name,
			bp.Status.String(),
			level,
			fmt.Sprintf("%d/%d", confident, total),
		})
	}
	rightAlign := map[int]bool{3: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
