package engine

import (
	"math"
	"sort"
)

// SymbolStat carries the rolling summaries for one symbol. Entries are
// created lazily on first observation; an absent entry means "never
// practiced", which callers must treat differently from a practiced symbol
// that currently scores a neutral value.
type SymbolStat struct {
	FilteredTimeMs float64
	BestTimeMs     float64
	Confidence     float64
	SampleCount    int
	ErrorCount     int
	TotalCount     int
	ErrorRateEMA   float64
}

// SymbolStats tracks per-symbol timing and error statistics.
type SymbolStats struct {
	params Params
	stats  map[Symbol]*SymbolStat
}

// NewSymbolStats returns an empty store with the given tuning.
func NewSymbolStats(params Params) *SymbolStats {
	return &SymbolStats{
		params: params,
		stats:  map[Symbol]*SymbolStat{},
	}
}

func newSymbolStat() *SymbolStat {
	return &SymbolStat{
		FilteredTimeMs: defaultUnseededFilteredTime,
		BestTimeMs:     math.MaxFloat64,
		ErrorRateEMA:   defaultNeutralErrorRate,
	}
}

func (s *SymbolStats) entry(sym Symbol) *SymbolStat {
	stat, ok := s.stats[sym]
	if !ok {
		stat = newSymbolStat()
		s.stats[sym] = stat
	}
	return stat
}

// UpdateCorrect records a correctly typed symbol and its keystroke time.
func (s *SymbolStats) UpdateCorrect(sym Symbol, timeMs float64) {
	stat := s.entry(sym)
	stat.SampleCount++
	stat.TotalCount++

	alpha := s.params.EMAAlpha
	if stat.SampleCount == 1 {
		stat.FilteredTimeMs = timeMs
	} else {
		stat.FilteredTimeMs = alpha*timeMs + (1-alpha)*stat.FilteredTimeMs
	}
	stat.BestTimeMs = math.Min(stat.BestTimeMs, stat.FilteredTimeMs)
	stat.Confidence = s.params.targetTimeMs() / stat.FilteredTimeMs

	// Correct stroke is a 0.0 error signal. The first observation replaces
	// the neutral prior outright.
	if stat.TotalCount == 1 {
		stat.ErrorRateEMA = 0
	} else {
		stat.ErrorRateEMA = (1 - alpha) * stat.ErrorRateEMA
	}
}

// UpdateError records a mistyped symbol. Timing and confidence are left
// untouched: there is no valid keystroke time for a wrong key.
func (s *SymbolStats) UpdateError(sym Symbol) {
	stat := s.entry(sym)
	stat.ErrorCount++
	stat.TotalCount++

	alpha := s.params.EMAAlpha
	if stat.TotalCount == 1 {
		stat.ErrorRateEMA = 1
	} else {
		stat.ErrorRateEMA = alpha + (1-alpha)*stat.ErrorRateEMA
	}
}

// Confidence returns the symbol's speed confidence, or 0 for a symbol that
// has never been typed correctly.
func (s *SymbolStats) Confidence(sym Symbol) float64 {
	if stat, ok := s.stats[sym]; ok {
		return stat.Confidence
	}
	return 0
}

// SmoothedErrorRate returns the EMA error rate, or the neutral prior for a
// symbol never observed.
func (s *SymbolStats) SmoothedErrorRate(sym Symbol) float64 {
	if stat, ok := s.stats[sym]; ok && stat.TotalCount > 0 {
		return stat.ErrorRateEMA
	}
	return defaultNeutralErrorRate
}

// Stat returns a copy of the symbol's stats and whether it has ever been
// observed.
func (s *SymbolStats) Stat(sym Symbol) (SymbolStat, bool) {
	if stat, ok := s.stats[sym]; ok {
		return *stat, true
	}
	return SymbolStat{}, false
}

// Observed reports whether the symbol has at least one recorded keystroke.
func (s *SymbolStats) Observed(sym Symbol) bool {
	stat, ok := s.stats[sym]
	return ok && stat.TotalCount > 0
}

// Restore installs a previously persisted stat, replacing any current entry.
func (s *SymbolStats) Restore(sym Symbol, stat SymbolStat) {
	copied := stat
	s.stats[sym] = &copied
}

// Symbols lists every observed symbol in ascending order.
func (s *SymbolStats) Symbols() []Symbol {
	out := make([]Symbol, 0, len(s.stats))
	for sym := range s.stats {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LaplaceRate is the add-one smoothed error rate over lifetime counters.
// It is strictly inside (0, 1) for any non-negative inputs.
func LaplaceRate(errors, total int) float64 {
	return (float64(errors) + 1) / (float64(total) + 2)
}
