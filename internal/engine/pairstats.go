package engine

import (
	"math"
	"sort"
	"strings"
)

// PairKey is an ordered run of 2 or 3 symbols typed consecutively within one
// whitespace-delimited window.
type PairKey string

// NewPairKey builds a key from its symbols in typing order.
func NewPairKey(syms ...Symbol) PairKey {
	var b strings.Builder
	for _, sym := range syms {
		b.WriteRune(rune(sym))
	}
	return PairKey(b.String())
}

// Symbols decomposes the key back into its constituent symbols.
func (k PairKey) Symbols() []Symbol {
	runes := []rune(string(k))
	out := make([]Symbol, len(runes))
	for i, r := range runes {
		out[i] = Symbol(r)
	}
	return out
}

// Label returns a printable representation of the pair.
func (k PairKey) Label() string {
	var b strings.Builder
	for _, sym := range k.Symbols() {
		b.WriteString(sym.Label())
	}
	return b.String()
}

// AnomalyKind distinguishes the two independent anomaly axes.
type AnomalyKind int

const (
	// AnomalyError means the pair fails more often than its parts predict.
	AnomalyError AnomalyKind = iota
	// AnomalySpeed means the pair is typed slower than its parts predict.
	AnomalySpeed
)

func (k AnomalyKind) String() string {
	if k == AnomalySpeed {
		return "speed"
	}
	return "error"
}

// PairStat carries the rolling summaries for one ordered pair. The error
// EMA uses the same mechanism as SymbolStat so cross-order comparisons stay
// mathematically comparable.
type PairStat struct {
	FilteredTimeMs  float64
	BestTimeMs      float64
	SampleCount     int
	ErrorCount      int
	HesitationCount int
	ErrorRateEMA    float64
	ErrorStreak     uint8
	SpeedStreak     uint8
	LastSeenSession uint32
}

// PairStats tracks per-pair statistics for a single order (2 or 3).
type PairStats struct {
	order  int
	params Params
	stats  map[PairKey]*PairStat
}

// NewPairStats returns an empty store for pairs of the given order.
func NewPairStats(order int, params Params) *PairStats {
	return &PairStats{
		order:  order,
		params: params,
		stats:  map[PairKey]*PairStat{},
	}
}

// Order returns the pair width this store tracks.
func (p *PairStats) Order() int { return p.order }

// Len returns the number of tracked pairs.
func (p *PairStats) Len() int { return len(p.stats) }

func newPairStat() *PairStat {
	return &PairStat{
		FilteredTimeMs: defaultUnseededFilteredTime,
		BestTimeMs:     math.MaxFloat64,
		ErrorRateEMA:   defaultNeutralErrorRate,
	}
}

// Update records one pair observation from extraction.
func (p *PairStats) Update(key PairKey, timeMs float64, correct, hesitation bool, session uint32) {
	stat, ok := p.stats[key]
	if !ok {
		stat = newPairStat()
		p.stats[key] = stat
	}
	stat.LastSeenSession = session
	stat.SampleCount++
	if !correct {
		stat.ErrorCount++
	}
	if hesitation {
		stat.HesitationCount++
	}

	alpha := p.params.EMAAlpha
	if stat.SampleCount == 1 {
		stat.FilteredTimeMs = timeMs
	} else {
		stat.FilteredTimeMs = alpha*timeMs + (1-alpha)*stat.FilteredTimeMs
	}
	stat.BestTimeMs = math.Min(stat.BestTimeMs, stat.FilteredTimeMs)

	signal := 0.0
	if !correct {
		signal = 1.0
	}
	if stat.SampleCount == 1 {
		stat.ErrorRateEMA = signal
	} else {
		stat.ErrorRateEMA = alpha*signal + (1-alpha)*stat.ErrorRateEMA
	}
}

// Stat returns a copy of a pair's stats and whether it has been observed.
func (p *PairStats) Stat(key PairKey) (PairStat, bool) {
	if stat, ok := p.stats[key]; ok {
		return *stat, true
	}
	return PairStat{}, false
}

// ErrorRate returns the pair's EMA error rate, or the neutral prior for an
// unobserved pair.
func (p *PairStats) ErrorRate(key PairKey) float64 {
	if stat, ok := p.stats[key]; ok && stat.SampleCount > 0 {
		return stat.ErrorRateEMA
	}
	return defaultNeutralErrorRate
}

// ErrorAnomalyRatio compares the pair's observed error rate to the rate
// expected from its parts under an independence assumption. For 3-symbol
// pairs the expectation also covers the constituent 2-symbol pairs: a
// trigram only signals new information when neither its characters nor its
// sub-pairs already explain it. Ratios above 1 mean the transition itself
// is the problem.
func (p *PairStats) ErrorAnomalyRatio(key PairKey, symbols *SymbolStats, sub *PairStats) float64 {
	syms := key.Symbols()
	survival := 1.0
	for _, sym := range syms {
		survival *= 1 - symbols.SmoothedErrorRate(sym)
	}
	expected := 1 - survival

	if p.order == 3 && sub != nil {
		left := sub.ErrorRate(NewPairKey(syms[0], syms[1]))
		right := sub.ErrorRate(NewPairKey(syms[1], syms[2]))
		expected = math.Max(expected, math.Max(left, right))
	}

	return p.ErrorRate(key) / math.Max(expected, defaultExpectedErrorFloor)
}

// SpeedAnomalyRatio compares the pair's filtered transition time to the sum
// of its constituents' filtered times in isolation, excluding the first
// symbol (the window time never includes it). The result is genuinely
// undefined, not zero, until every baseline symbol has enough samples for
// its EMA to escape the initial seed.
func (p *PairStats) SpeedAnomalyRatio(key PairKey, symbols *SymbolStats) (float64, bool) {
	stat, ok := p.stats[key]
	if !ok || stat.SampleCount == 0 {
		return 0, false
	}
	baseline := 0.0
	for _, sym := range key.Symbols()[1:] {
		st, ok := symbols.Stat(sym)
		if !ok || st.SampleCount < p.params.SpeedBaselineSamples {
			return 0, false
		}
		baseline += st.FilteredTimeMs
	}
	if baseline <= 0 {
		return 0, false
	}
	return stat.FilteredTimeMs / baseline, true
}

// UpdateStreaks advances both stability streaks for a pair after its stats
// were refreshed. A qualifying evaluation increments (saturating), a
// disqualifying one resets to zero, and an undefined evaluation holds the
// streak: an evaluation gap is not evidence either way.
func (p *PairStats) UpdateStreaks(key PairKey, symbols *SymbolStats, sub *PairStats) {
	stat, ok := p.stats[key]
	if !ok {
		return
	}

	if p.ErrorAnomalyRatio(key, symbols, sub) > p.params.AnomalyThreshold {
		stat.ErrorStreak = satAdd(stat.ErrorStreak)
	} else {
		stat.ErrorStreak = 0
	}

	if ratio, defined := p.SpeedAnomalyRatio(key, symbols); defined {
		if ratio > p.params.AnomalyThreshold {
			stat.SpeedStreak = satAdd(stat.SpeedStreak)
		} else {
			stat.SpeedStreak = 0
		}
	}
}

func satAdd(v uint8) uint8 {
	if v == math.MaxUint8 {
		return v
	}
	return v + 1
}

// Confirmed reports whether the pair's anomaly on the given axis has
// survived the stability gate.
func (p *PairStats) Confirmed(key PairKey, kind AnomalyKind) bool {
	stat, ok := p.stats[key]
	if !ok || stat.SampleCount < p.params.MinSamplesForFocus {
		return false
	}
	streak := stat.ErrorStreak
	if kind == AnomalySpeed {
		streak = stat.SpeedStreak
	}
	return streak >= p.params.StreakRequired
}

// PairAnomaly is one confirmed anomaly, eligible to drive focus selection.
type PairAnomaly struct {
	Key     PairKey
	Kind    AnomalyKind
	Ratio   float64
	Percent float64
}

// ConfirmedAnomalies collects every confirmed anomaly over unlocked symbols,
// deduplicated per pair: a pair confirmed on both axes keeps only its
// higher-percentage axis, with ties going to the error axis. Results are
// ordered worst-first, deterministically.
func (p *PairStats) ConfirmedAnomalies(unlocked map[Symbol]bool, symbols *SymbolStats, sub *PairStats) []PairAnomaly {
	keys := make([]PairKey, 0, len(p.stats))
	for key := range p.stats {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var out []PairAnomaly
	for _, key := range keys {
		if unlocked != nil && !pairUnlocked(key, unlocked) {
			continue
		}

		best, found := PairAnomaly{}, false
		if p.Confirmed(key, AnomalyError) {
			if ratio := p.ErrorAnomalyRatio(key, symbols, sub); ratio > p.params.AnomalyThreshold {
				best = PairAnomaly{Key: key, Kind: AnomalyError, Ratio: ratio, Percent: (ratio - 1) * 100}
				found = true
			}
		}
		if p.Confirmed(key, AnomalySpeed) {
			if ratio, defined := p.SpeedAnomalyRatio(key, symbols); defined && ratio > p.params.AnomalyThreshold {
				pct := (ratio - 1) * 100
				if !found || pct > best.Percent {
					best = PairAnomaly{Key: key, Kind: AnomalySpeed, Ratio: ratio, Percent: pct}
					found = true
				}
			}
		}
		if found {
			out = append(out, best)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Percent != out[j].Percent {
			return out[i].Percent > out[j].Percent
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind == AnomalyError
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// WorstConfirmedAnomaly returns the single highest-percentage confirmed
// anomaly, or false when nothing has survived the gate.
func (p *PairStats) WorstConfirmedAnomaly(unlocked map[Symbol]bool, symbols *SymbolStats, sub *PairStats) (PairAnomaly, bool) {
	anomalies := p.ConfirmedAnomalies(unlocked, symbols, sub)
	if len(anomalies) == 0 {
		return PairAnomaly{}, false
	}
	return anomalies[0], true
}

func pairUnlocked(key PairKey, unlocked map[Symbol]bool) bool {
	for _, sym := range key.Symbols() {
		if !unlocked[sym] {
			return false
		}
	}
	return true
}

// Prune trims the store to the configured cap by a weighted utility of
// recency, signal strength, and sample volume. The weighting preserves
// rare-but-informative pairs over frequent-but-unremarkable ones. Only the
// 3-symbol store is ever pruned; 2-symbol tables stay small on their own.
func (p *PairStats) Prune(totalSessions uint32, symbols *SymbolStats, sub *PairStats) {
	limit := p.params.MaxTrigramEntries
	if limit <= 0 || len(p.stats) <= limit {
		return
	}

	type scored struct {
		key     PairKey
		utility float64
	}
	entries := make([]scored, 0, len(p.stats))
	for key, stat := range p.stats {
		since := float64(0)
		if totalSessions > stat.LastSeenSession {
			since = float64(totalSessions - stat.LastSeenSession)
		}
		recency := 1 / (since + 1)
		signal := math.Min(p.ErrorAnomalyRatio(key, symbols, sub), defaultAnomalySignalCap)
		data := math.Log1p(float64(stat.SampleCount))
		utility := defaultPruneRecencyWeight*recency +
			defaultPruneSignalWeight*signal +
			defaultPruneDataWeight*data
		entries = append(entries, scored{key: key, utility: utility})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].utility != entries[j].utility {
			return entries[i].utility > entries[j].utility
		}
		return entries[i].key < entries[j].key
	})

	keep := make(map[PairKey]*PairStat, limit)
	for _, entry := range entries[:limit] {
		keep[entry.key] = p.stats[entry.key]
	}
	p.stats = keep
}

// Keys lists every tracked pair in ascending order.
func (p *PairStats) Keys() []PairKey {
	out := make([]PairKey, 0, len(p.stats))
	for key := range p.stats {
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarginalGain reports what fraction of well-sampled trigrams carry genuine
// signal beyond their constituent bigrams and characters. A low value means
// order-3 tracking is mostly redundant for this user.
func MarginalGain(trigrams, bigrams *PairStats, symbols *SymbolStats) float64 {
	qualified, withSignal := 0, 0
	for key, stat := range trigrams.stats {
		if stat.SampleCount < trigrams.params.MinSamplesForFocus {
			continue
		}
		qualified++
		if trigrams.ErrorAnomalyRatio(key, symbols, bigrams) > trigrams.params.AnomalyThreshold {
			withSignal++
		}
	}
	if qualified == 0 {
		return 0
	}
	return float64(withSignal) / float64(qualified)
}
