package engine

import (
	"math"
	"testing"
)

func TestNeverPracticedDefaults(t *testing.T) {
	stats := NewSymbolStats(DefaultParams())
	if got := stats.Confidence('a'); got != 0 {
		t.Fatalf("confidence for unseen symbol = %v, want 0", got)
	}
	if got := stats.SmoothedErrorRate('a'); got != 0.5 {
		t.Fatalf("error rate for unseen symbol = %v, want neutral 0.5", got)
	}
	if stats.Observed('a') {
		t.Fatalf("unseen symbol reported as observed")
	}
}

func TestNeutralScoreDistinctFromUnseen(t *testing.T) {
	stats := NewSymbolStats(DefaultParams())
	// Drive a practiced symbol's EMA to exactly the neutral value. It must
	// still be distinguishable from a never-practiced symbol.
	stats.UpdateError('q')
	for stats.SmoothedErrorRate('q') > 0.5 {
		stats.UpdateCorrect('q', 300)
	}
	if !stats.Observed('q') {
		t.Fatalf("practiced symbol must report observed")
	}
	if stats.Observed('z') {
		t.Fatalf("unseen symbol must not report observed")
	}
}

func TestUpdateCorrectSeedsAndConverges(t *testing.T) {
	stats := NewSymbolStats(DefaultParams())
	stats.UpdateCorrect('e', 300)
	st, ok := stats.Stat('e')
	if !ok {
		t.Fatalf("stat missing after update")
	}
	if st.FilteredTimeMs != 300 {
		t.Fatalf("first sample should seed the EMA, got %v", st.FilteredTimeMs)
	}
	if st.SampleCount != 1 || st.TotalCount != 1 {
		t.Fatalf("counts = %d/%d, want 1/1", st.SampleCount, st.TotalCount)
	}

	for i := 0; i < 50; i++ {
		stats.UpdateCorrect('e', 200)
	}
	// Target time at 175 CPM is ~342.9ms, so 200ms typing is mastered.
	if conf := stats.Confidence('e'); conf <= 1.0 {
		t.Fatalf("fast typing should exceed target confidence, got %v", conf)
	}
}

func TestSlowTypingLowConfidence(t *testing.T) {
	stats := NewSymbolStats(DefaultParams())
	for i := 0; i < 50; i++ {
		stats.UpdateCorrect('a', 1000)
	}
	if conf := stats.Confidence('a'); conf >= 1.0 {
		t.Fatalf("slow typing should stay below target confidence, got %v", conf)
	}
}

func TestBestTimeTightensMonotonically(t *testing.T) {
	stats := NewSymbolStats(DefaultParams())
	stats.UpdateCorrect('a', 400)
	stats.UpdateCorrect('a', 200)
	first, _ := stats.Stat('a')
	stats.UpdateCorrect('a', 900)
	after, _ := stats.Stat('a')
	if after.BestTimeMs > first.BestTimeMs {
		t.Fatalf("best time loosened from %v to %v", first.BestTimeMs, after.BestTimeMs)
	}
}

func TestErrorUpdateLeavesTimingUntouched(t *testing.T) {
	stats := NewSymbolStats(DefaultParams())
	stats.UpdateCorrect('b', 250)
	before, _ := stats.Stat('b')
	stats.UpdateError('b')
	after, _ := stats.Stat('b')
	if after.FilteredTimeMs != before.FilteredTimeMs || after.Confidence != before.Confidence {
		t.Fatalf("error update changed timing: %+v -> %+v", before, after)
	}
	if after.ErrorCount != 1 || after.TotalCount != 2 {
		t.Fatalf("counts = %d errors / %d total, want 1/2", after.ErrorCount, after.TotalCount)
	}
}

func TestErrorRateEMASignals(t *testing.T) {
	stats := NewSymbolStats(DefaultParams())

	stats.UpdateCorrect('a', 200)
	if rate := stats.SmoothedErrorRate('a'); rate != 0 {
		t.Fatalf("first correct stroke should set rate to 0, got %v", rate)
	}

	stats.UpdateError('b')
	if rate := stats.SmoothedErrorRate('b'); rate != 1 {
		t.Fatalf("first error stroke should set rate to 1, got %v", rate)
	}
	for i := 0; i < 20; i++ {
		stats.UpdateCorrect('b', 200)
	}
	if rate := stats.SmoothedErrorRate('b'); rate >= 0.15 {
		t.Fatalf("rate should decay after 20 correct strokes, got %v", rate)
	}
}

func TestLaplaceRateStrictlyInsideUnitInterval(t *testing.T) {
	cases := []struct {
		errors, total int
	}{
		{0, 0},
		{0, 1000},
		{1000, 1000},
		{10, 100},
		{1, 1},
	}
	for _, tc := range cases {
		rate := LaplaceRate(tc.errors, tc.total)
		if rate <= 0 || rate >= 1 {
			t.Fatalf("LaplaceRate(%d, %d) = %v, want strictly inside (0, 1)", tc.errors, tc.total, rate)
		}
	}
	if got := LaplaceRate(10, 100); math.Abs(got-11.0/102.0) > 1e-12 {
		t.Fatalf("LaplaceRate(10, 100) = %v, want 11/102", got)
	}
}

func TestRestoreAndSymbolsOrdering(t *testing.T) {
	stats := NewSymbolStats(DefaultParams())
	stats.Restore('z', SymbolStat{FilteredTimeMs: 300, SampleCount: 5, TotalCount: 5})
	stats.Restore('a', SymbolStat{FilteredTimeMs: 200, SampleCount: 9, TotalCount: 9})

	syms := stats.Symbols()
	if len(syms) != 2 || syms[0] != 'a' || syms[1] != 'z' {
		t.Fatalf("symbols not sorted: %v", syms)
	}
	st, ok := stats.Stat('z')
	if !ok || st.SampleCount != 5 {
		t.Fatalf("restored stat missing or wrong: %+v ok=%v", st, ok)
	}
}
