package stats

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/keydrill/internal/engine"
	"github.com/verte-zerg/keydrill/internal/model"
	"github.com/verte-zerg/keydrill/internal/store"
)

func TestBuildReportAndRender(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "keydrill.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	keys := []engine.Keystroke{
		{Symbol: 't', TimeMs: 300, Correct: true},
		{Symbol: 'e', TimeMs: 280, Correct: true},
		{Symbol: 'a', TimeMs: 350, Correct: false},
	}
	for i := 0; i < 3; i++ {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Minute)
		end := start.Add(30 * time.Second)
		stats := model.SessionStats{
			StartedAt:     start,
			EndedAt:       end,
			Branch:        "lowercase",
			Focus:         "e",
			CorrectKeys:   2,
			IncorrectKeys: 1,
			DurationMs:    end.Sub(start).Milliseconds(),
		}
		if _, err := st.InsertSession(ctx, stats, keys); err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}

	history, err := st.LoadKeystrokeHistory(ctx)
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	eng := engine.New(engine.DefaultParams(), engine.DefaultBranches(), nil)
	eng.Replay(history)

	report, err := BuildReport(ctx, st, eng, model.StatsConfig{Last: 2})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(report.Sessions))
	}

	var b strings.Builder
	if err := report.Render(&b, 80); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()
	for _, want := range []string{"Sessions: 2", "Per-Symbol", "Confirmed Difficulties", "Skill Tree"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q in:\n%s", want, out)
		}
	}
}
