package tui

import (
	"strings"
	"testing"

	"github.com/verte-zerg/keydrill/internal/engine"
)

func TestRenderFooterFormats(t *testing.T) {
	m := &Model{
		targetRunes: []rune("abcd"),
		inputRunes:  []rune("ab"),
		hasLast:     true,
		lastCPM:     212.4,
		lastAcc:     0.978,
		focus: engine.FocusSelection{
			Char: &engine.CharFocus{Symbol: 'e', Confidence: 0.4},
		},
	}
	out := m.renderFooter()
	if out == "" {
		t.Fatalf("expected footer output")
	}
	if !containsAll(out, []string{"focus e", "Progress 50%", "Last 212 CPM", "97.8%"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestRenderFooterShowsPairFocus(t *testing.T) {
	m := &Model{
		targetRunes: []rune("abcd"),
		focus: engine.FocusSelection{
			Char: &engine.CharFocus{Symbol: 'e', Confidence: 0.4},
			Pair: &engine.PairFocus{Key: engine.NewPairKey('t', 'h'), Kind: engine.AnomalyError, Percent: 120},
		},
	}
	out := m.renderFooter()
	if !containsAll(out, []string{"focus th", "error", "+120%"}) {
		t.Fatalf("pair focus missing from footer: %s", out)
	}
	if strings.Contains(out, "focus e") {
		t.Fatalf("pair focus should displace the char focus in the footer: %s", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
