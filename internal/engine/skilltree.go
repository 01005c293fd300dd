package engine

import "sort"

// BranchID names one branch of the skill tree.
type BranchID string

// Built-in branch identifiers.
const (
	BranchLowercase   BranchID = "lowercase"
	BranchCapitals    BranchID = "capitals"
	BranchNumbers     BranchID = "numbers"
	BranchProsePunct  BranchID = "prose_punctuation"
	BranchWhitespace  BranchID = "whitespace"
	BranchCodeSymbols BranchID = "code_symbols"
)

// BranchStatus is the progression state of one branch.
type BranchStatus int

const (
	Locked BranchStatus = iota
	Available
	InProgress
	Complete
)

func (s BranchStatus) String() string {
	switch s {
	case Available:
		return "available"
	case InProgress:
		return "in progress"
	case Complete:
		return "complete"
	default:
		return "locked"
	}
}

// ParseBranchStatus converts a persisted status string back.
func ParseBranchStatus(v string) BranchStatus {
	switch v {
	case "available":
		return Available
	case "in progress":
		return InProgress
	case "complete":
		return Complete
	default:
		return Locked
	}
}

// Level is an ordered set of symbols unlocked together.
type Level struct {
	Name string
	Keys []Symbol
}

// BranchDef is the immutable definition of a branch. A symbol may appear in
// more than one branch; its confidence is tracked once and consulted by
// every branch that contains it.
type BranchDef struct {
	ID     BranchID
	Name   string
	Levels []Level
}

func symbols(s string) []Symbol {
	runes := []rune(s)
	out := make([]Symbol, len(runes))
	for i, r := range runes {
		out[i] = Symbol(r)
	}
	return out
}

// DefaultBranches returns the stock branch/level definitions. The first
// branch is the root: it starts in progress, and completing it is what
// makes every other branch available.
func DefaultBranches() []BranchDef {
	return []BranchDef{
		{
			ID:   BranchLowercase,
			Name: "Lowercase a-z",
			Levels: []Level{
				{Name: "Core", Keys: symbols("etaoin")},
				{Name: "Frequent", Keys: symbols("shrd")},
				{Name: "Common", Keys: symbols("lcum")},
				{Name: "Moderate", Keys: symbols("wfgy")},
				{Name: "Uncommon", Keys: symbols("pbvk")},
				{Name: "Rare", Keys: symbols("jxqz")},
			},
		},
		{
			ID:   BranchCapitals,
			Name: "Capitals A-Z",
			Levels: []Level{
				{Name: "Sentence Capitals", Keys: symbols("TIASWHBM")},
				{Name: "Name Capitals", Keys: symbols("JDRCENPLFG")},
				{Name: "Remaining Capitals", Keys: symbols("OUKVYXQZ")},
			},
		},
		{
			ID:   BranchNumbers,
			Name: "Numbers 0-9",
			Levels: []Level{
				{Name: "Common Digits", Keys: symbols("12345")},
				{Name: "All Digits", Keys: symbols("06789")},
			},
		},
		{
			ID:   BranchProsePunct,
			Name: "Prose Punctuation",
			Levels: []Level{
				{Name: "Essential", Keys: symbols(".,'")},
				{Name: "Common", Keys: symbols(`;:"-`)},
				{Name: "Expressive", Keys: symbols("?!()")},
			},
		},
		{
			ID:   BranchWhitespace,
			Name: "Whitespace",
			Levels: []Level{
				{Name: "Enter/Return", Keys: []Symbol{Enter}},
				{Name: "Tab/Indent", Keys: []Symbol{Tab}},
			},
		},
		{
			ID:   BranchCodeSymbols,
			Name: "Code Symbols",
			Levels: []Level{
				{Name: "Arithmetic & Assignment", Keys: symbols("=+*/-")},
				{Name: "Grouping", Keys: symbols("{}[]<>")},
				{Name: "Logic & Reference", Keys: symbols("&|^~!")},
				{Name: "Special", Keys: symbols("@#$%_\\`")},
			},
		},
	}
}

// BranchProgress is the mutable per-branch state.
type BranchProgress struct {
	Status       BranchStatus
	CurrentLevel int
}

// Progress is the persisted form of the tree's mutable state.
type Progress map[BranchID]BranchProgress

// Scope selects which branches contribute symbols and focus candidates. The
// zero value is the global scope.
type Scope struct {
	Branch BranchID
}

// GlobalScope covers every in-progress and complete branch.
func GlobalScope() Scope { return Scope{} }

// BranchScope covers one branch plus the root branch as background.
func BranchScope(id BranchID) Scope { return Scope{Branch: id} }

// Changeset reports the transitions produced by one Update call. Every flag
// is true only on the call where the condition first became true.
type Changeset struct {
	NewlyAvailable      []BranchID
	NewlyCompleted      []BranchID
	AllSymbolsUnlocked  bool
	AllBranchesComplete bool
}

// SkillTree combines immutable branch definitions with mutable progress and
// derives branch statuses and unlocked-symbol sets from symbol confidences.
type SkillTree struct {
	defs            []BranchDef
	progress        map[BranchID]*BranchProgress
	totalUniqueKeys int
}

// NewSkillTree builds a tree over the given definitions. The first
// definition is the root branch. When saved progress is nil, the root
// starts InProgress and everything else Locked; a progress entry exists for
// every defined branch from the start.
func NewSkillTree(defs []BranchDef, saved Progress) *SkillTree {
	unique := map[Symbol]struct{}{}
	for _, def := range defs {
		for _, level := range def.Levels {
			for _, key := range level.Keys {
				unique[key] = struct{}{}
			}
		}
	}

	progress := make(map[BranchID]*BranchProgress, len(defs))
	for i, def := range defs {
		bp := BranchProgress{Status: Locked}
		if i == 0 {
			bp.Status = InProgress
		}
		if saved != nil {
			if loaded, ok := saved[def.ID]; ok {
				bp = loaded
			}
		}
		if bp.CurrentLevel >= len(def.Levels) {
			bp.CurrentLevel = len(def.Levels) - 1
		}
		copied := bp
		progress[def.ID] = &copied
	}

	return &SkillTree{
		defs:            defs,
		progress:        progress,
		totalUniqueKeys: len(unique),
	}
}

// Branches returns the branch definitions in order.
func (t *SkillTree) Branches() []BranchDef { return t.defs }

func (t *SkillTree) root() BranchDef { return t.defs[0] }

func (t *SkillTree) def(id BranchID) (BranchDef, bool) {
	for _, def := range t.defs {
		if def.ID == id {
			return def, true
		}
	}
	return BranchDef{}, false
}

// BranchStatus returns the branch's current status.
func (t *SkillTree) BranchStatus(id BranchID) BranchStatus {
	if bp, ok := t.progress[id]; ok {
		return bp.Status
	}
	return Locked
}

// BranchProgress returns a copy of the branch's progress.
func (t *SkillTree) BranchProgress(id BranchID) BranchProgress {
	if bp, ok := t.progress[id]; ok {
		return *bp
	}
	return BranchProgress{Status: Locked}
}

// StartBranch transitions an Available branch to InProgress. This is the
// only way a branch starts: there is no silent auto-start. It reports
// whether the transition happened.
func (t *SkillTree) StartBranch(id BranchID) bool {
	bp, ok := t.progress[id]
	if !ok || bp.Status != Available {
		return false
	}
	bp.Status = InProgress
	bp.CurrentLevel = 0
	return true
}

// Snapshot returns the mutable state for persistence.
func (t *SkillTree) Snapshot() Progress {
	out := make(Progress, len(t.progress))
	for id, bp := range t.progress {
		out[id] = *bp
	}
	return out
}

func levelConfident(level Level, stats *SymbolStats) bool {
	for _, key := range level.Keys {
		if stats.Confidence(key) < 1.0 {
			return false
		}
	}
	return true
}

func branchConfident(def BranchDef, stats *SymbolStats) bool {
	for _, level := range def.Levels {
		if !levelConfident(level, stats) {
			return false
		}
	}
	return true
}

// Update recomputes every derived status from the current confidences and
// returns the changeset. Level advancement and completion are re-derived
// from scratch on every call; the changeset flags fire only on the call
// where a condition transitions, which requires the before/after snapshot
// comparison below rather than the after-state alone.
func (t *SkillTree) Update(stats *SymbolStats) Changeset {
	before := make(map[BranchID]BranchStatus, len(t.defs))
	for _, def := range t.defs {
		before[def.ID] = t.progress[def.ID].Status
	}
	allUnlockedBefore := t.UnlockedCount() == t.totalUniqueKeys
	allCompleteBefore := t.allComplete()

	for _, def := range t.defs {
		bp := t.progress[def.ID]
		if bp.Status != InProgress {
			continue
		}
		for bp.CurrentLevel < len(def.Levels)-1 && levelConfident(def.Levels[bp.CurrentLevel], stats) {
			bp.CurrentLevel++
		}
		if branchConfident(def, stats) {
			bp.Status = Complete
			bp.CurrentLevel = len(def.Levels) - 1
		}
	}

	if t.progress[t.root().ID].Status == Complete {
		for _, def := range t.defs[1:] {
			bp := t.progress[def.ID]
			if bp.Status == Locked {
				bp.Status = Available
			}
		}
	}

	var cs Changeset
	for _, def := range t.defs {
		now := t.progress[def.ID].Status
		if now == before[def.ID] {
			continue
		}
		switch now {
		case Available:
			cs.NewlyAvailable = append(cs.NewlyAvailable, def.ID)
		case Complete:
			cs.NewlyCompleted = append(cs.NewlyCompleted, def.ID)
		}
	}
	cs.AllSymbolsUnlocked = !allUnlockedBefore && t.UnlockedCount() == t.totalUniqueKeys
	cs.AllBranchesComplete = !allCompleteBefore && t.allComplete()
	return cs
}

func (t *SkillTree) allComplete() bool {
	for _, def := range t.defs {
		if t.progress[def.ID].Status != Complete {
			return false
		}
	}
	return true
}

func (t *SkillTree) branchUnlocked(def BranchDef) []Symbol {
	bp := t.progress[def.ID]
	switch bp.Status {
	case Complete:
		var out []Symbol
		for _, level := range def.Levels {
			out = append(out, level.Keys...)
		}
		return out
	case InProgress:
		var out []Symbol
		for i, level := range def.Levels {
			if i > bp.CurrentLevel {
				break
			}
			out = append(out, level.Keys...)
		}
		return out
	default:
		return nil
	}
}

// UnlockedSymbols returns the deduplicated unlocked set for a scope, in
// definition order. A branch scope always includes the root branch's
// unlocked symbols as background material.
func (t *SkillTree) UnlockedSymbols(scope Scope) []Symbol {
	seen := map[Symbol]struct{}{}
	var out []Symbol
	add := func(keys []Symbol) {
		for _, key := range keys {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, key)
		}
	}

	if scope.Branch == "" {
		for _, def := range t.defs {
			add(t.branchUnlocked(def))
		}
		return out
	}

	add(t.branchUnlocked(t.root()))
	if def, ok := t.def(scope.Branch); ok && def.ID != t.root().ID {
		add(t.branchUnlocked(def))
	}
	return out
}

// UnlockedSet returns the scope's unlocked symbols as a set.
func (t *SkillTree) UnlockedSet(scope Scope) map[Symbol]bool {
	set := map[Symbol]bool{}
	for _, sym := range t.UnlockedSymbols(scope) {
		set[sym] = true
	}
	return set
}

// UnlockedCount is the number of unique unlocked symbols across the tree.
func (t *SkillTree) UnlockedCount() int {
	return len(t.UnlockedSymbols(GlobalScope()))
}

// TotalUniqueKeys is the number of unique symbols across all definitions.
func (t *SkillTree) TotalUniqueKeys() int { return t.totalUniqueKeys }

// Complexity scales scoring by unlocked coverage, floored so early sessions
// still score.
func (t *SkillTree) Complexity() float64 {
	c := float64(t.UnlockedCount()) / float64(t.totalUniqueKeys)
	if c < 0.1 {
		return 0.1
	}
	return c
}

// FocusedSymbol picks the weakest below-target symbol among the scope's
// focus candidates. Within an in-progress branch only the current level's
// symbols are candidates: earlier levels stay in generated content for
// reinforcement but never become the focus target. Complete branches keep
// all their symbols as candidates so decayed mastery can regain focus.
func (t *SkillTree) FocusedSymbol(scope Scope, stats *SymbolStats) (Symbol, bool) {
	var candidates []Symbol
	if scope.Branch == "" {
		for _, def := range t.defs {
			candidates = append(candidates, t.focusCandidates(def)...)
		}
	} else if def, ok := t.def(scope.Branch); ok {
		bp := t.progress[def.ID]
		if bp.Status != InProgress {
			return 0, false
		}
		candidates = def.Levels[bp.CurrentLevel].Keys
	}
	return weakestSymbol(candidates, stats)
}

func (t *SkillTree) focusCandidates(def BranchDef) []Symbol {
	bp := t.progress[def.ID]
	switch bp.Status {
	case InProgress:
		return def.Levels[bp.CurrentLevel].Keys
	case Complete:
		var out []Symbol
		for _, level := range def.Levels {
			out = append(out, level.Keys...)
		}
		return out
	default:
		return nil
	}
}

func weakestSymbol(candidates []Symbol, stats *SymbolStats) (Symbol, bool) {
	var weakest Symbol
	best := 1.0
	found := false
	for _, key := range candidates {
		conf := stats.Confidence(key)
		if conf >= 1.0 {
			continue
		}
		if !found || conf < best {
			weakest = key
			best = conf
			found = true
		}
	}
	return weakest, found
}

// ConfidentKeys counts the branch's symbols at or above target confidence.
func (t *SkillTree) ConfidentKeys(id BranchID, stats *SymbolStats) (confident, total int) {
	def, ok := t.def(id)
	if !ok {
		return 0, 0
	}
	for _, level := range def.Levels {
		for _, key := range level.Keys {
			total++
			if stats.Confidence(key) >= 1.0 {
				confident++
			}
		}
	}
	return confident, total
}

// BranchIDs lists the defined branches in order.
func (t *SkillTree) BranchIDs() []BranchID {
	out := make([]BranchID, len(t.defs))
	for i, def := range t.defs {
		out[i] = def.ID
	}
	return out
}

// SortBranchIDs orders ids by definition order, for stable reporting.
func (t *SkillTree) SortBranchIDs(ids []BranchID) {
	order := map[BranchID]int{}
	for i, def := range t.defs {
		order[def.ID] = i
	}
	sort.Slice(ids, func(i, j int) bool { return order[ids[i]] < order[ids[j]] })
}
