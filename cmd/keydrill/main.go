// Package main provides the CLI entrypoint for keydrill.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/keydrill/internal/config"
	"github.com/verte-zerg/keydrill/internal/engine"
	"github.com/verte-zerg/keydrill/internal/generator"
	"github.com/verte-zerg/keydrill/internal/model"
	"github.com/verte-zerg/keydrill/internal/stats"
	"github.com/verte-zerg/keydrill/internal/store"
	"github.com/verte-zerg/keydrill/internal/treeui"
	"github.com/verte-zerg/keydrill/internal/tui"
	"github.com/verte-zerg/keydrill/internal/wordlist"
)

const (
	defaultWords     = 25
	defaultTermWidth = 100
)

var (
	practiceWords int

	statsBranch string
	statsSince  string
	statsLast   int

	treeInteractive bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "keydrill",
		Short:         "Adaptive typing trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPractice(cmd, "")
		},
	}

	rootCmd.Flags().IntVar(&practiceWords, "words", defaultWords, "words per text")

	rootCmd.AddCommand(newDrillCmd())
	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newTreeCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func newDrillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drill <branch>",
		Short: "Practice one branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPractice(cmd, args[0])
		},
	}
	cmd.Flags().IntVar(&practiceWords, "words", defaultWords, "words per text")
	return cmd
}

func runPractice(cmd *cobra.Command, branchArg string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "words", &practiceWords, fileCfg.Practice.Words)
	if practiceWords <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	branch := branchArg
	if branch == "" && fileCfg.Practice.Branch != nil {
		branch = *fileCfg.Practice.Branch
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	eng, err := loadEngine(context.Background(), st, fileCfg.Params())
	if err != nil {
		return err
	}

	scope := engine.GlobalScope()
	if branch != "" {
		id, err := parseBranch(branch)
		if err != nil {
			return err
		}
		switch eng.Tree.BranchStatus(id) {
		case engine.InProgress, engine.Complete:
		case engine.Available:
			return fmt.Errorf("branch %q not started yet; run: keydrill start %s", branch, branch)
		default:
			return fmt.Errorf("branch %q is still locked; master more of the lowercase branch first", branch)
		}
		scope = engine.BranchScope(id)
	}

	cfg := model.PracticeConfig{Branch: branch, Words: practiceWords}
	corpus := wordlist.Corpus(config.DefaultWordListPath())
	m := tui.NewModel(cfg, st, eng, generator.New(), corpus, scope)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <branch>",
		Short: "Start an available branch",
		Args:  cobra.ExactArgs(1),
		RunE:  runStartCmd,
	}
}

func runStartCmd(cmd *cobra.Command, args []string) error {
	id, err := parseBranch(args[0])
	if err != nil {
		return err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	ctx := context.Background()
	eng, err := loadEngine(ctx, st, fileCfg.Params())
	if err != nil {
		return err
	}

	if !eng.Tree.StartBranch(id) {
		status := eng.Tree.BranchStatus(id)
		if status == engine.Locked {
			return fmt.Errorf("branch %q is still locked; master more of the lowercase branch first", args[0])
		}
		return fmt.Errorf("branch %q is already %s", args[0], status)
	}
	if err := st.SaveProgress(ctx, eng.Tree.Snapshot()); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Started branch %s. Drill it with: keydrill drill %s\n", args[0], args[0])
	return nil
}

func newTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show skill tree progression",
		Args:  cobra.NoArgs,
		RunE:  runTreeCmd,
	}
	cmd.Flags().BoolVarP(&treeInteractive, "interactive", "i", false, "browse the tree interactively")
	return cmd
}

func runTreeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	eng, err := loadEngine(context.Background(), st, fileCfg.Params())
	if err != nil {
		return err
	}

	if treeInteractive {
		program := tea.NewProgram(treeui.NewModel(eng), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run tree TUI: %w", err)
		}
		return nil
	}
	return stats.RenderTree(cmd.OutOrStdout(), eng.Tree, eng.Symbols)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show progress report",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsBranch, "branch", "", "branch filter")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsBranch != "" {
		if _, err := parseBranch(statsBranch); err != nil {
			return err
		}
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}

	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	ctx := context.Background()
	eng, err := loadEngine(ctx, st, fileCfg.Params())
	if err != nil {
		return err
	}

	cfg := model.StatsConfig{Branch: statsBranch, Since: sinceTime, Last: statsLast}
	report, err := stats.BuildReport(ctx, st, eng, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	return report.Render(cmd.OutOrStdout(), terminalWidth())
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// loadEngine rebuilds the full engine state by replaying the keystroke log.
// Saved symbol stats and branch progress are snapshots for cheap reads; the
// log is the source of truth.
func loadEngine(ctx context.Context, st *store.Store, params engine.Params) (*engine.Engine, error) {
	progress, err := st.LoadProgress(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	eng := engine.New(params, engine.DefaultBranches(), progress)
	history, err := st.LoadKeystrokeHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load keystroke history: %w", err)
	}
	eng.Replay(history)
	return eng, nil
}

func parseBranch(v string) (engine.BranchID, error) {
	id := engine.BranchID(strings.TrimSpace(strings.ToLower(v)))
	names := make([]string, 0, 6)
	for _, def := range engine.DefaultBranches() {
		if def.ID == id {
			return id, nil
		}
		names = append(names, string(def.ID))
	}
	return "", fmt.Errorf("unknown branch %q (available: %s)", v, strings.Join(names, ", "))
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultTermWidth
	}
	return width
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		// Best-effort close.
		fmt.Fprintf(os.Stderr, "failed to close db: %v\n", err)
	}
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return `# keydrill configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# words = 25                  # Words per text
# branch = "lowercase"        # Default branch scope for practice

[engine]
# target-cpm = 175            # Speed goal; confidence 1.0 at this pace
# ema-alpha = 0.1             # Smoothing factor for timing and error rates
# anomaly-threshold = 1.5     # Ratio a pair must exceed to count as anomalous
# streak-required = 3         # Consecutive qualifying sessions to confirm
# min-samples = 20            # Samples before a pair can be confirmed
# speed-baseline-samples = 10 # Samples before a symbol anchors speed baselines
# hesitation-floor-ms = 800   # Minimum hesitation cutoff
# hesitation-factor = 2.5     # Hesitation cutoff as a multiple of the median
# max-trigram-entries = 5000  # Trigram table cap before pruning
`
}
