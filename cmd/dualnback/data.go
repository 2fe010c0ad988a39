package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/dualnback/internal/game"
	"github.com/verte-zerg/dualnback/internal/generator"
	"github.com/verte-zerg/dualnback/internal/model"
	"github.com/verte-zerg/dualnback/internal/stats"
	"github.com/verte-zerg/dualnback/internal/statsui"
	"github.com/verte-zerg/dualnback/internal/symbols"
)

const (
	defaultSimSessions = 15
	simPressProb       = 0.2
)

var (
	historyNLevel      int
	historySince       string
	historyLast        int
	historyCurveWindow int
	historyPlain       bool
	historySession     string

	exportNLevel int
	exportSince  string
	exportOut    string

	simSessions int
	simAudioSet string
	simSeed     int64

	resetYes bool
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse session history",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyNLevel, "n", 0, "only sessions at this n-back level")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&historyCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print a text report instead of the interactive view")
	cmd.Flags().StringVar(&historySession, "session", "", "print the turns of one session by id")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	since, err := parseSince(historySince)
	if err != nil {
		return err
	}
	if historyCurveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}
	filter := model.HistoryFilter{
		NLevel:      historyNLevel,
		Since:       since,
		Last:        historyLast,
		CurveWindow: historyCurveWindow,
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	if historySession != "" {
		rec, ok, err := st.GetSession(ctx, historySession)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		if !ok {
			return fmt.Errorf("session %q not found", historySession)
		}
		return stats.RenderSessionDetail(cmd.OutOrStdout(), rec)
	}
	if historyPlain {
		report, err := stats.BuildReport(ctx, st, filter)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		return renderPlainReport(cmd.OutOrStdout(), report, filter.CurveWindow)
	}

	m := statsui.NewModel(st, filter)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func renderPlainReport(w io.Writer, report stats.Report, window int) error {
	if err := stats.RenderSummary(w, report.Sessions); err != nil {
		return err
	}
	if len(report.Sessions) == 0 {
		return nil
	}
	if err := stats.RenderLevelTable(w, report.Levels); err != nil {
		return err
	}
	if err := stats.RenderCurves(w, report.Sessions, window); err != nil {
		return err
	}
	return stats.RenderSessionTable(w, report.Sessions)
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export session history as CSV",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().IntVar(&exportNLevel, "n", 0, "only sessions at this n-back level")
	cmd.Flags().StringVar(&exportSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	since, err := parseSince(exportSince)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	sessions, err := st.ListSessions(context.Background(), model.HistoryFilter{NLevel: exportNLevel, Since: since})
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	if exportOut == "" {
		return stats.WriteCSV(cmd.OutOrStdout(), sessions)
	}
	if err := writeFileAtomic(exportOut, func(w io.Writer) error {
		return stats.WriteCSV(w, sessions)
	}); err != nil {
		return err
	}
	logErrf("Wrote %d sessions to %s\n", len(sessions), exportOut)
	return nil
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Fill history with generated sessions",
		Args:  cobra.NoArgs,
		RunE:  runSimulateCmd,
	}
	cmd.Flags().IntVar(&simSessions, "sessions", defaultSimSessions, "number of sessions to generate")
	cmd.Flags().StringVar(&simAudioSet, "audio-set", symbols.DefaultSet, "built-in sound set")
	cmd.Flags().Int64Var(&simSeed, "seed", 0, "random seed (0 = time based)")
	return cmd
}

func runSimulateCmd(cmd *cobra.Command, _ []string) error {
	if simSessions <= 0 {
		return fmt.Errorf("--sessions must be > 0")
	}
	syms, label, err := symbols.Resolve(simAudioSet, "")
	if err != nil {
		return err
	}
	seed := simSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(seed))
	gen := generator.NewWithSeed(rnd.Int63())

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	now := time.Now()
	saved := 0
	for i := 0; i < simSessions; i++ {
		settings := game.RandomSettings(rnd, label)
		rec, err := game.Simulate(gen, rnd, settings, syms, simPressProb, now.AddDate(0, 0, -i))
		if err != nil {
			logErrf("failed to generate session: %v\n", err)
			continue
		}
		if err := st.InsertSession(ctx, rec); err != nil {
			logErrf("failed to save generated session: %v\n", err)
			continue
		}
		saved++
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Generated %d sessions\n", saved); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all sessions and saved settings",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	if !resetYes {
		ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), "Delete all sessions and saved settings?")
		if err != nil {
			return err
		}
		if !ok {
			logErrln("Aborted.")
			return nil
		}
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	if err := st.ClearAll(context.Background()); err != nil {
		return fmt.Errorf("failed to clear data: %w", err)
	}
	logErrln("All data deleted.")
	return nil
}

func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	if _, err := fmt.Fprintf(out, "%s [y/N] ", question); err != nil {
		return false, err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func parseSince(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --since value: %w", err)
	}
	return &parsed, nil
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "export-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := write(writer); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
