// Package main provides the CLI entrypoint for dualnback.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/dualnback/internal/config"
	"github.com/verte-zerg/dualnback/internal/game"
	"github.com/verte-zerg/dualnback/internal/generator"
	"github.com/verte-zerg/dualnback/internal/model"
	"github.com/verte-zerg/dualnback/internal/store"
	"github.com/verte-zerg/dualnback/internal/symbols"
	"github.com/verte-zerg/dualnback/internal/tui"
)

const (
	defaultNLevel        = 2
	defaultSpeedMs       = 2000
	defaultSessionLength = 30
	defaultCurveWindow   = 10
	fileSetPrefix        = "file:"
)

var (
	dbPath string

	playNLevel    int
	playSpeedMs   int
	playLength    int
	playAudioSet  string
	playAudioFile string
	playSeed      int64
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dualnback",
		Short:         "Dual n-back working memory trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "path to the history database")
	rootCmd.Flags().IntVar(&playNLevel, "n", defaultNLevel, "n-back level")
	rootCmd.Flags().IntVar(&playSpeedMs, "speed", defaultSpeedMs, "milliseconds per turn")
	rootCmd.Flags().IntVar(&playLength, "length", defaultSessionLength, fmt.Sprintf("turns per session (%d-%d)", game.MinSessionLength, game.MaxSessionLength))
	rootCmd.Flags().StringVar(&playAudioSet, "audio-set", symbols.DefaultSet, "built-in sound set ("+strings.Join(symbols.Names(), ", ")+")")
	rootCmd.Flags().StringVar(&playAudioFile, "audio-file", "", "file with one sound symbol per line (overrides --audio-set)")
	rootCmd.Flags().Int64Var(&playSeed, "seed", 0, "random seed for reproducible sequences (0 = random)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSetsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newResetCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	stored, hasStored, err := st.LoadSettings(ctx)
	if err != nil {
		logErrf("failed to load saved settings: %v\n", err)
		hasStored = false
	}
	if hasStored {
		applyStoredSettings(cmd, stored)
	}
	cfg, syms, err := resolvePlayConfig(cmd, fileCfg)
	if err != nil {
		return err
	}
	if err := st.SaveSettings(ctx, cfg.Settings); err != nil {
		logErrf("failed to save settings: %v\n", err)
	}

	gen := generator.New()
	if playSeed != 0 {
		gen = generator.NewWithSeed(playSeed)
	}
	m := tui.NewModel(cfg, st, gen, syms)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// applyStoredSettings fills flags the user did not pass with the settings
// saved by the previous run. The config file is applied afterwards and wins.
func applyStoredSettings(cmd *cobra.Command, stored model.Settings) {
	if stored.NLevel > 0 {
		applyIntConfig(cmd, "n", &playNLevel, &stored.NLevel)
	}
	if stored.SpeedMs > 0 {
		applyIntConfig(cmd, "speed", &playSpeedMs, &stored.SpeedMs)
	}
	if stored.SessionLength > 0 {
		applyIntConfig(cmd, "length", &playLength, &stored.SessionLength)
	}
	if cmd.Flags().Changed("audio-set") || cmd.Flags().Changed("audio-file") {
		return
	}
	if path, ok := strings.CutPrefix(stored.AudioSet, fileSetPrefix); ok {
		playAudioFile = path
	} else if stored.AudioSet != "" {
		playAudioSet = stored.AudioSet
	}
}

func resolvePlayConfig(cmd *cobra.Command, fileCfg config.FileConfig) (model.Config, []string, error) {
	gc := fileCfg.Game
	applyIntConfig(cmd, "n", &playNLevel, gc.NLevel)
	applyIntConfig(cmd, "speed", &playSpeedMs, gc.SpeedMs)
	applyIntConfig(cmd, "length", &playLength, gc.SessionLength)
	if !cmd.Flags().Changed("audio-set") && !cmd.Flags().Changed("audio-file") {
		applyStringConfig(cmd, "audio-set", &playAudioSet, gc.AudioSet)
		applyStringConfig(cmd, "audio-file", &playAudioFile, gc.AudioFile)
		if gc.AudioSet != nil && gc.AudioFile == nil {
			playAudioFile = ""
		}
	}

	keys := model.DefaultKeyBindings()
	if gc.PositionKeys != nil {
		keys.Position = *gc.PositionKeys
	}
	if gc.AudioKeys != nil {
		keys.Audio = *gc.AudioKeys
	}

	settings := model.Settings{
		NLevel:        playNLevel,
		SpeedMs:       playSpeedMs,
		SessionLength: game.ClampLength(playLength),
	}
	if err := validateSettings(settings); err != nil {
		return model.Config{}, nil, err
	}
	if err := validateKeys(keys); err != nil {
		return model.Config{}, nil, err
	}
	syms, label, err := symbols.Resolve(playAudioSet, playAudioFile)
	if err != nil {
		return model.Config{}, nil, err
	}
	settings.AudioSet = label
	return model.Config{Settings: settings, AudioLabel: label, Keys: keys}, syms, nil
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

func newSetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sets",
		Short: "List built-in sound sets",
		Args:  cobra.NoArgs,
		RunE:  runSetsCmd,
	}
}

func runSetsCmd(cmd *cobra.Command, _ []string) error {
	for _, name := range symbols.Names() {
		set, err := symbols.Set(name)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", name, strings.Join(set, " ")); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func openStore() (*store.Store, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
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
	keys := model.DefaultKeyBindings()
	return fmt.Sprintf(`# dualnback configuration
# Uncomment a value to enable it. CLI flags override config values,
# config values override the settings saved by the last session.

[game]
# n-level = %d              # N-back level
# speed-ms = %d          # Milliseconds per turn
# session-length = %d       # Turns per session (%d-%d)
# audio-set = %q      # One of: %s
# audio-file = ""           # File with one sound symbol per line
# position-keys = %s
# audio-keys = %s
`,
		defaultNLevel,
		defaultSpeedMs,
		defaultSessionLength,
		game.MinSessionLength,
		game.MaxSessionLength,
		symbols.DefaultSet,
		strings.Join(symbols.Names(), ", "),
		tomlList(keys.Position),
		tomlList(keys.Audio),
	)
}

func tomlList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func validateSettings(s model.Settings) error {
	if s.NLevel < 1 {
		return fmt.Errorf("--n must be >= 1")
	}
	if s.NLevel >= s.SessionLength {
		return fmt.Errorf("--n must be smaller than the session length (%d)", s.SessionLength)
	}
	if s.SpeedMs <= 0 {
		return fmt.Errorf("--speed must be > 0")
	}
	return nil
}

func validateKeys(keys model.KeyBindings) error {
	if len(keys.Position) == 0 || len(keys.Audio) == 0 {
		return fmt.Errorf("position-keys and audio-keys must not be empty")
	}
	seen := map[string]struct{}{}
	for _, k := range keys.Position {
		seen[k] = struct{}{}
	}
	for _, k := range keys.Audio {
		if _, ok := seen[k]; ok {
			return fmt.Errorf("key %q is bound to both position and audio", k)
		}
	}
	for _, k := range append(append([]string{}, keys.Position...), keys.Audio...) {
		switch k {
		case "esc", "ctrl+c":
			return fmt.Errorf("key %q is reserved", k)
		}
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
