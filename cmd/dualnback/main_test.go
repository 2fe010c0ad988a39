package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/dualnback/internal/config"
	"github.com/verte-zerg/dualnback/internal/model"
	"github.com/verte-zerg/dualnback/internal/store"
)

func parsedRootCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := newRootCmd()
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func listPtr(v ...string) *[]string { return &v }

func TestSettingsPrecedence(t *testing.T) {
	cmd := parsedRootCmd(t, "--n", "4")
	applyStoredSettings(cmd, model.Settings{NLevel: 3, SpeedMs: 1500, SessionLength: 25, AudioSet: "ganzhi"})
	fileCfg := config.FileConfig{Game: config.GameConfig{
		NLevel:  intPtr(5),
		SpeedMs: intPtr(1200),
	}}

	cfg, syms, err := resolvePlayConfig(cmd, fileCfg)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := model.Settings{NLevel: 4, SpeedMs: 1200, SessionLength: 25, AudioSet: "ganzhi"}
	if cfg.Settings != want {
		t.Fatalf("expected %+v, got %+v", want, cfg.Settings)
	}
	if cfg.AudioLabel != "ganzhi" || len(syms) == 0 || syms[0] != "jia" {
		t.Fatalf("unexpected symbols %q: %v", cfg.AudioLabel, syms)
	}
	if strings.Join(cfg.Keys.Position, ",") != strings.Join(model.DefaultKeyBindings().Position, ",") {
		t.Fatalf("expected default keys, got %v", cfg.Keys)
	}
}

func TestStoredFileSetRestoresAudioFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sounds.txt")
	if err := os.WriteFile(path, []byte("do\nre\nmi\n"), 0o644); err != nil {
		t.Fatalf("write symbols: %v", err)
	}
	cmd := parsedRootCmd(t)
	applyStoredSettings(cmd, model.Settings{AudioSet: fileSetPrefix + path})

	cfg, syms, err := resolvePlayConfig(cmd, config.FileConfig{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.AudioLabel != fileSetPrefix+path || len(syms) != 3 {
		t.Fatalf("expected file symbols, got %q %v", cfg.AudioLabel, syms)
	}

	// An audio-set in the config file replaces the remembered file.
	cmd = parsedRootCmd(t)
	applyStoredSettings(cmd, model.Settings{AudioSet: fileSetPrefix + path})
	cfg, _, err = resolvePlayConfig(cmd, config.FileConfig{Game: config.GameConfig{AudioSet: strPtr("nonconfusing")}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.AudioLabel != "nonconfusing" {
		t.Fatalf("expected config set to win, got %q", cfg.AudioLabel)
	}
}

func TestResolveClampsLengthAndRejectsBadLevel(t *testing.T) {
	cmd := parsedRootCmd(t, "--length", "500")
	cfg, _, err := resolvePlayConfig(cmd, config.FileConfig{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Settings.SessionLength != 100 {
		t.Fatalf("expected length clamped to 100, got %d", cfg.Settings.SessionLength)
	}

	cmd = parsedRootCmd(t, "--n", "10", "--length", "10")
	if _, _, err := resolvePlayConfig(cmd, config.FileConfig{}); err == nil {
		t.Fatalf("expected error when n equals the session length")
	}
}

func TestResolveCustomKeys(t *testing.T) {
	cmd := parsedRootCmd(t)
	fileCfg := config.FileConfig{Game: config.GameConfig{
		PositionKeys: listPtr("f"),
		AudioKeys:    listPtr("j"),
	}}
	cfg, _, err := resolvePlayConfig(cmd, fileCfg)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(cfg.Keys.Position) != 1 || cfg.Keys.Position[0] != "f" || cfg.Keys.Audio[0] != "j" {
		t.Fatalf("unexpected keys: %+v", cfg.Keys)
	}
}

func TestValidateKeys(t *testing.T) {
	cases := []struct {
		name string
		keys model.KeyBindings
		ok   bool
	}{
		{"defaults", model.DefaultKeyBindings(), true},
		{"empty", model.KeyBindings{Position: []string{"p"}}, false},
		{"overlap", model.KeyBindings{Position: []string{"p", "x"}, Audio: []string{"x"}}, false},
		{"reserved", model.KeyBindings{Position: []string{"esc"}, Audio: []string{"a"}}, false},
	}
	for _, tc := range cases {
		err := validateKeys(tc.keys)
		if (err == nil) != tc.ok {
			t.Fatalf("%s: unexpected result %v", tc.name, err)
		}
	}
}

func TestValidateSettings(t *testing.T) {
	if err := validateSettings(model.Settings{NLevel: 2, SpeedMs: 2000, SessionLength: 20}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := validateSettings(model.Settings{NLevel: 0, SpeedMs: 2000, SessionLength: 20}); err == nil {
		t.Fatalf("expected error for n=0")
	}
	if err := validateSettings(model.Settings{NLevel: 2, SpeedMs: 0, SessionLength: 20}); err == nil {
		t.Fatalf("expected error for zero speed")
	}
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	ok, err := confirm(strings.NewReader("Yes\n"), &out, "Delete?")
	if err != nil || !ok {
		t.Fatalf("expected yes, got ok=%v err=%v", ok, err)
	}
	if out.String() != "Delete? [y/N] " {
		t.Fatalf("unexpected prompt %q", out.String())
	}
	for _, answer := range []string{"", "n\n", "maybe\n"} {
		ok, err := confirm(strings.NewReader(answer), &out, "Delete?")
		if err != nil || ok {
			t.Fatalf("answer %q: expected no, got ok=%v err=%v", answer, ok, err)
		}
	}
}

func TestParseSince(t *testing.T) {
	since, err := parseSince("")
	if err != nil || since != nil {
		t.Fatalf("expected nil for empty value, got %v (%v)", since, err)
	}
	since, err = parseSince("2026-03-04")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if since.Year() != 2026 || since.Month() != time.March || since.Day() != 4 {
		t.Fatalf("unexpected date: %v", since)
	}
	if _, err := parseSince("03/04/2026"); err == nil {
		t.Fatalf("expected error for bad date")
	}
}

func TestSimulateExportAndReset(t *testing.T) {
	dir := t.TempDir()
	dbFile := filepath.Join(dir, "history.db")
	csvFile := filepath.Join(dir, "out", "history.csv")

	root := newRootCmd()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{"simulate", "--db", dbFile, "--sessions", "3", "--seed", "7"})
	if err := root.Execute(); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if !strings.Contains(stdout.String(), "Generated 3 sessions") {
		t.Fatalf("unexpected output %q", stdout.String())
	}

	root = newRootCmd()
	root.SetArgs([]string{"export", "--db", dbFile, "--out", csvFile})
	if err := root.Execute(); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(csvFile)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 || !strings.HasPrefix(lines[0], "timestamp,n_level") {
		t.Fatalf("unexpected csv:\n%s", data)
	}

	root = newRootCmd()
	root.SetArgs([]string{"reset", "--db", dbFile, "--yes"})
	if err := root.Execute(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	st, err := store.Open(dbFile)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() {
		_ = st.Close()
	}()
	sessions, err := st.ListSessions(context.Background(), model.HistoryFilter{})
	if err != nil || len(sessions) != 0 {
		t.Fatalf("expected empty history, got %d (%v)", len(sessions), err)
	}
}
