package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/dualnback/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "dualnback.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func captureWarnings(t *testing.T) *[]string {
	t.Helper()
	var msgs []string
	prev := warnf
	warnf = func(format string, args ...any) {
		msgs = append(msgs, fmt.Sprintf(format, args...))
	}
	t.Cleanup(func() { warnf = prev })
	return &msgs
}

func testRecord(id string, ended time.Time, n int) model.SessionRecord {
	return model.SessionRecord{
		ID:        id,
		StartedAt: ended.Add(-time.Minute),
		EndedAt:   ended,
		Settings:  model.Settings{NLevel: n, SpeedMs: 2000, SessionLength: 20, AudioSet: "letters"},
		Events: []model.GameEvent{{
			TurnIndex: 0,
			Stimulus:  model.Stimulus{Position: 1, Sound: "A"},
			Response:  model.Response{VisualMatch: true},
		}},
		VisualStats: model.AccuracyStats{TruePositives: 3, TrueNegatives: 14, FalsePositives: 1, FalseNegatives: 2},
		AudioStats:  model.AccuracyStats{TruePositives: 4, TrueNegatives: 15, FalseNegatives: 1},
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if _, ok, err := st.LoadSettings(ctx); err != nil || ok {
		t.Fatalf("expected no stored settings, got ok=%v err=%v", ok, err)
	}
	want := model.Settings{NLevel: 3, SpeedMs: 1500, SessionLength: 25, AudioSet: "ganzhi"}
	if err := st.SaveSettings(ctx, want); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	want.NLevel = 4
	if err := st.SaveSettings(ctx, want); err != nil {
		t.Fatalf("overwrite settings: %v", err)
	}
	got, ok, err := st.LoadSettings(ctx)
	if err != nil || !ok {
		t.Fatalf("load settings: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestCorruptSettingsFallBack(t *testing.T) {
	st := openTestStore(t)
	warnings := captureWarnings(t)
	ctx := context.Background()
	if _, err := st.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)`, settingsKey, "{not json"); err != nil {
		t.Fatalf("seed corrupt settings: %v", err)
	}
	if _, ok, err := st.LoadSettings(ctx); err != nil || ok {
		t.Fatalf("expected corrupt settings to be ignored, got ok=%v err=%v", ok, err)
	}
	if len(*warnings) != 1 {
		t.Fatalf("expected one warning, got %v", *warnings)
	}
}

func TestInsertListAndGet(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, n := range []int{2, 3, 2} {
		rec := testRecord(fmt.Sprintf("s%d", i), base.Add(time.Duration(i)*time.Hour), n)
		if err := st.InsertSession(ctx, rec); err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}

	all, err := st.ListSessions(ctx, model.HistoryFilter{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(all) != 3 || all[0].ID != "s0" || all[2].ID != "s2" {
		t.Fatalf("unexpected sessions: %+v", all)
	}
	if all[1].VisualStats.FalseNegatives != 2 || all[1].AudioStats.TruePositives != 4 {
		t.Fatalf("stats not round-tripped: %+v", all[1])
	}

	twos, err := st.ListSessions(ctx, model.HistoryFilter{NLevel: 2})
	if err != nil || len(twos) != 2 {
		t.Fatalf("expected 2 sessions at n=2, got %d (%v)", len(twos), err)
	}
	since := base.Add(90 * time.Minute)
	recent, err := st.ListSessions(ctx, model.HistoryFilter{Since: &since})
	if err != nil || len(recent) != 1 || recent[0].ID != "s2" {
		t.Fatalf("unexpected since filter result: %+v (%v)", recent, err)
	}

	rec, ok, err := st.GetSession(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("get session: ok=%v err=%v", ok, err)
	}
	if len(rec.Events) != 1 || rec.Events[0].Stimulus.Sound != "A" || !rec.Events[0].Response.VisualMatch {
		t.Fatalf("events not round-tripped: %+v", rec.Events)
	}
	if !rec.StartedAt.Equal(base.Add(time.Hour - time.Minute)) {
		t.Fatalf("unexpected start time: %v", rec.StartedAt)
	}
	if _, ok, err := st.GetSession(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing session, got ok=%v err=%v", ok, err)
	}
}

func TestCorruptRowsAreSkipped(t *testing.T) {
	st := openTestStore(t)
	warnings := captureWarnings(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	if err := st.InsertSession(ctx, testRecord("good", base, 2)); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if err := st.InsertSession(ctx, testRecord("bad-events", base.Add(time.Hour), 2)); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if err := st.InsertSession(ctx, testRecord("bad-time", base.Add(2*time.Hour), 2)); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if _, err := st.db.Exec(`UPDATE sessions SET events = '[{' WHERE id = 'bad-events'`); err != nil {
		t.Fatalf("corrupt events: %v", err)
	}
	if _, err := st.db.Exec(`UPDATE sessions SET ended_at = 'yesterday' WHERE id = 'bad-time'`); err != nil {
		t.Fatalf("corrupt timestamp: %v", err)
	}

	sessions, err := st.ListSessions(ctx, model.HistoryFilter{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected bad-time to be skipped, got %+v", sessions)
	}
	if _, ok, err := st.GetSession(ctx, "bad-events"); err != nil || ok {
		t.Fatalf("expected bad-events to be unreadable, got ok=%v err=%v", ok, err)
	}
	if len(*warnings) != 2 || !strings.Contains((*warnings)[0], "bad-time") {
		t.Fatalf("unexpected warnings: %v", *warnings)
	}
}

func TestClearAll(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if err := st.InsertSession(ctx, testRecord("s", time.Now(), 2)); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if err := st.SaveSettings(ctx, model.Settings{NLevel: 2}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if err := st.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	sessions, err := st.ListSessions(ctx, model.HistoryFilter{})
	if err != nil || len(sessions) != 0 {
		t.Fatalf("expected no sessions, got %d (%v)", len(sessions), err)
	}
	if _, ok, _ := st.LoadSettings(ctx); ok {
		t.Fatalf("expected settings to be cleared")
	}
}

func TestInsertRequiresID(t *testing.T) {
	st := openTestStore(t)
	if err := st.InsertSession(context.Background(), model.SessionRecord{}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}
