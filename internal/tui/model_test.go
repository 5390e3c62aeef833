package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-spawn-bench/internal/stats"
)

type fakeSource struct {
	snaps     []stats.Snapshot
	completed int64
	failed    int64
	elapsed   time.Duration
}

func (f *fakeSource) Snapshots() []stats.Snapshot { return f.snaps }
func (f *fakeSource) Completed() int64            { return f.completed }
func (f *fakeSource) Failed() int64               { return f.failed }
func (f *fakeSource) Elapsed() time.Duration      { return f.elapsed }

func newTestModel() (Model, *fakeSource) {
	src := &fakeSource{
		snaps: []stats.Snapshot{
			{Strategy: "discard", Count: 10, Min: time.Millisecond, P50: 2 * time.Millisecond, P95: 3 * time.Millisecond, P99: 4 * time.Millisecond, Max: 5 * time.Millisecond},
			{Strategy: "pipe-lines", Count: 7, Min: time.Millisecond, Max: 9 * time.Millisecond},
		},
		completed: 17,
		failed:    1,
		elapsed:   90 * time.Second,
	}
	m := New(Config{Command: "/bin/echo", MetricsAddr: ":17092", Source: src})
	return m, src
}

func TestModel_Init(t *testing.T) {
	m, _ := newTestModel()
	if cmd := m.Init(); cmd == nil {
		t.Error("Init() should return the tick command")
	}
}

func TestModel_TickPullsStats(t *testing.T) {
	m, _ := newTestModel()

	updated, cmd := m.Update(TickMsg(time.Now()))
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}

	got := updated.(Model)
	if got.completed != 17 {
		t.Errorf("completed = %d, want 17", got.completed)
	}
	if len(got.snapshots) != 2 {
		t.Errorf("snapshots = %d, want 2", len(got.snapshots))
	}
}

func TestModel_QuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c", "esc"} {
		t.Run(key, func(t *testing.T) {
			m, _ := newTestModel()
			updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
			if key != "q" {
				// Special keys need their tea key types.
				switch key {
				case "ctrl+c":
					updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
				case "esc":
					updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
				}
			}
			got := updated.(Model)
			if !got.quitting {
				t.Error("quitting not set")
			}
			if cmd == nil {
				t.Error("expected tea.Quit command")
			}
			if got.View() != "" {
				t.Error("View() after quit should be empty")
			}
		})
	}
}

func TestModel_WindowResize(t *testing.T) {
	m, _ := newTestModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	got := updated.(Model)
	if got.width != 120 || got.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", got.width, got.height)
	}
}

func TestModel_View(t *testing.T) {
	m, _ := newTestModel()
	updated, _ := m.Update(TickMsg(time.Now()))
	view := updated.(Model).View()

	for _, want := range []string{
		"go-spawn-bench",
		"/bin/echo",
		"discard",
		"pipe-lines",
		"Completed",
		"STRATEGY",
		"00:01:30",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_ViewBeforeFirstTick(t *testing.T) {
	m, _ := newTestModel()
	view := m.View()
	if !strings.Contains(view, "Waiting") {
		t.Errorf("empty-state view should mention waiting:\n%s", view)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{time.Minute + 5*time.Second, "00:01:05"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "02:03:04"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatLatency(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "-"},
		{500 * time.Microsecond, "500µs"},
		{2500 * time.Microsecond, "2.5ms"},
		{1500 * time.Millisecond, "1.50s"},
	}
	for _, tt := range tests {
		if got := formatLatency(tt.d); got != tt.want {
			t.Errorf("formatLatency(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
