package main

import (
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeSurface struct {
	id     string
	seed   mirrorSeed
	sent   []tea.Msg
	closed bool
}

func (f *fakeSurface) ID() string       { return f.id }
func (f *fakeSurface) Send(msg tea.Msg) { f.sent = append(f.sent, msg) }
func (f *fakeSurface) Close()           { f.closed = true }

func (f *fakeSurface) lastState(t *testing.T) stateSyncMsg {
	t.Helper()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if msg, ok := f.sent[i].(stateSyncMsg); ok {
			return msg
		}
	}
	t.Fatalf("no state sent to mirror")
	return stateSyncMsg{}
}

func fakeOpener(surface *fakeSurface, opened *int) surfaceOpener {
	return func(seed mirrorSeed, notify func(tea.Msg)) (mirrorSurface, error) {
		*opened++
		surface.seed = seed
		return surface, nil
	}
}

func TestMirrorToggleOpensAndCloses(t *testing.T) {
	surface := &fakeSurface{id: "m1"}
	opened := 0
	m := newTestModel(t, "hello", modelDeps{openMirror: fakeOpener(surface, &opened)})

	m = press(t, m, "m")
	if m.mirror == nil || opened != 1 {
		t.Fatalf("mirror not opened")
	}
	if surface.seed.Script.Text != "hello" || surface.seed.Config != m.stage.config {
		t.Fatalf("seed=%+v", surface.seed)
	}

	m = press(t, m, "m")
	if m.mirror != nil || !surface.closed {
		t.Fatalf("second toggle did not close the mirror")
	}
	if opened != 1 {
		t.Fatalf("second toggle opened another mirror")
	}
}

func TestMirrorOpenFailureIsReported(t *testing.T) {
	opener := func(seed mirrorSeed, notify func(tea.Msg)) (mirrorSurface, error) {
		return nil, errors.New("popup blocked")
	}
	m := newTestModel(t, "hello", modelDeps{openMirror: opener})
	m = press(t, m, "m")
	if m.mirror != nil {
		t.Fatalf("mirror set after failed open")
	}
	if m.errorMessage != "popup blocked" {
		t.Fatalf("error=%q", m.errorMessage)
	}

	m = newTestModel(t, "hello", modelDeps{})
	m = press(t, m, "m")
	if m.errorMessage != ErrNoMirrorTTY.Error() {
		t.Fatalf("error=%q", m.errorMessage)
	}
}

func TestLocalChangesPushedToMirror(t *testing.T) {
	surface := &fakeSurface{id: "m1"}
	opened := 0
	m := newTestModel(t, "hello", modelDeps{openMirror: fakeOpener(surface, &opened)})
	m = press(t, m, "m", "+", "]")

	state := surface.lastState(t)
	if state.Config.Speed != 1.5 || state.Config.FontSize != 34 {
		t.Fatalf("mirror got %+v", state.Config)
	}

	m = update(t, m, scriptLoadedMsg{script: Script{Text: "next"}, source: "test"})
	var text textSyncMsg
	for _, msg := range surface.sent {
		if ts, ok := msg.(textSyncMsg); ok {
			text = ts
		}
	}
	if text.Script.Text != "next" {
		t.Fatalf("mirror text=%q", text.Script.Text)
	}
}

func TestMirrorStateAppliedOnlyFromOpenMirror(t *testing.T) {
	surface := &fakeSurface{id: "m1"}
	opened := 0
	m := newTestModel(t, longScript(50), modelDeps{openMirror: fakeOpener(surface, &opened)})

	cfg := m.stage.config
	cfg.Speed = 3
	m = update(t, m, stateSyncMsg{from: "someone-else", Config: cfg, Playing: true})
	if m.stage.config.Speed != 1 || m.stage.playback.Playing {
		t.Fatalf("state applied without an open mirror")
	}

	m = press(t, m, "m")
	m = update(t, m, stateSyncMsg{from: "someone-else", Config: cfg, Playing: true})
	if m.stage.config.Speed != 1 {
		t.Fatalf("state applied from unknown surface")
	}

	next, cmd := m.Update(stateSyncMsg{from: "m1", Config: cfg, Playing: true})
	m = next.(model)
	if m.stage.config.Speed != 3 || !m.stage.playback.Playing || cmd == nil {
		t.Fatalf("mirror state not applied: %+v playing=%v", m.stage.config, m.stage.playback.Playing)
	}
}

func TestMirrorStateNotEchoedBack(t *testing.T) {
	surface := &fakeSurface{id: "m1"}
	opened := 0
	m := newTestModel(t, "hello", modelDeps{openMirror: fakeOpener(surface, &opened)})
	m = press(t, m, "m")

	var got []tea.Msg
	mm := newMirrorModel("m1", surface.seed, func(msg tea.Msg) { got = append(got, msg) })
	for n := 0; n < 2; n++ {
		next, _ := mm.Update(keyMsg("]"))
		mm = next.(mirrorModel)
	}
	if len(got) != 2 {
		t.Fatalf("notified %d times", len(got))
	}

	// the first change reaches the primary after the second was pressed
	surface.sent = nil
	m = update(t, m, got[0])
	if m.stage.config.FontSize != 34 {
		t.Fatalf("primary font=%d", m.stage.config.FontSize)
	}
	for _, msg := range surface.sent {
		if _, ok := msg.(stateSyncMsg); ok {
			t.Fatalf("primary sent mirror state back: %+v", msg)
		}
		next, _ := mm.Update(msg)
		mm = next.(mirrorModel)
	}
	if mm.stage.config.FontSize != 36 {
		t.Fatalf("mirror font=%d want 36", mm.stage.config.FontSize)
	}

	m = update(t, m, got[1])
	if m.stage.config.FontSize != 36 {
		t.Fatalf("primary font=%d want 36", m.stage.config.FontSize)
	}

	// local keys still drive the mirror
	m = press(t, m, "]")
	if state := surface.lastState(t); state.Config.FontSize != 38 {
		t.Fatalf("mirror got %+v", state.Config)
	}
}

func TestMirrorConfigIsNormalized(t *testing.T) {
	surface := &fakeSurface{id: "m1"}
	opened := 0
	m := newTestModel(t, "hello", modelDeps{openMirror: fakeOpener(surface, &opened)})
	m = press(t, m, "m")
	m = update(t, m, stateSyncMsg{from: "m1", Config: ScrollConfig{Speed: 40, FontSize: 500, LineHeight: 9, Opacity: 0}})
	c := m.stage.config
	if c.Speed != maxSpeed || c.FontSize != maxFontSize || c.LineHeight != maxLineHeight || c.Opacity != minOpacity {
		t.Fatalf("config not clamped: %+v", c)
	}
}

func TestMirrorClosedMsg(t *testing.T) {
	surface := &fakeSurface{id: "m1"}
	opened := 0
	m := newTestModel(t, "hello", modelDeps{openMirror: fakeOpener(surface, &opened)})
	m = press(t, m, "m")

	m = update(t, m, mirrorClosedMsg{id: "old"})
	if m.mirror == nil {
		t.Fatalf("closed message for another surface cleared the mirror")
	}
	m = update(t, m, mirrorClosedMsg{id: "m1"})
	if m.mirror != nil {
		t.Fatalf("mirror still set after close")
	}
}

func TestResetsApplyOnce(t *testing.T) {
	s := testStage(longScript(50), 80, 24)
	s.seek(300)
	s.applyState(s.config, false, 1)
	if s.playback.Offset != 0 {
		t.Fatalf("reset not applied")
	}
	s.seek(300)
	s.applyState(s.config, false, 1)
	if s.playback.Offset != 300 {
		t.Fatalf("replayed reset rewound again: %v", s.playback.Offset)
	}
}

func TestMirrorModelKeysNotifyPrimary(t *testing.T) {
	var got []tea.Msg
	seed := mirrorSeed{Script: Script{Text: "hello"}, Config: defaultScrollConfig(), FrameInterval: time.Millisecond}
	mm := newMirrorModel("m1", seed, func(msg tea.Msg) { got = append(got, msg) })

	next, _ := mm.Update(keyMsg("]"))
	mm = next.(mirrorModel)
	if len(got) != 1 {
		t.Fatalf("notified %d times", len(got))
	}
	state, ok := got[0].(stateSyncMsg)
	if !ok || state.from != "m1" || state.Config.FontSize != 34 {
		t.Fatalf("notification=%+v", got[0])
	}

	next, _ = mm.Update(stateSyncMsg{Config: defaultScrollConfig(), Playing: true})
	mm = next.(mirrorModel)
	if len(got) != 1 {
		t.Fatalf("applying primary state echoed back")
	}
	if !mm.stage.playback.Playing || mm.stage.config.FontSize != 32 {
		t.Fatalf("mirror did not follow primary")
	}

	next, _ = mm.Update(textSyncMsg{Script: Script{Text: "new text"}})
	mm = next.(mirrorModel)
	if mm.stage.script.Text != "new text" {
		t.Fatalf("mirror script=%q", mm.stage.script.Text)
	}
}

func TestMirrorModelStartsPlayingFromSeed(t *testing.T) {
	seed := mirrorSeed{Script: Script{Text: "hello"}, Config: defaultScrollConfig(), Playing: true, FrameInterval: time.Millisecond}
	mm := newMirrorModel("m1", seed, nil)
	if !mm.stage.playback.Playing || mm.Init() == nil {
		t.Fatalf("seeded playback not running")
	}
}

type recordingCloser struct{ closed atomic.Bool }

func (c *recordingCloser) Close() error {
	c.closed.Store(true)
	return nil
}

func TestSurfaceCloseWaitsForTerminalRelease(t *testing.T) {
	seed := mirrorSeed{Script: Script{Text: "hello"}, Config: defaultScrollConfig(), FrameInterval: time.Millisecond}
	program := tea.NewProgram(
		newMirrorModel("m1", seed, nil),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
	)
	tty := &recordingCloser{}
	events := make(chan tea.Msg, 1)
	s := startSurface("m1", program, tty, eventNotifier(events))

	s.Close()
	if !tty.closed.Load() {
		t.Fatalf("Close returned before the terminal was released")
	}
	select {
	case msg := <-events:
		if closed, ok := msg.(mirrorClosedMsg); !ok || closed.id != "m1" {
			t.Fatalf("unexpected event %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatalf("primary not told the mirror closed")
	}
}

func TestEventNotifierDropsWhenFull(t *testing.T) {
	events := make(chan tea.Msg, 1)
	notify := eventNotifier(events)
	notify(mirrorClosedMsg{id: "a"})
	notify(mirrorClosedMsg{id: "b"})
	if len(events) != 1 {
		t.Fatalf("events=%d", len(events))
	}
	if msg := <-events; msg.(mirrorClosedMsg).id != "a" {
		t.Fatalf("unexpected event %+v", msg)
	}
}

func TestHelpExplainsMirrorSetup(t *testing.T) {
	help := helpText()
	for _, want := range []string{"`tty`", "sleep infinity", "re-reads its size"} {
		if !strings.Contains(help, want) {
			t.Fatalf("help missing %q", want)
		}
	}
}
