package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		SaveDirectory: t.TempDir(),
		StartMenu:     true,
		Confirmations: true,
		FrameInterval: time.Millisecond,
		Defaults:      defaultScrollConfig(),
		HTTP:          HTTPConfig{Timeout: time.Second},
	}
}

func newTestModel(t *testing.T, text string, deps modelDeps) model {
	t.Helper()
	m := initialModel(testConfig(t), Script{Text: text, Filename: "test.txt"}, deps)
	return update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm
}

func press(t *testing.T, m model, keys ...string) model {
	t.Helper()
	for _, k := range keys {
		m = update(t, m, keyMsg(k))
	}
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func TestStartsInPromptWithScript(t *testing.T) {
	m := newTestModel(t, "hello", modelDeps{})
	if m.mode != ModePrompt {
		t.Fatalf("mode=%v want prompt", m.mode)
	}
	if !strings.Contains(m.View(), "Mode: PROMPT") {
		t.Fatalf("view missing status line: %q", m.View())
	}
}

func TestStartsInMenuWithoutScript(t *testing.T) {
	m := initialModel(testConfig(t), Script{}, modelDeps{})
	if m.mode != ModeStartup {
		t.Fatalf("mode=%v want startup", m.mode)
	}
	cfg := testConfig(t)
	cfg.StartMenu = false
	m = initialModel(cfg, Script{}, modelDeps{})
	if m.mode != ModeEditing {
		t.Fatalf("mode=%v want editing without start menu", m.mode)
	}
}

func TestPlayPauseAndReset(t *testing.T) {
	m := newTestModel(t, longScript(100), modelDeps{})
	next, cmd := m.Update(keyMsg("space"))
	m = next.(model)
	if !m.stage.playback.Playing || cmd == nil {
		t.Fatalf("space did not start playback")
	}
	m = press(t, m, "j", "j")
	if m.stage.playback.Offset != 2*seekStep {
		t.Fatalf("offset=%v want %v", m.stage.playback.Offset, 2*seekStep)
	}
	m = press(t, m, "r")
	if m.stage.playback.Playing || m.stage.playback.Offset != 0 || m.stage.resets != 1 {
		t.Fatalf("after reset playing=%v offset=%v resets=%d", m.stage.playback.Playing, m.stage.playback.Offset, m.stage.resets)
	}
}

func TestControlKeysAdjustSettings(t *testing.T) {
	m := newTestModel(t, "hello", modelDeps{})
	m = press(t, m, "+", "]", ",", "}", "i", "f")
	c := m.stage.config
	if c.Speed != 1.5 || c.FontSize != 34 || c.Opacity != 0.9 || c.LineHeight != 1.6 || !c.Infinite || c.Flip != FlipHorizontal {
		t.Fatalf("unexpected config %+v", c)
	}
	m = press(t, m, "-", "[", ".", "{")
	c = m.stage.config
	if c.Speed != 1 || c.FontSize != 32 || c.Opacity != 1 || c.LineHeight != 1.5 {
		t.Fatalf("unexpected config after decrease %+v", c)
	}
}

func TestLineHeightInput(t *testing.T) {
	m := newTestModel(t, "hello", modelDeps{})
	m = press(t, m, "l")
	if m.mode != ModeLineHeight {
		t.Fatalf("mode=%v want line height", m.mode)
	}
	m.input.SetValue("abc")
	m = press(t, m, "enter")
	if m.mode != ModePrompt || m.stage.config.LineHeight != 1.5 {
		t.Fatalf("invalid input changed line height to %v", m.stage.config.LineHeight)
	}

	m = press(t, m, "l")
	m.input.SetValue("2.25")
	m = press(t, m, "enter")
	if m.stage.config.LineHeight != 2.25 {
		t.Fatalf("line height=%v want 2.25", m.stage.config.LineHeight)
	}
}

func TestUndoRedoScriptLoads(t *testing.T) {
	m := newTestModel(t, "first", modelDeps{})
	m = update(t, m, scriptLoadedMsg{script: Script{Text: "second", Filename: "gdoc:x"}, source: "gdoc"})
	if m.stage.script.Text != "second" || m.mode != ModePrompt {
		t.Fatalf("script=%q mode=%v", m.stage.script.Text, m.mode)
	}
	m = press(t, m, "u")
	if m.stage.script.Text != "first" {
		t.Fatalf("undo script=%q", m.stage.script.Text)
	}
	m = press(t, m, "U")
	if m.stage.script.Text != "second" {
		t.Fatalf("redo script=%q", m.stage.script.Text)
	}
	m = press(t, m, "U")
	if m.successMessage != "Nothing to redo" {
		t.Fatalf("message=%q", m.successMessage)
	}
}

func TestFetchFailureKeepsScript(t *testing.T) {
	m := newTestModel(t, "keep me", modelDeps{})
	m = update(t, m, fetchFailedMsg{source: "gdoc", err: &APIError{Code: 404, Message: "failed to fetch document"}})
	if m.stage.script.Text != "keep me" {
		t.Fatalf("script replaced on failure")
	}
	if !strings.Contains(m.errorMessage, "404") {
		t.Fatalf("error=%q", m.errorMessage)
	}
}

func TestEditingSavesTypedScript(t *testing.T) {
	m := newTestModel(t, "old", modelDeps{})
	m = press(t, m, "e")
	if m.mode != ModeEditing {
		t.Fatalf("mode=%v want editing", m.mode)
	}
	m.editor.SetValue("brand new text")
	m = press(t, m, "ctrl+s")
	if m.mode != ModePrompt || m.stage.script.Text != "brand new text" || m.stage.script.Filename != "typed" {
		t.Fatalf("mode=%v script=%+v", m.mode, m.stage.script)
	}
}

func TestEditingDiscardNeedsConfirmation(t *testing.T) {
	m := newTestModel(t, "old", modelDeps{})
	m = press(t, m, "e")
	m.editor.SetValue("changed")
	m = press(t, m, "esc")
	if m.mode != ModeConfirm || m.confirmAction != ConfirmDiscardEdit {
		t.Fatalf("mode=%v confirm=%v", m.mode, m.confirmAction)
	}
	m = press(t, m, "y")
	if m.mode != ModePrompt || m.stage.script.Text != "old" {
		t.Fatalf("mode=%v script=%q", m.mode, m.stage.script.Text)
	}
}

func TestQuitConfirmation(t *testing.T) {
	m := newTestModel(t, "hello", modelDeps{})
	m = press(t, m, "q")
	if m.mode != ModeConfirm || m.confirmAction != ConfirmQuit {
		t.Fatalf("mode=%v", m.mode)
	}
	m = press(t, m, "n")
	if m.mode != ModePrompt {
		t.Fatalf("mode=%v after declining", m.mode)
	}
	m = press(t, m, "q")
	_, cmd := m.Update(keyMsg("y"))
	if cmd == nil {
		t.Fatalf("no quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
}

func TestHelpToggle(t *testing.T) {
	m := newTestModel(t, "hello", modelDeps{})
	m = press(t, m, "?")
	if !m.help || !strings.Contains(m.View(), "teleprompt help") {
		t.Fatalf("help not shown")
	}
	m = press(t, m, "?")
	if m.help {
		t.Fatalf("help still shown")
	}
}

func TestStartupMenuOpensFilePicker(t *testing.T) {
	m := initialModel(testConfig(t), Script{}, modelDeps{})
	dir := m.config.SaveDirectory
	for name, body := range map[string]string{"b.md": "# B", "a.txt": "A", "skip.pdf": "x"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	m = press(t, m, "o")
	if m.mode != ModeFileInput || strings.Join(m.fileList, ",") != "a.txt,b.md" {
		t.Fatalf("mode=%v files=%v", m.mode, m.fileList)
	}
	m = press(t, m, "j", "enter")
	if m.mode != ModePrompt || m.stage.script.Text != "# B" {
		t.Fatalf("mode=%v script=%q", m.mode, m.stage.script.Text)
	}
}

func TestExportWritesFiles(t *testing.T) {
	m := newTestModel(t, longScript(40), modelDeps{})
	m = press(t, m, "T", "S")
	entries, err := os.ReadDir(m.config.SaveDirectory)
	if err != nil {
		t.Fatalf("read save dir: %v", err)
	}
	var txt, png bool
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".txt":
			txt = true
			data, err := os.ReadFile(filepath.Join(m.config.SaveDirectory, e.Name()))
			if err != nil {
				t.Fatalf("read export: %v", err)
			}
			if !strings.HasPrefix(string(data), "line 0\n") {
				t.Fatalf("txt export=%q", data)
			}
		case ".png":
			png = true
		}
	}
	if !txt || !png {
		t.Fatalf("exports txt=%v png=%v in %v", txt, png, entries)
	}
	if m.errorMessage != "" {
		t.Fatalf("export error: %s", m.errorMessage)
	}
}

func TestExportFilename(t *testing.T) {
	got := exportFilename(Script{Filename: "gdoc:abc"}, "png")
	if !strings.HasPrefix(got, "gdoc-abc-") || !strings.HasSuffix(got, ".png") {
		t.Fatalf("exportFilename=%q", got)
	}
	if got := exportFilename(Script{}, "txt"); !strings.HasPrefix(got, "prompt-") {
		t.Fatalf("exportFilename=%q", got)
	}
}
