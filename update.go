package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func (m model) Init() tea.Cmd {
	if m.mode == ModeEditing {
		return textarea.Blink
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.stage.resize(msg.Width, msg.Height)
		m.editor.SetWidth(msg.Width)
		m.editor.SetHeight(maxInt(1, msg.Height-2))
		m.input.Width = maxInt(10, msg.Width-20)
		m.helpViewport.Width = msg.Width
		m.helpViewport.Height = maxInt(1, msg.Height-1)
		return m, nil

	case frameMsg:
		return m, m.stage.handleFrame(msg)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case scriptLoadedMsg:
		m.loading = false
		m.loadScript(msg.script)
		m.mode = ModePrompt
		m.errorMessage = ""
		m.successMessage = fmt.Sprintf("Loaded %s", msg.script.Filename)
		log.WithField("source", msg.source).WithField("bytes", len(msg.script.Text)).Info("script loaded")
		return m, nil

	case fetchFailedMsg:
		m.loading = false
		m.successMessage = ""
		m.errorMessage = msg.err.Error()
		log.WithError(msg.err).WithField("source", msg.source).Warn("fetch failed")
		return m, nil

	case reposLoadedMsg:
		m.loading = false
		m.errorMessage = ""
		m.browser.repos = msg.repos
		m.browser.selected = 0
		m.browser.view = githubRepos
		return m, nil

	case contentsLoadedMsg:
		m.loading = false
		m.errorMessage = ""
		m.browser.owner = msg.owner
		m.browser.repo = msg.repo
		m.browser.path = msg.path
		m.browser.entries = msg.entries
		m.browser.selected = 0
		m.browser.crumbs = buildCrumbs(msg.repo, msg.path)
		m.browser.view = githubContents
		return m, nil

	case stateSyncMsg:
		// only the open mirror may drive the primary; it already holds this
		// state, so nothing is sent back
		if m.mirror == nil || msg.from != m.mirror.ID() {
			return m, nil
		}
		return m, m.stage.applyState(msg.Config, msg.Playing, msg.Resets)

	case mirrorClosedMsg:
		if m.mirror != nil && m.mirror.ID() == msg.id {
			m.mirror = nil
			m.successMessage = "Mirror closed"
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if m.help {
			return m.updateHelp(msg)
		}
		switch m.mode {
		case ModeStartup:
			return m.updateStartup(msg)
		case ModePrompt:
			return m.updatePrompt(msg)
		case ModeEditing:
			return m.updateEditing(msg)
		case ModeFileInput:
			return m.updateFileInput(msg)
		case ModeDocInput:
			return m.updateDocInput(msg)
		case ModeGitHub:
			return m.updateGitHub(msg)
		case ModeLineHeight:
			return m.updateLineHeight(msg)
		case ModeConfirm:
			return m.updateConfirm(msg)
		}
	}
	return m, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// setState applies a local change and pushes the result to the mirror.
func (m *model) setState(config ScrollConfig, playing bool, resets int) tea.Cmd {
	cmd := m.stage.applyState(config, playing, resets)
	m.pushMirrorState()
	return cmd
}

func (m *model) pushMirrorState() {
	if m.mirror != nil {
		m.mirror.Send(m.stage.snapshot(""))
	}
}

func (m *model) replaceScript(script Script) {
	m.stage.setScript(script)
	if m.mirror != nil {
		m.mirror.Send(textSyncMsg{Script: script})
	}
	m.pushMirrorState()
}

// toggleMirror opens the mirror surface, or closes it when one is open.
func (m *model) toggleMirror() {
	if m.mirror != nil {
		m.closeMirror()
		m.successMessage = "Mirror closed"
		return
	}
	if m.openMirror == nil {
		m.errorMessage = ErrNoMirrorTTY.Error()
		return
	}
	seed := mirrorSeed{
		Script:        m.stage.script,
		Config:        m.stage.config,
		Playing:       m.stage.playback.Playing,
		Resets:        m.stage.resets,
		FrameInterval: m.stage.frameInterval,
	}
	surface, err := m.openMirror(seed, m.notify)
	if err != nil {
		log.WithError(err).Warn("mirror surface not opened")
		m.errorMessage = err.Error()
		return
	}
	m.mirror = surface
	m.errorMessage = ""
	m.successMessage = "Mirror open"
}

func (m *model) closeMirror() {
	if m.mirror == nil {
		return
	}
	m.mirror.Close()
	m.mirror = nil
}

func (m model) quit() (tea.Model, tea.Cmd) {
	m.closeMirror()
	m.stage.playback.Stop()
	return m, tea.Quit
}

func (m model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "?":
		m.help = false
		m.helpViewport.GotoTop()
		return m, nil
	}
	var cmd tea.Cmd
	m.helpViewport, cmd = m.helpViewport.Update(msg)
	return m, cmd
}

func (m model) updateStartup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.errorMessage = ""
	switch msg.String() {
	case "t":
		return m, m.startEditing("")
	case "p", "v":
		return m.pasteFromClipboard()
	case "o":
		m.previous = ModeStartup
		m.mode = ModeFileInput
		m.scanScriptFiles()
		return m, nil
	case "g":
		return m, m.startInput(ModeDocInput, "https://docs.google.com/document/d/...", "")
	case "h":
		m.browser = githubBrowser{}
		return m, m.startInput(ModeGitHub, "username, owner/repo or github.com URL", "")
	case "esc":
		if m.stage.script.Text != "" {
			m.mode = ModePrompt
		}
		return m, nil
	case "?":
		m.help = true
		return m, nil
	case "q":
		return m.quit()
	}
	return m, nil
}

func (m model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if config, playing, resets, ok := m.stage.controlKey(key); ok {
		m.successMessage = ""
		return m, m.setState(config, playing, resets)
	}

	switch key {
	case "q":
		if m.config.Confirmations {
			m.mode = ModeConfirm
			m.confirmAction = ConfirmQuit
			return m, nil
		}
		return m.quit()
	case "esc":
		m.errorMessage = ""
		m.successMessage = ""
	case "?":
		m.help = true
	case "j", "down", "k", "up", "J", "K", "pgdown", "pgup", "home":
		m.handleSeek(key)
	case "l":
		return m, m.startInput(ModeLineHeight, "1.0 - 3.0", fmt.Sprint(m.stage.config.LineHeight))
	case "m":
		m.toggleMirror()
	case "e":
		return m, m.startEditing(m.stage.script.Text)
	case "n":
		m.mode = ModeStartup
	case "u":
		if !m.undo() {
			m.successMessage = "Nothing to undo"
		}
	case "U":
		if !m.redo() {
			m.successMessage = "Nothing to redo"
		}
	case "S":
		m.export(m.exportPNG, "png")
	case "T":
		m.export(m.exportVisualTXT, "txt")
	}
	return m, nil
}

func (m *model) export(write func(string) error, ext string) {
	filename := m.config.GetSavePath(exportFilename(m.stage.script, ext))
	if err := write(filename); err != nil {
		log.WithError(err).WithField("file", filename).Warn("export failed")
		m.errorMessage = err.Error()
		return
	}
	m.errorMessage = ""
	m.successMessage = "Exported " + filename
}

func (m *model) startEditing(text string) tea.Cmd {
	m.previous = m.mode
	m.mode = ModeEditing
	m.editor.SetValue(text)
	return m.editor.Focus()
}

func (m model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		text := normalizeText(m.editor.Value())
		if strings.TrimSpace(text) == "" {
			m.errorMessage = ErrEmptyScript.Error()
			return m, nil
		}
		m.editor.Blur()
		if text != m.stage.script.Text {
			m.loadScript(Script{Text: text, Filename: "typed"})
		}
		m.mode = ModePrompt
		m.errorMessage = ""
		return m, nil
	case "esc":
		if m.config.Confirmations && normalizeText(m.editor.Value()) != m.stage.script.Text {
			m.mode = ModeConfirm
			m.confirmAction = ConfirmDiscardEdit
			return m, nil
		}
		m.editor.Blur()
		m.mode = m.exitMode()
		return m, nil
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// exitMode is where Esc leads from an input mode.
func (m *model) exitMode() Mode {
	if m.stage.script.Text == "" || m.previous == ModeStartup {
		return ModeStartup
	}
	return ModePrompt
}

func (m model) pasteFromClipboard() (tea.Model, tea.Cmd) {
	script, err := pasteScript()
	if err != nil {
		m.errorMessage = fmt.Sprintf("paste: %v", err)
		return m, nil
	}
	m.loadScript(script)
	m.mode = ModePrompt
	m.successMessage = "Pasted from clipboard"
	return m, nil
}

func (m model) updateFileInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = m.exitMode()
		m.errorMessage = ""
	case "up", "k", "down", "j":
		m.selectedFileIndex = moveSelection(m.selectedFileIndex, selectionDelta(msg.String()), len(m.fileList))
	case "enter":
		if m.selectedFileIndex < 0 || m.selectedFileIndex >= len(m.fileList) {
			return m, nil
		}
		name := m.fileList[m.selectedFileIndex]
		script, err := loadScriptFile(filepath.Join(m.config.scriptDirectory(), name))
		if err != nil {
			m.errorMessage = err.Error()
			return m, nil
		}
		m.loadScript(script)
		m.mode = ModePrompt
		m.errorMessage = ""
		m.successMessage = "Opened " + name
	}
	return m, nil
}

func (m *model) startInput(mode Mode, placeholder, value string) tea.Cmd {
	m.previous = m.mode
	m.mode = mode
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return tea.Batch(m.input.Focus(), textinput.Blink)
}

func (m *model) startLoading(source string, fetch tea.Cmd) tea.Cmd {
	m.loading = true
	m.errorMessage = ""
	log.WithField("source", source).Debug("fetch started")
	return tea.Batch(fetch, m.spinner.Tick)
}

func (m model) updateDocInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.loading = false
		m.mode = m.exitMode()
		return m, nil
	case "enter":
		if m.loading {
			return m, nil
		}
		docID, err := ExtractDocID(m.input.Value())
		if err != nil {
			m.errorMessage = err.Error()
			return m, nil
		}
		docs := m.docs
		return m, m.startLoading("gdoc", fetchScriptCmd("gdoc", m.config.HTTP.Timeout, func(ctx context.Context) (Script, error) {
			return docs.Fetch(ctx, docID)
		}))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updateLineHeight(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.mode = ModePrompt
		return m, nil
	case "enter":
		m.input.Blur()
		m.mode = ModePrompt
		config := m.stage.config
		// not a number: keep the previous value
		if !config.SetLineHeight(m.input.Value()) {
			return m, nil
		}
		return m, m.setState(config, m.stage.playback.Playing, m.stage.resets)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		switch m.confirmAction {
		case ConfirmQuit:
			return m.quit()
		case ConfirmDiscardEdit:
			m.editor.Blur()
			m.mode = m.exitMode()
		}
	case "n", "N", "esc":
		if m.confirmAction == ConfirmDiscardEdit {
			m.mode = ModeEditing
			return m, m.editor.Focus()
		}
		m.mode = ModePrompt
	}
	return m, nil
}

func (m model) updateGitHub(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loading {
		if msg.String() == "esc" {
			m.loading = false
		}
		return m, nil
	}
	switch m.browser.view {
	case githubQuery:
		return m.updateGitHubQuery(msg)
	case githubRepos:
		return m.updateGitHubRepos(msg)
	default:
		return m.updateGitHubContents(msg)
	}
}

func (m model) updateGitHubQuery(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.mode = m.exitMode()
		m.errorMessage = ""
		return m, nil
	case "enter":
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return m, nil
		}
		if owner, repo, err := parseRepoRef(query); err == nil {
			m.browser.fromRepo = false
			return m, m.listContents(owner, repo, "")
		}
		if strings.Contains(query, "/") {
			m.errorMessage = ErrInvalidRepoURL.Error()
			return m, nil
		}
		gh := m.github
		timeout := m.config.HTTP.Timeout
		return m, m.startLoading("github", func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			repos, err := gh.ListUserRepos(ctx, query)
			if err != nil {
				return fetchFailedMsg{source: "github", err: err}
			}
			return reposLoadedMsg{repos: repos}
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) listContents(owner, repo, dir string) tea.Cmd {
	gh := m.github
	timeout := m.config.HTTP.Timeout
	return m.startLoading("github", func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		entries, err := gh.ListContents(ctx, owner, repo, dir)
		if err != nil {
			return fetchFailedMsg{source: "github", err: err}
		}
		return contentsLoadedMsg{owner: owner, repo: repo, path: dir, entries: entries}
	})
}

func (m model) updateGitHubRepos(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.browser.view = githubQuery
		return m, m.input.Focus()
	case "up", "k", "down", "j":
		m.browser.selected = moveSelection(m.browser.selected, selectionDelta(msg.String()), len(m.browser.repos))
	case "enter":
		if len(m.browser.repos) == 0 {
			return m, nil
		}
		repo := m.browser.repos[m.browser.selected]
		m.browser.fromRepo = true
		return m, m.listContents(repo.Owner.Login, repo.Name, "")
	}
	return m, nil
}

func (m model) updateGitHubContents(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	b := m.browser
	switch msg.String() {
	case "esc":
		if b.fromRepo {
			m.browser.view = githubRepos
			return m, nil
		}
		m.browser.view = githubQuery
		return m, m.input.Focus()
	case "backspace", "left", "h":
		if b.path == "" {
			return m, nil
		}
		return m, m.listContents(b.owner, b.repo, parentPath(b.path))
	case "up", "k", "down", "j":
		m.browser.selected = moveSelection(b.selected, selectionDelta(msg.String()), len(b.entries))
	case "enter", "right", "l":
		if len(b.entries) == 0 {
			return m, nil
		}
		entry := b.entries[b.selected]
		if entry.IsDir() {
			return m, m.listContents(b.owner, b.repo, entry.Path)
		}
		if !entry.IsMarkdown() {
			m.errorMessage = ErrNotMarkdown.Error()
			return m, nil
		}
		gh := m.github
		owner, repo := b.owner, b.repo
		return m, m.startLoading("github", fetchScriptCmd("github", m.config.HTTP.Timeout, func(ctx context.Context) (Script, error) {
			return gh.FetchMarkdown(ctx, owner, repo, entry.Path)
		}))
	}
	return m, nil
}

func parentPath(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return ""
	}
	return p[:idx]
}

func buildCrumbs(repo, dir string) []crumb {
	crumbs := []crumb{{name: repo, path: ""}}
	if dir == "" {
		return crumbs
	}
	parts := strings.Split(dir, "/")
	for i, part := range parts {
		crumbs = append(crumbs, crumb{name: part, path: strings.Join(parts[:i+1], "/")})
	}
	return crumbs
}
