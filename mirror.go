package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"golang.org/x/term"
)

var ErrNoMirrorTTY = errors.New("no mirror terminal configured (set mirror.tty or --mirror-tty)")

// mirrorSurface is a secondary rendering surface with its own event loop.
// Messages are plain values; nothing is shared between the two loops.
type mirrorSurface interface {
	ID() string
	Send(msg tea.Msg)
	Close()
}

type mirrorSeed struct {
	Script        Script
	Config        ScrollConfig
	Playing       bool
	Resets        int
	FrameInterval time.Duration
}

type surfaceOpener func(seed mirrorSeed, notify func(tea.Msg)) (mirrorSurface, error)

// stateSyncMsg replaces the receiver's settings and play state. Both
// directions send full snapshots so a duplicate is harmless.
type stateSyncMsg struct {
	from    string
	Config  ScrollConfig
	Playing bool
	Resets  int
}

type textSyncMsg struct {
	Script Script
}

type mirrorClosedMsg struct {
	id string
}

// applyState is the single mutation path for settings and play state,
// whether the change came from a key press or from the other surface.
func (s *stage) applyState(config ScrollConfig, playing bool, resets int) tea.Cmd {
	if resets > s.resets {
		s.playback.Reset()
		s.resets = resets
	}
	s.setConfig(config)
	return s.setPlaying(playing)
}

func (s *stage) snapshot(from string) stateSyncMsg {
	return stateSyncMsg{
		from:    from,
		Config:  s.config,
		Playing: s.playback.Playing,
		Resets:  s.resets,
	}
}

// controlKey maps the keys both surfaces understand onto a new state.
// It reports false for keys it does not handle.
func (s *stage) controlKey(key string) (ScrollConfig, bool, int, bool) {
	config := s.config
	playing := s.playback.Playing
	resets := s.resets
	switch key {
	case " ", "space", "p":
		playing = !playing
	case "r":
		playing = false
		resets++
	case "+", "=":
		config.AdjustSpeed(speedStep)
	case "-", "_":
		config.AdjustSpeed(-speedStep)
	case "]":
		config.AdjustFontSize(fontSizeStep)
	case "[":
		config.AdjustFontSize(-fontSizeStep)
	case ".", ">":
		config.AdjustOpacity(opacityStep)
	case ",", "<":
		config.AdjustOpacity(-opacityStep)
	case "}":
		config.AdjustLineHeight(lineHeightStep)
	case "{":
		config.AdjustLineHeight(-lineHeightStep)
	case "i":
		config.ToggleInfinite()
	case "f":
		config.CycleFlip()
	default:
		return config, playing, resets, false
	}
	return config, playing, resets, true
}

type mirrorModel struct {
	id     string
	stage  stage
	notify func(tea.Msg)
}

func newMirrorModel(id string, seed mirrorSeed, notify func(tea.Msg)) mirrorModel {
	s := newStage(seed.Script, seed.Config, seed.FrameInterval)
	s.resets = seed.Resets
	if seed.Playing {
		s.playback.Start()
	}
	return mirrorModel{id: id, stage: s, notify: notify}
}

func (m mirrorModel) Init() tea.Cmd {
	if m.stage.playback.Playing {
		return scheduleFrame(m.stage.playback.gen, m.stage.frameInterval)
	}
	return nil
}

func (m mirrorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.stage.resize(msg.Width, msg.Height)
		return m, nil

	case frameMsg:
		return m, m.stage.handleFrame(msg)

	case stateSyncMsg:
		return m, m.stage.applyState(msg.Config, msg.Playing, msg.Resets)

	case textSyncMsg:
		m.stage.setScript(msg.Script)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "j", "down":
			m.stage.seek(seekStep)
			return m, nil
		case "k", "up":
			m.stage.seek(-seekStep)
			return m, nil
		}
		config, playing, resets, ok := m.stage.controlKey(msg.String())
		if !ok {
			return m, nil
		}
		cmd := m.stage.applyState(config, playing, resets)
		if m.notify != nil {
			m.notify(m.stage.snapshot(m.id))
		}
		return m, cmd
	}
	return m, nil
}

func (m mirrorModel) View() string {
	var b strings.Builder
	b.WriteString(m.stage.renderText())
	b.WriteString("\n")
	b.WriteString(m.stage.controlBar("MIRROR"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("space play/pause | +/- speed | [/] font | ,/. opacity | r reset | q close"))
	return b.String()
}

// ttySurface runs a mirrorModel on another terminal device, e.g. the
// monitor on the camera rig.
type ttySurface struct {
	id      string
	program *tea.Program
	done    chan struct{}
}

func ttySurfaceOpener(path string) surfaceOpener {
	return func(seed mirrorSeed, notify func(tea.Msg)) (mirrorSurface, error) {
		if path == "" {
			return nil, ErrNoMirrorTTY
		}
		tty, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			return nil, fmt.Errorf("open mirror terminal: %w", err)
		}
		fd := int(tty.Fd())

		id := uuid.NewString()
		program := tea.NewProgram(
			newMirrorModel(id, seed, notify),
			tea.WithInput(tty),
			tea.WithOutput(tty),
			tea.WithAltScreen(),
		)
		s := startSurface(id, program, tty, notify)
		go watchSize(fd, program, s.done)

		log.WithField("surface", id).WithField("tty", path).Info("mirror surface opened")
		return s, nil
	}
}

// startSurface runs program until it quits, then releases tty and reports
// the close to the primary.
func startSurface(id string, program *tea.Program, tty io.Closer, notify func(tea.Msg)) *ttySurface {
	s := &ttySurface{id: id, program: program, done: make(chan struct{})}
	go func() {
		if _, err := program.Run(); err != nil {
			log.WithError(err).WithField("surface", id).Warn("mirror surface stopped")
		}
		tty.Close()
		close(s.done)
		log.WithField("surface", id).Info("mirror surface closed")
		if notify != nil {
			notify(mirrorClosedMsg{id: id})
		}
	}()
	return s
}

// watchSize polls the terminal size. SIGWINCH for a foreign tty goes to that
// terminal's foreground process group, never to us.
func watchSize(fd int, program *tea.Program, done <-chan struct{}) {
	ticker := time.NewTicker(mirrorResizeInterval)
	defer ticker.Stop()
	var width, height int
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			w, h, err := term.GetSize(fd)
			if err != nil || (w == width && h == height) {
				continue
			}
			width, height = w, h
			program.Send(tea.WindowSizeMsg{Width: w, Height: h})
		}
	}
}

func (s *ttySurface) ID() string { return s.id }

func (s *ttySurface) Send(msg tea.Msg) { s.program.Send(msg) }

// Close quits the mirror and waits until it has restored its terminal.
func (s *ttySurface) Close() {
	// Quit blocks until the event loop takes the message
	go s.program.Quit()
	select {
	case <-s.done:
	case <-time.After(mirrorCloseTimeout):
		log.WithField("surface", s.id).Warn("mirror surface did not stop in time")
	}
}
