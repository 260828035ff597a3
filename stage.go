package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// stage is one rendering surface: the script, its presentation settings and
// its own playback. The primary program and the mirror each own one.
type stage struct {
	script        Script
	config        ScrollConfig
	playback      PlaybackState
	width         int
	height        int
	frameInterval time.Duration
	// resets counts manual resets so a replayed snapshot resets at most once
	resets int

	lines []string
}

func newStage(script Script, config ScrollConfig, frameInterval time.Duration) stage {
	if frameInterval <= 0 {
		frameInterval = defaultFrameInterval
	}
	s := stage{
		script:        script,
		config:        config.Normalize(),
		frameInterval: frameInterval,
	}
	s.relayout()
	return s
}

func (s *stage) rowPx() float64 {
	return float64(s.config.FontSize) * s.config.LineHeight
}

// wrapColumns narrows the text column as the font grows; a 16px font uses
// the full terminal width.
func (s *stage) wrapColumns() int {
	width := s.width
	if width <= 0 {
		width = 80
	}
	cols := width * minFontSize / s.config.FontSize
	if cols < minWrapColumns {
		cols = minWrapColumns
	}
	if cols > width {
		cols = width
	}
	return cols
}

func (s *stage) viewportRows() int {
	rows := s.height - chromeRows
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (s *stage) relayout() {
	s.lines = nil
	if s.script.Text != "" {
		wrapped := wrapText(s.script.Text, s.wrapColumns())
		if s.config.Infinite {
			lines := make([]string, 0, len(wrapped)*2+1)
			lines = append(lines, wrapped...)
			lines = append(lines, "")
			lines = append(lines, wrapped...)
			wrapped = lines
		}
		s.lines = wrapped
	}
	s.playback.Refit(s.layout())
}

func (s *stage) layout() scrollLayout {
	row := s.rowPx()
	return scrollLayout{
		contentHeight:  float64(len(s.lines)) * row,
		viewportHeight: float64(s.viewportRows()) * row,
		infinite:       s.config.Infinite,
	}
}

func (s *stage) resize(width, height int) {
	s.width = width
	s.height = height
	s.relayout()
}

func (s *stage) setScript(script Script) {
	s.script = script
	s.playback.Reset()
	s.relayout()
}

// setConfig replaces the settings wholesale; layout is recomputed only when a
// field that changes geometry moved.
func (s *stage) setConfig(config ScrollConfig) {
	config = config.Normalize()
	needsLayout := config.FontSize != s.config.FontSize ||
		config.LineHeight != s.config.LineHeight ||
		config.Infinite != s.config.Infinite
	s.config = config
	if needsLayout {
		s.relayout()
	}
}

func (s *stage) setPlaying(playing bool) tea.Cmd {
	if playing == s.playback.Playing {
		return nil
	}
	if !playing {
		s.playback.Stop()
		return nil
	}
	gen := s.playback.Start()
	return scheduleFrame(gen, s.frameInterval)
}

func (s *stage) seek(step float64) {
	s.playback.Seek(step, s.layout())
}

// handleFrame advances one tick and reschedules. Frames from a cancelled
// stream fall through without scheduling another.
func (s *stage) handleFrame(msg frameMsg) tea.Cmd {
	if !s.playback.Current(msg.gen) {
		return nil
	}
	s.playback.Advance(monotonicMillis(msg.at), s.config, s.layout())
	return scheduleFrame(msg.gen, s.frameInterval)
}

func wrapText(text string, cols int) []string {
	text = strings.ReplaceAll(text, "\t", "    ")
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		if paragraph == "" {
			lines = append(lines, "")
			continue
		}
		wrapped := wrap.String(wordwrap.String(paragraph, cols), cols)
		for _, line := range strings.Split(wrapped, "\n") {
			lines = append(lines, strings.TrimRight(line, " "))
		}
	}
	return lines
}

// windowLines returns the wrapped rows inside the viewport, unflipped.
func (s *stage) windowLines() []string {
	top := 0
	if row := s.rowPx(); row > 0 {
		top = int(math.Floor(s.playback.Offset / row))
	}
	out := make([]string, s.viewportRows())
	for i := range out {
		if idx := top + i; idx >= 0 && idx < len(s.lines) {
			out[i] = s.lines[idx]
		}
	}
	return out
}

// visibleLines returns the rows currently inside the viewport, flipped and
// padded to the text column, without styling.
func (s *stage) visibleLines() []string {
	cols := s.wrapColumns()
	out := s.windowLines()
	for i, line := range out {
		if s.config.Flip == FlipHorizontal {
			out[i] = mirrorLine(line, cols)
		} else {
			out[i] = padLine(line, cols)
		}
	}
	if s.config.Flip == FlipVertical {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func padLine(line string, cols int) string {
	if w := runewidth.StringWidth(line); w < cols {
		return line + strings.Repeat(" ", cols-w)
	}
	return runewidth.Truncate(line, cols, "")
}

// mirrorLine reverses a line for reading through teleprompter glass and
// right-aligns it so the left margin lands on the right.
func mirrorLine(line string, cols int) string {
	runes := []rune(line)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	reversed := string(runes)
	if w := runewidth.StringWidth(reversed); w < cols {
		return strings.Repeat(" ", cols-w) + reversed
	}
	return runewidth.Truncate(reversed, cols, "")
}

func opacityColor(opacity float64) lipgloss.Color {
	level := int(math.Round(255 * clampFloat(opacity, 0, 1)))
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", level, level, level))
}

func formatSpeed(speed float64) string {
	return strconv.FormatFloat(speed, 'f', -1, 64) + "x"
}

var (
	controlBarStyle = lipgloss.NewStyle().Reverse(true)
	playingStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	selectedStyle   = lipgloss.NewStyle().Reverse(true)
	dimStyle        = lipgloss.NewStyle().Faint(true)
)

func (s *stage) renderText() string {
	width := s.width
	if width <= 0 {
		width = 80
	}
	style := lipgloss.NewStyle().Foreground(opacityColor(s.config.Opacity))
	lines := s.visibleLines()
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line))
	}
	return strings.Join(lines, "\n")
}

func (s *stage) controlBar(extra string) string {
	state := "❚❚ paused"
	if s.playback.Playing {
		state = playingStyle.Render("▶ playing")
	}
	infinite := "off"
	if s.config.Infinite {
		infinite = "on"
	}
	bar := fmt.Sprintf(" %s | speed %s | font %dpx | line %.1f | opacity %d%% | loop %s | flip %s",
		state,
		formatSpeed(s.config.Speed),
		s.config.FontSize,
		s.config.LineHeight,
		int(math.Round(s.config.Opacity*100)),
		infinite,
		s.config.Flip,
	)
	if extra != "" {
		bar += " | " + extra
	}
	width := s.width
	if width <= 0 {
		width = 80
	}
	return controlBarStyle.Width(width).MaxWidth(width).Render(bar)
}
