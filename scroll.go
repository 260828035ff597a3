package main

import (
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// clockEpoch anchors frame timestamps. time.Time carries a monotonic
// reading, so Sub against it is immune to wall-clock jumps.
var clockEpoch = time.Now()

func monotonicMillis(t time.Time) float64 {
	return float64(t.Sub(clockEpoch)) / float64(time.Millisecond)
}

// ScrollDelta returns the pixel distance to scroll between two frame
// timestamps given in milliseconds.
func ScrollDelta(prev, cur float64, cfg ScrollConfig) float64 {
	fontFactor := float64(cfg.FontSize) / baseFontSize
	return baseSpeed * fontFactor * cfg.Speed * (cur - prev)
}

// scrollLayout is the measured geometry of a surface in virtual pixels.
type scrollLayout struct {
	contentHeight  float64
	viewportHeight float64
	infinite       bool
}

func (l scrollLayout) maxOffset() float64 {
	return math.Max(0, l.contentHeight-l.viewportHeight)
}

type PlaybackState struct {
	Playing bool
	Offset  float64

	lastFrame float64
	hasFrame  bool
	// gen identifies the live tick stream; frames from older streams are dropped.
	gen int
}

type frameMsg struct {
	gen int
	at  time.Time
}

func scheduleFrame(gen int, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return frameMsg{gen: gen, at: t}
	})
}

// Start begins a new tick stream and returns its generation.
func (p *PlaybackState) Start() int {
	p.Playing = true
	p.hasFrame = false
	p.gen++
	return p.gen
}

// Stop cancels the pending tick: its generation no longer matches.
func (p *PlaybackState) Stop() {
	p.Playing = false
	p.hasFrame = false
	p.gen++
}

func (p *PlaybackState) Reset() {
	p.Stop()
	p.Offset = 0
}

func (p *PlaybackState) Current(gen int) bool {
	return p.Playing && gen == p.gen
}

// Advance applies one frame. The first frame of a stream only records its
// timestamp.
func (p *PlaybackState) Advance(now float64, cfg ScrollConfig, lay scrollLayout) float64 {
	if !p.Playing {
		return 0
	}
	if !p.hasFrame {
		p.lastFrame = now
		p.hasFrame = true
		return 0
	}
	delta := ScrollDelta(p.lastFrame, now, cfg)
	p.lastFrame = now
	if delta < 0 {
		delta = 0
	}
	p.Offset += delta

	if lay.infinite {
		// content is two copies plus a spacer row; halfway means the first copy is gone
		if p.Offset >= lay.contentHeight/2 {
			p.Offset = 0
		}
	} else if p.Offset > lay.maxOffset() {
		p.Offset = lay.maxOffset()
	}
	return delta
}

// Seek moves the offset by a fixed step outside the animation loop.
func (p *PlaybackState) Seek(step float64, lay scrollLayout) {
	p.Offset = clampFloat(p.Offset+step, 0, lay.maxOffset())
}

// Refit pulls the offset back inside the content after a relayout (font,
// line height or text change shrank the content).
func (p *PlaybackState) Refit(lay scrollLayout) {
	if lay.contentHeight <= 0 {
		p.Offset = 0
		return
	}
	if lay.infinite {
		if p.Offset >= lay.contentHeight/2 {
			p.Offset = 0
		}
		return
	}
	if p.Offset > lay.maxOffset() {
		p.Offset = lay.maxOffset()
	}
}
