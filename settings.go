package main

import (
	"math"
	"strconv"
	"strings"
)

// ScrollConfig holds the presentation settings shared by every surface.
// All mutators keep each field inside its fixed range.
type ScrollConfig struct {
	Speed      float64  `json:"speed" mapstructure:"speed"`
	FontSize   int      `json:"font_size" mapstructure:"font_size"`
	LineHeight float64  `json:"line_height" mapstructure:"line_height"`
	Opacity    float64  `json:"opacity" mapstructure:"opacity"`
	Infinite   bool     `json:"infinite_scroll" mapstructure:"infinite_scroll"`
	Flip       FlipMode `json:"flip" mapstructure:"-"`
}

func defaultScrollConfig() ScrollConfig {
	return ScrollConfig{
		Speed:      1,
		FontSize:   32,
		LineHeight: 1.5,
		Opacity:    1,
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round2 keeps repeated 0.1 steps from drifting (0.30000000000000004).
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (c *ScrollConfig) AdjustSpeed(delta float64) {
	c.Speed = round2(clampFloat(c.Speed+delta, minSpeed, maxSpeed))
}

func (c *ScrollConfig) AdjustFontSize(delta int) {
	c.FontSize = clampInt(c.FontSize+delta, minFontSize, maxFontSize)
}

func (c *ScrollConfig) AdjustOpacity(delta float64) {
	c.Opacity = round2(clampFloat(c.Opacity+delta, minOpacity, maxOpacity))
}

func (c *ScrollConfig) AdjustLineHeight(delta float64) {
	c.LineHeight = round2(clampFloat(c.LineHeight+delta, minLineHeight, maxLineHeight))
}

// SetLineHeight parses a numeric field value. Input that is not a number is
// ignored and the previous value retained.
func (c *ScrollConfig) SetLineHeight(input string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	c.LineHeight = round2(clampFloat(v, minLineHeight, maxLineHeight))
	return true
}

func (c *ScrollConfig) ToggleInfinite() {
	c.Infinite = !c.Infinite
}

func (c *ScrollConfig) CycleFlip() {
	c.Flip = (c.Flip + 1) % 3
}

// Normalize clamps every field. Used on values that did not come through
// the step mutators: config defaults and state posted by the mirror.
func (c ScrollConfig) Normalize() ScrollConfig {
	c.Speed = round2(clampFloat(c.Speed, minSpeed, maxSpeed))
	c.FontSize = clampInt(c.FontSize, minFontSize, maxFontSize)
	c.LineHeight = round2(clampFloat(c.LineHeight, minLineHeight, maxLineHeight))
	c.Opacity = round2(clampFloat(c.Opacity, minOpacity, maxOpacity))
	if c.Flip < FlipNone || c.Flip > FlipVertical {
		c.Flip = FlipNone
	}
	return c
}

func (f FlipMode) String() string {
	switch f {
	case FlipHorizontal:
		return "horizontal"
	case FlipVertical:
		return "vertical"
	default:
		return "none"
	}
}

func parseFlipMode(s string) FlipMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "horizontal", "h", "mirror":
		return FlipHorizontal
	case "vertical", "v":
		return FlipVertical
	default:
		return FlipNone
	}
}
