package main

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

var errNothingToExport = errors.New("nothing to export")

// gomono advances every glyph by 0.6em.
const monoAdvance = 0.6

func exportFilename(script Script, ext string) string {
	base := "prompt"
	if script.Filename != "" {
		name := filepath.Base(script.Filename)
		name = strings.TrimSuffix(name, filepath.Ext(name))
		name = strings.NewReplacer(":", "-", " ", "_").Replace(name)
		if name != "" && name != "." {
			base = name
		}
	}
	return fmt.Sprintf("%s-%s.%s", base, time.Now().Format("20060102-150405"), ext)
}

// exportVisualTXT writes the frame exactly as the terminal shows it.
func (m *model) exportVisualTXT(filename string) error {
	if m.stage.script.Text == "" {
		return errNothingToExport
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	for _, line := range m.stage.visibleLines() {
		if _, err := fmt.Fprintln(file, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// exportPNG renders the current frame at real pixel size: the configured
// font size, line height and opacity, with the flip applied as an actual
// image transform.
func (m *model) exportPNG(filename string) error {
	s := &m.stage
	if s.script.Text == "" {
		return errNothingToExport
	}

	fontSize := float64(s.config.FontSize)
	rowPx := s.rowPx()
	cols := s.wrapColumns()
	padding := fontSize

	imageWidth := int(float64(cols)*fontSize*monoAdvance + 2*padding)
	imageHeight := int(float64(s.viewportRows())*rowPx + 2*padding)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(color.Black)
	dc.Clear()

	ttfFont, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return fmt.Errorf("failed to parse font: %v", err)
	}
	face := truetype.NewFace(ttfFont, &truetype.Options{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	dc.SetFontFace(face)

	switch s.config.Flip {
	case FlipHorizontal:
		dc.Translate(float64(imageWidth), 0)
		dc.Scale(-1, 1)
	case FlipVertical:
		dc.Translate(0, float64(imageHeight))
		dc.Scale(1, -1)
	}

	level := uint8(255 * s.config.Opacity)
	dc.SetColor(color.RGBA{R: level, G: level, B: level, A: 255})
	for i, line := range s.windowLines() {
		if line == "" {
			continue
		}
		// baseline sits at the bottom of the glyph box, centered in its row
		y := padding + float64(i)*rowPx + (rowPx+fontSize)/2 - fontSize*0.2
		dc.DrawString(line, padding, y)
	}

	return dc.SavePNG(filename)
}
