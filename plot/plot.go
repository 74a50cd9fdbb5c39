// Package plot renders spectral signatures as PNG line and bar charts.
package plot

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"spectral-signatures/signature"
	"spectral-signatures/utils"
)

const (
	defaultWidth  = 1200
	defaultHeight = 600
)

// tab10 is the categorical palette used for multi-signature charts.
var tab10 = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 255, G: 127, B: 14, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 214, G: 39, B: 40, A: 255},
	color.RGBA{R: 148, G: 103, B: 189, A: 255},
	color.RGBA{R: 140, G: 86, B: 75, A: 255},
	color.RGBA{R: 227, G: 119, B: 194, A: 255},
	color.RGBA{R: 127, G: 127, B: 127, A: 255},
	color.RGBA{R: 188, G: 189, B: 34, A: 255},
	color.RGBA{R: 23, G: 190, B: 207, A: 255},
}

var (
	gold        = color.NRGBA{R: 255, G: 215, B: 0, A: 90}
	crLineColor = color.NRGBA{R: 255, G: 127, B: 14, A: 180}
)

// Group captions drawn above the three band ranges.
var groups = []struct {
	centre  float64
	caption string
}{
	{3.5, "Raw SWIR"},
	{9.5, "CR SWIR"},
	{15.5, "Gold Indices"},
}

var pathfinderLabels = []string{
	"Phyllic Sericite",
	"Argillic Kaolinite",
	"Propylitic Chlorite",
	"Composite Gold",
	"Hydrothermal Int.",
	"Advanced Argillic",
}

// Options tune RenderSignature.
type Options struct {
	// ShowIndices overlays index values of bands 13-18 as gold bars on their own scale.
	ShowIndices bool
	// ShowContinuumRemoved overlays continuum-removed values on reflectance charts.
	ShowContinuumRemoved bool
	Width, Height        int
}

type series struct {
	xs, ys []float64
}

// RenderSignature draws one signature's value sequence against band number.
func RenderSignature(sig *signature.Signature, kind signature.ValueKind, opts Options) *image.RGBA {
	primary := seriesOf(sig, kind)
	all := []series{primary}

	var cr series
	showCR := opts.ShowContinuumRemoved && kind == signature.Reflectance && hasContinuumRemoved(sig)
	if showCR {
		cr = seriesOf(sig, signature.ContinuumRemoved)
		all = append(all, cr)
	}

	c := newBandCanvas(opts.Width, opts.Height, all)
	c.frame(signatureTitle(sig, kind), "Band Number", kind.Title(), bandTicks())

	if opts.ShowIndices || kind == signature.Index {
		drawIndexBars(c, sig)
	}
	drawGroups(c)

	drawSeries(c, primary, tab10[0], 2, 0, 5)
	labels := []string{kind.Title()}
	colors := []color.Color{tab10[0]}
	if showCR {
		drawSeries(c, cr, crLineColor, 1, 6, 3)
		labels = append(labels, signature.ContinuumRemoved.Title())
		colors = append(colors, crLineColor)
	}
	c.legend(labels, colors)

	return c.img
}

// RenderMultiple overlays several signatures. Missing labels fall back to
// signature ids.
func RenderMultiple(sigs []*signature.Signature, kind signature.ValueKind, labels []string) *image.RGBA {
	all := make([]series, 0, len(sigs))
	for _, sig := range sigs {
		all = append(all, seriesOf(sig, kind))
	}

	c := newBandCanvas(0, 0, all)
	c.frame("Spectral Signature Comparison", "Band Number", kind.Title(), bandTicks())
	drawGroups(c)

	names := labelsFor(sigs, labels)
	colors := make([]color.Color, len(all))
	for i, s := range all {
		colors[i] = tab10[i%len(tab10)]
		drawSeries(c, s, colors[i], 2, 0, 4)
	}
	if len(names) > 0 {
		c.legend(names, colors)
	}

	return c.img
}

// RenderGoldPathfinders draws grouped bars of the six index bands for each
// signature. Absent index values are drawn as zero.
func RenderGoldPathfinders(sigs []*signature.Signature, labels []string) *image.RGBA {
	values := make([][]float64, len(sigs))
	yMin, yMax := 0.0, 0.0
	for i, sig := range sigs {
		values[i] = make([]float64, len(pathfinderLabels))
		for j := range pathfinderLabels {
			v, _ := sig.IndexValue(signature.FirstIndexBand + j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			values[i][j] = v
			yMin = math.Min(yMin, v)
			yMax = math.Max(yMax, v)
		}
	}
	if yMax == yMin {
		yMax = yMin + 1
	}

	c := newCanvas(900, defaultHeight, -0.5, float64(len(pathfinderLabels))-0.5, yMin, yMax*1.05)
	c.frame("Gold Pathfinder Indices Comparison", "Gold Pathfinder Index", "Index Value", nil)

	for j, label := range pathfinderLabels {
		c.text(label, c.px(float64(j)), c.area.Max.Y+17, 0, ink)
	}

	names := labelsFor(sigs, labels)
	colors := make([]color.Color, len(sigs))
	width := 0.8
	if len(sigs) > 0 {
		width = 0.8 / float64(len(sigs))
	}
	for i := range sigs {
		colors[i] = tab10[i%len(tab10)]
		for j, v := range values[i] {
			offset := (float64(i) - float64(len(sigs))/2 + 0.5) * width
			x := float64(j) + offset
			c.fillRect(image.Rect(c.px(x-width/2), c.py(0), c.px(x+width/2), c.py(v)), colors[i])
		}
	}
	if len(names) > 0 {
		c.legend(names, colors)
	}

	return c.img
}

// SavePNG encodes img to path, creating parent directories.
func SavePNG(img image.Image, path string) error {
	if err := utils.CreateFolder(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}

	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(fh, img); err != nil {
		_ = fh.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return fh.Close()
}

func seriesOf(sig *signature.Signature, kind signature.ValueKind) series {
	numbers := sig.BandNumbers()
	s := series{xs: make([]float64, len(numbers)), ys: sig.AllValues(kind)}
	for i, n := range numbers {
		s.xs[i] = float64(n)
	}
	return s
}

func hasContinuumRemoved(sig *signature.Signature) bool {
	for _, b := range sig.Bands {
		if b.ContinuumRemoved.IsSet() {
			return true
		}
	}
	return false
}

// newBandCanvas sizes the axes to the band range and the finite values of all series.
func newBandCanvas(width, height int, all []series) *canvas {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	xMin, xMax := 0.5, float64(signature.BandCount)+0.5
	yMin, yMax := math.Inf(1), math.Inf(-1)
	for _, s := range all {
		for i, y := range s.ys {
			if math.IsNaN(y) || math.IsInf(y, 0) {
				continue
			}
			yMin = math.Min(yMin, y)
			yMax = math.Max(yMax, y)
			xMin = math.Min(xMin, s.xs[i]-0.5)
			xMax = math.Max(xMax, s.xs[i]+0.5)
		}
	}

	switch {
	case math.IsInf(yMin, 0):
		yMin, yMax = 0, 1
	case yMin == yMax:
		pad := math.Max(math.Abs(yMin)*0.1, 0.5)
		yMin, yMax = yMin-pad, yMax+pad
	default:
		pad := (yMax - yMin) * 0.08
		yMin, yMax = yMin-pad, yMax+pad
	}

	return newCanvas(width, height, xMin, xMax, yMin, yMax)
}

func drawSeries(c *canvas, s series, col color.Color, width, dash, markerSize int) {
	prevX, prevY, havePrev := 0, 0, false
	for i, y := range s.ys {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			havePrev = false
			continue
		}
		x, yy := c.px(s.xs[i]), c.py(y)
		if havePrev {
			c.line(prevX, prevY, x, yy, col, width, dash)
		}
		c.marker(x, yy, markerSize, col)
		prevX, prevY, havePrev = x, yy, true
	}
}

// drawIndexBars scales index values of bands 13-18 so the largest magnitude
// fills the plot height.
func drawIndexBars(c *canvas, sig *signature.Signature) {
	peak := 0.0
	values := make([]float64, signature.BandCount+1)
	for n := signature.FirstIndexBand; n <= signature.BandCount; n++ {
		v, ok := sig.IndexValue(n)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		values[n] = v
		peak = math.Max(peak, math.Abs(v))
	}
	if peak == 0 {
		return
	}

	for n := signature.FirstIndexBand; n <= signature.BandCount; n++ {
		v := values[n]
		top := c.area.Max.Y - int(math.Abs(v)/peak*float64(c.area.Dy()))
		c.fillRect(image.Rect(c.px(float64(n)-0.4), top, c.px(float64(n)+0.4), c.area.Max.Y), gold)
	}
	c.text(fmt.Sprintf("Index max %.4g", peak), c.area.Max.X, c.area.Max.Y-6, 1, ink)
}

func drawGroups(c *canvas) {
	for _, boundary := range []float64{6.5, 12.5} {
		x := c.px(boundary)
		c.line(x, c.area.Min.Y, x, c.area.Max.Y, groupColor, 1, 5)
	}
	for _, g := range groups {
		c.text(g.caption, c.px(g.centre), c.area.Min.Y+14, 0, groupColor)
	}
}

func signatureTitle(sig *signature.Signature, kind signature.ValueKind) string {
	switch kind {
	case signature.Index:
		return "Gold Pathfinder Indices: " + sig.ID
	case signature.ContinuumRemoved:
		return "Continuum Removed Signature: " + sig.ID
	default:
		return "Spectral Signature: " + sig.ID
	}
}

func bandTicks() []float64 {
	ticks := make([]float64, signature.BandCount)
	for i := range ticks {
		ticks[i] = float64(i + 1)
	}
	return ticks
}

func labelsFor(sigs []*signature.Signature, labels []string) []string {
	names := make([]string, len(sigs))
	for i, sig := range sigs {
		if i < len(labels) && strings.TrimSpace(labels[i]) != "" {
			names[i] = labels[i]
			continue
		}
		names[i] = sig.ID
	}
	return names
}
