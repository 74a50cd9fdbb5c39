package plot

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	marginLeft   = 70
	marginRight  = 30
	marginTop    = 40
	marginBottom = 50
	tickCount    = 5
)

var (
	background = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	ink        = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	gridColor  = color.NRGBA{R: 128, G: 128, B: 128, A: 60}
	groupColor = color.NRGBA{R: 128, G: 128, B: 128, A: 110}
)

// canvas maps data coordinates onto the plot area of an RGBA image.
type canvas struct {
	img                    *image.RGBA
	area                   image.Rectangle
	xMin, xMax, yMin, yMax float64
	face                   font.Face
}

func newCanvas(width, height int, xMin, xMax, yMin, yMax float64) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	if xMax <= xMin {
		xMax = xMin + 1
	}
	if yMax <= yMin {
		yMax = yMin + 1
	}

	return &canvas{
		img:  img,
		area: image.Rect(marginLeft, marginTop, width-marginRight, height-marginBottom),
		xMin: xMin,
		xMax: xMax,
		yMin: yMin,
		yMax: yMax,
		face: basicfont.Face7x13,
	}
}

func (c *canvas) px(x float64) int {
	frac := (x - c.xMin) / (c.xMax - c.xMin)
	return c.area.Min.X + int(math.Round(frac*float64(c.area.Dx())))
}

func (c *canvas) py(y float64) int {
	frac := (y - c.yMin) / (c.yMax - c.yMin)
	return c.area.Max.Y - int(math.Round(frac*float64(c.area.Dy())))
}

func (c *canvas) set(x, y int, col color.Color) {
	if !(image.Point{X: x, Y: y}.In(c.img.Bounds())) {
		return
	}
	r, g, b, a := col.RGBA()
	if a == 0xffff {
		c.img.Set(x, y, col)
		return
	}
	dst := c.img.RGBAAt(x, y)
	blend := func(src uint32, dst uint8) uint8 {
		return uint8((src + uint32(dst)*257*(0xffff-a)/0xffff) >> 8)
	}
	c.img.SetRGBA(x, y, color.RGBA{R: blend(r, dst.R), G: blend(g, dst.G), B: blend(b, dst.B), A: 255})
}

// line draws a Bresenham segment; dash > 0 leaves gaps every dash pixels.
func (c *canvas) line(x0, y0, x1, y1 int, col color.Color, width, dash int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for step := 0; ; step++ {
		if dash <= 0 || (step/dash)%2 == 0 {
			for o := 0; o < width; o++ {
				c.set(x0+o-width/2, y0, col)
				c.set(x0, y0+o-width/2, col)
			}
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *canvas) fillRect(r image.Rectangle, col color.Color) {
	r = r.Canon().Intersect(c.img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c.set(x, y, col)
		}
	}
}

func (c *canvas) marker(x, y, size int, col color.Color) {
	for dy := -size; dy <= size; dy++ {
		for dx := -size; dx <= size; dx++ {
			if dx*dx+dy*dy <= size*size {
				c.set(x+dx, y+dy, col)
			}
		}
	}
}

// text draws s with its baseline at y; align is -1 left, 0 centre, 1 right.
func (c *canvas) text(s string, x, y, align int, col color.Color) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
	}
	width := d.MeasureString(s).Round()
	switch align {
	case 0:
		x -= width / 2
	case 1:
		x -= width
	}
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// frame draws the axes, horizontal grid, tick labels and titles.
func (c *canvas) frame(title, xLabel, yLabel string, xTicks []float64) {
	for i := 0; i <= tickCount; i++ {
		v := c.yMin + (c.yMax-c.yMin)*float64(i)/tickCount
		y := c.py(v)
		c.line(c.area.Min.X, y, c.area.Max.X, y, gridColor, 1, 0)
		c.text(formatTick(v), c.area.Min.X-6, y+4, 1, ink)
	}
	for _, v := range xTicks {
		x := c.px(v)
		c.line(x, c.area.Max.Y, x, c.area.Max.Y+4, ink, 1, 0)
		c.text(strconv.FormatFloat(v, 'f', -1, 64), x, c.area.Max.Y+17, 0, ink)
	}

	c.line(c.area.Min.X, c.area.Min.Y, c.area.Min.X, c.area.Max.Y, ink, 1, 0)
	c.line(c.area.Min.X, c.area.Max.Y, c.area.Max.X, c.area.Max.Y, ink, 1, 0)

	c.text(title, (c.area.Min.X+c.area.Max.X)/2, marginTop-15, 0, ink)
	c.text(xLabel, (c.area.Min.X+c.area.Max.X)/2, c.area.Max.Y+38, 0, ink)
	c.text(yLabel, 4, marginTop-15, -1, ink)
}

// legend lists labels with their colours in the top right of the plot area.
func (c *canvas) legend(labels []string, colors []color.Color) {
	y := c.area.Min.Y + 16
	for i, label := range labels {
		x := c.area.Max.X - 10
		d := &font.Drawer{Face: c.face}
		width := d.MeasureString(label).Round()
		c.fillRect(image.Rect(x-width-18, y-9, x-width-8, y+1), colors[i%len(colors)])
		c.text(label, x, y, 1, ink)
		y += 15
	}
}

func formatTick(v float64) string {
	if math.Abs(v) >= 100 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
