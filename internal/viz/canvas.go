package viz

import (
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a grid of braille cells, 2x4 dots each.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at (x, y) in dot coordinates. The canvas is
// Width*2 by Height*4 dots; anything outside is dropped.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// Dot draws a 3x3 blob centred on (x, y).
func (c *Canvas) Dot(x, y int) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			c.Set(x+dx, y+dy)
		}
	}
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Viewport maps world coordinates, y up, onto canvas dots. The square
// [-Extent, Extent]² fits the shorter side of the canvas and the origin
// sits in the middle.
type Viewport struct {
	cx, cy int
	scale  float64
}

func NewViewport(c *Canvas, extent float64) Viewport {
	w, h := c.Width*2, c.Height*4
	if extent <= 0 {
		extent = 1
	}
	return Viewport{
		cx:    w / 2,
		cy:    h / 2,
		scale: float64(min(w, h)/2-1) / extent,
	}
}

func (v Viewport) Project(x, y float64) (int, int) {
	return v.cx + int(math.Round(x*v.scale)), v.cy - int(math.Round(y*v.scale))
}
