package analysis

import (
	"fmt"
	"strings"

	"github.com/san-kum/dpsim/internal/dynamo"
)

type Point struct {
	X, Y float64
}

// PhasePortrait2D holds two state slots of a trajectory, one point per
// recorded step.
type PhasePortrait2D struct {
	XIndex, YIndex int
	Points         []Point
}

// GeneratePhasePortrait replays seq and records state[xIdx] against
// state[yIdx] every stride steps. Angles are recorded unwrapped.
func GeneratePhasePortrait(seq *dynamo.Sequence, xIdx, yIdx, stride int) (*PhasePortrait2D, error) {
	if stride < 1 {
		stride = 1
	}

	portrait := &PhasePortrait2D{
		XIndex: xIdx,
		YIndex: yIdx,
		Points: make([]Point, 0, seq.Len()/stride+1),
	}

	cur := seq.Cursor()
	for cur.Next() {
		if cur.Index()%stride != 0 {
			continue
		}
		x := cur.State()
		if xIdx < 0 || yIdx < 0 || xIdx >= len(x) || yIdx >= len(x) {
			return nil, fmt.Errorf("%w: phase axes %d,%d for %d-dimensional state", dynamo.ErrDimensionMismatch, xIdx, yIdx, len(x))
		}
		portrait.Points = append(portrait.Points, Point{X: x[xIdx], Y: x[yIdx]})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	return portrait, nil
}

// Bounds returns the smallest box holding every point.
func (p *PhasePortrait2D) Bounds() (minX, maxX, minY, maxY float64) {
	if len(p.Points) == 0 {
		return 0, 0, 0, 0
	}
	minX, maxX = p.Points[0].X, p.Points[0].X
	minY, maxY = p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}
	return minX, maxX, minY, maxY
}

// PhasePortraitToASCII converts phase portrait to ASCII art
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 {
		return ""
	}

	minX, maxX, minY, maxY := portrait.Bounds()

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))

		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	// Draw axes if they cross the visible area
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if col >= 0 && col < width && canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
