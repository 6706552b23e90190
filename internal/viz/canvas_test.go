package viz

import (
	"strings"
	"testing"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)

	if c.Grid[0][0] != brailleBlank|0x1 {
		t.Errorf("expected dot 1 in first cell, got %U", c.Grid[0][0])
	}
	if c.Grid[0][1] != brailleBlank|0x80 {
		t.Errorf("expected dot 8 in second cell, got %U", c.Grid[0][1])
	}

	// out of range is ignored
	c.Set(-1, 0)
	c.Set(4, 0)
	c.Set(0, 4)
}

func TestCanvasClear(t *testing.T) {
	c := NewCanvas(3, 2)
	c.DrawLine(0, 0, 5, 7)
	c.Clear()
	for _, row := range c.Grid {
		for _, r := range row {
			if r != brailleBlank {
				t.Fatalf("expected blank cell, got %U", r)
			}
		}
	}
}

func TestDrawLineHitsEndpoints(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(1, 1, 17, 18)

	if c.Grid[1/4][1/2]&rune(pixelMap[1][1]) == 0 {
		t.Error("expected start point set")
	}
	if c.Grid[18/4][17/2]&rune(pixelMap[18%4][17%2]) == 0 {
		t.Error("expected end point set")
	}
}

func TestCanvasString(t *testing.T) {
	out := NewCanvas(4, 3).String()
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Errorf("expected 3 lines, got %d", len(lines))
	}
}

func TestViewport(t *testing.T) {
	c := NewCanvas(60, 24)
	v := NewViewport(c, 4)

	ox, oy := v.Project(0, 0)
	if ox != 60 || oy != 48 {
		t.Errorf("expected origin at (60, 48), got (%d, %d)", ox, oy)
	}

	// y up in world space is up on screen
	_, up := v.Project(0, 1)
	if up >= oy {
		t.Errorf("expected positive y above origin, got %d vs %d", up, oy)
	}

	// the whole extent stays on the canvas
	for _, p := range [][2]float64{{4, 4}, {-4, -4}, {4, -4}, {-4, 4}} {
		x, y := v.Project(p[0], p[1])
		if x < 0 || y < 0 || x >= c.Width*2 || y >= c.Height*4 {
			t.Errorf("corner %v projected off canvas to (%d, %d)", p, x, y)
		}
	}
}
