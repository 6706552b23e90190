package analysis

import (
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/integrators"
	"github.com/san-kum/dpsim/internal/physics"
)

func smallSwing(t *testing.T) *dynamo.Sequence {
	t.Helper()
	dp := physics.NewDoublePendulum()
	dp.Dissipation = 1
	seq, err := dynamo.NewSequence(dp, integrators.NewRK4(), physics.InitialState(0.1, 0, 0, 0), dynamo.Config{Dt: 0.01, Duration: 1})
	if err != nil {
		t.Fatal(err)
	}
	return seq
}

func TestGeneratePhasePortrait(t *testing.T) {
	seq := smallSwing(t)

	p, err := GeneratePhasePortrait(seq, physics.IdxTheta1, physics.IdxOmega1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Points) != 10 {
		t.Fatalf("expected 10 points, got %d", len(p.Points))
	}
	if p.Points[0] != (Point{X: 0.1, Y: 0}) {
		t.Errorf("expected first point at the initial condition, got %+v", p.Points[0])
	}

	minX, maxX, _, _ := p.Bounds()
	if maxX > 0.1+1e-6 || minX < -0.1-1e-6 {
		t.Errorf("small swing left its amplitude: [%f, %f]", minX, maxX)
	}
}

func TestGeneratePhasePortraitBadAxis(t *testing.T) {
	_, err := GeneratePhasePortrait(smallSwing(t), 0, 7, 1)
	if !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestPhasePortraitToASCII(t *testing.T) {
	p, err := GeneratePhasePortrait(smallSwing(t), physics.IdxTheta1, physics.IdxOmega1, 1)
	if err != nil {
		t.Fatal(err)
	}

	out := PhasePortraitToASCII(p, 40, 12)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 12 {
		t.Fatalf("expected 12 rows, got %d", len(lines))
	}
	if !strings.ContainsRune(out, '•') {
		t.Error("expected plotted points")
	}

	if PhasePortraitToASCII(&PhasePortrait2D{}, 40, 12) != "" {
		t.Error("expected empty output for empty portrait")
	}
}
