package dynamo_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/integrators"
	"github.com/san-kum/dpsim/internal/physics"
)

func lengthJob(l2 float64) dynamo.Job {
	return dynamo.Job{
		Name: fmt.Sprintf("l2=%g", l2),
		Build: func() (*dynamo.Sequence, error) {
			dp := classic()
			if err := dp.SetParam("l2", l2); err != nil {
				return nil, err
			}
			return dynamo.NewSequence(dp, integrators.NewRK4(), physics.InitialState(1, 1, 0, 0), dynamo.Config{Dt: 0.001, Duration: 0.2})
		},
	}
}

func TestEnsembleKeepsJobOrder(t *testing.T) {
	lengths := []float64{0.5, 1.0, 1.5, 2.0}
	jobs := make([]dynamo.Job, len(lengths))
	for i, l2 := range lengths {
		jobs[i] = lengthJob(l2)
	}

	results, err := dynamo.NewEnsemble(2, jobs...).Run(context.Background())
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != len(lengths) {
		t.Fatalf("expected %d results, got %d", len(lengths), len(results))
	}

	for i, l2 := range lengths {
		first := results[i].Trajectory[0]
		// second rod hangs from the first at theta2 = 1
		want := classic()
		want.L2 = l2
		if first != want.TipPositions(1, 1) {
			t.Errorf("result %d does not belong to l2=%g", i, l2)
		}
	}
}

func TestEnsembleMatchesSequentialRun(t *testing.T) {
	results, err := dynamo.NewEnsemble(0, lengthJob(1.3)).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	seq, err := lengthJob(1.3).Build()
	if err != nil {
		t.Fatal(err)
	}
	single, err := seq.Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	for i := range single.Trajectory {
		if single.Trajectory[i] != results[0].Trajectory[i] {
			t.Fatalf("sample %d differs between ensemble and sequential run", i)
		}
	}
}

func TestEnsembleReportsFailure(t *testing.T) {
	bad := dynamo.Job{
		Name: "broken",
		Build: func() (*dynamo.Sequence, error) {
			dp := classic()
			dp.L2 = 0
			return dynamo.NewSequence(dp, integrators.NewRK4(), physics.InitialState(1, 1, 0, 0), dynamo.DefaultConfig())
		},
	}

	results, err := dynamo.NewEnsemble(2, lengthJob(1), bad).Run(context.Background())
	if results != nil {
		t.Error("expected no results on failure")
	}
	if !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}
