package scene_test

import (
	"errors"
	"math"
	"slices"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/scene"
)

// numbered builds a trajectory whose second mass sits at (i, -i) on sample i.
func numbered(n int) dynamo.Trajectory {
	tr := make(dynamo.Trajectory, n)
	for i := range tr {
		tr[i] = dynamo.Sample{X1: 0, Y1: 0, X2: float64(i), Y2: -float64(i)}
	}
	return tr
}

func trailIndices(f scene.Frame) []int {
	idx := make([]int, len(f.Trail))
	for i, p := range f.Trail {
		idx[i] = int(p.X)
	}
	return idx
}

var _ = Describe("Config", func() {
	var cfg scene.Config

	BeforeEach(func() {
		cfg = scene.DefaultConfig()
	})

	Describe("Validate", func() {
		It("accepts the defaults", func() {
			Expect(cfg.Validate()).To(Succeed())
		})

		It("rejects a trail as long as the animation", func() {
			cfg.TimeMax = 5
			cfg.TrailSeconds = 5

			err := cfg.Validate()
			Expect(err).To(MatchError(ContainSubstring("seconds of trail must be smaller than time of animation")))
			Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())

			var cerr *scene.ConfigError
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.Field).To(Equal("trail_seconds"))
		})

		It("rejects a trail shorter than one frame", func() {
			cfg.FrameRate = 30
			cfg.TrailSeconds = 0.01

			Expect(cfg.Validate()).To(MatchError(ContainSubstring("seconds of trail must be greater than runtime of each frame")))
		})

		It("accepts a trail of exactly one frame", func() {
			cfg.FrameRate = 25
			cfg.TrailSeconds = 0.04

			Expect(cfg.Validate()).To(Succeed())
		})

		It("rejects a non-positive frame rate", func() {
			cfg.FrameRate = 0
			Expect(cfg.Validate()).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("rejects a non-positive animation time", func() {
			cfg.TimeMax = 0
			cfg.TrailSeconds = -1
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("time_max")))
		})

		It("rejects a NaN trail", func() {
			cfg.TrailSeconds = math.NaN()

			err := cfg.Validate()
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
			Expect(err).To(MatchError(ContainSubstring("trail_seconds")))
		})

		It("rejects an infinite animation time", func() {
			cfg.TimeMax = math.Inf(1)
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("time_max")))
		})
	})

	Describe("Stride and TrailWindow", func() {
		It("truncates runtime/dt", func() {
			Expect(cfg.Stride(0.0001)).To(Equal(166))
			Expect(cfg.TrailWindow(0.0001)).To(Equal(25000))
		})

		It("does not lose a step to rounding", func() {
			cfg.FrameRate = 100
			cfg.TrailSeconds = 0.03
			Expect(cfg.Stride(0.0001)).To(Equal(100))
			Expect(cfg.TrailWindow(0.01)).To(Equal(3))
		})

		It("never drops below one step per frame", func() {
			Expect(cfg.Stride(1)).To(Equal(1))
		})
	})
})

var _ = Describe("Frames", func() {
	var (
		cfg scene.Config
		dt  float64
	)

	BeforeEach(func() {
		// stride 10, window 30
		cfg = scene.Config{FrameRate: 10, TimeMax: 10, TrailSeconds: 0.3}
		dt = 0.01
	})

	It("yields every stride-th sample", func() {
		tr := numbered(35)

		var idx []int
		for f := range cfg.Frames(tr, dt) {
			idx = append(idx, f.Index)
			Expect(f.Sample).To(Equal(tr[f.Index]))
			Expect(f.Time).To(BeNumerically("~", float64(f.Index)*dt, 1e-12))
		}
		Expect(idx).To(Equal([]int{0, 10, 20, 30}))
		Expect(cfg.FrameCount(len(tr), dt)).To(Equal(4))
	})

	It("builds the trail from the window behind each frame", func() {
		frames := slices.Collect(cfg.Frames(numbered(61), dt))
		Expect(frames).To(HaveLen(7))

		Expect(frames[0].Trail).To(BeEmpty())
		Expect(frames[1].Trail).To(BeEmpty())
		Expect(trailIndices(frames[2])).To(Equal([]int{0, 20}))
		Expect(trailIndices(frames[3])).To(Equal([]int{0, 10, 30}))
		Expect(trailIndices(frames[4])).To(Equal([]int{10, 20, 40}))
		Expect(trailIndices(frames[6])).To(Equal([]int{30, 40, 60}))
	})

	It("ends every trail at the current mass-2 position", func() {
		for f := range cfg.Frames(numbered(100), dt) {
			if len(f.Trail) == 0 {
				continue
			}
			last := f.Trail[len(f.Trail)-1]
			Expect(last).To(Equal(scene.Point{X: f.Sample.X2, Y: f.Sample.Y2}))
		}
	})

	It("stops when the consumer breaks", func() {
		n := 0
		for range cfg.Frames(numbered(1000), dt) {
			n++
			if n == 3 {
				break
			}
		}
		Expect(n).To(Equal(3))
	})

	It("yields nothing for an empty trajectory", func() {
		Expect(slices.Collect(cfg.Frames(nil, dt))).To(BeEmpty())
	})
})
