package scene

import (
	"iter"

	"github.com/san-kum/dpsim/internal/dynamo"
)

type Point struct {
	X, Y float64
}

// Frame is one rendered image: the pendulum at Index plus the recent path
// of the second mass, oldest first, ending at the current position.
type Frame struct {
	Index  int
	Time   float64
	Sample dynamo.Sample
	Trail  []Point
}

// FrameCount is the number of frames Frames yields for n samples.
func (c Config) FrameCount(n int, dt float64) int {
	stride := c.Stride(dt)
	return (n + stride - 1) / stride
}

// Frames yields every Stride-th sample of tr. The trail for frame it holds
// the samples in [max(it-window, 0), it-stride) at the frame stride; it is
// empty until that range is non-empty.
func (c Config) Frames(tr dynamo.Trajectory, dt float64) iter.Seq[Frame] {
	stride := c.Stride(dt)
	window := c.TrailWindow(dt)

	return func(yield func(Frame) bool) {
		for it := 0; it < len(tr); it += stride {
			f := Frame{
				Index:  it,
				Time:   float64(it) * dt,
				Sample: tr[it],
			}

			start := max(it-window, 0)
			end := it - stride
			if end > start {
				f.Trail = make([]Point, 0, (end-start)/stride+2)
				for n := start; n < end; n += stride {
					f.Trail = append(f.Trail, Point{X: tr[n].X2, Y: tr[n].Y2})
				}
				f.Trail = append(f.Trail, Point{X: tr[it].X2, Y: tr[it].Y2})
			}

			if !yield(f) {
				return
			}
		}
	}
}
