package FSI2D

import (
	"math"

	"github.com/notargets/gofsi/fespace"
)

// Zero holds a field at rest
type Zero struct{}

func (Zero) Value([2]float64, float64) [2]float64          { return [2]float64{} }
func (Zero) TimeDerivative([2]float64, float64) [2]float64 { return [2]float64{} }

/*
Ramp is a parabolic inflow profile in x, zero at YMin and YMax with peak U at
mid height, switched on smoothly over RampTime:
  v = U 4 (y - ymin)(ymax - y)/H^2 * (1 - cos(pi t/T))/2 for t < T, full profile after
*/
type Ramp struct {
	U          float64
	RampTime   float64
	YMin, YMax float64
}

var _ fespace.BoundaryFunc = Ramp{}

func (r Ramp) profile(y float64) float64 {
	H := r.YMax - r.YMin
	return r.U * 4 * (y - r.YMin) * (r.YMax - y) / (H * H)
}

func (r Ramp) ramp(t float64) (s, ds float64) {
	switch {
	case t <= 0:
		return 0, 0
	case t >= r.RampTime:
		return 1, 0
	}
	w := math.Pi / r.RampTime
	return 0.5 * (1 - math.Cos(w*t)), 0.5 * w * math.Sin(w*t)
}

func (r Ramp) Value(x [2]float64, t float64) [2]float64 {
	s, _ := r.ramp(t)
	return [2]float64{s * r.profile(x[1]), 0}
}

func (r Ramp) TimeDerivative(x [2]float64, t float64) [2]float64 {
	_, ds := r.ramp(t)
	return [2]float64{ds * r.profile(x[1]), 0}
}
