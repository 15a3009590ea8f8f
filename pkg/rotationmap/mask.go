package rotationmap

import (
	"math"

	"github.com/joshcalcino/eddy/pkg/params"
)

// CalcIVar builds the inverse variance map for the given model. A pixel
// contributes 1/sigma^2 when it passes the radial, azimuthal, velocity and
// finite data cuts and has a positive uncertainty, and zero otherwise.
func (m *Map) CalcIVar(mod params.Model) ([]float64, error) {
	f, err := m.diskCoords(mod)
	if err != nil {
		return nil, err
	}

	ivar := make([]float64, len(m.Data))
	for i := range m.Data {
		r, t := f.R[i], f.T[i]
		if mod.Mask.AbsPA {
			t = math.Abs(t)
		}

		maskR := r >= mod.Mask.RMin && r <= mod.Mask.RMax
		if mod.Mask.ExcludeR {
			maskR = !maskR
		}

		maskT := t >= mod.Mask.PAMin && t <= mod.Mask.PAMax
		if mod.Mask.ExcludePA {
			maskT = !maskT
		}

		d := m.Data[i]
		maskF := !math.IsNaN(d) && !math.IsInf(d, 0) && m.Err[i] > 0.0

		maskV := d >= mod.Mask.VMin && d <= mod.Mask.VMax
		if mod.Mask.ExcludeV {
			maskV = !maskV
		}

		if maskR && maskT && maskF && maskV {
			ivar[i] = math.Pow(m.Err[i], -2.0)
		}
	}
	return ivar, nil
}
