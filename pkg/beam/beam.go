// Package beam provides the synthesised beam model and image convolution
// used to degrade model maps to the resolution of the observations.
package beam

import (
	"math"
)

// FWHM converts a Gaussian standard deviation to full width at half
// maximum.
const FWHM = 2.3548200450309493

// Beam is an elliptical Gaussian restoring beam. The axes are the full
// widths at half maximum in [arcsec] and the position angle is in
// [degrees], measured east of north.
type Beam struct {
	Maj, Min, PA float64
}

// Kernel is a normalised convolution kernel on the pixel grid.
type Kernel struct {
	Weights []float64
	Size    int
	Half    int
}

// Kernel builds the convolution kernel for a pixel scale of dpix
// [arcsec/pixel]. The kernel extends to four standard deviations of the
// major axis and its weights sum to one.
func (b Beam) Kernel(dpix float64) Kernel {
	smaj := b.Maj / dpix / FWHM
	smin := b.Min / dpix / FWHM
	theta := b.PA * math.Pi / 180.0

	half := int(math.Ceil(4.0 * math.Max(smaj, math.Max(smin, 1.0))))
	size := 2*half + 1
	w := make([]float64, size*size)

	cosT, sinT := math.Cos(theta), math.Sin(theta)
	sum := 0.0
	for j := 0; j < size; j++ {
		y := float64(j - half)
		for i := 0; i < size; i++ {
			x := float64(i - half)
			// Rotate into the beam frame with the major axis along y.
			u := x*cosT - y*sinT
			v := x*sinT + y*cosT
			g := math.Exp(-0.5 * (u*u/(smin*smin) + v*v/(smaj*smaj)))
			w[j*size+i] = g
			sum += g
		}
	}
	for i := range w {
		w[i] /= sum
	}
	return Kernel{Weights: w, Size: size, Half: half}
}

// Convolve applies the kernel to a row-major image of nx by ny pixels.
// NaN pixels do not contribute to their neighbours and remain NaN in the
// output; the weights of the remaining pixels are renormalised so flux is
// conserved near gaps and edges.
func (k Kernel) Convolve(img []float64, nx, ny int) []float64 {
	out := make([]float64, len(img))
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			idx := j*nx + i
			if math.IsNaN(img[idx]) {
				out[idx] = math.NaN()
				continue
			}
			acc, wsum := 0.0, 0.0
			for dj := -k.Half; dj <= k.Half; dj++ {
				jj := j + dj
				if jj < 0 || jj >= ny {
					continue
				}
				for di := -k.Half; di <= k.Half; di++ {
					ii := i + di
					if ii < 0 || ii >= nx {
						continue
					}
					v := img[jj*nx+ii]
					if math.IsNaN(v) {
						continue
					}
					w := k.Weights[(dj+k.Half)*k.Size+(di+k.Half)]
					acc += w * v
					wsum += w
				}
			}
			if wsum > 0.0 {
				out[idx] = acc / wsum
			} else {
				out[idx] = math.NaN()
			}
		}
	}
	return out
}
