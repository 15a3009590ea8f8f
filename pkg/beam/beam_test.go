package beam

import (
	"math"
	"testing"
)

// TestKernelNormalisation verifies that the kernel weights sum to one
func TestKernelNormalisation(t *testing.T) {
	b := Beam{Maj: 0.5, Min: 0.3, PA: 35.0}
	k := b.Kernel(0.05)
	sum := 0.0
	for _, w := range k.Weights {
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("kernel weights sum to %v", sum)
	}
	if k.Size != 2*k.Half+1 {
		t.Errorf("inconsistent kernel size %d for half width %d", k.Size, k.Half)
	}
}

// TestConvolveConstant verifies that a constant image is unchanged
func TestConvolveConstant(t *testing.T) {
	b := Beam{Maj: 0.3, Min: 0.3, PA: 0.0}
	k := b.Kernel(0.1)

	nx, ny := 16, 16
	img := make([]float64, nx*ny)
	for i := range img {
		img[i] = 2.5
	}
	out := k.Convolve(img, nx, ny)
	for i, v := range out {
		if math.Abs(v-2.5) > 1e-9 {
			t.Fatalf("pixel %d changed to %v", i, v)
		}
	}
}

// TestConvolveSmooths verifies that a point source spreads to its
// neighbours while the peak drops
func TestConvolveSmooths(t *testing.T) {
	b := Beam{Maj: 0.3, Min: 0.3, PA: 0.0}
	k := b.Kernel(0.1)

	nx, ny := 17, 17
	img := make([]float64, nx*ny)
	centre := (ny/2)*nx + nx/2
	img[centre] = 1.0

	out := k.Convolve(img, nx, ny)
	if out[centre] >= 1.0 {
		t.Errorf("peak should drop, got %v", out[centre])
	}
	if out[centre+1] <= 0.0 {
		t.Errorf("neighbour should gain flux, got %v", out[centre+1])
	}
	if out[centre] <= out[centre+1] {
		t.Errorf("peak should remain the maximum: %v vs %v", out[centre], out[centre+1])
	}
}

// TestConvolvePreservesNaN verifies that NaN pixels stay NaN and do not
// poison their neighbours
func TestConvolvePreservesNaN(t *testing.T) {
	b := Beam{Maj: 0.3, Min: 0.3, PA: 0.0}
	k := b.Kernel(0.1)

	nx, ny := 12, 12
	img := make([]float64, nx*ny)
	for i := range img {
		img[i] = 1.0
	}
	hole := 5*nx + 5
	img[hole] = math.NaN()

	out := k.Convolve(img, nx, ny)
	if !math.IsNaN(out[hole]) {
		t.Errorf("hole should remain NaN, got %v", out[hole])
	}
	for i, v := range out {
		if i == hole {
			continue
		}
		if math.IsNaN(v) {
			t.Fatalf("NaN leaked to pixel %d", i)
		}
		if math.Abs(v-1.0) > 1e-9 {
			t.Fatalf("renormalisation failed at pixel %d: %v", i, v)
		}
	}
}
