package audio

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// ErrNotPowerOfTwo ...
var ErrNotPowerOfTwo = errors.New("length is not a power of two")

// FFT is an in-place iterative radix-2 decimation-in-time transform.
// Tables are fixed at construction.
type FFT struct {
	n               int
	bitReverseTable []int
	cosTable        []float64
	sinTable        []float64
	// scratch for CalcAbs
	re []float64
	im []float64
}

// NewFFT ...
func NewFFT(length int) (*FFT, error) {
	if length < 2 || length&(length-1) != 0 {
		return nil, fmt.Errorf("fft of %d: %w", length, ErrNotPowerOfTwo)
	}
	half := length / 2
	fft := &FFT{
		n:               length,
		bitReverseTable: makeBitReverseTable(length),
		cosTable:        make([]float64, half),
		sinTable:        make([]float64, half),
		re:              make([]float64, length),
		im:              make([]float64, length),
	}
	for i := 0; i < half; i++ {
		angle := 2.0 * math.Pi * float64(i) / float64(length)
		fft.cosTable[i] = math.Cos(angle)
		fft.sinTable[i] = math.Sin(angle)
	}
	return fft, nil
}

// Len ...
func (fft *FFT) Len() int {
	return fft.n
}

func makeBitReverseTable(n int) []int {
	array := make([]int, n)
	for i := 0; i < n; i++ {
		array[i] = bitReverse(i, n)
	}
	return array
}

func bitReverse(k, n int) int {
	shift := 32 - bits.Len(uint(n-1))
	return int(bits.Reverse32(uint32(k)) >> uint(shift))
}

// Transform runs the forward transform in place. The inverse is obtained by
// swapping the roles of re and im and scaling by 1/n.
func (fft *FFT) Transform(re, im []float64) {
	n := fft.n
	for i := 0; i < n; i++ {
		j := fft.bitReverseTable[i]
		if j > i {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}
	for size := 2; size <= n; size <<= 1 {
		hs := size >> 1
		ts := n / size
		for i := 0; i < n; i += size {
			for j, k := i, 0; j < i+hs; j, k = j+1, k+ts {
				idx := j + hs
				cos := fft.cosTable[k]
				sin := fft.sinTable[k]
				pre := re[idx]*cos + im[idx]*sin
				pim := im[idx]*cos - re[idx]*sin
				re[idx] = re[j] - pre
				im[idx] = im[j] - pim
				re[j] += pre
				im[j] += pim
			}
		}
	}
}

// InverseTransform ...
func (fft *FFT) InverseTransform(re, im []float64) {
	fft.Transform(im, re)
	scale := 1.0 / float64(fft.n)
	for i := 0; i < fft.n; i++ {
		re[i] *= scale
		im[i] *= scale
	}
}

// CalcAbs replaces x by the magnitude of its spectrum.
func (fft *FFT) CalcAbs(x []float64) {
	copy(fft.re, x)
	for i := range fft.im {
		fft.im[i] = 0
	}
	fft.Transform(fft.re, fft.im)
	for i := 0; i < fft.n; i++ {
		x[i] = math.Hypot(fft.re[i], fft.im[i])
	}
}
