package main

import (
	"math"

	"github.com/ojrac/opensimplex-go"
)

// Octave is one layer of a fractal noise sum.
type Octave struct {
	Freq, Scale float64
}

// NoiseMap samples seeded simplex noise summed over octaves. With octave
// scales summing to 1 the result stays in [0,1].
type NoiseMap struct {
	noise    opensimplex.Noise
	octaves  []Octave
	exponent float64
}

// NewNoiseMap creates a noise map with the given seed.
func NewNoiseMap(seed int64, octaves []Octave, exponent float64) *NoiseMap {
	return &NoiseMap{
		noise:    opensimplex.NewNormalized(seed),
		octaves:  octaves,
		exponent: exponent,
	}
}

// Get returns the noise value at a map cell.
func (n *NoiseMap) Get(x, y int) float64 {
	ret := 0.0
	for _, o := range n.octaves {
		ret += o.Scale * n.noise.Eval2(o.Freq*float64(x), o.Freq*float64(y))
	}
	return math.Pow(ret, n.exponent)
}

var (
	elevationOctaves = []Octave{{0.02, 0.55}, {0.05, 0.3}, {0.12, 0.15}}
	moistureOctaves  = []Octave{{0.03, 0.7}, {0.09, 0.3}}
)
