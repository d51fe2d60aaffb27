package synthetic

import "math"

// Source is a SplitMix64 generator. A given seed yields the same sequence on
// every platform and Go release. It satisfies math/rand/v2.Source.
type Source struct {
	state uint64
}

// NewSource seeds a Source.
func NewSource(seed int64) *Source {
	return &Source{state: uint64(seed)}
}

// Uint64 returns the next 64 random bits.
func (s *Source) Uint64() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Float64 returns a uniform value in [0, 1) built from the top 53 bits.
func (s *Source) Float64() float64 {
	return float64(s.Uint64()>>11) / (1 << 53)
}

// NormFloat64 returns a standard normal deviate (Box-Muller, cosine branch).
// Each call consumes two uniforms.
func (s *Source) NormFloat64() float64 {
	theta := 2 * math.Pi * s.Float64()
	r := math.Sqrt(-2 * math.Log(1-s.Float64()))
	return r * math.Cos(theta)
}
