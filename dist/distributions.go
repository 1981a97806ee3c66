package dist

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// An Exponential samples durations with the given mean. It is commonly used
// for the time between successive arrivals.
type Exponential struct {
	dist distuv.Exponential
}

// NewExponential creates an exponential sampler. The mean must be positive.
func NewExponential(mean float64, seed uint64) *Exponential {
	if mean <= 0 {
		panic(fmt.Sprintf("exponential mean must be positive, got %g", mean))
	}

	return &Exponential{
		dist: distuv.Exponential{Rate: 1 / mean, Src: NewSource(seed)},
	}
}

// Sample draws one duration.
func (e *Exponential) Sample() float64 {
	return e.dist.Rand()
}

// A Triangular samples from a triangular distribution, a common choice for
// activity durations when only an expert estimate of the smallest, most
// likely, and largest value is available.
type Triangular struct {
	dist distuv.Triangle
}

// NewTriangular creates a triangular sampler. The parameters must satisfy
// low <= mode <= high with low < high.
func NewTriangular(low, mode, high float64, seed uint64) *Triangular {
	return &Triangular{
		dist: distuv.NewTriangle(low, high, mode, NewSource(seed)),
	}
}

// Sample draws one value.
func (t *Triangular) Sample() float64 {
	return t.dist.Rand()
}

// A Lognormal samples positive values with the given mean and standard
// deviation. Construction converts the desired moments into the mu and sigma
// of the underlying normal distribution.
type Lognormal struct {
	dist distuv.LogNormal
}

// NewLognormal creates a lognormal sampler with the given mean and standard
// deviation. Both must be positive.
func NewLognormal(mean, stdev float64, seed uint64) *Lognormal {
	if mean <= 0 || stdev <= 0 {
		panic(fmt.Sprintf(
			"lognormal mean and stdev must be positive, got %g and %g",
			mean, stdev))
	}

	mu, sigma := normalMoments(mean, stdev*stdev)

	return &Lognormal{
		dist: distuv.LogNormal{Mu: mu, Sigma: sigma, Src: NewSource(seed)},
	}
}

// Sample draws one value.
func (l *Lognormal) Sample() float64 {
	return l.dist.Rand()
}

// normalMoments converts the mean m and variance v of a lognormal into the
// mu and sigma of the underlying normal distribution.
func normalMoments(m, v float64) (mu, sigma float64) {
	phi := math.Sqrt(v + m*m)
	mu = math.Log(m * m / phi)
	sigma = math.Sqrt(math.Log(phi * phi / (m * m)))

	return mu, sigma
}

// A Uniform samples values evenly spread between a lower and an upper bound.
type Uniform struct {
	dist distuv.Uniform
}

// NewUniform creates a uniform sampler over [low, high).
func NewUniform(low, high float64, seed uint64) *Uniform {
	if low >= high {
		panic(fmt.Sprintf("uniform bounds must satisfy low < high, got %g and %g",
			low, high))
	}

	return &Uniform{
		dist: distuv.Uniform{Min: low, Max: high, Src: NewSource(seed)},
	}
}

// Sample draws one value.
func (u *Uniform) Sample() float64 {
	return u.dist.Rand()
}

// A Bernoulli samples 1.0 with probability p and 0.0 otherwise. It models
// binary routing decisions such as whether a caller needs a follow-up.
type Bernoulli struct {
	dist distuv.Bernoulli
}

// NewBernoulli creates a Bernoulli sampler. The probability must lie in
// [0, 1].
func NewBernoulli(p float64, seed uint64) *Bernoulli {
	if p < 0 || p > 1 {
		panic(fmt.Sprintf("bernoulli probability must be in [0, 1], got %g", p))
	}

	return &Bernoulli{
		dist: distuv.Bernoulli{P: p, Src: NewSource(seed)},
	}
}

// Sample draws 1.0 with probability p and 0.0 otherwise.
func (b *Bernoulli) Sample() float64 {
	return b.dist.Rand()
}

// SampleBool draws true with probability p.
func (b *Bernoulli) SampleBool() bool {
	return b.dist.Rand() == 1
}

// A DiscreteEmpirical samples from a fixed set of values with relative
// frequencies estimated from observed data.
type DiscreteEmpirical struct {
	values []float64
	dist   distuv.Categorical
}

// NewDiscreteEmpirical creates a sampler that returns values[i] with a
// probability proportional to freqs[i]. The two slices must have the same
// length and the frequencies must be non-negative with a positive sum.
func NewDiscreteEmpirical(values, freqs []float64, seed uint64) *DiscreteEmpirical {
	if len(values) != len(freqs) {
		panic(fmt.Sprintf(
			"values and freqs must have the same length, got %d and %d",
			len(values), len(freqs)))
	}

	return &DiscreteEmpirical{
		values: append([]float64(nil), values...),
		dist:   distuv.NewCategorical(freqs, NewSource(seed)),
	}
}

// Sample draws one of the values.
func (d *DiscreteEmpirical) Sample() float64 {
	return d.values[int(d.dist.Rand())]
}

// A Fixed always returns the same value. It stands in for a distribution
// when an activity has a constant duration.
type Fixed struct {
	value float64
}

// NewFixed creates a sampler that always returns value.
func NewFixed(value float64) *Fixed {
	return &Fixed{value: value}
}

// Sample returns the fixed value.
func (f *Fixed) Sample() float64 {
	return f.value
}
