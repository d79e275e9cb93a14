// Package selector picks outcomes from discrete distributions.
//
// A nil *rand.Rand uses the process-wide math/rand/v2 source, which is safe
// for concurrent use. A non-nil source is not, and must be owned by the caller.
package selector

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/weiawesome/wes-io-live/spawn-service/internal/domain"
)

// Weighted pairs an outcome with its relative weight. Weights need not sum to 1.
type Weighted[T any] struct {
	Value  T
	Weight float64
}

// Pick returns options[i].Value with probability Weight_i / ΣWeight.
func Pick[T any](r *rand.Rand, options []Weighted[T]) (T, error) {
	var zero T
	if len(options) == 0 {
		return zero, fmt.Errorf("%w: no options", domain.ErrInvalidDistribution)
	}

	var total float64
	for i, o := range options {
		if !(o.Weight > 0) || math.IsInf(o.Weight, 1) {
			return zero, fmt.Errorf("%w: option %d has weight %v", domain.ErrInvalidDistribution, i, o.Weight)
		}
		total += o.Weight
	}

	target := float64Of(r) * total
	for _, o := range options {
		if target < o.Weight {
			return o.Value, nil
		}
		target -= o.Weight
	}

	// Float rounding can leave target a hair above the last bucket.
	return options[len(options)-1].Value, nil
}

// Uniform returns one of values, each with equal probability.
func Uniform[T any](r *rand.Rand, values []T) (T, error) {
	var zero T
	if len(values) == 0 {
		return zero, fmt.Errorf("%w: no values", domain.ErrInvalidDistribution)
	}
	if r == nil {
		return values[rand.IntN(len(values))], nil
	}
	return values[r.IntN(len(values))], nil
}

func float64Of(r *rand.Rand) float64 {
	if r == nil {
		return rand.Float64()
	}
	return r.Float64()
}
