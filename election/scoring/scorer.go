// Package scoring computes the deterministic quality score of an
// assignment. All arithmetic is exact 256-bit integer math: independent
// evaluators must agree on every score bit-for-bit, so floating point is
// never used.
package scoring

import (
	"github.com/holiman/uint256"

	model "github.com/onflow/multiphase/model/election"
)

// Supports aggregates the stake weight assigned to each target, keyed by
// target index. Zero-weight edges contribute nothing and create no entry.
func Supports(assignments []model.Assignment) map[uint32]*uint256.Int {
	supports := make(map[uint32]*uint256.Int)
	for _, assignment := range assignments {
		for _, edge := range assignment.Edges {
			if edge.Weight == 0 {
				continue
			}
			support, ok := supports[edge.Target]
			if !ok {
				support = new(uint256.Int)
				supports[edge.Target] = support
			}
			support.Add(support, uint256.NewInt(edge.Weight))
		}
	}
	return supports
}

// Evaluate computes the score of the given assignment: the minimal support
// across all backed targets, the total support, and the sum of squared
// supports. Map iteration order does not matter, as minimum and addition are
// order-independent. An empty assignment scores all-zero.
func Evaluate(assignments []model.Assignment) model.Score {
	supports := Supports(assignments)
	if len(supports) == 0 {
		return model.Score{}
	}

	var minimal *uint256.Int
	sum := new(uint256.Int)
	sumSquared := new(uint256.Int)
	square := new(uint256.Int)
	for _, support := range supports {
		if minimal == nil || support.Lt(minimal) {
			minimal = support
		}
		sum.Add(sum, support)
		square.Mul(support, support)
		sumSquared.Add(sumSquared, square)
	}

	return model.Score{
		MinimalSupport: model.SupportFromUint256(minimal),
		SumSupport:     model.SupportFromUint256(sum),
		SumSquared:     model.SupportFromUint256(sumSquared),
	}
}
