// Package bag apportions an integer amount across weighted recipients.
//
// Each recipient first gets floor(amount * ratio / total). What is left over
// after flooring is handed out one unit at a time, largest fractional
// remainder first, with ties going to the recipient listed earlier. The
// shares always add up to the amount exactly.
//
// All arithmetic is arbitrary precision; neither amounts nor ratios are ever
// narrowed to a machine integer.
package bag

import (
	"slices"

	"github.com/filecoin-project/go-state-types/big"
)

// BasisPointsTotal is the amount distributed by [BasisPoints].
const BasisPointsTotal = 10000

// Recipient is one weighted destination. Ratio is an unnormalized weight; an
// unset ratio counts as zero.
type Recipient struct {
	Address string
	Ratio   big.Int
}

// Share is the part of the amount assigned to one recipient.
type Share struct {
	Address string
	Amount  big.Int
}

// Distribute splits amount across recipients in proportion to their ratios.
//
// The result has one share per recipient, in input order, including zero
// shares. When the ratios sum to zero there is nothing to split by and the
// result is nil: the amount stays with the caller. amount must not be
// negative.
func Distribute(amount big.Int, recipients []Recipient) []Share {
	total := big.Zero()
	for _, r := range recipients {
		if r.Ratio.Int != nil {
			total = big.Add(total, r.Ratio)
		}
	}
	if total.IsZero() || len(recipients) == 0 {
		return nil
	}

	shares := make([]Share, len(recipients))
	remainders := make([]big.Int, len(recipients))
	assigned := big.Zero()
	for i, r := range recipients {
		ratio := r.Ratio
		if ratio.Int == nil {
			ratio = big.Zero()
		}
		num := big.Mul(amount, ratio)
		q := big.Div(num, total)
		shares[i] = Share{Address: r.Address, Amount: q}
		remainders[i] = big.Sub(num, big.Mul(q, total))
		assigned = big.Add(assigned, q)
	}

	// The residual is below len(recipients): each floor loses less than one.
	residual := big.Sub(amount, assigned).Int64()
	if residual <= 0 {
		return shares
	}

	idx := make([]int, len(recipients))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return remainders[b].Cmp(remainders[a].Int)
	})
	for _, i := range idx[:residual] {
		shares[i].Amount = big.Add(shares[i].Amount, big.NewInt(1))
	}
	return shares
}

// BasisPoints expresses each recipient's ratio in parts per ten thousand,
// using the same remainder rules as Distribute so the weights add up to
// exactly 10000.
func BasisPoints(recipients []Recipient) []Share {
	return Distribute(big.NewInt(BasisPointsTotal), recipients)
}

// Total returns the sum of all shares.
func Total(shares []Share) big.Int {
	total := big.Zero()
	for _, s := range shares {
		total = big.Add(total, s.Amount)
	}
	return total
}
