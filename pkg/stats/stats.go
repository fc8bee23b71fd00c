// Package stats summarizes a voting power result per delegate and ranks
// delegates.
package stats

import (
	"cmp"
	"encoding/json"
	"slices"

	"github.com/filecoin-project/go-state-types/big"

	"github.com/matzehuels/splitdelegation/pkg/amount"
	"github.com/matzehuels/splitdelegation/pkg/errors"
	"github.com/matzehuels/splitdelegation/pkg/power"
)

// DefaultLimit is the page size used by Rank when no limit is given.
const DefaultLimit = 100

// OrderBy selects the ranking key.
type OrderBy string

const (
	ByPower OrderBy = "power"
	ByCount OrderBy = "count"
)

// ParseOrderBy validates a ranking key. The empty string selects ByPower.
func ParseOrderBy(s string) (OrderBy, error) {
	switch OrderBy(s) {
	case "", ByPower:
		return ByPower, nil
	case ByCount:
		return ByCount, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "invalid orderBy %q, want power or count", s)
}

// Stat describes one address's standing. Percentages are basis points:
// voting power against the total, delegator count against the number of
// distinct delegators.
type Stat struct {
	Address              string
	DelegatorCount       int
	VotingPower          big.Int
	PercentOfVotingPower int64
	PercentOfDelegators  int64
}

// Of returns the stat for a single address, which need not be a delegate.
func Of(res *power.Result, address string) Stat {
	return of(res, res.Total(), address)
}

func of(res *power.Result, total big.Int, address string) Stat {
	s := Stat{
		Address:        address,
		DelegatorCount: res.DelegatorCount.Get(address),
		VotingPower:    res.Power(address),
	}
	if !total.IsZero() {
		s.PercentOfVotingPower = big.Div(big.Mul(s.VotingPower, big.NewInt(10000)), total).Int64()
	}
	if all := res.DelegatorCount.All; all > 0 {
		s.PercentOfDelegators = min(int64(s.DelegatorCount)*10000/int64(all), 10000)
	}
	return s
}

// Delegates returns stats for every address with at least one delegator,
// in ascending address order.
func Delegates(res *power.Result) []Stat {
	total := res.Total()
	var out []Stat
	for addr, n := range res.DelegatorCount.Counts {
		if n > 0 {
			out = append(out, of(res, total, addr))
		}
	}
	slices.SortFunc(out, func(a, b Stat) int { return cmp.Compare(a.Address, b.Address) })
	return out
}

// Rank sorts stats in descending order of the chosen key, breaking ties by
// the other key and then by address, and returns the page starting at
// offset. A limit of zero or less selects DefaultLimit. stats is not
// modified.
func Rank(stats []Stat, by OrderBy, limit, offset int) []Stat {
	if limit <= 0 {
		limit = DefaultLimit
	}
	sorted := slices.Clone(stats)
	slices.SortFunc(sorted, func(a, b Stat) int {
		byPower := b.VotingPower.Cmp(a.VotingPower.Int)
		byCount := cmp.Compare(b.DelegatorCount, a.DelegatorCount)
		first, second := byPower, byCount
		if by == ByCount {
			first, second = byCount, byPower
		}
		if first != 0 {
			return first
		}
		if second != 0 {
			return second
		}
		return cmp.Compare(a.Address, b.Address)
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(sorted) {
		return []Stat{}
	}
	end := min(offset+limit, len(sorted))
	return sorted[offset:end]
}

type statJSON struct {
	Address              string          `json:"address"`
	DelegatorCount       int             `json:"delegatorCount"`
	VotingPower          json.RawMessage `json:"votingPower"`
	PercentOfVotingPower int64           `json:"percentOfVotingPower"`
	PercentOfDelegators  int64           `json:"percentOfDelegators"`
}

// MarshalJSON implements json.Marshaler with power as a decimal string.
func (s Stat) MarshalJSON() ([]byte, error) {
	return json.Marshal(statJSON{
		Address:              s.Address,
		DelegatorCount:       s.DelegatorCount,
		VotingPower:          amount.Encode(s.VotingPower),
		PercentOfVotingPower: s.PercentOfVotingPower,
		PercentOfDelegators:  s.PercentOfDelegators,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Stat) UnmarshalJSON(data []byte) error {
	var in statJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	vp, err := amount.Decode(in.VotingPower)
	if err != nil {
		return err
	}
	*s = Stat{
		Address:              in.Address,
		DelegatorCount:       in.DelegatorCount,
		VotingPower:          vp,
		PercentOfVotingPower: in.PercentOfVotingPower,
		PercentOfDelegators:  in.PercentOfDelegators,
	}
	return nil
}
