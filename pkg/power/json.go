package power

import (
	"encoding/json"

	"github.com/filecoin-project/go-state-types/big"

	"github.com/matzehuels/splitdelegation/pkg/amount"
)

type resultJSON struct {
	VotingPower    amount.Scores  `json:"votingPower"`
	DelegatorCount DelegatorCount `json:"delegatorCount"`
	Order          []string       `json:"order,omitempty"`
}

// MarshalJSON encodes the result with power as decimal strings:
//
//	{"votingPower": {"0xA…": "820"}, "delegatorCount": {"all": 2, "0xA…": 0}}
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		VotingPower:    amount.Scores(r.VotingPower),
		DelegatorCount: r.DelegatorCount,
		Order:          r.Order,
	})
}

// UnmarshalJSON decodes the form written by MarshalJSON. The normalized
// graph is not part of the encoding, so Graph returns nil afterwards.
func (r *Result) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Result{
		VotingPower:    map[string]big.Int(in.VotingPower),
		DelegatorCount: in.DelegatorCount,
		Order:          in.Order,
	}
	if r.VotingPower == nil {
		r.VotingPower = map[string]big.Int{}
	}
	if r.DelegatorCount.Counts == nil {
		r.DelegatorCount.Counts = map[string]int{}
	}
	return nil
}
