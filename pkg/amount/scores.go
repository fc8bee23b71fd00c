package amount

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/filecoin-project/go-state-types/big"
)

// Scores maps an address to its base voting power, typically a token balance
// snapshot taken at the block the computation refers to.
type Scores map[string]big.Int

// Get returns the score for addr and whether it is present.
func (s Scores) Get(addr string) (big.Int, bool) {
	v, ok := s[addr]
	if !ok || v.Int == nil {
		return big.Int{}, false
	}
	return v, true
}

// Has reports whether addr has a score.
func (s Scores) Has(addr string) bool {
	_, ok := s.Get(addr)
	return ok
}

// Sum returns the total of all scores.
func (s Scores) Sum() big.Int {
	total := big.Zero()
	for _, v := range s {
		if v.Int != nil {
			total = big.Add(total, v)
		}
	}
	return total
}

// Clone returns a shallow copy. Values are immutable once built, so sharing
// the underlying integers is safe.
func (s Scores) Clone() Scores {
	return maps.Clone(s)
}

// Addresses returns every scored address in ascending order.
func (s Scores) Addresses() []string {
	return slices.Sorted(maps.Keys(s))
}

// MarshalJSON encodes scores as an object of decimal strings.
func (s Scores) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = String(v)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an object whose values are decimal strings or integers.
func (s *Scores) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Scores, len(raw))
	for k, r := range raw {
		v, err := Decode(r)
		if err != nil {
			return fmt.Errorf("score %s: %w", k, err)
		}
		out[k] = v
	}
	*s = out
	return nil
}
