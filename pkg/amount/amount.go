// Package amount holds the arbitrary precision integer helpers shared by the
// computation packages.
//
// Ratios, scores, shares and voting power are all [big.Int] values from
// go-state-types. Token supplies routinely exceed 64 bits, so no value that
// takes part in apportionment is ever converted to a native integer or a float.
//
// At the JSON boundary every value is written as a decimal string. Decoders
// accept either a decimal string or a bare JSON integer, since upstream
// producers are not consistent about it.
package amount

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/filecoin-project/go-state-types/big"
)

// Zero returns a fresh zero value. The zero value of big.Int has a nil
// pointer and must not be used in arithmetic.
func Zero() big.Int { return big.Zero() }

// IsNil reports whether v is the unusable zero value of big.Int.
func IsNil(v big.Int) bool { return v.Int == nil }

// IsNegative reports whether v is set and below zero.
func IsNegative(v big.Int) bool {
	return v.Int != nil && v.Sign() < 0
}

// String formats v as a decimal string, treating an unset value as zero.
func String(v big.Int) string {
	if v.Int == nil {
		return "0"
	}
	return v.String()
}

// Parse parses a base-10 integer string.
func Parse(s string) (big.Int, error) {
	v, err := big.FromString(s)
	if err != nil {
		return big.Int{}, fmt.Errorf("invalid integer %q", s)
	}
	return v, nil
}

// MustParse is like Parse but panics on malformed input. It is meant for
// literals in tests and examples.
func MustParse(s string) big.Int {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Decode parses a JSON value that is either a decimal string ("123") or a
// JSON integer (123).
func Decode(raw json.RawMessage) (big.Int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return big.Int{}, fmt.Errorf("missing integer value")
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return big.Int{}, fmt.Errorf("decode integer: %w", err)
		}
	}
	return Parse(s)
}

// Encode returns the JSON encoding of v as a decimal string.
func Encode(v big.Int) json.RawMessage {
	b, _ := json.Marshal(String(v))
	return b
}

// Sum adds all values, skipping unset ones.
func Sum(values ...big.Int) big.Int {
	total := big.Zero()
	for _, v := range values {
		if v.Int != nil {
			total = big.Add(total, v)
		}
	}
	return total
}
