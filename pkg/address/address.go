// Package address canonicalizes account identifiers at the edges of the
// system.
//
// The computation core treats addresses as opaque strings and compares them
// byte for byte, so every decoder that feeds it (action logs, score tables,
// voter lists, HTTP parameters) runs identifiers through [Normalize] first.
// Hex addresses are rewritten to their EIP-55 checksummed form so that
// "0xabc…" and "0xABC…" name the same account.
package address

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/matzehuels/splitdelegation/pkg/errors"
)

// Normalize returns the EIP-55 form of a 20-byte hex address. Identifiers
// that are not hex addresses are returned trimmed but otherwise unchanged.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if common.IsHexAddress(s) {
		return common.HexToAddress(s).Hex()
	}
	return s
}

// Parse is the strict form of Normalize: it rejects anything that is not a
// 20-byte hex address.
func Parse(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return "", errors.New(errors.ErrCodeInvalidAddress, "invalid address %q", s)
	}
	return common.HexToAddress(s).Hex(), nil
}

// NormalizeAll normalizes every entry, dropping empty strings.
func NormalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := Normalize(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}
