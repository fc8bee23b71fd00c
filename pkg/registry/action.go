package registry

import (
	"fmt"

	"github.com/filecoin-project/go-state-types/big"
)

// Venue is the contract instance an account's delegation state is anchored
// to: a registry address on a given chain.
type Venue struct {
	ChainID  int64
	Registry string
}

func (v Venue) String() string {
	return fmt.Sprintf("%d:%s", v.ChainID, v.Registry)
}

// Delegation is one weighted delegate within an account's delegation list.
type Delegation struct {
	Delegate string
	Ratio    big.Int
}

// Action is one entry of the delegation log. Exactly one payload kind is
// carried per action.
type Action struct {
	Account  string
	ChainID  int64
	Registry string
	Payload  Payload
}

// Venue returns the venue the action was emitted from.
func (a Action) Venue() Venue {
	return Venue{ChainID: a.ChainID, Registry: a.Registry}
}

// Payload is the closed set of action kinds: [Set], [Clear], [Expire] and
// [Opt].
type Payload interface {
	kind() string
}

// Set replaces the account's delegation list and expiration and re-anchors
// the account to the action's venue.
type Set struct {
	Delegation []Delegation
	Expiration int64
}

// Clear replaces the delegation list and expiration, typically with an
// empty list.
type Clear struct {
	Delegation []Delegation
	Expiration int64
}

// Expire replaces only the expiration.
type Expire struct {
	Expiration int64
}

// Opt sets whether the account refuses to act as a delegate.
type Opt struct {
	OptOut bool
}

func (Set) kind() string    { return "set" }
func (Clear) kind() string  { return "clear" }
func (Expire) kind() string { return "expire" }
func (Opt) kind() string    { return "opt" }

// Kind returns the JSON tag of the payload carried by a, or "" when there is
// none.
func (a Action) Kind() string {
	if a.Payload == nil {
		return ""
	}
	return a.Payload.kind()
}
