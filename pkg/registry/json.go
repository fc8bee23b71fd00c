package registry

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/splitdelegation/pkg/address"
	"github.com/matzehuels/splitdelegation/pkg/amount"
	"github.com/matzehuels/splitdelegation/pkg/errors"
)

// An action is encoded as a tagged object with exactly one payload key:
//
//	{"account": "0xA…", "chainId": 1, "registry": "0x469…",
//	 "set": {"delegation": [{"delegate": "0xB…", "ratio": "100"}], "expiration": 0}}
//
// The other tags are "clear" (same shape as "set"), "expire"
// ({"expiration": n}) and "opt" ({"optOut": true}). Addresses are normalized
// on decode. Ratios are written as decimal strings; integers are accepted
// on input as well.
type actionJSON struct {
	Account  string      `json:"account"`
	ChainID  integer     `json:"chainId"`
	Registry string      `json:"registry"`
	Set      *listJSON   `json:"set,omitempty"`
	Clear    *listJSON   `json:"clear,omitempty"`
	Expire   *expireJSON `json:"expire,omitempty"`
	Opt      *optJSON    `json:"opt,omitempty"`
}

type listJSON struct {
	Delegation []Delegation `json:"delegation"`
	Expiration integer      `json:"expiration"`
}

type expireJSON struct {
	Expiration integer `json:"expiration"`
}

type optJSON struct {
	OptOut bool `json:"optOut"`
}

// MarshalJSON implements json.Marshaler.
func (a Action) MarshalJSON() ([]byte, error) {
	out := actionJSON{Account: a.Account, ChainID: integer(a.ChainID), Registry: a.Registry}
	switch p := a.Payload.(type) {
	case Set:
		out.Set = &listJSON{Delegation: nonNil(p.Delegation), Expiration: integer(p.Expiration)}
	case Clear:
		out.Clear = &listJSON{Delegation: nonNil(p.Delegation), Expiration: integer(p.Expiration)}
	case Expire:
		out.Expire = &expireJSON{Expiration: integer(p.Expiration)}
	case Opt:
		out.Opt = &optJSON{OptOut: p.OptOut}
	default:
		return nil, errors.New(errors.ErrCodeMalformedAction, "account %s: no payload", a.Account)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. It fails with MALFORMED_ACTION
// unless exactly one payload key is present.
func (a *Action) UnmarshalJSON(data []byte) error {
	var in actionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return errors.Wrap(errors.ErrCodeMalformedAction, err, "decode action")
	}

	var payloads []Payload
	if in.Set != nil {
		payloads = append(payloads, Set{Delegation: in.Set.Delegation, Expiration: int64(in.Set.Expiration)})
	}
	if in.Clear != nil {
		payloads = append(payloads, Clear{Delegation: in.Clear.Delegation, Expiration: int64(in.Clear.Expiration)})
	}
	if in.Expire != nil {
		payloads = append(payloads, Expire{Expiration: int64(in.Expire.Expiration)})
	}
	if in.Opt != nil {
		payloads = append(payloads, Opt{OptOut: in.Opt.OptOut})
	}
	if len(payloads) != 1 {
		return errors.New(errors.ErrCodeMalformedAction,
			"account %s: want exactly one of set, clear, expire, opt; got %d", in.Account, len(payloads))
	}

	*a = Action{
		Account:  address.Normalize(in.Account),
		ChainID:  int64(in.ChainID),
		Registry: address.Normalize(in.Registry),
		Payload:  payloads[0],
	}
	return nil
}

type delegationJSON struct {
	Delegate string          `json:"delegate"`
	Ratio    json.RawMessage `json:"ratio"`
}

// MarshalJSON implements json.Marshaler.
func (d Delegation) MarshalJSON() ([]byte, error) {
	return json.Marshal(delegationJSON{Delegate: d.Delegate, Ratio: amount.Encode(d.Ratio)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Delegation) UnmarshalJSON(data []byte) error {
	var in delegationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	ratio, err := amount.Decode(in.Ratio)
	if err != nil {
		return fmt.Errorf("delegate %s: %w", in.Delegate, err)
	}
	*d = Delegation{Delegate: address.Normalize(in.Delegate), Ratio: ratio}
	return nil
}

type entryJSON struct {
	Delegation []Delegation `json:"delegation"`
	Expiration int64        `json:"expiration"`
	OptOut     bool         `json:"optOut"`
}

// MarshalJSON implements json.Marshaler. The delegation list is always an
// array, never null.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{Delegation: nonNil(e.Delegation), Expiration: e.Expiration, OptOut: e.OptOut})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var in entryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if len(in.Delegation) == 0 {
		in.Delegation = nil
	}
	*e = Entry(in)
	return nil
}

func nonNil(d []Delegation) []Delegation {
	if d == nil {
		return []Delegation{}
	}
	return d
}

// integer is an int64 that decodes from a JSON number or a decimal string.
type integer int64

func (i *integer) UnmarshalJSON(data []byte) error {
	v, err := amount.Decode(data)
	if err != nil {
		return err
	}
	if !v.IsInt64() {
		return fmt.Errorf("integer %s out of range", v.String())
	}
	*i = integer(v.Int64())
	return nil
}
