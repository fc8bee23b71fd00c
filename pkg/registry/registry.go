package registry

import (
	"maps"
	"slices"

	"github.com/matzehuels/splitdelegation/pkg/amount"
	"github.com/matzehuels/splitdelegation/pkg/errors"
)

// Entry is the finalized delegation state of one account.
type Entry struct {
	Delegation []Delegation
	Expiration int64 // 0 never expires
	OptOut     bool
}

// Registry maps every account seen in the log to its entry.
type Registry map[string]Entry

// Accounts returns the registry's accounts in ascending order.
func (r Registry) Accounts() []string {
	return slices.Sorted(maps.Keys(r))
}

type record struct {
	venue Venue
	entry Entry
}

// Build replays actions in log order and finalizes the result as of when.
//
// Per account, the first action anchors the account to its venue whatever
// its kind. A Set always re-anchors; Clear, Expire and Opt from any other
// venue are ignored.
//
// Finalization then runs over the whole registry: entries whose expiration
// is set and not after when report an empty delegation list, and
// delegations to any account whose final state is opted out are removed.
// Stored expirations and opt-out flags are reported unchanged.
//
// Fails with MALFORMED_ACTION on a missing payload, an empty account or
// delegate, or a negative ratio. Nothing is returned on failure.
func Build(actions []Action, when int64) (Registry, error) {
	records := make(map[string]*record)
	for i, a := range actions {
		if err := validate(a); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedAction, err, "action %d", i)
		}

		rec, ok := records[a.Account]
		if !ok {
			rec = &record{venue: a.Venue()}
			records[a.Account] = rec
		}
		apply(rec, a)
	}

	reg := make(Registry, len(records))
	for account, rec := range records {
		e := rec.entry
		if e.Expiration != 0 && e.Expiration <= when {
			e.Delegation = nil
		}
		reg[account] = e
	}

	for account, e := range reg {
		kept := slices.DeleteFunc(slices.Clone(e.Delegation), func(d Delegation) bool {
			return reg[d.Delegate].OptOut
		})
		if len(kept) == 0 {
			kept = nil
		}
		e.Delegation = kept
		reg[account] = e
	}
	return reg, nil
}

func apply(rec *record, a Action) {
	if _, ok := a.Payload.(Set); !ok && rec.venue != a.Venue() {
		return
	}
	switch p := a.Payload.(type) {
	case Set:
		rec.venue = a.Venue()
		rec.entry.Delegation = slices.Clone(p.Delegation)
		rec.entry.Expiration = p.Expiration
	case Clear:
		rec.entry.Delegation = slices.Clone(p.Delegation)
		rec.entry.Expiration = p.Expiration
	case Expire:
		rec.entry.Expiration = p.Expiration
	case Opt:
		rec.entry.OptOut = p.OptOut
	}
}

func validate(a Action) error {
	if a.Account == "" {
		return errors.New(errors.ErrCodeMalformedAction, "empty account")
	}
	var list []Delegation
	switch p := a.Payload.(type) {
	case Set:
		list = p.Delegation
	case Clear:
		list = p.Delegation
	case Expire, Opt:
	case nil:
		return errors.New(errors.ErrCodeMalformedAction, "account %s: missing payload", a.Account)
	default:
		return errors.New(errors.ErrCodeMalformedAction, "account %s: unknown payload %T", a.Account, p)
	}
	for _, d := range list {
		if d.Delegate == "" {
			return errors.New(errors.ErrCodeMalformedAction, "account %s: empty delegate", a.Account)
		}
		if amount.IsNil(d.Ratio) || amount.IsNegative(d.Ratio) {
			return errors.New(errors.ErrCodeMalformedAction,
				"account %s: invalid ratio %s for delegate %s", a.Account, amount.String(d.Ratio), d.Delegate)
		}
	}
	return nil
}
