// Package subgraph loads delegation action logs from a GraphQL indexer.
//
// The indexer exposes the registry events of every chain as one ordered
// stream of actions:
//
//	delegationActions(where: {space: $space}, first: $first, skip: $skip,
//	                  orderBy: index, orderDirection: asc) {
//	  account chainId registry kind
//	  delegation { delegate ratio }
//	  expiration optOut
//	}
//
// Big integers arrive as decimal strings. Scores are not indexed on chain,
// so they come from a second loader.
package subgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hasura/go-graphql-client"

	"github.com/matzehuels/splitdelegation/pkg/address"
	"github.com/matzehuels/splitdelegation/pkg/amount"
	"github.com/matzehuels/splitdelegation/pkg/cache"
	"github.com/matzehuels/splitdelegation/pkg/errors"
	"github.com/matzehuels/splitdelegation/pkg/httputil"
	"github.com/matzehuels/splitdelegation/pkg/io"
	"github.com/matzehuels/splitdelegation/pkg/observability"
	"github.com/matzehuels/splitdelegation/pkg/registry"
	"github.com/matzehuels/splitdelegation/pkg/source"
)

// DefaultPageSize is the number of actions requested per query.
const DefaultPageSize = 1000

// Options configures a Source.
type Options struct {
	// Endpoint is the GraphQL URL of the indexer.
	Endpoint string
	// Scores loads the score table of a space. Required.
	Scores source.Loader
	// Cache stores fetched action logs. Nil disables caching.
	Cache cache.Cache
	Keyer cache.Keyer
	// TTL of cached action logs; defaults to cache.TTLHTTP.
	TTL        time.Duration
	PageSize   int
	Attempts   int
	RetryDelay time.Duration
	HTTPClient *http.Client
	// Now is the evaluation time of the registry; defaults to time.Now.
	Now func() time.Time
}

// Source is a source.Loader backed by a GraphQL indexer.
type Source struct {
	client *graphql.Client
	opts   Options
}

// New creates a Source. The HTTP client's transport is wrapped with
// httputil.NewTransport.
func New(opts Options) (*Source, error) {
	if opts.Endpoint == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "subgraph endpoint is required")
	}
	if opts.Scores == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "subgraph source needs a score loader")
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.TTL <= 0 {
		opts.TTL = cache.TTLHTTP
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	hc := &http.Client{Timeout: 30 * time.Second}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		hc = &c
	}
	hc.Transport = httputil.NewTransport(hc.Transport)

	return &Source{client: graphql.NewClient(opts.Endpoint, hc), opts: opts}, nil
}

// Name implements source.Loader.
func (s *Source) Name() string { return "subgraph:" + s.opts.Endpoint }

// Load fetches the action log of space and combines it with its scores.
func (s *Source) Load(ctx context.Context, space string) (*io.Snapshot, error) {
	actions, err := s.Actions(ctx, space)
	if err != nil {
		return nil, err
	}
	scored, err := s.opts.Scores.Load(ctx, space)
	if err != nil {
		return nil, fmt.Errorf("scores: %w", err)
	}
	return &io.Snapshot{
		Space:   space,
		When:    s.opts.Now().Unix(),
		Actions: actions,
		Scores:  scored.Scores,
	}, nil
}

// Actions returns the full action log of space in indexer order.
func (s *Source) Actions(ctx context.Context, space string) ([]registry.Action, error) {
	key := s.opts.Keyer.HTTPKey("subgraph", space)
	if s.opts.Cache != nil {
		if data, hit, err := s.opts.Cache.Get(ctx, key); err == nil && hit {
			var actions []registry.Action
			if err := json.Unmarshal(data, &actions); err == nil {
				observability.Cache().OnCacheHit(ctx, "http")
				return actions, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "http")
	}

	var actions []registry.Action
	for skip := 0; ; skip += s.opts.PageSize {
		page, err := s.page(ctx, space, skip)
		if err != nil {
			return nil, err
		}
		for i, n := range page {
			a, err := n.action()
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeMalformedAction, err, "action %d", skip+i)
			}
			actions = append(actions, a)
		}
		if len(page) < s.opts.PageSize {
			break
		}
	}

	if s.opts.Cache != nil {
		if data, err := json.Marshal(actions); err == nil {
			if s.opts.Cache.Set(ctx, key, data, s.opts.TTL) == nil {
				observability.Cache().OnCacheSet(ctx, "http", len(data))
			}
		}
	}
	return actions, nil
}

type actionsQuery struct {
	DelegationActions []actionNode `graphql:"delegationActions(where: {space: $space}, first: $first, skip: $skip, orderBy: index, orderDirection: asc)"`
}

type delegationNode struct {
	Delegate string `graphql:"delegate"`
	Ratio    string `graphql:"ratio"`
}

type actionNode struct {
	Account    string           `graphql:"account"`
	ChainID    string           `graphql:"chainId"`
	Registry   string           `graphql:"registry"`
	Kind       string           `graphql:"kind"`
	Delegation []delegationNode `graphql:"delegation"`
	Expiration string           `graphql:"expiration"`
	OptOut     bool             `graphql:"optOut"`
}

func (s *Source) page(ctx context.Context, space string, skip int) ([]actionNode, error) {
	vars := map[string]any{
		"space": space,
		"first": s.opts.PageSize,
		"skip":  skip,
	}
	var nodes []actionNode
	err := httputil.Retry(ctx, s.opts.Attempts, s.opts.RetryDelay, func() error {
		var q actionsQuery
		qctx, transient := httputil.WithTransient(ctx)
		err := s.client.Query(qctx, &q, vars, graphql.OperationName("DelegationActions"))
		if err != nil {
			if transient.Load() {
				return httputil.Retryable(err)
			}
			return err
		}
		nodes = q.DelegationActions
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "query %s", s.opts.Endpoint)
		}
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "query %s", s.opts.Endpoint)
	}
	return nodes, nil
}

func integer(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := amount.Parse(s)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() {
		return 0, fmt.Errorf("integer %s out of range", s)
	}
	return v.Int64(), nil
}

func (n actionNode) action() (registry.Action, error) {
	chainID, err := integer(n.ChainID)
	if err != nil {
		return registry.Action{}, fmt.Errorf("chainId: %w", err)
	}
	expiration, err := integer(n.Expiration)
	if err != nil {
		return registry.Action{}, fmt.Errorf("expiration: %w", err)
	}
	delegation := make([]registry.Delegation, len(n.Delegation))
	for i, d := range n.Delegation {
		ratio, err := amount.Parse(d.Ratio)
		if err != nil {
			return registry.Action{}, fmt.Errorf("delegate %s: %w", d.Delegate, err)
		}
		delegation[i] = registry.Delegation{Delegate: address.Normalize(d.Delegate), Ratio: ratio}
	}

	var payload registry.Payload
	switch n.Kind {
	case "set":
		payload = registry.Set{Delegation: delegation, Expiration: expiration}
	case "clear":
		payload = registry.Clear{Delegation: delegation, Expiration: expiration}
	case "expire":
		payload = registry.Expire{Expiration: expiration}
	case "opt":
		payload = registry.Opt{OptOut: n.OptOut}
	default:
		return registry.Action{}, fmt.Errorf("unknown kind %q", n.Kind)
	}

	return registry.Action{
		Account:  address.Normalize(n.Account),
		ChainID:  chainID,
		Registry: address.Normalize(n.Registry),
		Payload:  payload,
	}, nil
}

var _ source.Loader = (*Source)(nil)
