package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/splitdelegation/pkg/address"
	"github.com/matzehuels/splitdelegation/pkg/amount"
	"github.com/matzehuels/splitdelegation/pkg/buildinfo"
	"github.com/matzehuels/splitdelegation/pkg/errors"
	"github.com/matzehuels/splitdelegation/pkg/pipeline"
	"github.com/matzehuels/splitdelegation/pkg/power"
	"github.com/matzehuels/splitdelegation/pkg/stats"
	"github.com/matzehuels/splitdelegation/pkg/storage"
	"github.com/matzehuels/splitdelegation/pkg/tree"
)

const maxBodyBytes = 1 << 20

type votingPowerRequest struct {
	Voters             []string `json:"voters" validate:"max=10000,dive,required"`
	DelegationOverride *bool    `json:"delegationOverride"`
}

type votingPowerResponse struct {
	Space          string               `json:"space"`
	Snapshot       string               `json:"snapshot"`
	When           int64                `json:"when"`
	VotingPower    amount.Scores        `json:"votingPower"`
	DelegatorCount power.DelegatorCount `json:"delegatorCount"`
	Cached         bool                 `json:"cached"`
}

type topQuery struct {
	OrderBy string `validate:"omitempty,oneof=power count"`
	Limit   int    `validate:"gte=0,lte=1000"`
	Offset  int    `validate:"gte=0"`
}

type topResponse struct {
	Space     string       `json:"space"`
	Total     int          `json:"total"`
	Delegates []stats.Stat `json:"delegates"`
}

type treeResponse struct {
	Address     string               `json:"address"`
	VotingPower json.RawMessage      `json:"votingPower"`
	Delegates   []tree.Node          `json:"delegateTree"`
	Delegators  []tree.DelegatorNode `json:"delegatorTree"`
}

type historyResponse struct {
	Space   string            `json:"space"`
	Results []*storage.Record `json:"results"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleVotingPower(w http.ResponseWriter, r *http.Request) {
	var req votingPowerRequest
	if r.Method == http.MethodPost {
		if err := s.decode(r, &req); err != nil {
			writeError(w, r, s.logger, err)
			return
		}
	}
	override := s.opts.DelegationOverride
	if req.DelegationOverride != nil {
		override = *req.DelegationOverride
	}
	voters := address.NormalizeAll(req.Voters)

	res, err := s.opts.Runner.Execute(r.Context(), pipeline.Options{
		Space:              chi.URLParam(r, "space"),
		Voters:             voters,
		DelegationOverride: &override,
	})
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	vp := amount.Scores(res.Power.VotingPower)
	if len(voters) > 0 {
		vp = amount.Scores(res.Power.For(voters))
	}
	writeJSON(w, http.StatusOK, votingPowerResponse{
		Space:          res.Snapshot.Space,
		Snapshot:       res.SnapshotHash,
		When:           res.Snapshot.When,
		VotingPower:    vp,
		DelegatorCount: res.Power.DelegatorCount,
		Cached:         res.CacheInfo.ResultHit,
	})
}

func (s *Server) handleTopDelegates(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseTop(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	res, err := s.execute(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	by, _ := stats.ParseOrderBy(q.OrderBy)
	all := stats.Delegates(res.Power)
	writeJSON(w, http.StatusOK, topResponse{
		Space:     res.Snapshot.Space,
		Total:     len(all),
		Delegates: stats.Rank(all, by, q.Limit, q.Offset),
	})
}

func (s *Server) handleDelegate(w http.ResponseWriter, r *http.Request) {
	res, err := s.execute(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	addr := address.Normalize(chi.URLParam(r, "address"))
	writeJSON(w, http.StatusOK, stats.Of(res.Power, addr))
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	res, err := s.execute(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	addr := address.Normalize(chi.URLParam(r, "address"))
	opts := tree.Options{MaxDepth: s.opts.MaxTreeDepth}

	delegates, err := tree.Delegates(res.Graph, res.Snapshot.Scores, addr, opts)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	delegators, err := tree.Delegators(res.Graph, res.Snapshot.Scores, addr, opts)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, treeResponse{
		Address:     addr,
		VotingPower: amount.Encode(res.Power.Power(addr)),
		Delegates:   delegates,
		Delegators:  delegators,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	store := s.opts.Runner.Store
	if store == nil {
		writeError(w, r, s.logger, errors.New(errors.ErrCodeNotFound, "result history is not enabled"))
		return
	}
	limit, err := intParam(r, "limit", 10)
	if err == nil && (limit < 1 || limit > 100) {
		err = errors.New(errors.ErrCodeInvalidInput, "limit must be between 1 and 100")
	}
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	space := chi.URLParam(r, "space")
	recs, err := store.List(r.Context(), space, limit)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if recs == nil {
		recs = []*storage.Record{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Space: space, Results: recs})
}

// execute computes the unrestricted result of the space in the URL.
func (s *Server) execute(r *http.Request) (*pipeline.Result, error) {
	override := s.opts.DelegationOverride
	return s.opts.Runner.Execute(r.Context(), pipeline.Options{
		Space:              chi.URLParam(r, "space"),
		DelegationOverride: &override,
	})
}

func (s *Server) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	if err := s.validate.Struct(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request: %v", err)
	}
	return nil
}

func (s *Server) parseTop(r *http.Request) (topQuery, error) {
	q := topQuery{OrderBy: r.URL.Query().Get("orderBy")}
	var err error
	if q.Limit, err = intParam(r, "limit", stats.DefaultLimit); err != nil {
		return q, err
	}
	if q.Offset, err = intParam(r, "offset", 0); err != nil {
		return q, err
	}
	if err := s.validate.Struct(q); err != nil {
		return q, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid query: %v", err)
	}
	return q, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be an integer, got %q", name, raw)
	}
	return n, nil
}
