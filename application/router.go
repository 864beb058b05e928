package application

import (
	"context"
	"errors"
	"strings"

	"hireflow/candidate"
	"hireflow/geomatch"
	"hireflow/requisition"
	"hireflow/store"
)

// ErrNotRecruiting signals the target requisition cannot accept new
// applications.
var ErrNotRecruiting = errors.New("application: requisition is not recruiting")

// storeLookup abstracts the store directory for testability.
type storeLookup interface {
	GetByID(ctx context.Context, id string) (store.Store, error)
}

// candidateLookup abstracts the candidate repository for testability.
type candidateLookup interface {
	GetByID(ctx context.Context, id string) (candidate.Candidate, error)
}

// Router makes the one-shot routing decision for submitted applications:
// screening gate and geo match together choose between automatic scheduling
// (Flow A) and manual review (Flow B). The router only decides and records;
// scheduling and review queues are downstream collaborators keyed off the
// flow value.
type Router struct {
	apps   Repository
	reqs   requisition.Repository
	cands  candidateLookup
	stores storeLookup
}

// NewRouter creates an application router.
func NewRouter(apps Repository, reqs requisition.Repository, cands candidateLookup, stores storeLookup) *Router {
	return &Router{apps: apps, reqs: reqs, cands: cands, stores: stores}
}

// RouteRequest is one candidate submission against one requisition.
type RouteRequest struct {
	CandidateID   string
	RequisitionID string
	Answers       map[string]string
}

// Route evaluates the screening answers and the geo match, decides the flow,
// and persists the application with its derived fields. It fails when the
// requisition is not recruiting at routing time: the early read rejects
// cheaply, and the insert itself re-checks the live status so a requisition
// leaving recruiting between read and write still refuses the application.
// A second submission for the same candidate/requisition pair is rejected.
func (r *Router) Route(ctx context.Context, req RouteRequest) (Application, error) {
	rq, err := r.reqs.GetByID(ctx, req.RequisitionID)
	if err != nil {
		return Application{}, err
	}
	if rq.Status != requisition.StatusRecruiting {
		return Application{}, ErrNotRecruiting
	}

	cand, err := r.cands.GetByID(ctx, req.CandidateID)
	if err != nil {
		return Application{}, err
	}
	st, err := r.stores.GetByID(ctx, rq.StoreID)
	if err != nil {
		return Application{}, err
	}

	kqPassed := EvaluateScreening(rq.Screening, req.Answers)
	score := geomatch.Score(cand.District, st.District, cand.Coords, st.Coords, rq.Shift)
	isGeoMatch := score >= geomatch.MatchThreshold

	flow := FlowReview
	if kqPassed && isGeoMatch {
		flow = FlowAuto
	}

	return r.apps.Insert(ctx, InsertParams{
		CandidateID:   req.CandidateID,
		RequisitionID: req.RequisitionID,
		Answers:       req.Answers,
		KQPassed:      kqPassed,
		MatchScore:    score,
		IsGeoMatch:    isGeoMatch,
		Flow:          flow,
	})
}

// EvaluateScreening applies the knockout gate: every required question must
// be answered, and a required question with an expected answer must match it
// (case-insensitive, whitespace-trimmed). Optional questions never affect
// the outcome.
func EvaluateScreening(questions []requisition.ScreeningQuestion, answers map[string]string) bool {
	for _, q := range questions {
		if !q.Required {
			continue
		}
		answer, ok := answers[q.ID]
		if !ok || strings.TrimSpace(answer) == "" {
			return false
		}
		if q.Expected != nil && !strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(*q.Expected)) {
			return false
		}
	}
	return true
}
