package application

import "time"

// Flow is the downstream path chosen for an application: automatic
// interview scheduling (A) or manual recruiter review (B).
type Flow string

const (
	FlowAuto   Flow = "A"
	FlowReview Flow = "B"
)

// Application is one candidate's submission against one requisition. The
// derived fields (KQPassed, MatchScore, IsGeoMatch, Flow) are written once
// at routing time and never mutated afterwards; downstream outcomes belong
// to the scheduling collaborator.
type Application struct {
	ID            string
	CandidateID   string
	RequisitionID string
	Answers       map[string]string
	KQPassed      bool
	MatchScore    int
	IsGeoMatch    bool
	Flow          Flow
	CreatedAt     time.Time
}
