package requisition

import (
	"context"
	"errors"
)

var (
	// ErrCapacityReached signals every requested seat is already filled.
	ErrCapacityReached = errors.New("requisition: all requested seats are filled")
	// ErrNotRecruiting signals the requisition cannot take hires because it
	// is not in recruiting state.
	ErrNotRecruiting = errors.New("requisition: not recruiting")
	// ErrAlreadyTerminal signals the requisition is closed or cancelled.
	ErrAlreadyTerminal = errors.New("requisition: already terminal")
)

// Tracker maintains the fill count of a requisition's seats and drives the
// recruiting lifecycle to its terminal states.
type Tracker struct {
	repo Repository
}

// NewTracker creates a slot fulfillment tracker.
func NewTracker(repo Repository) *Tracker {
	return &Tracker{repo: repo}
}

// ConfirmHire records one confirmed hire against the requisition. The write
// is a compare-and-swap on the observed fill count, so concurrent
// confirmations cannot push filled slots past the requested seat count.
// Filling the last seat flips the requisition to filled.
func (t *Tracker) ConfirmHire(ctx context.Context, id string) (Requisition, error) {
	rq, err := t.repo.GetByID(ctx, id)
	if err != nil {
		return Requisition{}, err
	}

	switch rq.Status {
	case StatusRecruiting:
	case StatusFilled:
		return Requisition{}, ErrCapacityReached
	case StatusClosed, StatusCancelled:
		return Requisition{}, ErrAlreadyTerminal
	default:
		return Requisition{}, ErrNotRecruiting
	}
	if rq.FilledSlots >= rq.SeatCount {
		return Requisition{}, ErrCapacityReached
	}

	return t.repo.IncrementFilled(ctx, id, rq.FilledSlots)
}

// Close finalizes a filled requisition once hiring paperwork completes.
// Closed is terminal: no further routing or hiring is possible.
func (t *Tracker) Close(ctx context.Context, id string) (Requisition, error) {
	return t.repo.UpdateStatus(ctx, id, []Status{StatusFilled}, StatusClosed)
}

// Cancel withdraws a requisition that has not reached a terminal state.
func (t *Tracker) Cancel(ctx context.Context, id string) (Requisition, error) {
	return t.repo.UpdateStatus(ctx, id, []Status{StatusPending, StatusRecruiting}, StatusCancelled)
}
