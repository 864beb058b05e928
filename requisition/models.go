package requisition

import (
	"time"

	"hireflow/geomatch"
)

// Role identifies the staff position acting on a requisition.
type Role string

const (
	RoleStoreManager Role = "store_manager"
	RoleSupervisor   Role = "supervisor"
	RoleBrandHead    Role = "jefe_marca"
	RoleRecruiter    Role = "recruiter"
	RoleAdmin        Role = "admin"
)

// Modality is the employment contract type requested.
type Modality string

const (
	ModalityPartTime19 Modality = "part_time_19h"
	ModalityPartTime23 Modality = "part_time_23h"
	ModalityFullTime   Modality = "full_time"
)

// Category splits demand between floor and management positions.
type Category string

const (
	CategoryOperational Category = "operational"
	CategoryManagerial  Category = "managerial"
)

// ApprovalStatus is the outcome of the approval chain as a whole.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Status is the recruiting lifecycle state of a requisition. A requisition
// starts at StatusPending until its chain fully approves, then recruits
// until every seat is filled or it is withdrawn.
type Status string

const (
	StatusPending    Status = "pending"
	StatusRecruiting Status = "recruiting"
	StatusFilled     Status = "filled"
	StatusClosed     Status = "closed"
	StatusCancelled  Status = "cancelled"
)

// StepStatus is the state of a single chain entry.
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepApproved StepStatus = "approved"
	StepRejected StepStatus = "rejected"
)

// ApprovalStep is one entry in a requisition's approval chain. A step is
// immutable once approved; a rejected step terminates the whole chain.
// ApproverID may be empty when no approver covered the scope at build time.
type ApprovalStep struct {
	Level        int        `json:"level"`
	Role         Role       `json:"role"`
	Status       StepStatus `json:"status"`
	ApproverID   string     `json:"approver_id,omitempty"`
	ApproverName string     `json:"approver_name,omitempty"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
	Reason       string     `json:"reason,omitempty"`
}

// ScreeningQuestion is a knockout question candidates answer when applying.
// Expected, when set on a required question, is the answer that passes the
// gate. Optional questions never affect routing.
type ScreeningQuestion struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	Required bool    `json:"required"`
	Expected *string `json:"expected,omitempty"`
}

// Requisition is one open staffing need at one store for one position.
type Requisition struct {
	ID             string
	Seq            int64
	BrandID        string
	StoreID        string
	Position       string
	Shift          geomatch.Shift
	Modality       Modality
	SeatCount      int
	Category       Category
	ApprovalStatus ApprovalStatus
	CurrentLevel   int
	Chain          []ApprovalStep
	Status         Status
	FilledSlots    int
	Screening      []ScreeningQuestion
	CreatedBy      string
	CreatedByRole  Role
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CurrentStep returns the chain entry at the current approval level, or nil
// when the level points outside the chain.
func (r *Requisition) CurrentStep() *ApprovalStep {
	for i := range r.Chain {
		if r.Chain[i].Level == r.CurrentLevel {
			return &r.Chain[i]
		}
	}
	return nil
}

// Terminal reports whether the requisition can no longer accept routing or
// hiring activity.
func (r *Requisition) Terminal() bool {
	return r.Status == StatusClosed || r.Status == StatusCancelled
}
