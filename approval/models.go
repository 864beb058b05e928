package approval

import (
	"hireflow/requisition"
)

// Approver is a staff member eligible to decide chain steps. The record is
// owned by the access-control subsystem; this core only reads it.
// Supervisors cover a set of stores, brand heads cover a brand.
type Approver struct {
	UserID       string
	Name         string
	Role         requisition.Role
	Active       bool
	VacationMode bool
	BackupUserID *string
	BackupName   *string
	BrandID      *string
}
