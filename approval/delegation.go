package approval

// ResolveDelegate returns the approver who should actually be assigned to a
// chain step: the backup when the assignee is on vacation and the backup is
// active, the assignee themselves in every other case (including a missing
// or inactive backup).
//
// Resolution happens once, at chain-assignment time. A vacation that starts
// after assignment does not retroactively change the assigned approver.
func ResolveDelegate(assignee Approver, backup *Approver) Approver {
	if !assignee.VacationMode {
		return assignee
	}
	if backup == nil || !backup.Active {
		return assignee
	}
	return *backup
}
