package adjustment

import "time"

// BudgetAdjustment records a reallocation carved out of a project's remaining
// budget into a logical target that does not yet exist as a project. It is a
// ledger event: the amount counts against the source project's remaining budget
// exactly like an execution record.
type BudgetAdjustment struct {
	Id               int
	Uid              string
	ProjectId        int
	Amount           int64
	TargetCategory   string
	TargetProject    string
	TargetSubProject string
	TargetOwner      string
	Reason           string
	CreatedBy        int
	CreatedAt        time.Time
}
