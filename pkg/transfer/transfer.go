package transfer

import "time"

// Kind determines what moves with the project.
type Kind string

const (
	// KindOwnership moves the project to the destination owner and group.
	KindOwnership Kind = "ownership"
	// KindBudgetReallocation moves ownership and overwrites the allocated
	// ceiling with the carried amount.
	KindBudgetReallocation Kind = "budget_reallocation"
	// KindExecutionTransfer moves ownership only; budget fields are untouched.
	KindExecutionTransfer Kind = "execution_transfer"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// ProjectTransfer moves a project between organizational groups. The source
// side is snapshotted from the project at initiation; the approver is the
// destination group's PM and is stamped at approval time.
type ProjectTransfer struct {
	Id          int
	Uid         string
	ProjectId   int
	FromUserId  int
	FromGroupId int
	ToUserId    int
	ToGroupId   int
	Kind        Kind
	// Amount is the budget carried over, in minor units. Only meaningful for
	// budget reallocations.
	Amount      int64
	Reason      string
	RequesterId int
	ApproverId  int
	// ApprovalRequestId links the companion request created for the
	// destination PM at initiation.
	ApprovalRequestId int
	Status            Status
	Notes             string
	CreatedAt         time.Time
	ApprovedAt        time.Time
	CompletedAt       time.Time
}
