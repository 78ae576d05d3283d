package approval

import (
	"encoding/json"
	"time"

	"github.com/treso/treso/pkg/request"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type ReviewAction string

const (
	ActionApprove ReviewAction = "approve"
	ActionReject  ReviewAction = "reject"
)

// ApprovalRequest is the generic envelope routed through the workflow. The
// payload and the approver are frozen at submission time: re-resolving the
// approver at review time would let a PM change retroactively affect who may
// act on a pending request.
type ApprovalRequest struct {
	Id          int
	Uid         string
	Kind        request.Kind
	Payload     json.RawMessage
	RequesterId int
	ApproverId  int
	GroupId     int
	Status      Status
	SubmittedAt time.Time
	ReviewedAt  time.Time
	ReviewNotes string
}
