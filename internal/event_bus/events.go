package event_bus

const (
	TypeExecutionRecorded  EventType = "ledger.execution_recorded"
	TypeExecutionAmended   EventType = "ledger.execution_amended"
	TypeExecutionDeleted   EventType = "ledger.execution_deleted"
	TypeAdjustmentRecorded EventType = "ledger.adjustment_recorded"
	TypeRequestReviewed    EventType = "workflow.request_reviewed"
	TypeTransferCompleted  EventType = "workflow.transfer_completed"
)

type ExecutionRecorded struct {
	ExecutionId int
	ProjectId   int
	Amount      int64
	CreatedBy   int
}

type ExecutionAmended struct {
	ExecutionId int
	ProjectId   int
	Amount      int64
}

type ExecutionDeleted struct {
	ExecutionId int
	ProjectId   int
}

type AdjustmentRecorded struct {
	AdjustmentId int
	ProjectId    int
	Amount       int64
	CreatedBy    int
}

type RequestReviewed struct {
	RequestId  int
	Kind       string
	Approved   bool
	ReviewerId int
}

type TransferCompleted struct {
	TransferId int
	ProjectId  int
	Kind       string
	ApproverId int
}
