package execution

import "time"

// ExecutionRecord is a single spend event against exactly one project.
// Amount is in minor units and must be positive.
type ExecutionRecord struct {
	Id            int
	Uid           string
	ProjectId     int
	Amount        int64
	Date          time.Time
	Justification string
	VoucherRef    string
	CreatedBy     int
	CreatedAt     time.Time
}
