package project

import "time"

type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Project is a budget-holding unit. All amounts are in minor units.
type Project struct {
	Id   int
	Uid  string
	Name string
	Year int
	// BudgetOccupied is the allocated ceiling for the budget year.
	BudgetOccupied int64
	// BudgetExecuted is recomputed from the authoritative sum of execution
	// records after every accepted spend-affecting mutation; it is never
	// incremented piecemeal.
	BudgetExecuted int64
	OwnerId        int
	GroupId        int
	Status         Status
	CreatedAt      time.Time
	ApprovedAt     time.Time
}

// Remaining is always derived from the two stored amounts, never persisted.
func (p Project) Remaining() int64 {
	return p.BudgetOccupied - p.BudgetExecuted
}
