package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrUnknownRequestKind = errors.New("unknown request kind")

// Kind is the closed enumeration of mutations that can be routed through the
// approval workflow.
type Kind string

const (
	KindProjectCreate    Kind = "project_create"
	KindProjectUpdate    Kind = "project_update"
	KindExecutionCreate  Kind = "execution_create"
	KindExecutionUpdate  Kind = "execution_update"
	KindProjectTransfer  Kind = "project_transfer"
	KindBudgetAdjustment Kind = "budget_adjustment"
)

// Payload is the tagged-variant request body. Exactly one concrete type exists
// per Kind; the executor switches over the concrete types exhaustively.
type Payload interface {
	Kind() Kind
	Validate() error
}

type ProjectCreate struct {
	Name           string `json:"name"`
	Year           int    `json:"year"`
	BudgetOccupied int64  `json:"budgetOccupied"`
	OwnerId        int    `json:"ownerId"`
	GroupId        int    `json:"groupId"`
}

func (ProjectCreate) Kind() Kind { return KindProjectCreate }

func (p ProjectCreate) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("project name is required")
	}
	if p.OwnerId == 0 || p.GroupId == 0 {
		return fmt.Errorf("project owner and group are required")
	}
	return nil
}

type ProjectUpdate struct {
	ProjectId      int    `json:"projectId"`
	Name           string `json:"name,omitempty"`
	Year           int    `json:"year,omitempty"`
	BudgetOccupied int64  `json:"budgetOccupied,omitempty"`
}

func (ProjectUpdate) Kind() Kind { return KindProjectUpdate }

func (p ProjectUpdate) Validate() error {
	if p.ProjectId == 0 {
		return fmt.Errorf("project id is required")
	}
	return nil
}

type ExecutionCreate struct {
	ProjectId     int       `json:"projectId"`
	Amount        int64     `json:"amount"`
	Date          time.Time `json:"date,omitzero"`
	Justification string    `json:"justification,omitempty"`
	VoucherRef    string    `json:"voucherRef,omitempty"`
}

func (ExecutionCreate) Kind() Kind { return KindExecutionCreate }

func (p ExecutionCreate) Validate() error {
	if p.ProjectId == 0 {
		return fmt.Errorf("project id is required")
	}
	if p.Amount <= 0 {
		return fmt.Errorf("execution amount must be positive")
	}
	return nil
}

type ExecutionUpdate struct {
	ExecutionId   int       `json:"executionId"`
	Amount        int64     `json:"amount,omitempty"`
	Date          time.Time `json:"date,omitzero"`
	Justification string    `json:"justification,omitempty"`
	VoucherRef    string    `json:"voucherRef,omitempty"`
}

func (ExecutionUpdate) Kind() Kind { return KindExecutionUpdate }

func (p ExecutionUpdate) Validate() error {
	if p.ExecutionId == 0 {
		return fmt.Errorf("execution id is required")
	}
	return nil
}

type ProjectTransfer struct {
	TransferUid string `json:"transferUid"`
}

func (ProjectTransfer) Kind() Kind { return KindProjectTransfer }

func (p ProjectTransfer) Validate() error {
	if p.TransferUid == "" {
		return fmt.Errorf("transfer uid is required")
	}
	return nil
}

type BudgetAdjustment struct {
	ProjectId      int   `json:"projectId"`
	BudgetOccupied int64 `json:"budgetOccupied"`
}

func (BudgetAdjustment) Kind() Kind { return KindBudgetAdjustment }

func (p BudgetAdjustment) Validate() error {
	if p.ProjectId == 0 {
		return fmt.Errorf("project id is required")
	}
	return nil
}

// EncodePayload serializes a payload for storage inside an approval request.
func EncodePayload(p Payload) ([]byte, error) {
	return json.Marshal(p)
}

// DecodePayload restores the concrete payload type from its stored form. An
// unrecognized kind fails with ErrUnknownRequestKind.
func DecodePayload(kind Kind, raw []byte) (Payload, error) {
	var p Payload
	switch kind {
	case KindProjectCreate:
		p = &ProjectCreate{}
	case KindProjectUpdate:
		p = &ProjectUpdate{}
	case KindExecutionCreate:
		p = &ExecutionCreate{}
	case KindExecutionUpdate:
		p = &ExecutionUpdate{}
	case KindProjectTransfer:
		p = &ProjectTransfer{}
	case KindBudgetAdjustment:
		p = &BudgetAdjustment{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownRequestKind, kind)
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("could not decode %s payload: %w", kind, err)
	}
	return deref(p), nil
}

func deref(p Payload) Payload {
	switch v := p.(type) {
	case *ProjectCreate:
		return *v
	case *ProjectUpdate:
		return *v
	case *ExecutionCreate:
		return *v
	case *ExecutionUpdate:
		return *v
	case *ProjectTransfer:
		return *v
	case *BudgetAdjustment:
		return *v
	default:
		return p
	}
}
