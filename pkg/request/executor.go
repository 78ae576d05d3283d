package request

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/treso/treso/pkg/execution"
	"github.com/treso/treso/pkg/project"
)

// ProjectWriter is the slice of the project service the executor needs.
type ProjectWriter interface {
	CreateApproved(ctx context.Context, p project.Project) (project.Project, error)
	UpdateApproved(ctx context.Context, p project.Project) (project.Project, error)
	OverrideBudget(ctx context.Context, projectId int, amount int64) error
}

// ExecutionWriter is the slice of the execution service the executor needs.
type ExecutionWriter interface {
	Create(ctx context.Context, record execution.ExecutionRecord) (execution.ExecutionRecord, error)
	Update(ctx context.Context, record execution.ExecutionRecord) (execution.ExecutionRecord, error)
}

// TransferApplier executes an initiated project transfer. Implemented by the
// transfer service; its pending-state check makes a second application fail
// rather than run twice.
type TransferApplier interface {
	Apply(ctx context.Context, transferUid string) error
}

// Result carries whichever entity an executed request produced.
type Result struct {
	Project   *project.Project
	Execution *execution.ExecutionRecord
}

// Executor maps a request payload to its domain mutation. It is used by both
// the direct-execution path (requester is the approver) and the
// approved-request path. Effects are not idempotent; callers must guarantee
// at-most-once invocation per approved request.
type Executor interface {
	Execute(ctx context.Context, payload Payload) (Result, error)
}

type ExecutorImpl struct {
	projects   ProjectWriter
	executions ExecutionWriter
	transfers  TransferApplier
}

func NewExecutor(projects ProjectWriter, executions ExecutionWriter) *ExecutorImpl {
	return &ExecutorImpl{projects: projects, executions: executions}
}

// SetTransfers wires the transfer workflow in after construction. The transfer
// service itself depends on the approval workflow, which depends on this
// executor, so the last edge of that triangle is bound late.
func (e *ExecutorImpl) SetTransfers(transfers TransferApplier) {
	e.transfers = transfers
}

func (e *ExecutorImpl) Execute(ctx context.Context, payload Payload) (Result, error) {
	if payload == nil {
		return Result{}, fmt.Errorf("%w: nil payload", ErrUnknownRequestKind)
	}
	if err := payload.Validate(); err != nil {
		return Result{}, err
	}
	log.Debugf("executing %s request", payload.Kind())

	switch p := payload.(type) {
	case ProjectCreate:
		created, err := e.projects.CreateApproved(ctx, project.Project{
			Name:           p.Name,
			Year:           p.Year,
			BudgetOccupied: p.BudgetOccupied,
			OwnerId:        p.OwnerId,
			GroupId:        p.GroupId,
		})
		if err != nil {
			return Result{}, err
		}
		return Result{Project: &created}, nil

	case ProjectUpdate:
		updated, err := e.projects.UpdateApproved(ctx, project.Project{
			Id:             p.ProjectId,
			Name:           p.Name,
			Year:           p.Year,
			BudgetOccupied: p.BudgetOccupied,
		})
		if err != nil {
			return Result{}, err
		}
		return Result{Project: &updated}, nil

	case ExecutionCreate:
		created, err := e.executions.Create(ctx, execution.ExecutionRecord{
			ProjectId:     p.ProjectId,
			Amount:        p.Amount,
			Date:          p.Date,
			Justification: p.Justification,
			VoucherRef:    p.VoucherRef,
		})
		if err != nil {
			return Result{}, err
		}
		return Result{Execution: &created}, nil

	case ExecutionUpdate:
		updated, err := e.executions.Update(ctx, execution.ExecutionRecord{
			Id:            p.ExecutionId,
			Amount:        p.Amount,
			Date:          p.Date,
			Justification: p.Justification,
			VoucherRef:    p.VoucherRef,
		})
		if err != nil {
			return Result{}, err
		}
		return Result{Execution: &updated}, nil

	case ProjectTransfer:
		if e.transfers == nil {
			return Result{}, fmt.Errorf("transfer execution is not wired")
		}
		if err := e.transfers.Apply(ctx, p.TransferUid); err != nil {
			return Result{}, err
		}
		return Result{}, nil

	case BudgetAdjustment:
		if err := e.projects.OverrideBudget(ctx, p.ProjectId, p.BudgetOccupied); err != nil {
			return Result{}, err
		}
		return Result{}, nil

	default:
		return Result{}, fmt.Errorf("%w: %T", ErrUnknownRequestKind, payload)
	}
}
