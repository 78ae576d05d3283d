package app

import (
	"database/sql"

	"github.com/treso/treso/internal/event_bus"
	"github.com/treso/treso/internal/utils"
	"github.com/treso/treso/pkg/adjustment"
	"github.com/treso/treso/pkg/approval"
	"github.com/treso/treso/pkg/directory"
	"github.com/treso/treso/pkg/execution"
	"github.com/treso/treso/pkg/ledger"
	"github.com/treso/treso/pkg/project"
	"github.com/treso/treso/pkg/request"
	"github.com/treso/treso/pkg/transfer"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	DirectoryService directory.Service
	DirectoryHandler *directory.Handler

	LedgerService ledger.Service

	ProjectRepo    project.Repo
	ProjectService project.Service
	ProjectHandler *project.Handler

	ExecutionRepo    execution.Repo
	ExecutionService execution.Service
	ExecutionHandler *execution.Handler

	AdjustmentRepo    adjustment.Repo
	AdjustmentService adjustment.Service
	AdjustmentHandler *adjustment.Handler

	Executor *request.ExecutorImpl

	ApprovalRepo    approval.Repo
	ApprovalService approval.Service
	ApprovalHandler *approval.Handler

	TransferRepo    transfer.Repo
	TransferService transfer.Service
	TransferHandler *transfer.Handler

	EventBus *event_bus.EventBus
	Clock    utils.Clock
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()
	RegisterAuditSubscribers(deps.EventBus)

	directoryRepo := directory.NewRepo(db)
	deps.DirectoryService = directory.NewService(directoryRepo)
	deps.DirectoryHandler = directory.NewHandler(deps.DirectoryService)

	deps.ProjectRepo = project.NewRepo(db)
	deps.ExecutionRepo = execution.NewRepo(db)
	deps.AdjustmentRepo = adjustment.NewRepo(db)
	deps.LedgerService = ledger.NewService(deps.ProjectRepo, deps.ProjectRepo, deps.ExecutionRepo, deps.AdjustmentRepo)

	deps.ProjectService = project.NewService(deps.ProjectRepo, deps.LedgerService, deps.Clock)
	deps.ProjectHandler = project.NewHandler(deps.ProjectService, deps.LedgerService)

	deps.ExecutionService = execution.NewService(deps.ExecutionRepo, deps.ProjectRepo, deps.LedgerService, deps.Clock, deps.EventBus)
	deps.ExecutionHandler = execution.NewHandler(deps.ExecutionService, deps.ProjectService)

	deps.AdjustmentService = adjustment.NewService(deps.AdjustmentRepo, deps.ProjectRepo, deps.LedgerService, deps.Clock, deps.EventBus)
	deps.AdjustmentHandler = adjustment.NewHandler(deps.AdjustmentService, deps.ProjectService)

	deps.Executor = request.NewExecutor(deps.ProjectService, deps.ExecutionService)

	deps.ApprovalRepo = approval.NewRepo(db)
	deps.ApprovalService = approval.NewService(deps.ApprovalRepo, deps.DirectoryService, deps.Executor, deps.Clock, deps.EventBus)
	deps.ApprovalHandler = approval.NewHandler(deps.ApprovalService, deps.DirectoryService)

	deps.TransferRepo = transfer.NewRepo(db)
	deps.TransferService = transfer.NewService(deps.TransferRepo, deps.ProjectService, deps.DirectoryService, deps.ApprovalService, deps.Clock, deps.EventBus)
	deps.TransferHandler = transfer.NewHandler(deps.TransferService, deps.ProjectService)

	// transfer -> approval -> executor -> transfer, so the last edge is bound late
	deps.Executor.SetTransfers(deps.TransferService)

	return deps
}
