package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/treso/treso/internal/event_bus"
	"github.com/treso/treso/internal/utils"
	"github.com/treso/treso/pkg/approval"
	"github.com/treso/treso/pkg/directory"
	"github.com/treso/treso/pkg/project"
	"github.com/treso/treso/pkg/request"
)

var ErrForbidden = errors.New("actor is not allowed to perform this action")
var ErrAlreadyProcessed = errors.New("transfer has already been processed")
var ErrUnknownTransferType = errors.New("unknown transfer type")
var ErrExecutionFailed = errors.New("transfer execution failed")

// ProjectMover is the slice of the project service the transfer effect needs.
type ProjectMover interface {
	Get(ctx context.Context, id int) (project.Project, error)
	Reassign(ctx context.Context, projectId int, ownerId int, groupId int) error
	OverrideBudget(ctx context.Context, projectId int, amount int64) error
}

// Approvals is the slice of the approval service used for the companion
// request that notifies the destination group's PM.
type Approvals interface {
	CreateCompanion(ctx context.Context, payload request.Payload, requesterId int, approverId int, groupId int) (approval.ApprovalRequest, error)
	CloseCompanion(ctx context.Context, requestId int, approved bool, notes string) error
}

type Service interface {
	// Initiate validates the destination and persists a pending transfer
	// together with a companion approval request for the destination group's
	// PM. The source owner and group are snapshotted from the project.
	Initiate(ctx context.Context, transfer ProjectTransfer) (ProjectTransfer, error)
	// Approve decides a pending transfer. Only the destination group's PM may
	// act. The transition out of pending is compare-and-swap, so of two
	// concurrent decisions exactly one wins and the loser gets
	// ErrAlreadyProcessed. On effect failure the transfer returns to pending
	// with the failure recorded in the notes.
	Approve(ctx context.Context, transferUid string, notes string) (ProjectTransfer, error)
	Reject(ctx context.Context, transferUid string, notes string) (ProjectTransfer, error)
	// Apply runs a pending transfer on behalf of an approved companion
	// request. The companion itself is settled by its own workflow.
	Apply(ctx context.Context, transferUid string) error
	GetByUid(ctx context.Context, uid string) (ProjectTransfer, error)
	ListForProject(ctx context.Context, projectId int) ([]ProjectTransfer, error)
}

type ServiceImpl struct {
	repo      Repo
	projects  ProjectMover
	directory directory.Service
	approvals Approvals
	clock     utils.Clock
	bus       *event_bus.EventBus
}

func NewService(repo Repo, projects ProjectMover, directoryService directory.Service, approvals Approvals, clock utils.Clock, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{
		repo:      repo,
		projects:  projects,
		directory: directoryService,
		approvals: approvals,
		clock:     clock,
		bus:       bus,
	}
}

func (s *ServiceImpl) Initiate(ctx context.Context, transfer ProjectTransfer) (ProjectTransfer, error) {
	actor, err := directory.CurrentActor(ctx)
	if err != nil {
		return ProjectTransfer{}, fmt.Errorf("failed to get current actor: %w", err)
	}
	if !knownKind(transfer.Kind) {
		return ProjectTransfer{}, fmt.Errorf("%w: %s", ErrUnknownTransferType, transfer.Kind)
	}
	if transfer.Kind == KindBudgetReallocation && transfer.Amount <= 0 {
		return ProjectTransfer{}, fmt.Errorf("budget reallocation requires a positive amount")
	}

	p, err := s.projects.Get(ctx, transfer.ProjectId)
	if err != nil {
		return ProjectTransfer{}, err
	}
	destination, err := s.directory.GetUser(ctx, transfer.ToUserId)
	if err != nil {
		return ProjectTransfer{}, err
	}
	if !destination.Active {
		return ProjectTransfer{}, fmt.Errorf("destination user %d is not active", destination.Id)
	}
	if _, err := s.directory.GetGroup(ctx, transfer.ToGroupId); err != nil {
		return ProjectTransfer{}, err
	}
	pm, err := s.directory.GroupApprover(ctx, transfer.ToGroupId)
	if err != nil {
		return ProjectTransfer{}, err
	}

	transfer.Uid = uuid.NewString()
	transfer.FromUserId = p.OwnerId
	transfer.FromGroupId = p.GroupId
	transfer.RequesterId = actor.Id
	transfer.ApproverId = 0
	transfer.Status = StatusPending
	transfer.CreatedAt = s.clock.Now()

	companion, err := s.approvals.CreateCompanion(ctx, request.ProjectTransfer{TransferUid: transfer.Uid}, actor.Id, pm.Id, transfer.ToGroupId)
	if err != nil {
		return ProjectTransfer{}, fmt.Errorf("could not create companion approval request: %w", err)
	}
	transfer.ApprovalRequestId = companion.Id

	id, err := s.repo.Store(ctx, transfer)
	if err != nil {
		if closeErr := s.approvals.CloseCompanion(ctx, companion.Id, false, "transfer could not be stored"); closeErr != nil {
			log.Errorf("failed to close companion request %d: %v", companion.Id, closeErr)
		}
		return ProjectTransfer{}, err
	}
	transfer.Id = id
	return transfer, nil
}

func (s *ServiceImpl) Approve(ctx context.Context, transferUid string, notes string) (ProjectTransfer, error) {
	actor, err := directory.CurrentActor(ctx)
	if err != nil {
		return ProjectTransfer{}, fmt.Errorf("failed to get current actor: %w", err)
	}
	t, err := s.repo.GetByUid(ctx, transferUid)
	if err != nil {
		return ProjectTransfer{}, err
	}
	if err := s.requirePM(ctx, actor.Id, t.ToGroupId); err != nil {
		return ProjectTransfer{}, err
	}

	now := s.clock.Now()
	approved, err := s.repo.MarkApproved(ctx, t.Id, actor.Id, now)
	if err != nil {
		return ProjectTransfer{}, err
	}
	if !approved {
		return ProjectTransfer{}, ErrAlreadyProcessed
	}

	if err := s.applyEffect(ctx, t); err != nil {
		failNotes := notes
		if failNotes != "" {
			failNotes += "; "
		}
		failNotes += fmt.Sprintf("execution failed: %v", err)
		if _, revertErr := s.repo.RevertToPending(ctx, t.Id, failNotes); revertErr != nil {
			log.Errorf("failed to revert transfer %d to pending after execution failure: %v", t.Id, revertErr)
		}
		return ProjectTransfer{}, fmt.Errorf("%w: %w", ErrExecutionFailed, err)
	}

	completedAt := s.clock.Now()
	if _, err := s.repo.MarkCompleted(ctx, t.Id, completedAt); err != nil {
		return ProjectTransfer{}, err
	}
	if err := s.approvals.CloseCompanion(ctx, t.ApprovalRequestId, true, notes); err != nil {
		log.Warnf("failed to close companion request %d: %v", t.ApprovalRequestId, err)
	}

	t.Status = StatusCompleted
	t.ApproverId = actor.Id
	t.Notes = notes
	t.ApprovedAt = now
	t.CompletedAt = completedAt

	s.publishCompleted(ctx, t)
	return t, nil
}

func (s *ServiceImpl) Reject(ctx context.Context, transferUid string, notes string) (ProjectTransfer, error) {
	actor, err := directory.CurrentActor(ctx)
	if err != nil {
		return ProjectTransfer{}, fmt.Errorf("failed to get current actor: %w", err)
	}
	t, err := s.repo.GetByUid(ctx, transferUid)
	if err != nil {
		return ProjectTransfer{}, err
	}
	if err := s.requirePM(ctx, actor.Id, t.ToGroupId); err != nil {
		return ProjectTransfer{}, err
	}

	now := s.clock.Now()
	rejected, err := s.repo.MarkRejected(ctx, t.Id, actor.Id, notes, now)
	if err != nil {
		return ProjectTransfer{}, err
	}
	if !rejected {
		return ProjectTransfer{}, ErrAlreadyProcessed
	}
	if err := s.approvals.CloseCompanion(ctx, t.ApprovalRequestId, false, notes); err != nil {
		log.Warnf("failed to close companion request %d: %v", t.ApprovalRequestId, err)
	}

	t.Status = StatusRejected
	t.ApproverId = actor.Id
	t.Notes = notes
	t.ApprovedAt = now
	return t, nil
}

// Apply is the executor path: the destination PM approved the companion
// request through the generic workflow instead of the transfer endpoint. The
// companion's frozen approver already authorized the actor, so only the
// pending-state check is repeated here.
func (s *ServiceImpl) Apply(ctx context.Context, transferUid string) error {
	actorId, err := directory.CurrentActorId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current actor: %w", err)
	}
	t, err := s.repo.GetByUid(ctx, transferUid)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	approved, err := s.repo.MarkApproved(ctx, t.Id, actorId, now)
	if err != nil {
		return err
	}
	if !approved {
		return ErrAlreadyProcessed
	}

	if err := s.applyEffect(ctx, t); err != nil {
		failNotes := fmt.Sprintf("execution failed: %v", err)
		if _, revertErr := s.repo.RevertToPending(ctx, t.Id, failNotes); revertErr != nil {
			log.Errorf("failed to revert transfer %d to pending after execution failure: %v", t.Id, revertErr)
		}
		return err
	}

	completedAt := s.clock.Now()
	if _, err := s.repo.MarkCompleted(ctx, t.Id, completedAt); err != nil {
		return err
	}

	t.Status = StatusCompleted
	t.ApproverId = actorId
	t.ApprovedAt = now
	t.CompletedAt = completedAt

	s.publishCompleted(ctx, t)
	return nil
}

func (s *ServiceImpl) GetByUid(ctx context.Context, uid string) (ProjectTransfer, error) {
	return s.repo.GetByUid(ctx, uid)
}

func (s *ServiceImpl) ListForProject(ctx context.Context, projectId int) ([]ProjectTransfer, error) {
	return s.repo.ListForProject(ctx, projectId)
}

func (s *ServiceImpl) requirePM(ctx context.Context, actorId int, groupId int) error {
	pm, err := s.directory.GroupApprover(ctx, groupId)
	if err != nil {
		return err
	}
	if actorId != pm.Id {
		return fmt.Errorf("user %d is not the PM of group %d: %w", actorId, groupId, ErrForbidden)
	}
	return nil
}

func (s *ServiceImpl) applyEffect(ctx context.Context, t ProjectTransfer) error {
	switch t.Kind {
	case KindOwnership, KindExecutionTransfer:
		return s.projects.Reassign(ctx, t.ProjectId, t.ToUserId, t.ToGroupId)
	case KindBudgetReallocation:
		if err := s.projects.Reassign(ctx, t.ProjectId, t.ToUserId, t.ToGroupId); err != nil {
			return err
		}
		return s.projects.OverrideBudget(ctx, t.ProjectId, t.Amount)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownTransferType, t.Kind)
	}
}

func knownKind(k Kind) bool {
	switch k {
	case KindOwnership, KindBudgetReallocation, KindExecutionTransfer:
		return true
	default:
		return false
	}
}

func (s *ServiceImpl) publishCompleted(ctx context.Context, t ProjectTransfer) {
	if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.TypeTransferCompleted, event_bus.TransferCompleted{
		TransferId: t.Id,
		ProjectId:  t.ProjectId,
		Kind:       string(t.Kind),
		ApproverId: t.ApproverId,
	})); err != nil {
		log.Warnf("failed to publish transfer completed event: %v", err)
	}
}
