package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/treso/treso/internal/event_bus"
	"github.com/treso/treso/internal/utils"
	"github.com/treso/treso/pkg/directory"
	"github.com/treso/treso/pkg/request"
)

var ErrForbidden = errors.New("actor is not allowed to perform this action")
var ErrAlreadyReviewed = errors.New("request has already been reviewed")
var ErrExecutionFailed = errors.New("request execution failed")

// SubmitResult is what a submission produced: either an immediately executed
// mutation (self-authority bypass) or a pending request awaiting review.
type SubmitResult struct {
	Executed bool
	Request  *ApprovalRequest
	Result   request.Result
}

type Service interface {
	// Submit routes a change into the workflow. When the requester is the
	// group's designated approver the request executes immediately and no
	// request row is persisted; a manager never queues work for their own
	// sign-off. Otherwise the requester must belong to the group, and a
	// pending request is created with the approver resolved now and frozen.
	Submit(ctx context.Context, groupId int, payload request.Payload) (SubmitResult, error)
	// Review decides a pending request. Only the frozen approver may act; a
	// request that already left pending fails with ErrAlreadyReviewed. An
	// approval whose execution fails is reverted to pending with the failure
	// reason appended to the review notes, and the error is returned.
	Review(ctx context.Context, requestUid string, action ReviewAction, notes string) (ApprovalRequest, error)
	GetByUid(ctx context.Context, uid string) (ApprovalRequest, error)
	ListForCurrentApprover(ctx context.Context) ([]ApprovalRequest, error)

	// CreateCompanion persists a pending request on behalf of another
	// workflow, bypassing membership checks. Used by the transfer workflow to
	// notify the destination group's PM.
	CreateCompanion(ctx context.Context, payload request.Payload, requesterId int, approverId int, groupId int) (ApprovalRequest, error)
	// CloseCompanion settles a companion request after its owning workflow
	// decided; a request no longer pending is left untouched.
	CloseCompanion(ctx context.Context, requestId int, approved bool, notes string) error
}

type ServiceImpl struct {
	repo      Repo
	directory directory.Service
	executor  request.Executor
	clock     utils.Clock
	bus       *event_bus.EventBus
}

func NewService(repo Repo, directoryService directory.Service, executor request.Executor, clock utils.Clock, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{
		repo:      repo,
		directory: directoryService,
		executor:  executor,
		clock:     clock,
		bus:       bus,
	}
}

func (s *ServiceImpl) Submit(ctx context.Context, groupId int, payload request.Payload) (SubmitResult, error) {
	actor, err := directory.CurrentActor(ctx)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("failed to get current actor: %w", err)
	}
	if payload == nil {
		return SubmitResult{}, fmt.Errorf("%w: nil payload", request.ErrUnknownRequestKind)
	}
	if err := payload.Validate(); err != nil {
		return SubmitResult{}, err
	}

	group, err := s.directory.GetGroup(ctx, groupId)
	if err != nil {
		return SubmitResult{}, err
	}
	approver, err := s.directory.GroupApprover(ctx, groupId)
	if err != nil {
		return SubmitResult{}, err
	}

	if actor.Id == approver.Id {
		log.Debugf("requester %d is the approver of group %d, executing %s directly", actor.Id, groupId, payload.Kind())
		result, err := s.executor.Execute(ctx, payload)
		if err != nil {
			return SubmitResult{}, err
		}
		return SubmitResult{Executed: true, Result: result}, nil
	}

	if !group.IsMember(actor.Id) {
		return SubmitResult{}, fmt.Errorf("user %d is not a member of group %d: %w", actor.Id, groupId, ErrForbidden)
	}

	raw, err := request.EncodePayload(payload)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("could not encode payload: %w", err)
	}
	req := ApprovalRequest{
		Uid:         uuid.NewString(),
		Kind:        payload.Kind(),
		Payload:     raw,
		RequesterId: actor.Id,
		ApproverId:  approver.Id,
		GroupId:     groupId,
		Status:      StatusPending,
		SubmittedAt: s.clock.Now(),
	}
	id, err := s.repo.Store(ctx, req)
	if err != nil {
		return SubmitResult{}, err
	}
	req.Id = id
	return SubmitResult{Request: &req}, nil
}

func (s *ServiceImpl) Review(ctx context.Context, requestUid string, action ReviewAction, notes string) (ApprovalRequest, error) {
	actor, err := directory.CurrentActor(ctx)
	if err != nil {
		return ApprovalRequest{}, fmt.Errorf("failed to get current actor: %w", err)
	}
	req, err := s.repo.GetByUid(ctx, requestUid)
	if err != nil {
		return ApprovalRequest{}, err
	}
	if actor.Id != req.ApproverId {
		return ApprovalRequest{}, fmt.Errorf("user %d is not the approver of request %s: %w", actor.Id, requestUid, ErrForbidden)
	}

	switch action {
	case ActionReject:
		return s.reject(ctx, req, actor.Id, notes)
	case ActionApprove:
		return s.approve(ctx, req, actor.Id, notes)
	default:
		return ApprovalRequest{}, fmt.Errorf("unknown review action %q", action)
	}
}

func (s *ServiceImpl) reject(ctx context.Context, req ApprovalRequest, reviewerId int, notes string) (ApprovalRequest, error) {
	now := s.clock.Now()
	reviewed, err := s.repo.MarkReviewed(ctx, req.Id, StatusRejected, notes, now)
	if err != nil {
		return ApprovalRequest{}, err
	}
	if !reviewed {
		return ApprovalRequest{}, ErrAlreadyReviewed
	}
	req.Status = StatusRejected
	req.ReviewNotes = notes
	req.ReviewedAt = now

	s.publishReviewed(ctx, req, false, reviewerId)
	return req, nil
}

// approve records the decision first and only then executes the mutation. The
// decision is not durable until execution succeeds: on executor failure the
// request returns to pending with the failure preserved for the operator.
func (s *ServiceImpl) approve(ctx context.Context, req ApprovalRequest, reviewerId int, notes string) (ApprovalRequest, error) {
	now := s.clock.Now()
	reviewed, err := s.repo.MarkReviewed(ctx, req.Id, StatusApproved, notes, now)
	if err != nil {
		return ApprovalRequest{}, err
	}
	if !reviewed {
		return ApprovalRequest{}, ErrAlreadyReviewed
	}

	payload, err := request.DecodePayload(req.Kind, req.Payload)
	if err == nil {
		_, err = s.executor.Execute(ctx, payload)
	}
	if err != nil {
		failNotes := notes
		if failNotes != "" {
			failNotes += "; "
		}
		failNotes += fmt.Sprintf("execution failed: %v", err)
		if _, revertErr := s.repo.RevertToPending(ctx, req.Id, failNotes); revertErr != nil {
			log.Errorf("failed to revert request %d to pending after execution failure: %v", req.Id, revertErr)
		}
		return ApprovalRequest{}, fmt.Errorf("%w: %w", ErrExecutionFailed, err)
	}

	req.Status = StatusApproved
	req.ReviewNotes = notes
	req.ReviewedAt = now

	s.publishReviewed(ctx, req, true, reviewerId)
	return req, nil
}

func (s *ServiceImpl) GetByUid(ctx context.Context, uid string) (ApprovalRequest, error) {
	return s.repo.GetByUid(ctx, uid)
}

func (s *ServiceImpl) ListForCurrentApprover(ctx context.Context) ([]ApprovalRequest, error) {
	actorId, err := directory.CurrentActorId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current actor: %w", err)
	}
	return s.repo.ListForApprover(ctx, actorId)
}

func (s *ServiceImpl) CreateCompanion(ctx context.Context, payload request.Payload, requesterId int, approverId int, groupId int) (ApprovalRequest, error) {
	raw, err := request.EncodePayload(payload)
	if err != nil {
		return ApprovalRequest{}, fmt.Errorf("could not encode payload: %w", err)
	}
	req := ApprovalRequest{
		Uid:         uuid.NewString(),
		Kind:        payload.Kind(),
		Payload:     raw,
		RequesterId: requesterId,
		ApproverId:  approverId,
		GroupId:     groupId,
		Status:      StatusPending,
		SubmittedAt: s.clock.Now(),
	}
	id, err := s.repo.Store(ctx, req)
	if err != nil {
		return ApprovalRequest{}, err
	}
	req.Id = id
	return req, nil
}

func (s *ServiceImpl) CloseCompanion(ctx context.Context, requestId int, approved bool, notes string) error {
	status := StatusRejected
	if approved {
		status = StatusApproved
	}
	closed, err := s.repo.MarkReviewed(ctx, requestId, status, notes, s.clock.Now())
	if err != nil {
		return err
	}
	if !closed {
		log.Debugf("companion request %d was not pending anymore, leaving as is", requestId)
	}
	return nil
}

func (s *ServiceImpl) publishReviewed(ctx context.Context, req ApprovalRequest, approved bool, reviewerId int) {
	if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.TypeRequestReviewed, event_bus.RequestReviewed{
		RequestId:  req.Id,
		Kind:       string(req.Kind),
		Approved:   approved,
		ReviewerId: reviewerId,
	})); err != nil {
		log.Warnf("failed to publish request reviewed event: %v", err)
	}
}
