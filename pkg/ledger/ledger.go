package ledger

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

var ErrBudgetExceeded = errors.New("budget exceeded")

// BudgetExceededError reports a spend that would violate the remaining-budget
// invariant. It carries the requested amount and the remaining budget computed
// at validation time, both in minor units.
type BudgetExceededError struct {
	ProjectId int
	Requested int64
	Remaining int64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("requested amount %d exceeds remaining budget %d of project %d",
		e.Requested, e.Remaining, e.ProjectId)
}

func (e *BudgetExceededError) Is(target error) bool {
	return target == ErrBudgetExceeded
}

// ProjectBudget is the slice of a project the ledger needs.
type ProjectBudget struct {
	Id        int
	Allocated int64
}

type ProjectReader interface {
	// BudgetInfo returns the allocated ceiling of the project.
	BudgetInfo(ctx context.Context, projectId int) (ProjectBudget, error)
}

type ExecutedWriter interface {
	// SetBudgetExecuted overwrites the stored executed amount of the project.
	SetBudgetExecuted(ctx context.Context, projectId int, executed int64) error
}

type ExecutionSummer interface {
	// SumForProject sums active execution record amounts of the project,
	// excluding the record with excludeId (0 excludes nothing).
	SumForProject(ctx context.Context, projectId int, excludeId int) (int64, error)
}

type AdjustmentSummer interface {
	// SumForProject sums adjustment amounts carved out of the project.
	SumForProject(ctx context.Context, projectId int) (int64, error)
}

// Service answers "can this amount be spent against this project right now?"
// and keeps the stored executed amount consistent with the record set.
type Service interface {
	// Remaining computes allocated - sum(executions) - sum(adjustments).
	Remaining(ctx context.Context, projectId int) (int64, error)
	// ValidateSpend checks that amount fits into the remaining budget of the
	// project, with the execution record excludeId (0 for none) left out of the
	// sum. An amount exactly equal to the remaining budget passes.
	ValidateSpend(ctx context.Context, projectId int, amount int64, excludeId int) error
	// RecalculateExecuted overwrites the project's executed amount with the
	// authoritative sum of its execution records.
	RecalculateExecuted(ctx context.Context, projectId int) error
	// Guard runs fn inside the project's exclusive section. Every
	// validate-then-write sequence against the project's record set must go
	// through it, or two concurrent spends can jointly overspend.
	Guard(projectId int, fn func() error) error
}

type ServiceImpl struct {
	projects    ProjectReader
	executed    ExecutedWriter
	executions  ExecutionSummer
	adjustments AdjustmentSummer
	locks       projectLocks
}

func NewService(projects ProjectReader, executed ExecutedWriter, executions ExecutionSummer, adjustments AdjustmentSummer) *ServiceImpl {
	return &ServiceImpl{
		projects:    projects,
		executed:    executed,
		executions:  executions,
		adjustments: adjustments,
	}
}

func (s *ServiceImpl) Remaining(ctx context.Context, projectId int) (int64, error) {
	budget, err := s.projects.BudgetInfo(ctx, projectId)
	if err != nil {
		return 0, err
	}
	spent, err := s.spent(ctx, projectId, 0)
	if err != nil {
		return 0, err
	}
	return budget.Allocated - spent, nil
}

func (s *ServiceImpl) ValidateSpend(ctx context.Context, projectId int, amount int64, excludeId int) error {
	budget, err := s.projects.BudgetInfo(ctx, projectId)
	if err != nil {
		return err
	}
	spentByOthers, err := s.spent(ctx, projectId, excludeId)
	if err != nil {
		return err
	}
	remaining := budget.Allocated - spentByOthers
	if amount > remaining {
		log.Debugf("spend of %d rejected for project %d: remaining budget is %d", amount, projectId, remaining)
		return &BudgetExceededError{ProjectId: projectId, Requested: amount, Remaining: remaining}
	}
	return nil
}

func (s *ServiceImpl) RecalculateExecuted(ctx context.Context, projectId int) error {
	sum, err := s.executions.SumForProject(ctx, projectId, 0)
	if err != nil {
		return fmt.Errorf("failed to sum execution records of project %d: %w", projectId, err)
	}
	return s.executed.SetBudgetExecuted(ctx, projectId, sum)
}

func (s *ServiceImpl) Guard(projectId int, fn func() error) error {
	mu := s.locks.forProject(projectId)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

func (s *ServiceImpl) spent(ctx context.Context, projectId int, excludeId int) (int64, error) {
	executed, err := s.executions.SumForProject(ctx, projectId, excludeId)
	if err != nil {
		return 0, fmt.Errorf("failed to sum execution records of project %d: %w", projectId, err)
	}
	adjusted, err := s.adjustments.SumForProject(ctx, projectId)
	if err != nil {
		return 0, fmt.Errorf("failed to sum adjustments of project %d: %w", projectId, err)
	}
	return executed + adjusted, nil
}
