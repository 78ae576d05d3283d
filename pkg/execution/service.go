package execution

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/treso/treso/internal/event_bus"
	"github.com/treso/treso/internal/utils"
	"github.com/treso/treso/pkg/directory"
	"github.com/treso/treso/pkg/ledger"
)

type Service interface {
	Create(ctx context.Context, record ExecutionRecord) (ExecutionRecord, error)
	Get(ctx context.Context, id int) (ExecutionRecord, error)
	GetByUid(ctx context.Context, uid string) (ExecutionRecord, error)
	ListForProject(ctx context.Context, projectId int) ([]ExecutionRecord, error)
	Update(ctx context.Context, record ExecutionRecord) (ExecutionRecord, error)
	Delete(ctx context.Context, uid string) error
}

type ServiceImpl struct {
	repo     Repo
	projects ledger.ProjectReader
	ledger   ledger.Service
	clock    utils.Clock
	bus      *event_bus.EventBus
}

func NewService(repo Repo, projects ledger.ProjectReader, ledgerService ledger.Service, clock utils.Clock, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{
		repo:     repo,
		projects: projects,
		ledger:   ledgerService,
		clock:    clock,
		bus:      bus,
	}
}

// Create validates the spend against the project's remaining budget and stores
// the record. Validation and insert run inside the project's exclusive section,
// so two concurrent creations cannot jointly overspend.
func (s *ServiceImpl) Create(ctx context.Context, record ExecutionRecord) (ExecutionRecord, error) {
	creatorId, err := directory.CurrentActorId(ctx)
	if err != nil {
		return ExecutionRecord{}, fmt.Errorf("failed to get current actor: %w", err)
	}
	if record.Amount <= 0 {
		return ExecutionRecord{}, fmt.Errorf("execution amount must be positive")
	}
	if _, err := s.projects.BudgetInfo(ctx, record.ProjectId); err != nil {
		return ExecutionRecord{}, err
	}

	record.Uid = uuid.NewString()
	record.CreatedBy = creatorId
	record.CreatedAt = s.clock.Now()
	if record.Date.IsZero() {
		record.Date = s.clock.Now()
	}

	err = s.ledger.Guard(record.ProjectId, func() error {
		if err := s.ledger.ValidateSpend(ctx, record.ProjectId, record.Amount, 0); err != nil {
			return err
		}
		id, err := s.repo.Store(ctx, record)
		if err != nil {
			return err
		}
		record.Id = id
		return s.ledger.RecalculateExecuted(ctx, record.ProjectId)
	})
	if err != nil {
		return ExecutionRecord{}, err
	}

	if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.TypeExecutionRecorded, event_bus.ExecutionRecorded{
		ExecutionId: record.Id,
		ProjectId:   record.ProjectId,
		Amount:      record.Amount,
		CreatedBy:   record.CreatedBy,
	})); err != nil {
		log.Warnf("failed to publish execution recorded event: %v", err)
	}

	return record, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (ExecutionRecord, error) {
	return s.repo.GetById(ctx, id)
}

func (s *ServiceImpl) GetByUid(ctx context.Context, uid string) (ExecutionRecord, error) {
	return s.repo.GetByUid(ctx, uid)
}

func (s *ServiceImpl) ListForProject(ctx context.Context, projectId int) ([]ExecutionRecord, error) {
	return s.repo.ListForProject(ctx, projectId)
}

// Update merges the amendable fields into the stored record. An amount change
// is re-validated against the remaining budget computed without the record
// being amended.
func (s *ServiceImpl) Update(ctx context.Context, record ExecutionRecord) (ExecutionRecord, error) {
	existing, err := s.lookup(ctx, record)
	if err != nil {
		return ExecutionRecord{}, err
	}

	if record.Amount != 0 {
		if record.Amount < 0 {
			return ExecutionRecord{}, fmt.Errorf("execution amount must be positive")
		}
		existing.Amount = record.Amount
	}
	if !record.Date.IsZero() {
		existing.Date = record.Date
	}
	if record.Justification != "" {
		existing.Justification = record.Justification
	}
	if record.VoucherRef != "" {
		existing.VoucherRef = record.VoucherRef
	}

	err = s.ledger.Guard(existing.ProjectId, func() error {
		if err := s.ledger.ValidateSpend(ctx, existing.ProjectId, existing.Amount, existing.Id); err != nil {
			return err
		}
		updated, err := s.repo.Update(ctx, existing)
		if err != nil {
			return err
		}
		if !updated {
			return ErrRecordNotFound
		}
		return s.ledger.RecalculateExecuted(ctx, existing.ProjectId)
	})
	if err != nil {
		return ExecutionRecord{}, err
	}

	if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.TypeExecutionAmended, event_bus.ExecutionAmended{
		ExecutionId: existing.Id,
		ProjectId:   existing.ProjectId,
		Amount:      existing.Amount,
	})); err != nil {
		log.Warnf("failed to publish execution amended event: %v", err)
	}

	return existing, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, uid string) error {
	existing, err := s.repo.GetByUid(ctx, uid)
	if err != nil {
		return err
	}

	err = s.ledger.Guard(existing.ProjectId, func() error {
		deleted, err := s.repo.Delete(ctx, existing.Id)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrRecordNotFound
		}
		return s.ledger.RecalculateExecuted(ctx, existing.ProjectId)
	})
	if err != nil {
		return err
	}

	if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.TypeExecutionDeleted, event_bus.ExecutionDeleted{
		ExecutionId: existing.Id,
		ProjectId:   existing.ProjectId,
	})); err != nil {
		log.Warnf("failed to publish execution deleted event: %v", err)
	}
	return nil
}

func (s *ServiceImpl) lookup(ctx context.Context, record ExecutionRecord) (ExecutionRecord, error) {
	if record.Uid != "" {
		return s.repo.GetByUid(ctx, record.Uid)
	}
	return s.repo.GetById(ctx, record.Id)
}
