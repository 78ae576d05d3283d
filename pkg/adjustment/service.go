package adjustment

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

// Service records budget adjustments. There is no approval gate on this path;
// the ledger check alone decides whether the carve-out fits.
type Service interface {
	Create(ctx context.Context, adjustment BudgetAdjustment) (BudgetAdjustment, error)
	GetByUid(ctx context.Context, uid string) (BudgetAdjustment, error)
	ListForProject(ctx context.Context, projectId int) ([]BudgetAdjustment, error)
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

func (s *ServiceImpl) Create(ctx context.Context, adjustment BudgetAdjustment) (BudgetAdjustment, error) {
	creatorId, err := directory.CurrentActorId(ctx)
	if err != nil {
		return BudgetAdjustment{}, fmt.Errorf("failed to get current actor: %w", err)
	}
	if adjustment.Amount <= 0 {
		return BudgetAdjustment{}, fmt.Errorf("adjustment amount must be positive")
	}
	if _, err := s.projects.BudgetInfo(ctx, adjustment.ProjectId); err != nil {
		return BudgetAdjustment{}, err
	}

	adjustment.Uid = uuid.NewString()
	adjustment.CreatedBy = creatorId
	adjustment.CreatedAt = s.clock.Now()

	err = s.ledger.Guard(adjustment.ProjectId, func() error {
		if err := s.ledger.ValidateSpend(ctx, adjustment.ProjectId, adjustment.Amount, 0); err != nil {
			return err
		}
		id, err := s.repo.Store(ctx, adjustment)
		if err != nil {
			return err
		}
		adjustment.Id = id
		return nil
	})
	if err != nil {
		return BudgetAdjustment{}, err
	}

	if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.TypeAdjustmentRecorded, event_bus.AdjustmentRecorded{
		AdjustmentId: adjustment.Id,
		ProjectId:    adjustment.ProjectId,
		Amount:       adjustment.Amount,
		CreatedBy:    adjustment.CreatedBy,
	})); err != nil {
		log.Warnf("failed to publish adjustment recorded event: %v", err)
	}

	return adjustment, nil
}

func (s *ServiceImpl) GetByUid(ctx context.Context, uid string) (BudgetAdjustment, error) {
	return s.repo.GetByUid(ctx, uid)
}

func (s *ServiceImpl) ListForProject(ctx context.Context, projectId int) ([]BudgetAdjustment, error) {
	return s.repo.ListForProject(ctx, projectId)
}
