package project

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/treso/treso/internal/utils"
	"github.com/treso/treso/pkg/ledger"
)

type Service interface {
	Create(ctx context.Context, project Project) (Project, error)
	CreateApproved(ctx context.Context, project Project) (Project, error)
	Get(ctx context.Context, id int) (Project, error)
	GetByUid(ctx context.Context, uid string) (Project, error)
	List(ctx context.Context) ([]Project, error)
	UpdateApproved(ctx context.Context, project Project) (Project, error)
	Reassign(ctx context.Context, projectId int, ownerId int, groupId int) error
	// OverrideBudget replaces the allocated ceiling with the given amount.
	// Runs inside the ledger's per-project section so a concurrent spend cannot
	// validate against the old ceiling while it is being shrunk.
	OverrideBudget(ctx context.Context, projectId int, amount int64) error
}

type ServiceImpl struct {
	repo   Repo
	ledger ledger.Service
	clock  utils.Clock
}

func NewService(repo Repo, ledgerService ledger.Service, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, ledger: ledgerService, clock: clock}
}

func (s *ServiceImpl) Create(ctx context.Context, project Project) (Project, error) {
	if err := validate(project); err != nil {
		return Project{}, err
	}
	project.Uid = uuid.NewString()
	project.Status = StatusDraft
	project.CreatedAt = s.clock.Now()
	project.BudgetExecuted = 0

	id, err := s.repo.Store(ctx, project)
	if err != nil {
		return Project{}, err
	}
	project.Id = id
	return project, nil
}

func (s *ServiceImpl) CreateApproved(ctx context.Context, project Project) (Project, error) {
	if err := validate(project); err != nil {
		return Project{}, err
	}
	project.Uid = uuid.NewString()
	project.Status = StatusApproved
	project.CreatedAt = s.clock.Now()
	project.ApprovedAt = s.clock.Now()
	project.BudgetExecuted = 0

	id, err := s.repo.Store(ctx, project)
	if err != nil {
		return Project{}, err
	}
	project.Id = id
	return project, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Project, error) {
	return s.repo.GetById(ctx, id)
}

func (s *ServiceImpl) GetByUid(ctx context.Context, uid string) (Project, error) {
	return s.repo.GetByUid(ctx, uid)
}

func (s *ServiceImpl) List(ctx context.Context) ([]Project, error) {
	return s.repo.GetAll(ctx)
}

// UpdateApproved merges the non-zero fields of the given project into the
// stored one and stamps it approved. Budget changes are applied inside the
// ledger's per-project section.
func (s *ServiceImpl) UpdateApproved(ctx context.Context, project Project) (Project, error) {
	existing, err := s.repo.GetById(ctx, project.Id)
	if err != nil {
		return Project{}, err
	}
	if project.Name != "" {
		existing.Name = project.Name
	}
	if project.Year != 0 {
		existing.Year = project.Year
	}
	budgetChanged := project.BudgetOccupied != 0 && project.BudgetOccupied != existing.BudgetOccupied
	if budgetChanged {
		existing.BudgetOccupied = project.BudgetOccupied
	}
	existing.Status = StatusApproved
	existing.ApprovedAt = s.clock.Now()

	apply := func() error {
		updated, err := s.repo.Update(ctx, existing)
		if err != nil {
			return err
		}
		if !updated {
			log.Warnf("project %d not updated, probably because it does not exist", existing.Id)
			return ErrProjectNotFound
		}
		return nil
	}
	if budgetChanged {
		err = s.ledger.Guard(existing.Id, apply)
	} else {
		err = apply()
	}
	if err != nil {
		return Project{}, err
	}
	return existing, nil
}

func (s *ServiceImpl) Reassign(ctx context.Context, projectId int, ownerId int, groupId int) error {
	moved, err := s.repo.Reassign(ctx, projectId, ownerId, groupId)
	if err != nil {
		return err
	}
	if !moved {
		return fmt.Errorf("failed to reassign: %w", ErrProjectNotFound)
	}
	return nil
}

func (s *ServiceImpl) OverrideBudget(ctx context.Context, projectId int, amount int64) error {
	return s.ledger.Guard(projectId, func() error {
		ok, err := s.repo.SetBudgetOccupied(ctx, projectId, amount)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("failed to override budget: %w", ErrProjectNotFound)
		}
		return nil
	})
}

func validate(project Project) error {
	if project.Name == "" {
		return fmt.Errorf("project name is required")
	}
	if project.GroupId == 0 {
		return fmt.Errorf("project group is required")
	}
	if project.OwnerId == 0 {
		return fmt.Errorf("project owner is required")
	}
	return nil
}
