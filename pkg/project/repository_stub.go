package project

import (
	"context"
	"sync"
	"time"

	"github.com/treso/treso/pkg/ledger"
)

// RepositoryStub is an in-memory Repo implementation for tests.
type RepositoryStub struct {
	mu       sync.RWMutex
	nextId   int
	projects map[int]Project
}

func NewStubRepo() *RepositoryStub {
	return &RepositoryStub{projects: make(map[int]Project)}
}

func (s *RepositoryStub) Store(ctx context.Context, project Project) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId++
	project.Id = s.nextId
	s.projects[project.Id] = project
	return project.Id, nil
}

func (s *RepositoryStub) GetById(ctx context.Context, id int) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, exists := s.projects[id]
	if !exists {
		return Project{}, ErrProjectNotFound
	}
	return p, nil
}

func (s *RepositoryStub) GetByUid(ctx context.Context, uid string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.projects {
		if p.Uid == uid {
			return p, nil
		}
	}
	return Project{}, ErrProjectNotFound
}

func (s *RepositoryStub) GetAll(ctx context.Context) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	projects := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		projects = append(projects, p)
	}
	return projects, nil
}

func (s *RepositoryStub) Update(ctx context.Context, project Project) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.projects[project.Id]; !exists {
		return false, nil
	}
	s.projects[project.Id] = project
	return true, nil
}

func (s *RepositoryStub) UpdateStatus(ctx context.Context, id int, status Status, approvedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, exists := s.projects[id]
	if !exists {
		return false, nil
	}
	p.Status = status
	p.ApprovedAt = approvedAt
	s.projects[id] = p
	return true, nil
}

func (s *RepositoryStub) SetBudgetOccupied(ctx context.Context, id int, amount int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, exists := s.projects[id]
	if !exists {
		return false, nil
	}
	p.BudgetOccupied = amount
	s.projects[id] = p
	return true, nil
}

func (s *RepositoryStub) Reassign(ctx context.Context, id int, ownerId int, groupId int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, exists := s.projects[id]
	if !exists {
		return false, nil
	}
	p.OwnerId = ownerId
	p.GroupId = groupId
	s.projects[id] = p
	return true, nil
}

func (s *RepositoryStub) BudgetInfo(ctx context.Context, projectId int) (ledger.ProjectBudget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, exists := s.projects[projectId]
	if !exists {
		return ledger.ProjectBudget{}, ErrProjectNotFound
	}
	return ledger.ProjectBudget{Id: p.Id, Allocated: p.BudgetOccupied}, nil
}

func (s *RepositoryStub) SetBudgetExecuted(ctx context.Context, projectId int, executed int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, exists := s.projects[projectId]
	if !exists {
		return ErrProjectNotFound
	}
	p.BudgetExecuted = executed
	s.projects[projectId] = p
	return nil
}

func (s *RepositoryStub) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = make(map[int]Project)
	s.nextId = 0
}
