package adjustment

import (
	"context"
	"sync"
)

// RepositoryStub is an in-memory Repo implementation for tests. It also
// satisfies ledger.AdjustmentSummer, like the real repository.
type RepositoryStub struct {
	mu          sync.RWMutex
	nextId      int
	adjustments map[int]BudgetAdjustment
}

func NewStubRepo() *RepositoryStub {
	return &RepositoryStub{adjustments: make(map[int]BudgetAdjustment)}
}

func (s *RepositoryStub) Store(ctx context.Context, adjustment BudgetAdjustment) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId++
	adjustment.Id = s.nextId
	s.adjustments[adjustment.Id] = adjustment
	return adjustment.Id, nil
}

func (s *RepositoryStub) GetByUid(ctx context.Context, uid string) (BudgetAdjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.adjustments {
		if a.Uid == uid {
			return a, nil
		}
	}
	return BudgetAdjustment{}, ErrAdjustmentNotFound
}

func (s *RepositoryStub) ListForProject(ctx context.Context, projectId int) ([]BudgetAdjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var adjustments []BudgetAdjustment
	for _, a := range s.adjustments {
		if a.ProjectId == projectId {
			adjustments = append(adjustments, a)
		}
	}
	return adjustments, nil
}

func (s *RepositoryStub) SumForProject(ctx context.Context, projectId int) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum int64
	for _, a := range s.adjustments {
		if a.ProjectId == projectId {
			sum += a.Amount
		}
	}
	return sum, nil
}

func (s *RepositoryStub) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adjustments = make(map[int]BudgetAdjustment)
	s.nextId = 0
}
