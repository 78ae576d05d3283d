package transfer

import (
	"context"
	"sync"
	"time"
)

// RepositoryStub is an in-memory Repo implementation for tests. The Mark*
// methods keep the real repository's compare-and-swap semantics.
type RepositoryStub struct {
	mu        sync.Mutex
	nextId    int
	transfers map[int]ProjectTransfer
}

func NewStubRepo() *RepositoryStub {
	return &RepositoryStub{transfers: make(map[int]ProjectTransfer)}
}

func (s *RepositoryStub) Store(ctx context.Context, transfer ProjectTransfer) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId++
	transfer.Id = s.nextId
	s.transfers[transfer.Id] = transfer
	return transfer.Id, nil
}

func (s *RepositoryStub) GetById(ctx context.Context, id int) (ProjectTransfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, exists := s.transfers[id]
	if !exists {
		return ProjectTransfer{}, ErrTransferNotFound
	}
	return t, nil
}

func (s *RepositoryStub) GetByUid(ctx context.Context, uid string) (ProjectTransfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transfers {
		if t.Uid == uid {
			return t, nil
		}
	}
	return ProjectTransfer{}, ErrTransferNotFound
}

func (s *RepositoryStub) ListForProject(ctx context.Context, projectId int) ([]ProjectTransfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var transfers []ProjectTransfer
	for _, t := range s.transfers {
		if t.ProjectId == projectId {
			transfers = append(transfers, t)
		}
	}
	return transfers, nil
}

func (s *RepositoryStub) MarkApproved(ctx context.Context, id int, approverId int, approvedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, exists := s.transfers[id]
	if !exists || t.Status != StatusPending {
		return false, nil
	}
	t.Status = StatusApproved
	t.ApproverId = approverId
	t.ApprovedAt = approvedAt
	s.transfers[id] = t
	return true, nil
}

func (s *RepositoryStub) MarkCompleted(ctx context.Context, id int, completedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, exists := s.transfers[id]
	if !exists || t.Status != StatusApproved {
		return false, nil
	}
	t.Status = StatusCompleted
	t.CompletedAt = completedAt
	s.transfers[id] = t
	return true, nil
}

func (s *RepositoryStub) MarkRejected(ctx context.Context, id int, approverId int, notes string, rejectedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, exists := s.transfers[id]
	if !exists || t.Status != StatusPending {
		return false, nil
	}
	t.Status = StatusRejected
	t.ApproverId = approverId
	t.Notes = notes
	t.ApprovedAt = rejectedAt
	s.transfers[id] = t
	return true, nil
}

func (s *RepositoryStub) RevertToPending(ctx context.Context, id int, notes string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, exists := s.transfers[id]
	if !exists || t.Status != StatusApproved {
		return false, nil
	}
	t.Status = StatusPending
	t.ApproverId = 0
	t.ApprovedAt = time.Time{}
	t.Notes = notes
	s.transfers[id] = t
	return true, nil
}

func (s *RepositoryStub) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers = make(map[int]ProjectTransfer)
	s.nextId = 0
}
