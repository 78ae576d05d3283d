package approval

import (
	"context"
	"sync"
	"time"
)

// RepositoryStub is an in-memory Repo implementation for tests. MarkReviewed
// and RevertToPending keep the real repository's compare-and-swap semantics.
type RepositoryStub struct {
	mu       sync.Mutex
	nextId   int
	requests map[int]ApprovalRequest
}

func NewStubRepo() *RepositoryStub {
	return &RepositoryStub{requests: make(map[int]ApprovalRequest)}
}

func (s *RepositoryStub) Store(ctx context.Context, request ApprovalRequest) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId++
	request.Id = s.nextId
	s.requests[request.Id] = request
	return request.Id, nil
}

func (s *RepositoryStub) GetById(ctx context.Context, id int) (ApprovalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, exists := s.requests[id]
	if !exists {
		return ApprovalRequest{}, ErrRequestNotFound
	}
	return req, nil
}

func (s *RepositoryStub) GetByUid(ctx context.Context, uid string) (ApprovalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.requests {
		if req.Uid == uid {
			return req, nil
		}
	}
	return ApprovalRequest{}, ErrRequestNotFound
}

func (s *RepositoryStub) ListForApprover(ctx context.Context, approverId int) ([]ApprovalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var requests []ApprovalRequest
	for _, req := range s.requests {
		if req.ApproverId == approverId {
			requests = append(requests, req)
		}
	}
	return requests, nil
}

func (s *RepositoryStub) MarkReviewed(ctx context.Context, id int, status Status, notes string, reviewedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, exists := s.requests[id]
	if !exists || req.Status != StatusPending {
		return false, nil
	}
	req.Status = status
	req.ReviewNotes = notes
	req.ReviewedAt = reviewedAt
	s.requests[id] = req
	return true, nil
}

func (s *RepositoryStub) RevertToPending(ctx context.Context, id int, notes string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, exists := s.requests[id]
	if !exists || req.Status != StatusApproved {
		return false, nil
	}
	req.Status = StatusPending
	req.ReviewNotes = notes
	req.ReviewedAt = time.Time{}
	s.requests[id] = req
	return true, nil
}

func (s *RepositoryStub) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = make(map[int]ApprovalRequest)
	s.nextId = 0
}
