package execution

import (
	"context"
	"sync"
)

// RepositoryStub is an in-memory Repo implementation for tests. It also
// satisfies ledger.ExecutionSummer, like the real repository.
type RepositoryStub struct {
	mu      sync.RWMutex
	nextId  int
	records map[int]ExecutionRecord
}

func NewStubRepo() *RepositoryStub {
	return &RepositoryStub{records: make(map[int]ExecutionRecord)}
}

func (s *RepositoryStub) Store(ctx context.Context, record ExecutionRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId++
	record.Id = s.nextId
	s.records[record.Id] = record
	return record.Id, nil
}

func (s *RepositoryStub) GetById(ctx context.Context, id int) (ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, exists := s.records[id]
	if !exists {
		return ExecutionRecord{}, ErrRecordNotFound
	}
	return rec, nil
}

func (s *RepositoryStub) GetByUid(ctx context.Context, uid string) (ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.Uid == uid {
			return rec, nil
		}
	}
	return ExecutionRecord{}, ErrRecordNotFound
}

func (s *RepositoryStub) ListForProject(ctx context.Context, projectId int) ([]ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []ExecutionRecord
	for _, rec := range s.records {
		if rec.ProjectId == projectId {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (s *RepositoryStub) Update(ctx context.Context, record ExecutionRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.Id]; !exists {
		return false, nil
	}
	s.records[record.Id] = record
	return true, nil
}

func (s *RepositoryStub) Delete(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[id]; !exists {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

func (s *RepositoryStub) SumForProject(ctx context.Context, projectId int, excludeId int) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum int64
	for _, rec := range s.records {
		if rec.ProjectId == projectId && rec.Id != excludeId {
			sum += rec.Amount
		}
	}
	return sum, nil
}

func (s *RepositoryStub) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[int]ExecutionRecord)
	s.nextId = 0
}
