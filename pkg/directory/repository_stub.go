package directory

import (
	"context"
	"sync"
)

// RepositoryStub is an in-memory Repo implementation for tests.
type RepositoryStub struct {
	mu     sync.RWMutex
	users  map[int]User
	groups map[int]Group
}

func NewStubRepo() *RepositoryStub {
	return &RepositoryStub{
		users:  make(map[int]User),
		groups: make(map[int]Group),
	}
}

func (s *RepositoryStub) GetUser(ctx context.Context, id int) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, exists := s.users[id]
	if !exists {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *RepositoryStub) GetUserByUid(ctx context.Context, uid string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Uid == uid {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *RepositoryStub) GetGroup(ctx context.Context, id int) (Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, exists := s.groups[id]
	if !exists {
		return Group{}, ErrGroupNotFound
	}
	return g, nil
}

func (s *RepositoryStub) GetGroupByUid(ctx context.Context, uid string) (Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.Uid == uid {
			return g, nil
		}
	}
	return Group{}, ErrGroupNotFound
}

// Helper methods for test setup

func (s *RepositoryStub) SetUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Id] = u
}

func (s *RepositoryStub) SetGroup(g Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.Id] = g
}

func (s *RepositoryStub) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[int]User)
	s.groups = make(map[int]Group)
}
