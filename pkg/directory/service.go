package directory

import (
	"context"
	"fmt"
)

// Service resolves users and groups. Results are authoritative and never cached
// across calls, so a changed PM assignment is visible on the next lookup.
type Service interface {
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	GetGroup(ctx context.Context, id int) (Group, error)
	GetGroupByUid(ctx context.Context, uid string) (Group, error)
	// GroupApprover returns the designated approver (PM) of the given group.
	GroupApprover(ctx context.Context, groupId int) (User, error)
}

type ServiceImpl struct {
	repo Repo
}

func NewService(repo Repo) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) GetUser(ctx context.Context, id int) (User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *ServiceImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return s.repo.GetUserByUid(ctx, uid)
}

func (s *ServiceImpl) GetGroup(ctx context.Context, id int) (Group, error) {
	return s.repo.GetGroup(ctx, id)
}

func (s *ServiceImpl) GetGroupByUid(ctx context.Context, uid string) (Group, error) {
	return s.repo.GetGroupByUid(ctx, uid)
}

func (s *ServiceImpl) GroupApprover(ctx context.Context, groupId int) (User, error) {
	group, err := s.repo.GetGroup(ctx, groupId)
	if err != nil {
		return User{}, err
	}
	pm, err := s.repo.GetUser(ctx, group.PMUserId)
	if err != nil {
		return User{}, fmt.Errorf("failed to resolve PM of group %d: %w", groupId, err)
	}
	return pm, nil
}
