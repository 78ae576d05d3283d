package project

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/treso/treso/internal/utils"
	"github.com/treso/treso/pkg/ledger"
)

type zeroSummer struct{}

func (zeroSummer) SumForProject(ctx context.Context, projectId int, excludeId int) (int64, error) {
	return 0, nil
}

type zeroAdjustmentSummer struct{}

func (zeroAdjustmentSummer) SumForProject(ctx context.Context, projectId int) (int64, error) {
	return 0, nil
}

var ctx = context.Background()
var repoStub = NewStubRepo()
var clock = &utils.MockClock{FixedNow: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}

var service Service

func setup(t *testing.T) func() {
	ledgerService := ledger.NewService(repoStub, repoStub, zeroSummer{}, zeroAdjustmentSummer{})
	service = NewService(repoStub, ledgerService, clock)
	return func() {
		repoStub.Cleanup()
	}
}

func TestServiceImpl_Create(t *testing.T) {
	t.Run("creates a draft project", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		created, err := service.Create(ctx, Project{Name: "Relocation", Year: 2026, BudgetOccupied: 5000, OwnerId: 10, GroupId: 1})

		require.NoError(t, err)
		assert.NotZero(t, created.Id)
		assert.NotEmpty(t, created.Uid)
		assert.Equal(t, StatusDraft, created.Status)
		assert.Equal(t, clock.FixedNow, created.CreatedAt)
		assert.Zero(t, created.BudgetExecuted)
	})

	t.Run("requires name, owner, and group", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.Create(ctx, Project{Year: 2026, OwnerId: 10, GroupId: 1})
		assert.Error(t, err)
		_, err = service.Create(ctx, Project{Name: "Relocation", GroupId: 1})
		assert.Error(t, err)
		_, err = service.Create(ctx, Project{Name: "Relocation", OwnerId: 10})
		assert.Error(t, err)
	})
}

func TestServiceImpl_CreateApproved(t *testing.T) {
	t.Run("creates a project already stamped approved", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		created, err := service.CreateApproved(ctx, Project{Name: "Relocation", Year: 2026, BudgetOccupied: 5000, OwnerId: 10, GroupId: 1})

		require.NoError(t, err)
		assert.Equal(t, StatusApproved, created.Status)
		assert.Equal(t, clock.FixedNow, created.ApprovedAt)
	})
}

func TestServiceImpl_UpdateApproved(t *testing.T) {
	t.Run("merges non-zero fields and stamps the approval", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		created, err := service.Create(ctx, Project{Name: "Relocation", Year: 2026, BudgetOccupied: 5000, OwnerId: 10, GroupId: 1})
		require.NoError(t, err)

		updated, err := service.UpdateApproved(ctx, Project{Id: created.Id, Name: "Relocation 2026", BudgetOccupied: 7000})

		require.NoError(t, err)
		assert.Equal(t, "Relocation 2026", updated.Name)
		assert.Equal(t, int64(7000), updated.BudgetOccupied)
		assert.Equal(t, 2026, updated.Year)
		assert.Equal(t, StatusApproved, updated.Status)
	})

	t.Run("fails for an unknown project", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.UpdateApproved(ctx, Project{Id: 42, Name: "Ghost"})
		assert.ErrorIs(t, err, ErrProjectNotFound)
	})
}

func TestServiceImpl_Reassign(t *testing.T) {
	t.Run("moves the project to the new owner and group", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		created, err := service.Create(ctx, Project{Name: "Relocation", Year: 2026, OwnerId: 10, GroupId: 1})
		require.NoError(t, err)

		require.NoError(t, service.Reassign(ctx, created.Id, 20, 2))

		stored, err := service.Get(ctx, created.Id)
		require.NoError(t, err)
		assert.Equal(t, 20, stored.OwnerId)
		assert.Equal(t, 2, stored.GroupId)
	})

	t.Run("fails for an unknown project", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		assert.ErrorIs(t, service.Reassign(ctx, 42, 20, 2), ErrProjectNotFound)
	})
}

func TestServiceImpl_OverrideBudget(t *testing.T) {
	t.Run("replaces the allocated ceiling with the given amount", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		created, err := service.Create(ctx, Project{Name: "Relocation", Year: 2026, BudgetOccupied: 100, OwnerId: 10, GroupId: 1})
		require.NoError(t, err)

		require.NoError(t, service.OverrideBudget(ctx, created.Id, 50))

		stored, err := service.Get(ctx, created.Id)
		require.NoError(t, err)
		assert.Equal(t, int64(50), stored.BudgetOccupied)
	})

	t.Run("fails for an unknown project", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		assert.ErrorIs(t, service.OverrideBudget(ctx, 42, 50), ErrProjectNotFound)
	})
}
