package adjustment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/treso/treso/internal/event_bus"
	"github.com/treso/treso/internal/utils"
	"github.com/treso/treso/pkg/directory"
	"github.com/treso/treso/pkg/ledger"
	"github.com/treso/treso/pkg/project"
)

type zeroExecutionSummer struct{}

func (zeroExecutionSummer) SumForProject(ctx context.Context, projectId int, excludeId int) (int64, error) {
	return 0, nil
}

var ctx = directory.WithActor(context.Background(), directory.User{
	Id:          10,
	Uid:         "user-10",
	DisplayName: "Test User",
	Active:      true,
})

var repoStub = NewStubRepo()
var projectStub = project.NewStubRepo()
var clock = &utils.MockClock{FixedNow: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}

var service Service

func setup(t *testing.T) func() {
	ledgerService := ledger.NewService(projectStub, projectStub, zeroExecutionSummer{}, repoStub)
	service = NewService(repoStub, projectStub, ledgerService, clock, event_bus.NewEventBus())
	return func() {
		repoStub.Cleanup()
		projectStub.Cleanup()
	}
}

func storeProject(t *testing.T, allocated int64) int {
	t.Helper()
	id, err := projectStub.Store(ctx, project.Project{
		Uid:            "project-1",
		Name:           "Relocation",
		Year:           2026,
		BudgetOccupied: allocated,
		OwnerId:        10,
		GroupId:        1,
		Status:         project.StatusApproved,
	})
	require.NoError(t, err)
	return id
}

func TestServiceImpl_Create(t *testing.T) {
	t.Run("carves an adjustment out of the remaining budget", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		projectId := storeProject(t, 100)

		created, err := service.Create(ctx, BudgetAdjustment{
			ProjectId:      projectId,
			Amount:         70,
			TargetCategory: "IT",
			TargetProject:  "Laptops",
			TargetOwner:    "J. Doe",
		})

		require.NoError(t, err)
		assert.NotZero(t, created.Id)
		assert.Equal(t, 10, created.CreatedBy)

		// only 30 remains for further adjustments
		_, err = service.Create(ctx, BudgetAdjustment{ProjectId: projectId, Amount: 31, TargetCategory: "IT"})
		assert.ErrorIs(t, err, ledger.ErrBudgetExceeded)
		_, err = service.Create(ctx, BudgetAdjustment{ProjectId: projectId, Amount: 30, TargetCategory: "IT"})
		assert.NoError(t, err)
	})

	t.Run("rejects a non-positive amount", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		projectId := storeProject(t, 100)

		_, err := service.Create(ctx, BudgetAdjustment{ProjectId: projectId, Amount: 0})
		assert.Error(t, err)
	})

	t.Run("fails for an unknown project", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.Create(ctx, BudgetAdjustment{ProjectId: 42, Amount: 10})
		assert.Error(t, err)
	})

	t.Run("fails without an actor in context", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		projectId := storeProject(t, 100)

		_, err := service.Create(context.Background(), BudgetAdjustment{ProjectId: projectId, Amount: 10})
		assert.ErrorIs(t, err, directory.ErrNoActor)
	})
}
