package execution

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/treso/treso/internal/event_bus"
	"github.com/treso/treso/internal/utils"
	"github.com/treso/treso/pkg/adjustment"
	"github.com/treso/treso/pkg/directory"
	"github.com/treso/treso/pkg/ledger"
	"github.com/treso/treso/pkg/project"
)

var ctx = directory.WithActor(context.Background(), directory.User{
	Id:          10,
	Uid:         "user-10",
	DisplayName: "Test User",
	Active:      true,
})

var repoStub = NewStubRepo()
var projectStub = project.NewStubRepo()
var adjustmentStub = adjustment.NewStubRepo()
var bus = event_bus.NewEventBus()

var service Service

var clock = &utils.MockClock{FixedNow: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}

func setup(t *testing.T) func() {
	ledgerService := ledger.NewService(projectStub, projectStub, repoStub, adjustmentStub)
	service = NewService(repoStub, projectStub, ledgerService, clock, bus)
	return func() {
		repoStub.Cleanup()
		projectStub.Cleanup()
		adjustmentStub.Cleanup()
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
	t.Run("records spends up to the allocation and rejects beyond it", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		projectId := storeProject(t, 100)

		// 60 fits
		first, err := service.Create(ctx, ExecutionRecord{ProjectId: projectId, Amount: 60, Justification: "venue"})
		require.NoError(t, err)
		assert.NotZero(t, first.Id)
		assert.Equal(t, 10, first.CreatedBy)

		// 41 exceeds the remaining 40
		_, err = service.Create(ctx, ExecutionRecord{ProjectId: projectId, Amount: 41})
		require.Error(t, err)
		assert.ErrorIs(t, err, ledger.ErrBudgetExceeded)

		// exactly the remaining 40 passes
		second, err := service.Create(ctx, ExecutionRecord{ProjectId: projectId, Amount: 40})
		require.NoError(t, err)

		// amending the first record from 60 to 59 succeeds, it is excluded from the sum
		_, err = service.Update(ctx, ExecutionRecord{Id: first.Id, Amount: 59})
		require.NoError(t, err)

		// deleting the 40 record frees its amount again
		require.NoError(t, service.Delete(ctx, second.Uid))
		sum, err := repoStub.SumForProject(ctx, projectId, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(59), sum)

		// stored executed amount follows the record set
		stored, err := projectStub.GetById(ctx, projectId)
		require.NoError(t, err)
		assert.Equal(t, int64(59), stored.BudgetExecuted)
	})

	t.Run("rejects a non-positive amount", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		projectId := storeProject(t, 100)

		_, err := service.Create(ctx, ExecutionRecord{ProjectId: projectId, Amount: 0})
		assert.Error(t, err)
	})

	t.Run("fails for an unknown project", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.Create(ctx, ExecutionRecord{ProjectId: 42, Amount: 10})
		assert.Error(t, err)
	})

	t.Run("fails without an actor in context", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		projectId := storeProject(t, 100)

		_, err := service.Create(context.Background(), ExecutionRecord{ProjectId: projectId, Amount: 10})
		assert.ErrorIs(t, err, directory.ErrNoActor)
	})

	t.Run("concurrent spends that jointly exceed the budget produce exactly one success", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		projectId := storeProject(t, 100)

		var wg sync.WaitGroup
		results := make(chan error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := service.Create(ctx, ExecutionRecord{ProjectId: projectId, Amount: 60})
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		var successes, failures int
		for err := range results {
			if err == nil {
				successes++
			} else {
				assert.ErrorIs(t, err, ledger.ErrBudgetExceeded)
				failures++
			}
		}
		assert.Equal(t, 1, successes)
		assert.Equal(t, 1, failures)

		sum, err := repoStub.SumForProject(ctx, projectId, 0)
		require.NoError(t, err)
		assert.LessOrEqual(t, sum, int64(100))
	})
}

func TestServiceImpl_Update(t *testing.T) {
	t.Run("re-validates an increased amount against the sibling set", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		projectId := storeProject(t, 100)

		first, err := service.Create(ctx, ExecutionRecord{ProjectId: projectId, Amount: 60})
		require.NoError(t, err)
		_, err = service.Create(ctx, ExecutionRecord{ProjectId: projectId, Amount: 30})
		require.NoError(t, err)

		// 71 + 30 > 100
		_, err = service.Update(ctx, ExecutionRecord{Id: first.Id, Amount: 71})
		assert.ErrorIs(t, err, ledger.ErrBudgetExceeded)

		// 70 + 30 = 100 passes
		updated, err := service.Update(ctx, ExecutionRecord{Id: first.Id, Amount: 70})
		require.NoError(t, err)
		assert.Equal(t, int64(70), updated.Amount)
	})

	t.Run("fails for an unknown record", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.Update(ctx, ExecutionRecord{Id: 42, Amount: 10})
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})
}

func TestServiceImpl_Delete(t *testing.T) {
	t.Run("fails for an unknown record", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		err := service.Delete(ctx, "no-such-uid")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})
}
