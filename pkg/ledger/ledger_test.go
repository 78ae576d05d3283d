package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProjects struct {
	mu        sync.Mutex
	allocated map[int]int64
	executed  map[int]int64
}

func newFakeProjects() *fakeProjects {
	return &fakeProjects{allocated: make(map[int]int64), executed: make(map[int]int64)}
}

func (f *fakeProjects) BudgetInfo(ctx context.Context, projectId int) (ProjectBudget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	allocated, exists := f.allocated[projectId]
	if !exists {
		return ProjectBudget{}, errors.New("project not found")
	}
	return ProjectBudget{Id: projectId, Allocated: allocated}, nil
}

func (f *fakeProjects) SetBudgetExecuted(ctx context.Context, projectId int, executed int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed[projectId] = executed
	return nil
}

type fakeSpends struct {
	mu      sync.Mutex
	nextId  int
	amounts map[int]int64
	project map[int]int
}

func newFakeSpends() *fakeSpends {
	return &fakeSpends{amounts: make(map[int]int64), project: make(map[int]int)}
}

func (f *fakeSpends) add(projectId int, amount int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextId++
	f.amounts[f.nextId] = amount
	f.project[f.nextId] = projectId
	return f.nextId
}

func (f *fakeSpends) remove(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.amounts, id)
	delete(f.project, id)
}

func (f *fakeSpends) SumForProject(ctx context.Context, projectId int, excludeId int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for id, amount := range f.amounts {
		if f.project[id] == projectId && id != excludeId {
			sum += amount
		}
	}
	return sum, nil
}

type fakeAdjustments struct {
	mu      sync.Mutex
	amounts map[int]int64
}

func newFakeAdjustments() *fakeAdjustments {
	return &fakeAdjustments{amounts: make(map[int]int64)}
}

func (f *fakeAdjustments) SumForProject(ctx context.Context, projectId int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.amounts[projectId], nil
}

func TestServiceImpl_ValidateSpend(t *testing.T) {
	ctx := context.Background()

	t.Run("allows spends up to the allocated ceiling and rejects beyond it", func(t *testing.T) {
		projects := newFakeProjects()
		projects.allocated[1] = 100
		spends := newFakeSpends()
		service := NewService(projects, projects, spends, newFakeAdjustments())

		// 60 fits into 100
		require.NoError(t, service.ValidateSpend(ctx, 1, 60, 0))
		first := spends.add(1, 60)

		// 41 does not fit into the remaining 40
		err := service.ValidateSpend(ctx, 1, 41, 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBudgetExceeded)
		var exceeded *BudgetExceededError
		require.ErrorAs(t, err, &exceeded)
		assert.Equal(t, int64(41), exceeded.Requested)
		assert.Equal(t, int64(40), exceeded.Remaining)

		// exactly the remaining 40 passes
		require.NoError(t, service.ValidateSpend(ctx, 1, 40, 0))
		spends.add(1, 40)

		// amending the first record from 60 to 59 excludes it from the sum
		require.NoError(t, service.ValidateSpend(ctx, 1, 59, first))

		// deleting the first record frees its amount
		spends.remove(first)
		remaining, err := service.Remaining(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(60), remaining)
	})

	t.Run("counts adjustments against the remaining budget", func(t *testing.T) {
		projects := newFakeProjects()
		projects.allocated[1] = 100
		adjustments := newFakeAdjustments()
		adjustments.amounts[1] = 70
		service := NewService(projects, projects, newFakeSpends(), adjustments)

		require.NoError(t, service.ValidateSpend(ctx, 1, 30, 0))
		assert.ErrorIs(t, service.ValidateSpend(ctx, 1, 31, 0), ErrBudgetExceeded)
	})

	t.Run("rejects any spend against a zero allocation", func(t *testing.T) {
		projects := newFakeProjects()
		projects.allocated[1] = 0
		service := NewService(projects, projects, newFakeSpends(), newFakeAdjustments())

		assert.ErrorIs(t, service.ValidateSpend(ctx, 1, 1, 0), ErrBudgetExceeded)
	})

	t.Run("fails for an unknown project", func(t *testing.T) {
		service := NewService(newFakeProjects(), newFakeProjects(), newFakeSpends(), newFakeAdjustments())

		assert.Error(t, service.ValidateSpend(ctx, 42, 10, 0))
	})
}

func TestServiceImpl_Guard(t *testing.T) {
	ctx := context.Background()

	t.Run("concurrent spends that jointly exceed the budget produce exactly one success", func(t *testing.T) {
		projects := newFakeProjects()
		projects.allocated[1] = 100
		spends := newFakeSpends()
		service := NewService(projects, projects, spends, newFakeAdjustments())

		// both fit individually (60 and 60), together they do not
		spend := func(amount int64) error {
			return service.Guard(1, func() error {
				if err := service.ValidateSpend(ctx, 1, amount, 0); err != nil {
					return err
				}
				spends.add(1, amount)
				return nil
			})
		}

		var wg sync.WaitGroup
		results := make(chan error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- spend(60)
			}()
		}
		wg.Wait()
		close(results)

		var successes, failures int
		for err := range results {
			if err == nil {
				successes++
			} else {
				assert.ErrorIs(t, err, ErrBudgetExceeded)
				failures++
			}
		}
		assert.Equal(t, 1, successes)
		assert.Equal(t, 1, failures)

		sum, err := spends.SumForProject(ctx, 1, 0)
		require.NoError(t, err)
		assert.LessOrEqual(t, sum, int64(100))
	})

	t.Run("guards different projects independently", func(t *testing.T) {
		projects := newFakeProjects()
		projects.allocated[1] = 10
		projects.allocated[2] = 10
		service := NewService(projects, projects, newFakeSpends(), newFakeAdjustments())

		err := service.Guard(1, func() error {
			// a nested section on another project must not deadlock
			return service.Guard(2, func() error { return nil })
		})
		require.NoError(t, err)
	})
}

func TestServiceImpl_RecalculateExecuted(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrites executed with the authoritative record sum", func(t *testing.T) {
		projects := newFakeProjects()
		projects.allocated[1] = 100
		projects.executed[1] = 999
		spends := newFakeSpends()
		spends.add(1, 25)
		spends.add(1, 30)
		service := NewService(projects, projects, spends, newFakeAdjustments())

		require.NoError(t, service.RecalculateExecuted(ctx, 1))
		assert.Equal(t, int64(55), projects.executed[1])
	})
}

func TestBudgetExceededError_Is(t *testing.T) {
	err := &BudgetExceededError{ProjectId: 1, Requested: 50, Remaining: 10}
	assert.ErrorIs(t, err, ErrBudgetExceeded)
	assert.NotErrorIs(t, err, errors.New("other"))
}
