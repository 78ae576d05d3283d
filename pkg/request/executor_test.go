package request

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/treso/treso/pkg/execution"
	"github.com/treso/treso/pkg/project"
)

type projectWriterStub struct {
	created    []project.Project
	updated    []project.Project
	overridden map[int]int64
	err        error
}

func newProjectWriterStub() *projectWriterStub {
	return &projectWriterStub{overridden: make(map[int]int64)}
}

func (s *projectWriterStub) CreateApproved(ctx context.Context, p project.Project) (project.Project, error) {
	if s.err != nil {
		return project.Project{}, s.err
	}
	p.Id = len(s.created) + 1
	p.Status = project.StatusApproved
	s.created = append(s.created, p)
	return p, nil
}

func (s *projectWriterStub) UpdateApproved(ctx context.Context, p project.Project) (project.Project, error) {
	if s.err != nil {
		return project.Project{}, s.err
	}
	s.updated = append(s.updated, p)
	return p, nil
}

func (s *projectWriterStub) OverrideBudget(ctx context.Context, projectId int, amount int64) error {
	if s.err != nil {
		return s.err
	}
	s.overridden[projectId] = amount
	return nil
}

type executionWriterStub struct {
	created []execution.ExecutionRecord
	updated []execution.ExecutionRecord
	err     error
}

func (s *executionWriterStub) Create(ctx context.Context, record execution.ExecutionRecord) (execution.ExecutionRecord, error) {
	if s.err != nil {
		return execution.ExecutionRecord{}, s.err
	}
	record.Id = len(s.created) + 1
	s.created = append(s.created, record)
	return record, nil
}

func (s *executionWriterStub) Update(ctx context.Context, record execution.ExecutionRecord) (execution.ExecutionRecord, error) {
	if s.err != nil {
		return execution.ExecutionRecord{}, s.err
	}
	s.updated = append(s.updated, record)
	return record, nil
}

type transferApplierStub struct {
	applied []string
	err     error
}

func (s *transferApplierStub) Apply(ctx context.Context, transferUid string) error {
	if s.err != nil {
		return s.err
	}
	s.applied = append(s.applied, transferUid)
	return nil
}

type unknownPayload struct{}

func (unknownPayload) Kind() Kind      { return Kind("mystery") }
func (unknownPayload) Validate() error { return nil }

func TestExecutorImpl_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("project_create produces an approved project", func(t *testing.T) {
		projects := newProjectWriterStub()
		executor := NewExecutor(projects, &executionWriterStub{})

		result, err := executor.Execute(ctx, ProjectCreate{Name: "Relocation", Year: 2026, BudgetOccupied: 5000, OwnerId: 10, GroupId: 1})

		require.NoError(t, err)
		require.NotNil(t, result.Project)
		assert.Equal(t, project.StatusApproved, result.Project.Status)
		assert.Len(t, projects.created, 1)
	})

	t.Run("project_update merges fields into the target project", func(t *testing.T) {
		projects := newProjectWriterStub()
		executor := NewExecutor(projects, &executionWriterStub{})

		result, err := executor.Execute(ctx, ProjectUpdate{ProjectId: 3, Name: "Renamed"})

		require.NoError(t, err)
		require.NotNil(t, result.Project)
		require.Len(t, projects.updated, 1)
		assert.Equal(t, 3, projects.updated[0].Id)
	})

	t.Run("execution_create produces an execution record", func(t *testing.T) {
		executions := &executionWriterStub{}
		executor := NewExecutor(newProjectWriterStub(), executions)

		result, err := executor.Execute(ctx, ExecutionCreate{ProjectId: 3, Amount: 120, Date: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)})

		require.NoError(t, err)
		require.NotNil(t, result.Execution)
		assert.Len(t, executions.created, 1)
	})

	t.Run("execution_update merges fields into the target record", func(t *testing.T) {
		executions := &executionWriterStub{}
		executor := NewExecutor(newProjectWriterStub(), executions)

		_, err := executor.Execute(ctx, ExecutionUpdate{ExecutionId: 7, Amount: 99})

		require.NoError(t, err)
		require.Len(t, executions.updated, 1)
		assert.Equal(t, 7, executions.updated[0].Id)
	})

	t.Run("project_transfer delegates to the transfer workflow", func(t *testing.T) {
		transfers := &transferApplierStub{}
		executor := NewExecutor(newProjectWriterStub(), &executionWriterStub{})
		executor.SetTransfers(transfers)

		_, err := executor.Execute(ctx, ProjectTransfer{TransferUid: "transfer-1"})

		require.NoError(t, err)
		assert.Equal(t, []string{"transfer-1"}, transfers.applied)
	})

	t.Run("budget_adjustment overwrites the allocated ceiling", func(t *testing.T) {
		projects := newProjectWriterStub()
		executor := NewExecutor(projects, &executionWriterStub{})

		_, err := executor.Execute(ctx, BudgetAdjustment{ProjectId: 3, BudgetOccupied: 50})

		require.NoError(t, err)
		assert.Equal(t, int64(50), projects.overridden[3])
	})

	t.Run("invalid payloads are rejected before dispatch", func(t *testing.T) {
		projects := newProjectWriterStub()
		executor := NewExecutor(projects, &executionWriterStub{})

		_, err := executor.Execute(ctx, ProjectCreate{Year: 2026})

		require.Error(t, err)
		assert.Empty(t, projects.created)
	})

	t.Run("unknown payload type fails with ErrUnknownRequestKind", func(t *testing.T) {
		executor := NewExecutor(newProjectWriterStub(), &executionWriterStub{})

		_, err := executor.Execute(ctx, unknownPayload{})

		assert.ErrorIs(t, err, ErrUnknownRequestKind)
	})

	t.Run("nil payload fails with ErrUnknownRequestKind", func(t *testing.T) {
		executor := NewExecutor(newProjectWriterStub(), &executionWriterStub{})

		_, err := executor.Execute(ctx, nil)

		assert.ErrorIs(t, err, ErrUnknownRequestKind)
	})

	t.Run("domain failures propagate to the caller", func(t *testing.T) {
		boom := errors.New("db down")
		executor := NewExecutor(newProjectWriterStub(), &executionWriterStub{err: boom})

		_, err := executor.Execute(ctx, ExecutionCreate{ProjectId: 1, Amount: 10})

		assert.ErrorIs(t, err, boom)
	})
}

func TestDecodePayload(t *testing.T) {
	t.Run("restores the concrete payload type", func(t *testing.T) {
		raw, err := EncodePayload(ExecutionCreate{ProjectId: 3, Amount: 120, Justification: "venue"})
		require.NoError(t, err)

		payload, err := DecodePayload(KindExecutionCreate, raw)

		require.NoError(t, err)
		decoded, ok := payload.(ExecutionCreate)
		require.True(t, ok)
		assert.Equal(t, int64(120), decoded.Amount)
		assert.Equal(t, "venue", decoded.Justification)
	})

	t.Run("unknown kind fails with ErrUnknownRequestKind", func(t *testing.T) {
		_, err := DecodePayload(Kind("mystery"), []byte(`{}`))

		assert.ErrorIs(t, err, ErrUnknownRequestKind)
	})
}
