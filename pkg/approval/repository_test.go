package approval

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/treso/treso/internal/test_utils"
	"github.com/treso/treso/pkg/request"
)

var db *sql.DB

func TestMain(m *testing.M) {
	container, connect := test_utils.TestWithDB()
	db = connect()
	code := m.Run()
	_ = db.Close()
	_ = container.Terminate(context.Background())
	os.Exit(code)
}

func seedDirectory(t *testing.T, ctx context.Context) (requesterId int, approverId int, groupId int) {
	t.Helper()
	require.NoError(t, db.QueryRowContext(ctx,
		`INSERT INTO app_user (uid, display_name) VALUES ($1, 'Requester') RETURNING id`,
		uuid.NewString()).Scan(&requesterId))
	require.NoError(t, db.QueryRowContext(ctx,
		`INSERT INTO app_user (uid, display_name) VALUES ($1, 'Approver') RETURNING id`,
		uuid.NewString()).Scan(&approverId))
	require.NoError(t, db.QueryRowContext(ctx,
		`INSERT INTO app_group (uid, name, pm_user_id) VALUES ($1, 'Finance', $2) RETURNING id`,
		uuid.NewString(), approverId).Scan(&groupId))
	return requesterId, approverId, groupId
}

func storeRequest(t *testing.T, ctx context.Context, repo Repo) ApprovalRequest {
	t.Helper()
	requesterId, approverId, groupId := seedDirectory(t, ctx)
	raw, err := request.EncodePayload(request.ExecutionCreate{ProjectId: 1, Amount: 120})
	require.NoError(t, err)

	req := ApprovalRequest{
		Uid:         uuid.NewString(),
		Kind:        request.KindExecutionCreate,
		Payload:     raw,
		RequesterId: requesterId,
		ApproverId:  approverId,
		GroupId:     groupId,
		Status:      StatusPending,
		SubmittedAt: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	}
	id, err := repo.Store(ctx, req)
	require.NoError(t, err)
	req.Id = id
	return req
}

func TestRepoImpl_Store(t *testing.T) {
	// given
	ctx := context.Background()
	repo := NewRepo(db)

	// when
	req := storeRequest(t, ctx, repo)

	// then
	stored, err := repo.GetByUid(ctx, req.Uid)
	require.NoError(t, err)
	assert.Equal(t, req.Id, stored.Id)
	assert.Equal(t, request.KindExecutionCreate, stored.Kind)
	assert.Equal(t, StatusPending, stored.Status)
	assert.JSONEq(t, string(req.Payload), string(stored.Payload))
	assert.True(t, stored.ReviewedAt.IsZero())
}

func TestRepoImpl_GetByUid_NotFound(t *testing.T) {
	repo := NewRepo(db)

	_, err := repo.GetByUid(context.Background(), uuid.NewString())

	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestRepoImpl_MarkReviewed(t *testing.T) {
	// given
	ctx := context.Background()
	repo := NewRepo(db)
	req := storeRequest(t, ctx, repo)
	reviewedAt := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)

	// when
	reviewed, err := repo.MarkReviewed(ctx, req.Id, StatusApproved, "ok", reviewedAt)
	require.NoError(t, err)

	// then
	assert.True(t, reviewed)
	stored, err := repo.GetById(ctx, req.Id)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)
	assert.Equal(t, "ok", stored.ReviewNotes)
	assert.False(t, stored.ReviewedAt.IsZero())

	// a second decision finds no pending row to update
	reviewed, err = repo.MarkReviewed(ctx, req.Id, StatusRejected, "again", reviewedAt)
	require.NoError(t, err)
	assert.False(t, reviewed)
	stored, err = repo.GetById(ctx, req.Id)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)
}

func TestRepoImpl_RevertToPending(t *testing.T) {
	// given
	ctx := context.Background()
	repo := NewRepo(db)
	req := storeRequest(t, ctx, repo)
	_, err := repo.MarkReviewed(ctx, req.Id, StatusApproved, "ok", time.Now().UTC())
	require.NoError(t, err)

	// when
	reverted, err := repo.RevertToPending(ctx, req.Id, "ok; execution failed: db down")
	require.NoError(t, err)

	// then
	assert.True(t, reverted)
	stored, err := repo.GetById(ctx, req.Id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Contains(t, stored.ReviewNotes, "execution failed")
	assert.True(t, stored.ReviewedAt.IsZero())

	// only an approved request can be reverted
	reverted, err = repo.RevertToPending(ctx, req.Id, "twice")
	require.NoError(t, err)
	assert.False(t, reverted)
}

func TestRepoImpl_ListForApprover(t *testing.T) {
	// given
	ctx := context.Background()
	repo := NewRepo(db)
	req := storeRequest(t, ctx, repo)

	// when
	requests, err := repo.ListForApprover(ctx, req.ApproverId)

	// then
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, req.Uid, requests[0].Uid)
}
