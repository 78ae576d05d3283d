package transfer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrTransferNotFound = errors.New("project transfer not found")

type Repo interface {
	Store(ctx context.Context, transfer ProjectTransfer) (int, error)
	GetById(ctx context.Context, id int) (ProjectTransfer, error)
	GetByUid(ctx context.Context, uid string) (ProjectTransfer, error)
	ListForProject(ctx context.Context, projectId int) ([]ProjectTransfer, error)
	// MarkApproved moves a still-pending transfer to approved, stamping the
	// approver. Of two concurrent approvals exactly one wins.
	MarkApproved(ctx context.Context, id int, approverId int, approvedAt time.Time) (bool, error)
	// MarkCompleted settles an approved transfer after its effect ran.
	MarkCompleted(ctx context.Context, id int, completedAt time.Time) (bool, error)
	MarkRejected(ctx context.Context, id int, approverId int, notes string, rejectedAt time.Time) (bool, error)
	// RevertToPending undoes an approval whose effect failed, clearing the
	// approver and preserving the failure reason in the notes.
	RevertToPending(ctx context.Context, id int, notes string) (bool, error)
}

type RepoImpl struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *RepoImpl {
	return &RepoImpl{db: db}
}

const transferColumns = `id, uid, project_id, from_user_id, from_group_id, to_user_id, to_group_id,
       kind, amount, reason, requester_id, approver_id, approval_request_id, status, notes,
       created_at, approved_at, completed_at`

func (r RepoImpl) Store(ctx context.Context, transfer ProjectTransfer) (int, error) {
	query := `INSERT INTO project_transfer (
                    uid,
                    project_id,
                    from_user_id,
                    from_group_id,
                    to_user_id,
                    to_group_id,
                    kind,
                    amount,
                    reason,
                    requester_id,
                    approval_request_id,
                    status,
                    notes,
                    created_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
				RETURNING id`

	var id int
	err := r.db.QueryRowContext(ctx, query,
		transfer.Uid,
		transfer.ProjectId,
		transfer.FromUserId,
		transfer.FromGroupId,
		transfer.ToUserId,
		transfer.ToGroupId,
		transfer.Kind,
		transfer.Amount,
		transfer.Reason,
		transfer.RequesterId,
		transfer.ApprovalRequestId,
		transfer.Status,
		transfer.Notes,
		transfer.CreatedAt,
	).Scan(&id)
	if err != nil {
		err := fmt.Errorf("could not store project transfer: %w", err)
		log.Error(err)
		return 0, err
	}
	return id, nil
}

func (r RepoImpl) GetById(ctx context.Context, id int) (ProjectTransfer, error) {
	query := fmt.Sprintf(`SELECT %s FROM project_transfer WHERE id = $1`, transferColumns)
	return r.scanTransfer(r.db.QueryRowContext(ctx, query, id))
}

func (r RepoImpl) GetByUid(ctx context.Context, uid string) (ProjectTransfer, error) {
	query := fmt.Sprintf(`SELECT %s FROM project_transfer WHERE uid = $1`, transferColumns)
	return r.scanTransfer(r.db.QueryRowContext(ctx, query, uid))
}

func (r RepoImpl) scanTransfer(row *sql.Row) (ProjectTransfer, error) {
	var t ProjectTransfer
	var approverId sql.NullInt64
	var approvedAt, completedAt sql.NullTime
	if err := row.Scan(
		&t.Id,
		&t.Uid,
		&t.ProjectId,
		&t.FromUserId,
		&t.FromGroupId,
		&t.ToUserId,
		&t.ToGroupId,
		&t.Kind,
		&t.Amount,
		&t.Reason,
		&t.RequesterId,
		&approverId,
		&t.ApprovalRequestId,
		&t.Status,
		&t.Notes,
		&t.CreatedAt,
		&approvedAt,
		&completedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ProjectTransfer{}, ErrTransferNotFound
		}
		err := fmt.Errorf("could not scan project transfer: %w", err)
		log.Error(err)
		return ProjectTransfer{}, err
	}
	if approverId.Valid {
		t.ApproverId = int(approverId.Int64)
	}
	if approvedAt.Valid {
		t.ApprovedAt = approvedAt.Time
	}
	if completedAt.Valid {
		t.CompletedAt = completedAt.Time
	}
	return t, nil
}

func (r RepoImpl) ListForProject(ctx context.Context, projectId int) ([]ProjectTransfer, error) {
	query := fmt.Sprintf(`SELECT %s FROM project_transfer WHERE project_id = $1 ORDER BY created_at`, transferColumns)
	rows, err := r.db.QueryContext(ctx, query, projectId)
	if err != nil {
		err := fmt.Errorf("could not query project transfers: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var transfers []ProjectTransfer
	for rows.Next() {
		var t ProjectTransfer
		var approverId sql.NullInt64
		var approvedAt, completedAt sql.NullTime
		if err := rows.Scan(
			&t.Id,
			&t.Uid,
			&t.ProjectId,
			&t.FromUserId,
			&t.FromGroupId,
			&t.ToUserId,
			&t.ToGroupId,
			&t.Kind,
			&t.Amount,
			&t.Reason,
			&t.RequesterId,
			&approverId,
			&t.ApprovalRequestId,
			&t.Status,
			&t.Notes,
			&t.CreatedAt,
			&approvedAt,
			&completedAt,
		); err != nil {
			err := fmt.Errorf("could not scan project transfer: %w", err)
			log.Error(err)
			return nil, err
		}
		if approverId.Valid {
			t.ApproverId = int(approverId.Int64)
		}
		if approvedAt.Valid {
			t.ApprovedAt = approvedAt.Time
		}
		if completedAt.Valid {
			t.CompletedAt = completedAt.Time
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return transfers, nil
}

func (r RepoImpl) MarkApproved(ctx context.Context, id int, approverId int, approvedAt time.Time) (bool, error) {
	query := `UPDATE project_transfer SET status = 'approved', approver_id = $1, approved_at = $2
              WHERE id = $3 AND status = 'pending'`
	return r.execExpectOne(ctx, query, approverId, approvedAt, id)
}

func (r RepoImpl) MarkCompleted(ctx context.Context, id int, completedAt time.Time) (bool, error) {
	query := `UPDATE project_transfer SET status = 'completed', completed_at = $1
              WHERE id = $2 AND status = 'approved'`
	return r.execExpectOne(ctx, query, completedAt, id)
}

func (r RepoImpl) MarkRejected(ctx context.Context, id int, approverId int, notes string, rejectedAt time.Time) (bool, error) {
	query := `UPDATE project_transfer SET status = 'rejected', approver_id = $1, notes = $2, approved_at = $3
              WHERE id = $4 AND status = 'pending'`
	return r.execExpectOne(ctx, query, approverId, notes, rejectedAt, id)
}

func (r RepoImpl) RevertToPending(ctx context.Context, id int, notes string) (bool, error) {
	query := `UPDATE project_transfer SET status = 'pending', approver_id = NULL, approved_at = NULL, notes = $1
              WHERE id = $2 AND status = 'approved'`
	return r.execExpectOne(ctx, query, notes, id)
}

func (r RepoImpl) execExpectOne(ctx context.Context, query string, args ...any) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("could not get rows affected: %w", err)
		log.Error(err)
		return false, err
	}
	return rowsAffected == 1, nil
}
