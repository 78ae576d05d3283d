package approval

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrRequestNotFound = errors.New("approval request not found")

type Repo interface {
	Store(ctx context.Context, request ApprovalRequest) (int, error)
	GetById(ctx context.Context, id int) (ApprovalRequest, error)
	GetByUid(ctx context.Context, uid string) (ApprovalRequest, error)
	ListForApprover(ctx context.Context, approverId int) ([]ApprovalRequest, error)
	// MarkReviewed moves the request out of pending. The update only matches a
	// still-pending row, so of two concurrent reviews exactly one wins.
	MarkReviewed(ctx context.Context, id int, status Status, notes string, reviewedAt time.Time) (bool, error)
	// RevertToPending undoes an approval whose execution failed, preserving the
	// failure reason in the review notes.
	RevertToPending(ctx context.Context, id int, notes string) (bool, error)
}

type RepoImpl struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *RepoImpl {
	return &RepoImpl{db: db}
}

const requestColumns = `id, uid, kind, payload, requester_id, approver_id, group_id, status, submitted_at, reviewed_at, review_notes`

func (r RepoImpl) Store(ctx context.Context, request ApprovalRequest) (int, error) {
	query := `INSERT INTO approval_request (
                    uid,
                    kind,
                    payload,
                    requester_id,
                    approver_id,
                    group_id,
                    status,
                    submitted_at,
                    review_notes
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING id`

	var id int
	err := r.db.QueryRowContext(ctx, query,
		request.Uid,
		request.Kind,
		[]byte(request.Payload),
		request.RequesterId,
		request.ApproverId,
		request.GroupId,
		request.Status,
		request.SubmittedAt,
		request.ReviewNotes,
	).Scan(&id)
	if err != nil {
		err := fmt.Errorf("could not store approval request: %w", err)
		log.Error(err)
		return 0, err
	}
	return id, nil
}

func (r RepoImpl) GetById(ctx context.Context, id int) (ApprovalRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM approval_request WHERE id = $1`, requestColumns)
	return r.scanRequest(r.db.QueryRowContext(ctx, query, id))
}

func (r RepoImpl) GetByUid(ctx context.Context, uid string) (ApprovalRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM approval_request WHERE uid = $1`, requestColumns)
	return r.scanRequest(r.db.QueryRowContext(ctx, query, uid))
}

func (r RepoImpl) scanRequest(row *sql.Row) (ApprovalRequest, error) {
	var req ApprovalRequest
	var payload []byte
	var reviewedAt sql.NullTime
	if err := row.Scan(
		&req.Id,
		&req.Uid,
		&req.Kind,
		&payload,
		&req.RequesterId,
		&req.ApproverId,
		&req.GroupId,
		&req.Status,
		&req.SubmittedAt,
		&reviewedAt,
		&req.ReviewNotes,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ApprovalRequest{}, ErrRequestNotFound
		}
		err := fmt.Errorf("could not scan approval request: %w", err)
		log.Error(err)
		return ApprovalRequest{}, err
	}
	req.Payload = payload
	if reviewedAt.Valid {
		req.ReviewedAt = reviewedAt.Time
	}
	return req, nil
}

func (r RepoImpl) ListForApprover(ctx context.Context, approverId int) ([]ApprovalRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM approval_request WHERE approver_id = $1 ORDER BY submitted_at`, requestColumns)
	rows, err := r.db.QueryContext(ctx, query, approverId)
	if err != nil {
		err := fmt.Errorf("could not query approval requests: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var requests []ApprovalRequest
	for rows.Next() {
		var req ApprovalRequest
		var payload []byte
		var reviewedAt sql.NullTime
		if err := rows.Scan(
			&req.Id,
			&req.Uid,
			&req.Kind,
			&payload,
			&req.RequesterId,
			&req.ApproverId,
			&req.GroupId,
			&req.Status,
			&req.SubmittedAt,
			&reviewedAt,
			&req.ReviewNotes,
		); err != nil {
			err := fmt.Errorf("could not scan approval request: %w", err)
			log.Error(err)
			return nil, err
		}
		req.Payload = payload
		if reviewedAt.Valid {
			req.ReviewedAt = reviewedAt.Time
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return requests, nil
}

func (r RepoImpl) MarkReviewed(ctx context.Context, id int, status Status, notes string, reviewedAt time.Time) (bool, error) {
	query := `UPDATE approval_request SET status = $1, review_notes = $2, reviewed_at = $3
              WHERE id = $4 AND status = 'pending'`
	result, err := r.db.ExecContext(ctx, query, status, notes, reviewedAt, id)
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

func (r RepoImpl) RevertToPending(ctx context.Context, id int, notes string) (bool, error) {
	query := `UPDATE approval_request SET status = 'pending', review_notes = $1, reviewed_at = NULL
              WHERE id = $2 AND status = 'approved'`
	result, err := r.db.ExecContext(ctx, query, notes, id)
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
