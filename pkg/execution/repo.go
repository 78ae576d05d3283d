package execution

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

var ErrRecordNotFound = errors.New("execution record not found")

type Repo interface {
	Store(ctx context.Context, record ExecutionRecord) (int, error)
	GetById(ctx context.Context, id int) (ExecutionRecord, error)
	GetByUid(ctx context.Context, uid string) (ExecutionRecord, error)
	ListForProject(ctx context.Context, projectId int) ([]ExecutionRecord, error)
	Update(ctx context.Context, record ExecutionRecord) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)

	// SumForProject sums record amounts for the project, excluding the record
	// with excludeId (0 excludes nothing). Satisfies ledger.ExecutionSummer.
	SumForProject(ctx context.Context, projectId int, excludeId int) (int64, error)
}

type RepoImpl struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *RepoImpl {
	return &RepoImpl{db: db}
}

const recordColumns = `id, uid, project_id, amount, spend_date, justification, voucher_ref, created_by, created_at`

func (r RepoImpl) Store(ctx context.Context, record ExecutionRecord) (int, error) {
	query := `INSERT INTO execution_record (
                    uid,
                    project_id,
                    amount,
                    spend_date,
                    justification,
                    voucher_ref,
                    created_by,
                    created_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING id`

	var id int
	err := r.db.QueryRowContext(ctx, query,
		record.Uid,
		record.ProjectId,
		record.Amount,
		record.Date,
		record.Justification,
		record.VoucherRef,
		record.CreatedBy,
		record.CreatedAt,
	).Scan(&id)
	if err != nil {
		err := fmt.Errorf("could not store execution record: %w", err)
		log.Error(err)
		return 0, err
	}
	return id, nil
}

func (r RepoImpl) GetById(ctx context.Context, id int) (ExecutionRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM execution_record WHERE id = $1`, recordColumns)
	return r.scanRecord(r.db.QueryRowContext(ctx, query, id))
}

func (r RepoImpl) GetByUid(ctx context.Context, uid string) (ExecutionRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM execution_record WHERE uid = $1`, recordColumns)
	return r.scanRecord(r.db.QueryRowContext(ctx, query, uid))
}

func (r RepoImpl) scanRecord(row *sql.Row) (ExecutionRecord, error) {
	var rec ExecutionRecord
	if err := row.Scan(
		&rec.Id,
		&rec.Uid,
		&rec.ProjectId,
		&rec.Amount,
		&rec.Date,
		&rec.Justification,
		&rec.VoucherRef,
		&rec.CreatedBy,
		&rec.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ExecutionRecord{}, ErrRecordNotFound
		}
		err := fmt.Errorf("could not scan execution record: %w", err)
		log.Error(err)
		return ExecutionRecord{}, err
	}
	return rec, nil
}

func (r RepoImpl) ListForProject(ctx context.Context, projectId int) ([]ExecutionRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM execution_record WHERE project_id = $1 ORDER BY spend_date, id`, recordColumns)
	rows, err := r.db.QueryContext(ctx, query, projectId)
	if err != nil {
		err := fmt.Errorf("could not query execution records: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var records []ExecutionRecord
	for rows.Next() {
		var rec ExecutionRecord
		if err := rows.Scan(
			&rec.Id,
			&rec.Uid,
			&rec.ProjectId,
			&rec.Amount,
			&rec.Date,
			&rec.Justification,
			&rec.VoucherRef,
			&rec.CreatedBy,
			&rec.CreatedAt,
		); err != nil {
			err := fmt.Errorf("could not scan execution record: %w", err)
			log.Error(err)
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return records, nil
}

func (r RepoImpl) Update(ctx context.Context, record ExecutionRecord) (bool, error) {
	query := `UPDATE execution_record SET
                  amount = $1,
                  spend_date = $2,
                  justification = $3,
                  voucher_ref = $4
              WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query,
		record.Amount,
		record.Date,
		record.Justification,
		record.VoucherRef,
		record.Id,
	)
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

func (r RepoImpl) Delete(ctx context.Context, id int) (bool, error) {
	query := `DELETE FROM execution_record WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
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

func (r RepoImpl) SumForProject(ctx context.Context, projectId int, excludeId int) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM execution_record WHERE project_id = $1 AND id != $2`
	var sum int64
	if err := r.db.QueryRowContext(ctx, query, projectId, excludeId).Scan(&sum); err != nil {
		err := fmt.Errorf("could not sum execution records: %w", err)
		log.Error(err)
		return 0, err
	}
	return sum, nil
}
