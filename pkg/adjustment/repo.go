package adjustment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

var ErrAdjustmentNotFound = errors.New("budget adjustment not found")

type Repo interface {
	Store(ctx context.Context, adjustment BudgetAdjustment) (int, error)
	GetByUid(ctx context.Context, uid string) (BudgetAdjustment, error)
	ListForProject(ctx context.Context, projectId int) ([]BudgetAdjustment, error)

	// SumForProject satisfies ledger.AdjustmentSummer.
	SumForProject(ctx context.Context, projectId int) (int64, error)
}

type RepoImpl struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *RepoImpl {
	return &RepoImpl{db: db}
}

const adjustmentColumns = `id, uid, project_id, amount, target_category, target_project, target_sub_project, target_owner, reason, created_by, created_at`

func (r RepoImpl) Store(ctx context.Context, adjustment BudgetAdjustment) (int, error) {
	query := `INSERT INTO budget_adjustment (
                    uid,
                    project_id,
                    amount,
                    target_category,
                    target_project,
                    target_sub_project,
                    target_owner,
                    reason,
                    created_by,
                    created_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				RETURNING id`

	var id int
	err := r.db.QueryRowContext(ctx, query,
		adjustment.Uid,
		adjustment.ProjectId,
		adjustment.Amount,
		adjustment.TargetCategory,
		adjustment.TargetProject,
		adjustment.TargetSubProject,
		adjustment.TargetOwner,
		adjustment.Reason,
		adjustment.CreatedBy,
		adjustment.CreatedAt,
	).Scan(&id)
	if err != nil {
		err := fmt.Errorf("could not store budget adjustment: %w", err)
		log.Error(err)
		return 0, err
	}
	return id, nil
}

func (r RepoImpl) GetByUid(ctx context.Context, uid string) (BudgetAdjustment, error) {
	query := fmt.Sprintf(`SELECT %s FROM budget_adjustment WHERE uid = $1`, adjustmentColumns)
	var a BudgetAdjustment
	if err := r.db.QueryRowContext(ctx, query, uid).Scan(
		&a.Id,
		&a.Uid,
		&a.ProjectId,
		&a.Amount,
		&a.TargetCategory,
		&a.TargetProject,
		&a.TargetSubProject,
		&a.TargetOwner,
		&a.Reason,
		&a.CreatedBy,
		&a.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BudgetAdjustment{}, ErrAdjustmentNotFound
		}
		err := fmt.Errorf("could not scan budget adjustment: %w", err)
		log.Error(err)
		return BudgetAdjustment{}, err
	}
	return a, nil
}

func (r RepoImpl) ListForProject(ctx context.Context, projectId int) ([]BudgetAdjustment, error) {
	query := fmt.Sprintf(`SELECT %s FROM budget_adjustment WHERE project_id = $1 ORDER BY id`, adjustmentColumns)
	rows, err := r.db.QueryContext(ctx, query, projectId)
	if err != nil {
		err := fmt.Errorf("could not query budget adjustments: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var adjustments []BudgetAdjustment
	for rows.Next() {
		var a BudgetAdjustment
		if err := rows.Scan(
			&a.Id,
			&a.Uid,
			&a.ProjectId,
			&a.Amount,
			&a.TargetCategory,
			&a.TargetProject,
			&a.TargetSubProject,
			&a.TargetOwner,
			&a.Reason,
			&a.CreatedBy,
			&a.CreatedAt,
		); err != nil {
			err := fmt.Errorf("could not scan budget adjustment: %w", err)
			log.Error(err)
			return nil, err
		}
		adjustments = append(adjustments, a)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return adjustments, nil
}

func (r RepoImpl) SumForProject(ctx context.Context, projectId int) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM budget_adjustment WHERE project_id = $1`
	var sum int64
	if err := r.db.QueryRowContext(ctx, query, projectId).Scan(&sum); err != nil {
		err := fmt.Errorf("could not sum budget adjustments: %w", err)
		log.Error(err)
		return 0, err
	}
	return sum, nil
}
