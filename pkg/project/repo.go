package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/treso/treso/pkg/ledger"
)

var ErrProjectNotFound = errors.New("project not found")

type Repo interface {
	Store(ctx context.Context, project Project) (int, error)
	GetById(ctx context.Context, id int) (Project, error)
	GetByUid(ctx context.Context, uid string) (Project, error)
	GetAll(ctx context.Context) ([]Project, error)
	Update(ctx context.Context, project Project) (bool, error)
	UpdateStatus(ctx context.Context, id int, status Status, approvedAt time.Time) (bool, error)
	SetBudgetOccupied(ctx context.Context, id int, amount int64) (bool, error)
	Reassign(ctx context.Context, id int, ownerId int, groupId int) (bool, error)

	// ledger integration
	BudgetInfo(ctx context.Context, projectId int) (ledger.ProjectBudget, error)
	SetBudgetExecuted(ctx context.Context, projectId int, executed int64) error
}

type RepoImpl struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *RepoImpl {
	return &RepoImpl{db: db}
}

const projectColumns = `id, uid, name, year, budget_occupied, budget_executed, owner_id, group_id, status, created_at, approved_at`

func (r RepoImpl) Store(ctx context.Context, project Project) (int, error) {
	query := `INSERT INTO project (
                    uid,
                    name,
                    year,
                    budget_occupied,
                    budget_executed,
                    owner_id,
                    group_id,
                    status,
                    created_at,
                    approved_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				RETURNING id`

	var approvedAtParam interface{}
	if !project.ApprovedAt.IsZero() {
		approvedAtParam = project.ApprovedAt
	}

	var id int
	err := r.db.QueryRowContext(ctx, query,
		project.Uid,
		project.Name,
		project.Year,
		project.BudgetOccupied,
		project.BudgetExecuted,
		project.OwnerId,
		project.GroupId,
		project.Status,
		project.CreatedAt,
		approvedAtParam,
	).Scan(&id)
	if err != nil {
		err := fmt.Errorf("could not store project: %w", err)
		log.Error(err)
		return 0, err
	}
	return id, nil
}

func (r RepoImpl) GetById(ctx context.Context, id int) (Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM project WHERE id = $1`, projectColumns)
	return r.scanProject(r.db.QueryRowContext(ctx, query, id))
}

func (r RepoImpl) GetByUid(ctx context.Context, uid string) (Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM project WHERE uid = $1`, projectColumns)
	return r.scanProject(r.db.QueryRowContext(ctx, query, uid))
}

func (r RepoImpl) scanProject(row *sql.Row) (Project, error) {
	var p Project
	var approvedAt sql.NullTime
	if err := row.Scan(
		&p.Id,
		&p.Uid,
		&p.Name,
		&p.Year,
		&p.BudgetOccupied,
		&p.BudgetExecuted,
		&p.OwnerId,
		&p.GroupId,
		&p.Status,
		&p.CreatedAt,
		&approvedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Project{}, ErrProjectNotFound
		}
		err := fmt.Errorf("could not scan project: %w", err)
		log.Error(err)
		return Project{}, err
	}
	if approvedAt.Valid {
		p.ApprovedAt = approvedAt.Time
	}
	return p, nil
}

func (r RepoImpl) GetAll(ctx context.Context) ([]Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM project ORDER BY year DESC, name`, projectColumns)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query projects: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var approvedAt sql.NullTime
		if err := rows.Scan(
			&p.Id,
			&p.Uid,
			&p.Name,
			&p.Year,
			&p.BudgetOccupied,
			&p.BudgetExecuted,
			&p.OwnerId,
			&p.GroupId,
			&p.Status,
			&p.CreatedAt,
			&approvedAt,
		); err != nil {
			err := fmt.Errorf("could not scan project: %w", err)
			log.Error(err)
			return nil, err
		}
		if approvedAt.Valid {
			p.ApprovedAt = approvedAt.Time
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return projects, nil
}

func (r RepoImpl) Update(ctx context.Context, project Project) (bool, error) {
	query := `UPDATE project SET
                  name = $1,
                  year = $2,
                  budget_occupied = $3,
                  status = $4,
                  approved_at = $5
              WHERE id = $6`

	var approvedAtParam interface{}
	if !project.ApprovedAt.IsZero() {
		approvedAtParam = project.ApprovedAt
	}
	result, err := r.db.ExecContext(ctx, query,
		project.Name,
		project.Year,
		project.BudgetOccupied,
		project.Status,
		approvedAtParam,
		project.Id,
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

func (r RepoImpl) UpdateStatus(ctx context.Context, id int, status Status, approvedAt time.Time) (bool, error) {
	query := `UPDATE project SET status = $1, approved_at = $2 WHERE id = $3`
	var approvedAtParam interface{}
	if !approvedAt.IsZero() {
		approvedAtParam = approvedAt
	}
	result, err := r.db.ExecContext(ctx, query, status, approvedAtParam, id)
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

func (r RepoImpl) SetBudgetOccupied(ctx context.Context, id int, amount int64) (bool, error) {
	query := `UPDATE project SET budget_occupied = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, amount, id)
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

func (r RepoImpl) Reassign(ctx context.Context, id int, ownerId int, groupId int) (bool, error) {
	query := `UPDATE project SET owner_id = $1, group_id = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, ownerId, groupId, id)
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

func (r RepoImpl) BudgetInfo(ctx context.Context, projectId int) (ledger.ProjectBudget, error) {
	query := `SELECT id, budget_occupied FROM project WHERE id = $1`
	var b ledger.ProjectBudget
	if err := r.db.QueryRowContext(ctx, query, projectId).Scan(&b.Id, &b.Allocated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.ProjectBudget{}, ErrProjectNotFound
		}
		err := fmt.Errorf("could not load budget info: %w", err)
		log.Error(err)
		return ledger.ProjectBudget{}, err
	}
	return b, nil
}

func (r RepoImpl) SetBudgetExecuted(ctx context.Context, projectId int, executed int64) error {
	query := `UPDATE project SET budget_executed = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, executed, projectId); err != nil {
		err := fmt.Errorf("could not update executed budget: %w", err)
		log.Error(err)
		return err
	}
	return nil
}
