package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

var ErrUserNotFound = errors.New("user not found")
var ErrGroupNotFound = errors.New("group not found")

type Repo interface {
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	GetGroup(ctx context.Context, id int) (Group, error)
	GetGroupByUid(ctx context.Context, uid string) (Group, error)
}

type RepoImpl struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *RepoImpl {
	return &RepoImpl{db: db}
}

func (r RepoImpl) GetUser(ctx context.Context, id int) (User, error) {
	query := `SELECT id, uid, display_name, role, active FROM app_user WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r RepoImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	query := `SELECT id, uid, display_name, role, active FROM app_user WHERE uid = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, uid))
}

func (r RepoImpl) scanUser(row *sql.Row) (User, error) {
	var u User
	if err := row.Scan(&u.Id, &u.Uid, &u.DisplayName, &u.Role, &u.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		err := fmt.Errorf("could not scan user: %w", err)
		log.Error(err)
		return User{}, err
	}
	return u, nil
}

func (r RepoImpl) GetGroup(ctx context.Context, id int) (Group, error) {
	query := `SELECT id, uid, name, pm_user_id FROM app_group WHERE id = $1`
	return r.loadGroup(ctx, r.db.QueryRowContext(ctx, query, id))
}

func (r RepoImpl) GetGroupByUid(ctx context.Context, uid string) (Group, error) {
	query := `SELECT id, uid, name, pm_user_id FROM app_group WHERE uid = $1`
	return r.loadGroup(ctx, r.db.QueryRowContext(ctx, query, uid))
}

func (r RepoImpl) loadGroup(ctx context.Context, row *sql.Row) (Group, error) {
	var g Group
	if err := row.Scan(&g.Id, &g.Uid, &g.Name, &g.PMUserId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Group{}, ErrGroupNotFound
		}
		err := fmt.Errorf("could not scan group: %w", err)
		log.Error(err)
		return Group{}, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM app_group_member WHERE group_id = $1`, g.Id)
	if err != nil {
		err := fmt.Errorf("could not query group members: %w", err)
		log.Error(err)
		return Group{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var userId int
		if err := rows.Scan(&userId); err != nil {
			err := fmt.Errorf("could not scan group member: %w", err)
			log.Error(err)
			return Group{}, err
		}
		g.MemberIds = append(g.MemberIds, userId)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return Group{}, err
	}
	return g, nil
}
