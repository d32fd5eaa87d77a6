package dbHelper

import (
	"context"
	"database/sql"
	"errors"

	"storefront/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const userColumns = `id, first_name, last_name, email, password, mobile_no, is_admin, created_at, updated_at`

type UserRepo struct {
	db *sqlx.DB
}

func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	SQL := `INSERT INTO users(` + userColumns + `)
			VALUES (:id, :first_name, :last_name, :email, :password, :mobile_no, :is_admin, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, SQL, u); err != nil {
		if pqCode(err) == uniqueViolation {
			return model.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (*model.User, error) {
	return r.getBy(ctx, `id = $1`, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getBy(ctx, `email = $1`, email)
}

func (r *UserRepo) getBy(ctx context.Context, cond string, arg interface{}) (*model.User, error) {
	SQL := `SELECT ` + userColumns + ` FROM users WHERE ` + cond
	var u model.User
	if err := r.db.GetContext(ctx, &u, SQL, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	likes, err := r.likes(ctx, []string{u.ID})
	if err != nil {
		return nil, err
	}
	u.LikedProducts = likes[u.ID]
	if u.LikedProducts == nil {
		u.LikedProducts = []string{}
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	SQL := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`
	users := make([]model.User, 0)
	if err := r.db.SelectContext(ctx, &users, SQL); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	likes, err := r.likes(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].LikedProducts = likes[users[i].ID]
		if users[i].LikedProducts == nil {
			users[i].LikedProducts = []string{}
		}
	}
	return users, nil
}

// likes returns liked product ids per user, oldest like first.
func (r *UserRepo) likes(ctx context.Context, userIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	SQL := `SELECT user_id, product_id FROM user_likes WHERE user_id = ANY($1) ORDER BY liked_at, product_id`
	rows := make([]struct {
		UserID    string `db:"user_id"`
		ProductID string `db:"product_id"`
	}, 0)
	if err := r.db.SelectContext(ctx, &rows, SQL, pq.Array(userIDs)); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserID] = append(out[row.UserID], row.ProductID)
	}
	return out, nil
}

func (r *UserRepo) SetAdmin(ctx context.Context, id string) error {
	SQL := `UPDATE users SET is_admin = TRUE, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, SQL, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	SQL := `UPDATE users SET password = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, SQL, id, passwordHash)
	if err != nil {
		return err
	}
	return expectOne(result)
}

func (r *UserRepo) AddLike(ctx context.Context, userID, productID string) (bool, error) {
	SQL := `INSERT INTO user_likes(user_id, product_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	result, err := r.db.ExecContext(ctx, SQL, userID, productID)
	if err != nil {
		if pqCode(err) == foreignKeyViolation {
			return false, model.ErrNotFound
		}
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *UserRepo) RemoveLike(ctx context.Context, userID, productID string) (bool, error) {
	SQL := `DELETE FROM user_likes WHERE user_id = $1 AND product_id = $2`
	result, err := r.db.ExecContext(ctx, SQL, userID, productID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
