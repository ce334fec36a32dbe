package sqlstore

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"renTrentoBack/internal/models"
)

const userColumns = `id, user_name, email, password_hash, role, wallet, fcm_token, created_at, updated_at`

type UserRepository struct {
	q sqlx.ExtContext
}

func (r *UserRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query := r.q.Rebind(`
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.q.ExecContext(ctx, query,
		user.ID, user.UserName, user.Email, user.Password, user.Role, user.Wallet, user.FCMToken,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return models.User{}, translate(err, "create user")
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return r.getOne(ctx, "get user", `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepository) GetUserByIDForUpdate(ctx context.Context, id string) (models.User, error) {
	return r.getOne(ctx, "lock user", `SELECT `+userColumns+` FROM users WHERE id = ? FOR UPDATE`, id)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.getOne(ctx, "get user by email", `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UserRepository) GetUserByUserName(ctx context.Context, userName string) (models.User, error) {
	return r.getOne(ctx, "get user by name", `SELECT `+userColumns+` FROM users WHERE user_name = ?`, userName)
}

func (r *UserRepository) getOne(ctx context.Context, op, query string, args ...interface{}) (models.User, error) {
	var user models.User
	if err := sqlx.GetContext(ctx, r.q, &user, r.q.Rebind(query), args...); err != nil {
		return models.User{}, translate(err, op)
	}
	return user, nil
}

func (r *UserRepository) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []interface{}
	if filter.Role != "" {
		query += ` WHERE role = ?`
		args = append(args, filter.Role)
	}
	query += ` ORDER BY created_at, id`

	users := []models.User{}
	if err := sqlx.SelectContext(ctx, r.q, &users, r.q.Rebind(query), args...); err != nil {
		return nil, translate(err, "list users")
	}
	return users, nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, user models.User) error {
	query := r.q.Rebind(`
		UPDATE users
		SET user_name = ?, email = ?, password_hash = ?, role = ?, fcm_token = ?, updated_at = ?
		WHERE id = ?
	`)
	_, err := r.q.ExecContext(ctx, query,
		user.UserName, user.Email, user.Password, user.Role, user.FCMToken, user.UpdatedAt, user.ID,
	)
	return translate(err, "update user")
}

func (r *UserRepository) UpdateWallet(ctx context.Context, id string, wallet decimal.Decimal) error {
	query := r.q.Rebind(`UPDATE users SET wallet = ?, updated_at = ? WHERE id = ?`)
	_, err := r.q.ExecContext(ctx, query, wallet, time.Now().UTC(), id)
	return translate(err, "update wallet")
}

func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return translate(err, "delete user")
	}
	return expectAffected(res, "delete user")
}
