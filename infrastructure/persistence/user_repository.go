package persistence

import (
	"context"
	"database/sql"
	"time"

	"creator-hub/domain/model"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/logger"
)

// UserRepository is the PostgreSQL implementation of IUser.
type UserRepository struct{ db *sql.DB }

func NewUserRepository(db *sql.DB) repository.IUser { return &UserRepository{db} }

func (r *UserRepository) GetById(ctx context.Context, id int) (model.User, error) {
	var u model.User
	row := r.db.QueryRowContext(ctx, `SELECT id, name, user_name, password, created_at, updated_at FROM users WHERE id = $1`, id)
	if err := row.Scan(&u.ID, &u.Name, &u.UserName, &u.Password, &u.CreatedAt, &u.UpdatedAt); err != nil {
		logger.GetLogger().WithField("error", err).Error("query user by id failed")
		return u, err
	}
	return u, nil
}

func (r *UserRepository) GetByUserName(ctx context.Context, userName string) (model.User, error) {
	var u model.User
	row := r.db.QueryRowContext(ctx, `SELECT id, name, user_name, password, created_at, updated_at FROM users WHERE user_name = $1`, userName)
	if err := row.Scan(&u.ID, &u.Name, &u.UserName, &u.Password, &u.CreatedAt, &u.UpdatedAt); err != nil {
		logger.GetLogger().WithField("error", err).Error("query user by username failed")
		return u, err
	}
	return u, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user model.User) error {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (name, user_name, password, created_at, updated_at) VALUES ($1, $2, $3, $4, NOW())`, user.Name, user.UserName, user.Password, createdAt)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":     err,
			"user_name": user.UserName,
		}).Error("create user failed")
	}
	return err
}
