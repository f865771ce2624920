package repository

import (
	"context"
	"fmt"

	"github.com/fitlearn/classhub/internal/model"
	"github.com/fitlearn/classhub/internal/repository/base"
)

type UserRepository struct {
	db *base.DB
}

func NewUserRepository(db *base.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (name, email, role, specialist)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.Querier(ctx).QueryRow(
		ctx, query,
		user.Name,
		user.Email,
		user.Role,
		user.Specialist,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT id, name, email, role, specialist, created_at
		FROM users
		WHERE id = $1
	`

	var user model.User
	err := r.db.Querier(ctx).QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.Specialist,
		&user.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &user, nil
}

// GetByIDs получает пользователей по списку ID
func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error) {
	query := `
		SELECT id, name, email, role, specialist, created_at
		FROM users
		WHERE id = ANY($1)
		ORDER BY name ASC
	`

	rows, err := r.db.Querier(ctx).Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var user model.User
		err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.Role,
			&user.Specialist,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}

	return users, nil
}
