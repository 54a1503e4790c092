package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/repository"
)

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, username, first_name, last_name, email, password_hash, created_at, updated_at`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (r *userRepository) GetMany(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1::text[])`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]domain.User, len(ids))
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		byID[user.ID] = *user
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		user, ok := byID[id]
		if !ok {
			return nil, domain.ErrUserNotFound
		}
		users = append(users, user)
	}
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO users (id, username, first_name, last_name, email, password_hash)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING created_at, updated_at
	`
	if err := conn(ctx, r.pool).QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
	).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		return mapUserConflict(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE users
	SET username = $2,
		first_name = $3,
		last_name = $4,
		email = $5,
		password_hash = $6,
		updated_at = NOW()
	WHERE id = $1
	RETURNING created_at, updated_at
	`
	if err := conn(ctx, r.pool).QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
	).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		return mapUserConflict(err)
	}
	return nil
}

func (r *userRepository) Search(ctx context.Context, q repository.UserSearch) ([]domain.User, error) {
	const query = `
	SELECT ` + userColumns + `
	FROM users
	WHERE CASE
		WHEN $1 <> '' THEN lower(username) LIKE lower($1) || '%'
		WHEN $4::boolean THEN lower(first_name) = lower($2) AND lower(last_name) = lower($3)
		ELSE ($2 <> '' AND lower(first_name) = lower($2)) OR ($3 <> '' AND lower(last_name) = lower($3))
	END
	ORDER BY last_name, first_name
	LIMIT $5
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query,
		q.UsernamePrefix, q.FirstName, q.LastName, q.MatchBoth, clampLimit(q.Limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func scanUser(row interface {
	Scan(dest ...interface{}) error
}) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func mapUserConflict(err error) error {
	constraint, ok := uniqueConstraint(err)
	if !ok {
		return err
	}
	if strings.Contains(constraint, "email") {
		return domain.ErrEmailTaken
	}
	return domain.ErrUsernameTaken
}
