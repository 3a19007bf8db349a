package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/userhub/userhub-go/internal/dbx"
	"github.com/userhub/userhub-go/internal/registry/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
)

const userColumns = `id, email, username, hashed_password, is_active, street_address, city, state, country, postal_code, created_at, updated_at`

// UserRepository handles registry user persistence.
type UserRepository struct {
	db dbx.DBTX
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db dbx.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and sets the generated ID on the user struct.
// Unique-index violations are the authoritative duplicate signal and are
// mapped to ErrDuplicateEmail or ErrDuplicateUsername.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (email, username, hashed_password, is_active, street_address, city, state, country, postal_code, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		user.Email, user.Username, user.HashedPassword, user.IsActive,
		user.StreetAddress, user.City, user.State, user.Country, user.PostalCode,
		user.CreatedAt,
	)
	if err != nil {
		if dup := classifyDuplicate(err); dup != nil {
			return dup
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	user.ID = id
	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// GetByUsername retrieves a user by their username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, username))
}

// List returns users matching the filter, ordered by id, honoring the
// filter's skip/limit window.
func (r *UserRepository) List(ctx context.Context, filter model.ListUsersFilter) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`

	var conds []string
	var args []any
	if filter.City != "" {
		conds = append(conds, "city = ?")
		args = append(args, filter.City)
	}
	if filter.State != "" {
		conds = append(conds, "state = ?")
		args = append(args, filter.State)
	}
	if filter.Country != "" {
		conds = append(conds, "country = ?")
		args = append(args, filter.Country)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Skip)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		var updatedAt sql.NullTime
		if err := rows.Scan(
			&u.ID, &u.Email, &u.Username, &u.HashedPassword, &u.IsActive,
			&u.StreetAddress, &u.City, &u.State, &u.Country, &u.PostalCode,
			&u.CreatedAt, &updatedAt,
		); err != nil {
			return nil, err
		}
		if updatedAt.Valid {
			u.UpdatedAt = &updatedAt.Time
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update writes the full merged record in one statement. Duplicate-key
// violations map the same way as Create.
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE users
	          SET email = ?, username = ?, hashed_password = ?, is_active = ?,
	              street_address = ?, city = ?, state = ?, country = ?, postal_code = ?,
	              updated_at = ?
	          WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		user.Email, user.Username, user.HashedPassword, user.IsActive,
		user.StreetAddress, user.City, user.State, user.Country, user.PostalCode,
		user.UpdatedAt, user.ID,
	)
	if err != nil {
		if dup := classifyDuplicate(err); dup != nil {
			return dup
		}
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a user by ID.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) scanOne(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var updatedAt sql.NullTime
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.HashedPassword, &user.IsActive,
		&user.StreetAddress, &user.City, &user.State, &user.Country, &user.PostalCode,
		&user.CreatedAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if updatedAt.Valid {
		user.UpdatedAt = &updatedAt.Time
	}
	return user, nil
}

// classifyDuplicate maps a unique-key violation to the sentinel for the
// constrained column. MySQL reports "Duplicate entry ... for key
// 'users.uq_users_email'"; the sqlite driver used by the tests reports
// "UNIQUE constraint failed: users.email". Both carry the column name.
func classifyDuplicate(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "Duplicate entry") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return nil
	}
	if strings.Contains(msg, "email") {
		return ErrDuplicateEmail
	}
	if strings.Contains(msg, "username") {
		return ErrDuplicateUsername
	}
	return nil
}
