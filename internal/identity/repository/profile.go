package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/userhub/userhub-go/internal/dbx"
	"github.com/userhub/userhub-go/internal/identity/model"
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrDuplicateProfile = errors.New("profile already exists for user")
)

// ProfileRepository handles profile persistence.
type ProfileRepository struct {
	db dbx.DBTX
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db dbx.DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts a profile. The unique index on user_id keeps the 1:1
// ownership; a violation maps to ErrDuplicateProfile.
func (r *ProfileRepository) Create(ctx context.Context, profile *model.Profile) error {
	query := `INSERT INTO user_profiles (id, user_id, address, phone, bio, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		profile.ID, profile.UserID, profile.Address, profile.Phone, profile.Bio,
		profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil && isDuplicateEntryError(err) {
		return ErrDuplicateProfile
	}
	return err
}

// GetByUserID retrieves the profile owned by the given user.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	query := `SELECT id, user_id, address, phone, bio, created_at, updated_at FROM user_profiles WHERE user_id = ?`

	profile := &model.Profile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.ID, &profile.UserID, &profile.Address, &profile.Phone, &profile.Bio,
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

// Update writes the profile's optional fields and updated_at.
func (r *ProfileRepository) Update(ctx context.Context, profile *model.Profile) error {
	query := `UPDATE user_profiles SET address = ?, phone = ?, bio = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		profile.Address, profile.Phone, profile.Bio, profile.UpdatedAt, profile.ID,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// DeleteByUserID removes a user's profile, honoring cascade ownership.
func (r *ProfileRepository) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_profiles WHERE user_id = ?`, userID)
	return err
}
