package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/userhub/userhub-go/internal/crypto"
	"github.com/userhub/userhub-go/internal/registry/model"
	"github.com/userhub/userhub-go/internal/registry/repository"
	"github.com/userhub/userhub-go/internal/validate"
)

var (
	ErrEmailTaken        = errors.New("Email already registered")
	ErrUsernameTaken     = errors.New("Username already taken")
	ErrUserNotFound      = errors.New("User not found")
	ErrInvalidPagination = errors.New("Invalid pagination parameters")
)

const maxListLimit = 100

// UserService handles registry user business logic.
type UserService struct {
	repo *repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Create registers a new user. Both email and username must be unused; the
// email check runs first so an input colliding on both reports the email.
// The repository's unique indexes back the pre-checks authoritatively.
func (s *UserService) Create(ctx context.Context, req model.CreateUserRequest) (model.UserResponse, error) {
	user, err := buildUser(req)
	if err != nil {
		return model.UserResponse{}, err
	}

	if err := s.checkEmailFree(ctx, req.Email, 0); err != nil {
		return model.UserResponse{}, err
	}
	if err := s.checkUsernameFree(ctx, req.Username, 0); err != nil {
		return model.UserResponse{}, err
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return model.UserResponse{}, err
	}
	user.HashedPassword = hash
	user.CreatedAt = time.Now().UTC()

	if err := s.repo.Create(ctx, user); err != nil {
		slog.Error("user create failed", "email", req.Email, "error", err)
		return model.UserResponse{}, mapDuplicate(err)
	}

	return user.ToResponse(), nil
}

// Get fetches a user by id.
func (s *UserService) Get(ctx context.Context, id int64) (model.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}
	return user.ToResponse(), nil
}

// List returns users matching the filter.
func (s *UserService) List(ctx context.Context, filter model.ListUsersFilter) ([]model.UserResponse, error) {
	if filter.Skip < 0 || filter.Limit < 1 || filter.Limit > maxListLimit {
		return nil, ErrInvalidPagination
	}

	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]model.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, users[i].ToResponse())
	}
	return resp, nil
}

// Update applies a sparse update document to an existing user. Only fields
// present in the document change; present email/username values that differ
// from the stored ones are re-checked for uniqueness against other records.
func (s *UserService) Update(ctx context.Context, id int64, req model.UpdateUserRequest) (model.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	if err := s.mergeUpdate(ctx, user, req); err != nil {
		return model.UserResponse{}, err
	}

	now := time.Now().UTC()
	user.UpdatedAt = &now

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		slog.Error("user update failed", "id", id, "error", err)
		return model.UserResponse{}, mapDuplicate(err)
	}

	return user.ToResponse(), nil
}

// Delete removes a user by id.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}

// mergeUpdate validates each present field and copies it onto user.
// An email or username equal to the stored value is a uniqueness no-op.
func (s *UserService) mergeUpdate(ctx context.Context, user *model.User, req model.UpdateUserRequest) error {
	if req.Email != nil {
		if err := validate.Email(*req.Email); err != nil {
			return err
		}
		if *req.Email != user.Email {
			if err := s.checkEmailFree(ctx, *req.Email, user.ID); err != nil {
				return err
			}
		}
		user.Email = *req.Email
	}

	if req.Username != nil {
		if err := validate.Username(*req.Username); err != nil {
			return err
		}
		if *req.Username != user.Username {
			if err := s.checkUsernameFree(ctx, *req.Username, user.ID); err != nil {
				return err
			}
		}
		user.Username = *req.Username
	}

	if req.Password != nil {
		if err := validate.Password(*req.Password); err != nil {
			return err
		}
		hash, err := crypto.HashPassword(*req.Password)
		if err != nil {
			return err
		}
		user.HashedPassword = hash
	}

	textFields := []struct {
		field string
		src   *string
		dst   *string
	}{
		{"street_address", req.StreetAddress, &user.StreetAddress},
		{"city", req.City, &user.City},
		{"state", req.State, &user.State},
		{"country", req.Country, &user.Country},
	}
	for _, f := range textFields {
		if f.src == nil {
			continue
		}
		clean, err := validate.RequiredText(f.field, *f.src)
		if err != nil {
			return err
		}
		*f.dst = clean
	}

	if req.PostalCode != nil {
		clean, err := validate.PostalCode(*req.PostalCode)
		if err != nil {
			return err
		}
		user.PostalCode = clean
	}

	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	return nil
}

// checkEmailFree fails with ErrEmailTaken when a different record owns email.
// selfID 0 means a create, where any owner collides.
func (s *UserService) checkEmailFree(ctx context.Context, email string, selfID int64) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != selfID {
		return ErrEmailTaken
	}
	return nil
}

func (s *UserService) checkUsernameFree(ctx context.Context, username string, selfID int64) error {
	existing, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != selfID {
		return ErrUsernameTaken
	}
	return nil
}

// buildUser validates every creation field and returns the normalized record.
func buildUser(req model.CreateUserRequest) (*model.User, error) {
	if err := validate.Email(req.Email); err != nil {
		return nil, err
	}
	if err := validate.Username(req.Username); err != nil {
		return nil, err
	}
	if err := validate.Password(req.Password); err != nil {
		return nil, err
	}

	street, err := validate.RequiredText("street_address", req.StreetAddress)
	if err != nil {
		return nil, err
	}
	city, err := validate.RequiredText("city", req.City)
	if err != nil {
		return nil, err
	}
	state, err := validate.RequiredText("state", req.State)
	if err != nil {
		return nil, err
	}
	country, err := validate.RequiredText("country", req.Country)
	if err != nil {
		return nil, err
	}
	postal, err := validate.PostalCode(req.PostalCode)
	if err != nil {
		return nil, err
	}

	return &model.User{
		Email:         req.Email,
		Username:      req.Username,
		IsActive:      true,
		StreetAddress: street,
		City:          city,
		State:         state,
		Country:       country,
		PostalCode:    postal,
	}, nil
}

// mapDuplicate converts storage-level duplicate signals to service errors so
// a concurrent writer that beats the pre-check still yields a precise error.
func mapDuplicate(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrEmailTaken
	case errors.Is(err, repository.ErrDuplicateUsername):
		return ErrUsernameTaken
	default:
		return err
	}
}
