package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/userhub/userhub-go/internal/crypto"
	"github.com/userhub/userhub-go/internal/dbx"
	"github.com/userhub/userhub-go/internal/identity/model"
	"github.com/userhub/userhub-go/internal/identity/repository"
	"github.com/userhub/userhub-go/internal/validate"
)

var (
	ErrUserNotFound    = errors.New("User not found")
	ErrProfileNotFound = errors.New("Profile not found")
)

// AuthService handles credential verification, idempotent user/profile
// provisioning, and session issuance.
type AuthService struct {
	db        *sql.DB
	verifier  CredentialVerifier
	jwtSecret string
	tokenTTL  time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(db *sql.DB, verifier CredentialVerifier, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		db:        db,
		verifier:  verifier,
		jwtSecret: secret,
		tokenTTL:  ttl,
	}
}

// Authenticate verifies the credential, provisions the user and profile if
// needed, and issues a fresh session. Provisioning is transactional: a
// failure there leaves no user, no profile, and no session behind.
func (s *AuthService) Authenticate(ctx context.Context, credential string) (model.AuthResponse, error) {
	claims, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		return model.AuthResponse{}, ErrInvalidCredential
	}

	user, profile, err := s.provision(ctx, claims)
	if err != nil {
		slog.Error("provisioning failed", "email", claims.Email, "error", err)
		return model.AuthResponse{}, err
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.tokenTTL)
	token, err := crypto.GenerateToken(user.ID, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return model.AuthResponse{}, err
	}

	session := &model.Session{
		ID:        ulid.Make().String(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := repository.NewSessionRepository(s.db).Create(ctx, session); err != nil {
		slog.Error("session create failed", "user_id", user.ID, "error", err)
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{
		Token: token,
		User:  user.ToResponse(profile),
	}, nil
}

// provision runs the lookup/create/backfill state machine in a transaction.
// A concurrent first-time authentication that loses the unique-email race
// retries once against the winner's row.
func (s *AuthService) provision(ctx context.Context, claims model.Claims) (*model.User, *model.Profile, error) {
	user, profile, err := s.provisionOnce(ctx, claims)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		user, profile, err = s.provisionOnce(ctx, claims)
	}
	return user, profile, err
}

func (s *AuthService) provisionOnce(ctx context.Context, claims model.Claims) (*model.User, *model.Profile, error) {
	var user *model.User
	var profile *model.Profile

	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		users := repository.NewUserRepository(tx)
		profiles := repository.NewProfileRepository(tx)

		existing, err := users.GetByEmail(ctx, claims.Email)
		switch {
		case err == nil:
			user = existing
		case errors.Is(err, repository.ErrUserNotFound):
			now := time.Now().UTC()
			user = &model.User{
				ID:        uuid.NewString(),
				Email:     claims.Email,
				Name:      claims.Name,
				Picture:   claims.Picture,
				IsActive:  true,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := users.Create(ctx, user); err != nil {
				return err
			}
			slog.Info("provisioned new user", "user_id", user.ID)
		default:
			return err
		}

		profile, err = profiles.GetByUserID(ctx, user.ID)
		if errors.Is(err, repository.ErrProfileNotFound) {
			profile, err = createEmptyProfile(ctx, profiles, user.ID)
		}
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}

// CurrentUser returns the user with their profile, backfilling a missing
// profile for rows that predate profile provisioning.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (model.UserResponse, error) {
	users := repository.NewUserRepository(s.db)
	profiles := repository.NewProfileRepository(s.db)

	user, err := users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	profile, err := profiles.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		profile, err = createEmptyProfile(ctx, profiles, userID)
	}
	if err != nil {
		return model.UserResponse{}, err
	}

	return user.ToResponse(profile), nil
}

// UpdateCurrentUser applies a sparse update to the user's name and picture.
func (s *AuthService) UpdateCurrentUser(ctx context.Context, userID string, req model.UpdateUserRequest) (model.UserResponse, error) {
	users := repository.NewUserRepository(s.db)

	user, err := users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	if req.Name != nil {
		name, err := validate.RequiredText("name", *req.Name)
		if err != nil {
			return model.UserResponse{}, err
		}
		user.Name = name
	}
	if req.Picture != nil {
		if err := validate.NoHTML("picture", *req.Picture); err != nil {
			return model.UserResponse{}, err
		}
		user.Picture = *req.Picture
	}
	user.UpdatedAt = time.Now().UTC()

	if err := users.Update(ctx, user); err != nil {
		return model.UserResponse{}, err
	}

	profile, err := repository.NewProfileRepository(s.db).GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrProfileNotFound) {
		return model.UserResponse{}, err
	}
	return user.ToResponse(profile), nil
}

// Profile returns the user's profile without backfilling.
func (s *AuthService) Profile(ctx context.Context, userID string) (model.ProfileResponse, error) {
	profile, err := repository.NewProfileRepository(s.db).GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return model.ProfileResponse{}, ErrProfileNotFound
		}
		return model.ProfileResponse{}, err
	}
	return profile.ToResponse(), nil
}

// UpdateProfile applies a sparse update to the profile, creating it first
// for users that lack one.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req model.UpdateProfileRequest) (model.ProfileResponse, error) {
	var resp model.ProfileResponse

	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		profiles := repository.NewProfileRepository(tx)

		profile, err := profiles.GetByUserID(ctx, userID)
		if errors.Is(err, repository.ErrProfileNotFound) {
			profile, err = createEmptyProfile(ctx, profiles, userID)
		}
		if err != nil {
			return err
		}

		for field, v := range map[string]*string{"address": req.Address, "phone": req.Phone, "bio": req.Bio} {
			if v == nil {
				continue
			}
			if err := validate.NoHTML(field, *v); err != nil {
				return err
			}
		}
		if req.Address != nil {
			profile.Address = req.Address
		}
		if req.Phone != nil {
			profile.Phone = req.Phone
		}
		if req.Bio != nil {
			profile.Bio = req.Bio
		}
		profile.UpdatedAt = time.Now().UTC()

		if err := profiles.Update(ctx, profile); err != nil {
			return err
		}
		resp = profile.ToResponse()
		return nil
	})
	if err != nil {
		return model.ProfileResponse{}, err
	}
	return resp, nil
}

func createEmptyProfile(ctx context.Context, profiles *repository.ProfileRepository, userID string) (*model.Profile, error) {
	now := time.Now().UTC()
	profile := &model.Profile{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := profiles.Create(ctx, profile); err != nil {
		return nil, err
	}
	slog.Info("backfilled empty profile", "user_id", userID)
	return profile, nil
}
