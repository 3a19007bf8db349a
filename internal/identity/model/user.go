package model

import "time"

// User represents an identity-service user as stored. The id is an
// externally-independent surrogate (UUID string).
type User struct {
	ID        string
	Email     string
	Name      string
	Picture   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile is the 1:1 profile record owned by a User. Optional fields are
// pointers so an unset value serializes as null, matching what clients see.
type Profile struct {
	ID        string
	UserID    string
	Address   *string
	Phone     *string
	Bio       *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session records one issued token. Sessions are created per authentication
// and never updated; expiry is enforced by token verification, not deletion.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Claims are the trusted identity attributes produced by external
// credential verification.
type Claims struct {
	Email   string
	Name    string
	Picture string
}

// AuthRequest represents a POST /auth/google body.
type AuthRequest struct {
	Credential string `json:"credential"`
}

// AuthResponse carries the minted token plus the provisioned user.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse represents identity user data for API responses.
type UserResponse struct {
	ID       string           `json:"id"`
	Email    string           `json:"email"`
	Name     string           `json:"name"`
	Picture  string           `json:"picture"`
	IsActive bool             `json:"is_active"`
	Profile  *ProfileResponse `json:"profile"`
}

// ProfileResponse represents profile data for API responses.
type ProfileResponse struct {
	ID      string  `json:"id"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Bio     *string `json:"bio"`
}

// UpdateUserRequest is a sparse update document for /users/me.
type UpdateUserRequest struct {
	Name    *string `json:"name"`
	Picture *string `json:"picture"`
}

// UpdateProfileRequest is a sparse update document for /users/me/profile.
type UpdateProfileRequest struct {
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Bio     *string `json:"bio"`
}

// ToResponse maps a user and its (possibly absent) profile to response form.
func (u *User) ToResponse(p *Profile) UserResponse {
	resp := UserResponse{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Picture:  u.Picture,
		IsActive: u.IsActive,
	}
	if p != nil {
		pr := p.ToResponse()
		resp.Profile = &pr
	}
	return resp
}

// ToResponse maps a profile to response form.
func (p *Profile) ToResponse() ProfileResponse {
	return ProfileResponse{
		ID:      p.ID,
		Address: p.Address,
		Phone:   p.Phone,
		Bio:     p.Bio,
	}
}
