package model

import "time"

// User represents a registry user record as stored. HashedPassword never
// leaves this package in a response type.
type User struct {
	ID             int64
	Email          string
	Username       string
	HashedPassword string
	IsActive       bool
	StreetAddress  string
	City           string
	State          string
	Country        string
	PostalCode     string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// CreateUserRequest represents a user creation request.
type CreateUserRequest struct {
	Email         string `json:"email"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Country       string `json:"country"`
	PostalCode    string `json:"postal_code"`
}

// UpdateUserRequest is a sparse update document. A nil field means "leave
// unchanged"; there is no way to null a field out.
type UpdateUserRequest struct {
	Email         *string `json:"email"`
	Username      *string `json:"username"`
	Password      *string `json:"password"`
	StreetAddress *string `json:"street_address"`
	City          *string `json:"city"`
	State         *string `json:"state"`
	Country       *string `json:"country"`
	PostalCode    *string `json:"postal_code"`
	IsActive      *bool   `json:"is_active"`
}

// ListUsersFilter carries pagination and the optional location filters.
type ListUsersFilter struct {
	Skip    int
	Limit   int
	City    string
	State   string
	Country string
}

// UserResponse represents user data safe for API responses. No password
// material, raw or hashed, appears here.
type UserResponse struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	IsActive      bool       `json:"is_active"`
	StreetAddress string     `json:"street_address"`
	City          string     `json:"city"`
	State         string     `json:"state"`
	Country       string     `json:"country"`
	PostalCode    string     `json:"postal_code"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// ToResponse maps a stored record to its response form.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		IsActive:      u.IsActive,
		StreetAddress: u.StreetAddress,
		City:          u.City,
		State:         u.State,
		Country:       u.Country,
		PostalCode:    u.PostalCode,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}
