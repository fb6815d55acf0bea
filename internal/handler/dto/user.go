// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import "github.com/forkful/forkful/internal/model"

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// CreateUserRequest represents the request body for registering a user.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// TokenRequest represents the request body for issuing a token.
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries the issued bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// UpdateMeRequest represents a partial profile update.
// Nil fields were absent from the request body.
type UpdateMeRequest struct {
	Email    *string `json:"email,omitempty"`
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty"`
}

// UserResponse represents a user in API responses.
// The password hash is never serialized.
type UserResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		Email: user.Email,
		Name:  user.Name,
	}
}
