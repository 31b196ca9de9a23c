package dto

import "github.com/lukeybeachboy/todo-api/internal/model"

// CredentialsRequest is the body of sign-up and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

// ToUserResponse converts a model.User to UserResponse.
func ToUserResponse(user *model.User) UserResponse {
	return UserResponse{ID: user.ID, Email: user.Email}
}
