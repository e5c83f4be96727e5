package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfkeep/library-server/internal/domain"
	"github.com/shelfkeep/library-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/users",
		Summary:     "List users",
		Description: "Returns every registered user",
		Tags:        []string{"Users"},
	}, s.handleListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}",
		Summary:     "Get user",
		Description: "Returns a user by ID",
		Tags:        []string{"Users"},
	}, s.handleGetUser)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createUser",
		Method:        http.MethodPost,
		Path:          "/api/v1/users",
		Summary:       "Create user",
		Description:   "Registers a user. Emails are unique.",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateUser)

	huma.Register(s.api, huma.Operation{
		OperationID:   "updateUser",
		Method:        http.MethodPut,
		Path:          "/api/v1/users/{id}",
		Summary:       "Update user",
		Description:   "Replaces the name and email of a user. A body id is optional; when present it must equal the path ID.",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleUpdateUser)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteUser",
		Method:        http.MethodDelete,
		Path:          "/api/v1/users/{id}",
		Summary:       "Delete user",
		Description:   "Deletes a user without loan records",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteUser)
}

// === DTOs ===

// UserResponse contains user data in API responses.
type UserResponse struct {
	ID    int64  `json:"id" doc:"User ID"`
	Name  string `json:"name" doc:"Display name"`
	Email string `json:"email" doc:"Email address"`
}

// ListUsersResponse contains a list of users.
type ListUsersResponse struct {
	Users []UserResponse `json:"users" doc:"Users"`
}

// ListUsersOutput wraps the list users response for Huma.
type ListUsersOutput struct {
	Body ListUsersResponse
}

// UserOutput wraps a single user for Huma.
type UserOutput struct {
	Body UserResponse
}

// UserIDInput addresses a user by ID.
type UserIDInput struct {
	ID int64 `path:"id" doc:"User ID"`
}

// CreateUserRequest is the request body for creating a user.
type CreateUserRequest struct {
	Name  string `json:"name" minLength:"1" maxLength:"100" doc:"Display name"`
	Email string `json:"email" doc:"Email address"`
}

// CreateUserInput wraps the create user request for Huma.
type CreateUserInput struct {
	Body CreateUserRequest
}

// UpdateUserRequest is the request body for replacing a user.
type UpdateUserRequest struct {
	ID int64 `json:"id,omitempty" doc:"Optional; must match the path ID when set"`
	CreateUserRequest
}

// UpdateUserInput wraps the update user request for Huma.
type UpdateUserInput struct {
	ID   int64 `path:"id" doc:"User ID"`
	Body UpdateUserRequest
}

// === Handlers ===

func (s *Server) handleListUsers(ctx context.Context, _ *struct{}) (*ListUsersOutput, error) {
	users, err := s.services.User.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}
	return &ListUsersOutput{Body: ListUsersResponse{Users: resp}}, nil
}

func (s *Server) handleGetUser(ctx context.Context, input *UserIDInput) (*UserOutput, error) {
	u, err := s.services.User.GetUser(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(u)}, nil
}

func (s *Server) handleCreateUser(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
	u, err := s.services.User.CreateUser(ctx, service.UserRequest{
		Name:  input.Body.Name,
		Email: input.Body.Email,
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(u)}, nil
}

func (s *Server) handleUpdateUser(ctx context.Context, input *UpdateUserInput) (*struct{}, error) {
	_, err := s.services.User.UpdateUser(ctx, input.ID, service.UpdateUserRequest{
		ID: input.Body.ID,
		UserRequest: service.UserRequest{
			Name:  input.Body.Name,
			Email: input.Body.Email,
		},
	})
	if err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleDeleteUser(ctx context.Context, input *UserIDInput) (*struct{}, error) {
	if err := s.services.User.DeleteUser(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}
