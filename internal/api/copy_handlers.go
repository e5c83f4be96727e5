package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfkeep/library-server/internal/domain"
	"github.com/shelfkeep/library-server/internal/service"
)

func (s *Server) registerCopyRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCopies",
		Method:      http.MethodGet,
		Path:        "/api/v1/copies",
		Summary:     "List copies",
		Description: "Returns every physical copy",
		Tags:        []string{"Copies"},
	}, s.handleListCopies)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCopy",
		Method:      http.MethodGet,
		Path:        "/api/v1/copies/{id}",
		Summary:     "Get copy",
		Description: "Returns a copy by ID",
		Tags:        []string{"Copies"},
	}, s.handleGetCopy)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createCopy",
		Method:        http.MethodPost,
		Path:          "/api/v1/copies",
		Summary:       "Create copy",
		Description:   "Adds a copy of an existing book",
		Tags:          []string{"Copies"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateCopy)

	huma.Register(s.api, huma.Operation{
		OperationID:   "updateCopy",
		Method:        http.MethodPut,
		Path:          "/api/v1/copies/{id}",
		Summary:       "Update copy",
		Description:   "Replaces the book reference and availability of a copy. A body id is optional; when present it must equal the path ID.",
		Tags:          []string{"Copies"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleUpdateCopy)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteCopy",
		Method:        http.MethodDelete,
		Path:          "/api/v1/copies/{id}",
		Summary:       "Delete copy",
		Description:   "Deletes a copy that has never been lent",
		Tags:          []string{"Copies"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteCopy)
}

// === DTOs ===

// CopyResponse contains copy data in API responses.
type CopyResponse struct {
	ID          int64 `json:"id" doc:"Copy ID"`
	BookID      int64 `json:"book_id" doc:"Book this copy belongs to"`
	IsAvailable bool  `json:"is_available" doc:"Whether the copy can be lent"`
}

// ListCopiesResponse contains a list of copies.
type ListCopiesResponse struct {
	Copies []CopyResponse `json:"copies" doc:"Copies"`
}

// ListCopiesOutput wraps the list copies response for Huma.
type ListCopiesOutput struct {
	Body ListCopiesResponse
}

// CopyOutput wraps a single copy for Huma.
type CopyOutput struct {
	Body CopyResponse
}

// CopyIDInput addresses a copy by ID.
type CopyIDInput struct {
	ID int64 `path:"id" doc:"Copy ID"`
}

// CopyRequest is the request body for creating or replacing a copy.
type CopyRequest struct {
	ID          int64 `json:"id,omitempty" doc:"Server assigned on create; must match the path ID on update"`
	BookID      int64 `json:"book_id" doc:"Book ID"`
	IsAvailable *bool `json:"is_available" doc:"Whether the copy can be lent"`
}

// CreateCopyInput wraps the create copy request for Huma.
type CreateCopyInput struct {
	Body CopyRequest
}

// UpdateCopyInput wraps the update copy request for Huma.
type UpdateCopyInput struct {
	ID   int64 `path:"id" doc:"Copy ID"`
	Body CopyRequest
}

// === Handlers ===

func (s *Server) handleListCopies(ctx context.Context, _ *struct{}) (*ListCopiesOutput, error) {
	copies, err := s.services.Copy.ListCopies(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]CopyResponse, len(copies))
	for i, c := range copies {
		resp[i] = toCopyResponse(c)
	}
	return &ListCopiesOutput{Body: ListCopiesResponse{Copies: resp}}, nil
}

func (s *Server) handleGetCopy(ctx context.Context, input *CopyIDInput) (*CopyOutput, error) {
	c, err := s.services.Copy.GetCopy(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CopyOutput{Body: toCopyResponse(c)}, nil
}

func (s *Server) handleCreateCopy(ctx context.Context, input *CreateCopyInput) (*CopyOutput, error) {
	c, err := s.services.Copy.CreateCopy(ctx, input.Body.toService())
	if err != nil {
		return nil, err
	}
	return &CopyOutput{Body: toCopyResponse(c)}, nil
}

func (s *Server) handleUpdateCopy(ctx context.Context, input *UpdateCopyInput) (*struct{}, error) {
	if _, err := s.services.Copy.UpdateCopy(ctx, input.ID, input.Body.toService()); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleDeleteCopy(ctx context.Context, input *CopyIDInput) (*struct{}, error) {
	if err := s.services.Copy.DeleteCopy(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (r *CopyRequest) toService() service.CopyRequest {
	return service.CopyRequest{
		ID:          r.ID,
		BookID:      r.BookID,
		IsAvailable: r.IsAvailable,
	}
}

func toCopyResponse(c *domain.BookCopy) CopyResponse {
	return CopyResponse{
		ID:          c.ID,
		BookID:      c.BookID,
		IsAvailable: c.IsAvailable,
	}
}
