package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfkeep/library-server/internal/domain"
	"github.com/shelfkeep/library-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns every book in the catalogue",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book by ID",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Create book",
		Description:   "Adds a book. Title, author and genre together must be unique.",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "updateBook",
		Method:        http.MethodPut,
		Path:          "/api/v1/books/{id}",
		Summary:       "Update book",
		Description:   "Replaces every field of a book. A body id is optional; when present it must equal the path ID.",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBook",
		Method:        http.MethodDelete,
		Path:          "/api/v1/books/{id}",
		Summary:       "Delete book",
		Description:   "Deletes a book that has no copies",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteBook)
}

// === DTOs ===

// BookResponse contains book data in API responses.
type BookResponse struct {
	ID          int64  `json:"id" doc:"Book ID"`
	Title       string `json:"title" doc:"Title"`
	Author      string `json:"author" doc:"Author"`
	Genre       string `json:"genre" doc:"Genre"`
	Description string `json:"description" doc:"Free-form description"`
}

// ListBooksResponse contains a list of books.
type ListBooksResponse struct {
	Books []BookResponse `json:"books" doc:"Books"`
}

// ListBooksOutput wraps the list books response for Huma.
type ListBooksOutput struct {
	Body ListBooksResponse
}

// BookOutput wraps a single book for Huma.
type BookOutput struct {
	Body BookResponse
}

// BookIDInput addresses a book by ID.
type BookIDInput struct {
	ID int64 `path:"id" doc:"Book ID"`
}

// CreateBookRequest is the request body for creating a book.
type CreateBookRequest struct {
	Title       string `json:"title" minLength:"1" maxLength:"100" doc:"Title"`
	Author      string `json:"author,omitempty" doc:"Author"`
	Genre       string `json:"genre,omitempty" enum:"Mystery,Romance,SciFi,Fantasy,Biography,History,SelfHelp,Other" doc:"Genre, defaults to Other"`
	Description string `json:"description,omitempty" doc:"Free-form description"`
}

// CreateBookInput wraps the create book request for Huma.
type CreateBookInput struct {
	Body CreateBookRequest
}

// UpdateBookRequest is the request body for replacing a book.
type UpdateBookRequest struct {
	ID int64 `json:"id,omitempty" doc:"Optional; must match the path ID when set"`
	CreateBookRequest
}

// UpdateBookInput wraps the update book request for Huma.
type UpdateBookInput struct {
	ID   int64 `path:"id" doc:"Book ID"`
	Body UpdateBookRequest
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, _ *struct{}) (*ListBooksOutput, error) {
	books, err := s.services.Book.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]BookResponse, len(books))
	for i, b := range books {
		resp[i] = toBookResponse(b)
	}
	return &ListBooksOutput{Body: ListBooksResponse{Books: resp}}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	b, err := s.services.Book.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: toBookResponse(b)}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	b, err := s.services.Book.CreateBook(ctx, input.Body.toService())
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: toBookResponse(b)}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*struct{}, error) {
	_, err := s.services.Book.UpdateBook(ctx, input.ID, service.UpdateBookRequest{
		ID:          input.Body.ID,
		BookRequest: input.Body.toService(),
	})
	if err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*struct{}, error) {
	if err := s.services.Book.DeleteBook(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (r *CreateBookRequest) toService() service.BookRequest {
	return service.BookRequest{
		Title:       r.Title,
		Author:      r.Author,
		Genre:       r.Genre,
		Description: r.Description,
	}
}

func toBookResponse(b *domain.Book) BookResponse {
	return BookResponse{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Genre:       b.Genre.String(),
		Description: b.Description,
	}
}
