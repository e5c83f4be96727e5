package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shelfkeep/library-server/internal/domain"
	domainerrors "github.com/shelfkeep/library-server/internal/errors"
	"github.com/shelfkeep/library-server/internal/logger"
	"github.com/shelfkeep/library-server/internal/store"
	"github.com/shelfkeep/library-server/internal/validation"
)

// BookService manages catalogue entries.
type BookService struct {
	store     store.Store
	logger    *slog.Logger
	validator *validation.Validator
}

// NewBookService creates a new book service.
func NewBookService(store store.Store, logger *slog.Logger) *BookService {
	return &BookService{
		store:     store,
		logger:    logger,
		validator: validation.New(),
	}
}

// log returns the request-scoped logger when ctx carries one.
func (s *BookService) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.logger)
}

// BookRequest contains the mutable fields of a book.
type BookRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=100"`
	Author      string `json:"author"`
	Genre       string `json:"genre" validate:"omitempty,genre"`
	Description string `json:"description"`
}

// UpdateBookRequest is a BookRequest that may repeat the target id.
type UpdateBookRequest struct {
	ID int64 `json:"id"`
	BookRequest
}

func (r *BookRequest) toDomain() *domain.Book {
	// Validation already rejected unknown genres.
	genre, _ := domain.ParseGenre(r.Genre)
	return &domain.Book{
		Title:       r.Title,
		Author:      r.Author,
		Genre:       genre,
		Description: r.Description,
	}
}

// ListBooks returns every book.
func (s *BookService) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, internalError(s.log(ctx), "list books failed", err)
	}
	return books, nil
}

// GetBook returns a single book.
func (s *BookService) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	b, err := s.store.GetBook(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("book %d not found", id)
	}
	if err != nil {
		return nil, internalError(s.log(ctx), "get book failed", err, "book_id", id)
	}
	return b, nil
}

// CreateBook adds a book unless one with the same title, author, and genre exists.
func (s *BookService) CreateBook(ctx context.Context, req BookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	b := req.toDomain()

	_, err := s.store.FindBook(ctx, b.Title, b.Author, b.Genre)
	switch {
	case err == nil:
		s.log(ctx).Warn("duplicate book rejected", "title", b.Title, "author", b.Author, "genre", b.Genre)
		return nil, duplicateBook(b)
	case !errors.Is(err, store.ErrNotFound):
		return nil, internalError(s.log(ctx), "find book failed", err, "title", b.Title)
	}

	if err := s.store.CreateBook(ctx, b); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, duplicateBook(b)
		}
		return nil, internalError(s.log(ctx), "create book failed", err, "title", b.Title)
	}

	s.log(ctx).Info("book created", "book_id", b.ID, "title", b.Title, "genre", b.Genre)
	return b, nil
}

// UpdateBook overwrites all fields of an existing book.
// Taking another book's (title, author, genre) is a conflict.
func (s *BookService) UpdateBook(ctx context.Context, id int64, req UpdateBookRequest) (*domain.Book, error) {
	if err := idMismatch(id, req.ID); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	current, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	b := req.toDomain()
	b.ID = id
	if !current.SameIdentity(b) {
		existing, err := s.store.FindBook(ctx, b.Title, b.Author, b.Genre)
		switch {
		case err == nil && existing.ID != id:
			s.log(ctx).Warn("book update collides with another book", "book_id", id, "other_id", existing.ID)
			return nil, bookCollision(b)
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return nil, internalError(s.log(ctx), "find book failed", err, "book_id", id)
		}
	}

	if err := s.store.UpdateBook(ctx, b); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.NotFoundf("book %d not found", id)
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, bookCollision(b)
		}
		return nil, internalError(s.log(ctx), "update book failed", err, "book_id", id)
	}

	s.log(ctx).Info("book updated", "book_id", id)
	return b, nil
}

// DeleteBook removes a book that has no copies.
func (s *BookService) DeleteBook(ctx context.Context, id int64) error {
	if _, err := s.GetBook(ctx, id); err != nil {
		return err
	}

	copies, err := s.store.CountCopiesOfBook(ctx, id)
	if err != nil {
		return internalError(s.log(ctx), "count copies failed", err, "book_id", id)
	}
	if copies > 0 {
		s.log(ctx).Warn("delete of book with copies rejected", "book_id", id, "copies", copies)
		return bookHasCopies(id)
	}

	if err := s.store.DeleteBook(ctx, id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return domainerrors.NotFoundf("book %d not found", id)
		case errors.Is(err, store.ErrForeignKey):
			return bookHasCopies(id)
		}
		return internalError(s.log(ctx), "delete book failed", err, "book_id", id)
	}

	s.log(ctx).Info("book deleted", "book_id", id)
	return nil
}

func duplicateBook(b *domain.Book) error {
	return domainerrors.AlreadyExistsf("book %q by %q in %s already exists", b.Title, b.Author, b.Genre)
}

func bookCollision(b *domain.Book) error {
	return domainerrors.Conflictf("another book already has title %q by %q in %s", b.Title, b.Author, b.Genre)
}

func bookHasCopies(id int64) error {
	return domainerrors.Conflictf("book %d still has copies", id)
}
