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

// CopyService manages the physical copies of books.
type CopyService struct {
	store     store.Store
	logger    *slog.Logger
	validator *validation.Validator
}

// NewCopyService creates a new copy service.
func NewCopyService(store store.Store, logger *slog.Logger) *CopyService {
	return &CopyService{
		store:     store,
		logger:    logger,
		validator: validation.New(),
	}
}

func (s *CopyService) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.logger)
}

// CopyRequest contains the fields of a copy. IsAvailable must be supplied explicitly.
type CopyRequest struct {
	ID          int64 `json:"id"`
	BookID      int64 `json:"book_id"`
	IsAvailable *bool `json:"is_available" validate:"required"`
}

// ListCopies returns every copy.
func (s *CopyService) ListCopies(ctx context.Context) ([]*domain.BookCopy, error) {
	copies, err := s.store.ListCopies(ctx)
	if err != nil {
		return nil, internalError(s.log(ctx), "list copies failed", err)
	}
	return copies, nil
}

// GetCopy returns a single copy.
func (s *CopyService) GetCopy(ctx context.Context, id int64) (*domain.BookCopy, error) {
	c, err := s.store.GetCopy(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("copy %d not found", id)
	}
	if err != nil {
		return nil, internalError(s.log(ctx), "get copy failed", err, "copy_id", id)
	}
	return c, nil
}

// CreateCopy adds a copy of an existing book. The id is assigned by the store.
func (s *CopyService) CreateCopy(ctx context.Context, req CopyRequest) (*domain.BookCopy, error) {
	if req.ID != 0 {
		return nil, domainerrors.Validation("id is assigned by the server and must not be set")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.requireBook(ctx, req.BookID); err != nil {
		return nil, err
	}

	c := &domain.BookCopy{BookID: req.BookID, IsAvailable: *req.IsAvailable}
	if err := s.store.CreateCopy(ctx, c); err != nil {
		if errors.Is(err, store.ErrForeignKey) {
			return nil, bookNotFound(req.BookID)
		}
		return nil, internalError(s.log(ctx), "create copy failed", err, "book_id", req.BookID)
	}

	s.log(ctx).Info("copy created", "copy_id", c.ID, "book_id", c.BookID, "is_available", c.IsAvailable)
	return c, nil
}

// UpdateCopy overwrites book_id and is_available of an existing copy.
func (s *CopyService) UpdateCopy(ctx context.Context, id int64, req CopyRequest) (*domain.BookCopy, error) {
	if err := idMismatch(id, req.ID); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.GetCopy(ctx, id); err != nil {
		return nil, err
	}
	if err := s.requireBook(ctx, req.BookID); err != nil {
		return nil, err
	}

	c := &domain.BookCopy{ID: id, BookID: req.BookID, IsAvailable: *req.IsAvailable}
	if err := s.store.UpdateCopy(ctx, c); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.NotFoundf("copy %d not found", id)
		case errors.Is(err, store.ErrForeignKey):
			return nil, bookNotFound(req.BookID)
		}
		return nil, internalError(s.log(ctx), "update copy failed", err, "copy_id", id)
	}

	s.log(ctx).Info("copy updated", "copy_id", id, "book_id", c.BookID, "is_available", c.IsAvailable)
	return c, nil
}

// DeleteCopy removes a copy that has never been lent.
// Closed loans still count: the loan history must keep its copy.
func (s *CopyService) DeleteCopy(ctx context.Context, id int64) error {
	if _, err := s.GetCopy(ctx, id); err != nil {
		return err
	}

	loans, err := s.store.CountLoansOfCopy(ctx, id)
	if err != nil {
		return internalError(s.log(ctx), "count loans failed", err, "copy_id", id)
	}
	if loans > 0 {
		s.log(ctx).Warn("delete of copy with loan records rejected", "copy_id", id, "loans", loans)
		return copyHasLoans(id)
	}

	if err := s.store.DeleteCopy(ctx, id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return domainerrors.NotFoundf("copy %d not found", id)
		case errors.Is(err, store.ErrForeignKey):
			return copyHasLoans(id)
		}
		return internalError(s.log(ctx), "delete copy failed", err, "copy_id", id)
	}

	s.log(ctx).Info("copy deleted", "copy_id", id)
	return nil
}

func (s *CopyService) requireBook(ctx context.Context, bookID int64) error {
	_, err := s.store.GetBook(ctx, bookID)
	if errors.Is(err, store.ErrNotFound) {
		return bookNotFound(bookID)
	}
	if err != nil {
		return internalError(s.log(ctx), "get book failed", err, "book_id", bookID)
	}
	return nil
}

func bookNotFound(id int64) error {
	return domainerrors.NotFoundf("book %d not found", id)
}

func copyHasLoans(id int64) error {
	return domainerrors.Conflictf("copy %d has loan records", id)
}
