package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shelfkeep/library-server/internal/domain"
	domainerrors "github.com/shelfkeep/library-server/internal/errors"
	"github.com/shelfkeep/library-server/internal/logger"
	"github.com/shelfkeep/library-server/internal/store"
	"github.com/shelfkeep/library-server/internal/validation"
)

// LoanService lends copies to users and takes them back.
type LoanService struct {
	store     store.Store
	logger    *slog.Logger
	validator *validation.Validator
	now       func() time.Time
}

// NewLoanService creates a new loan service using the system clock.
func NewLoanService(store store.Store, logger *slog.Logger) *LoanService {
	return &LoanService{
		store:     store,
		logger:    logger,
		validator: validation.New(),
		now:       systemClock,
	}
}

func (s *LoanService) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.logger)
}

// SetClock replaces the time source used for return dates and future-date checks.
func (s *LoanService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateLoanRequest opens a loan. ActualReturnDate must be empty.
type CreateLoanRequest struct {
	CopyID             int64      `json:"copy_id" validate:"required,gt=0"`
	UserID             int64      `json:"user_id"`
	LoanDate           time.Time  `json:"loan_date" validate:"required"`
	ExpectedReturnDate time.Time  `json:"expected_return_date" validate:"required,gtfield=LoanDate"`
	ActualReturnDate   *time.Time `json:"actual_return_date,omitempty" validate:"isdefault"`
}

const copyNotAvailable = "the book copy is not available for loan"

// ListLoans returns every loan record, open and closed.
func (s *LoanService) ListLoans(ctx context.Context) ([]*domain.Loan, error) {
	loans, err := s.store.ListLoans(ctx)
	if err != nil {
		return nil, internalError(s.log(ctx), "list loans failed", err)
	}
	return loans, nil
}

// GetLoan returns a single loan record.
func (s *LoanService) GetLoan(ctx context.Context, id int64) (*domain.Loan, error) {
	l, err := s.store.GetLoan(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("loan %d not found", id)
	}
	if err != nil {
		return nil, internalError(s.log(ctx), "get loan failed", err, "loan_id", id)
	}
	return l, nil
}

// CreateLoan lends an available copy to a user.
// The loan insert and the availability flip commit together or not at all.
func (s *LoanService) CreateLoan(ctx context.Context, req CreateLoanRequest) (*domain.Loan, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.LoanDate.After(s.now()) {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"loan_date": "must not be in the future",
		})
	}

	if _, err := s.store.GetUser(ctx, req.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("user %d not found", req.UserID)
		}
		return nil, internalError(s.log(ctx), "get user failed", err, "user_id", req.UserID)
	}

	loan := &domain.Loan{
		CopyID:             req.CopyID,
		UserID:             req.UserID,
		LoanDate:           req.LoanDate.UTC(),
		ExpectedReturnDate: req.ExpectedReturnDate.UTC(),
	}

	err := s.store.WithTx(ctx, func(q store.Queries) error {
		c, err := q.GetCopy(ctx, req.CopyID)
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.Validation(copyNotAvailable)
		}
		if err != nil {
			return err
		}
		if !c.IsAvailable {
			return domainerrors.Validation(copyNotAvailable)
		}

		open, err := q.HasOpenLoan(ctx, req.CopyID, req.UserID)
		if err != nil {
			return err
		}
		if open {
			return domainerrors.Validation("user already has an open loan for this copy")
		}

		if err := q.CreateLoan(ctx, loan); err != nil {
			return err
		}
		return q.ReserveCopy(ctx, req.CopyID)
	})
	if err != nil {
		return nil, s.loanWriteError(ctx, err, req)
	}

	s.log(ctx).Info("loan created", "loan_id", loan.ID, "copy_id", loan.CopyID, "user_id", loan.UserID)
	return loan, nil
}

// ReturnLoan closes an open loan at the current time and makes the copy available.
// If the copy has disappeared the loan is still closed and a not-found error is returned.
func (s *LoanService) ReturnLoan(ctx context.Context, id int64) (*domain.Loan, error) {
	var (
		loan        *domain.Loan
		copyMissing bool
	)

	err := s.store.WithTx(ctx, func(q store.Queries) error {
		var err error
		loan, err = q.GetLoan(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("loan %d not found", id)
		}
		if err != nil {
			return err
		}
		if !loan.IsOpen() {
			return loanAlreadyReturned(id)
		}

		returnedAt := s.now().UTC()
		if err := q.CloseLoan(ctx, id, returnedAt); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return loanAlreadyReturned(id)
			}
			return err
		}
		loan.Close(returnedAt)

		err = q.SetCopyAvailable(ctx, loan.CopyID, true)
		if errors.Is(err, store.ErrNotFound) {
			copyMissing = true
			return nil
		}
		return err
	})
	if err != nil {
		if _, ok := asDomainError(err); ok {
			s.log(ctx).Warn("loan return rejected", "loan_id", id, "error", err)
			return nil, err
		}
		return nil, internalError(s.log(ctx), "return loan failed", err, "loan_id", id)
	}

	if copyMissing {
		s.log(ctx).Warn("loan closed but copy no longer exists", "loan_id", id, "copy_id", loan.CopyID)
		return nil, domainerrors.NotFoundf("copy %d not found", loan.CopyID)
	}

	s.log(ctx).Info("loan returned", "loan_id", id, "copy_id", loan.CopyID)
	return loan, nil
}

// DeleteLoan removes a loan record. Copy availability is left untouched.
func (s *LoanService) DeleteLoan(ctx context.Context, id int64) error {
	if _, err := s.GetLoan(ctx, id); err != nil {
		return err
	}

	if err := s.store.DeleteLoan(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("loan %d not found", id)
		}
		return internalError(s.log(ctx), "delete loan failed", err, "loan_id", id)
	}

	s.log(ctx).Info("loan deleted", "loan_id", id)
	return nil
}

// loanWriteError maps a failed create transaction to a domain error.
func (s *LoanService) loanWriteError(ctx context.Context, err error, req CreateLoanRequest) error {
	if _, ok := asDomainError(err); ok {
		s.log(ctx).Warn("loan rejected", "copy_id", req.CopyID, "user_id", req.UserID, "error", err)
		return err
	}

	switch {
	case errors.Is(err, store.ErrAlreadyExists), errors.Is(err, store.ErrNotAvailable):
		// Another request took the copy between our read and write.
		s.log(ctx).Warn("loan lost race for copy", "copy_id", req.CopyID, "user_id", req.UserID)
		return domainerrors.Validation(copyNotAvailable)
	case errors.Is(err, store.ErrForeignKey):
		return domainerrors.NotFoundf("user %d or copy %d no longer exists", req.UserID, req.CopyID)
	}
	return internalError(s.log(ctx), "create loan failed", err, "copy_id", req.CopyID, "user_id", req.UserID)
}

func loanAlreadyReturned(id int64) error {
	return domainerrors.Validationf("loan %d has already been returned", id)
}
