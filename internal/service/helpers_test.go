package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfkeep/library-server/internal/domain"
	domainerrors "github.com/shelfkeep/library-server/internal/errors"
	"github.com/shelfkeep/library-server/internal/store/sqlstore"
)

// fixedNow is the clock used by loan tests.
var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type testServices struct {
	store  *sqlstore.Store
	books  *BookService
	copies *CopyService
	users  *UserService
	loans  *LoanService
}

// setupServices wires every service to a fresh SQLite database.
func setupServices(t *testing.T) *testServices {
	t.Helper()

	st, err := sqlstore.Open(sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.DiscardHandler)
	loans := NewLoanService(st, logger)
	loans.SetClock(func() time.Time { return fixedNow })

	return &testServices{
		store:  st,
		books:  NewBookService(st, logger),
		copies: NewCopyService(st, logger),
		users:  NewUserService(st, logger),
		loans:  loans,
	}
}

func boolPtr(b bool) *bool { return &b }

func (ts *testServices) mustBook(t *testing.T, title string) *domain.Book {
	t.Helper()
	b, err := ts.books.CreateBook(context.Background(), BookRequest{Title: title, Author: "Author", Genre: "Other"})
	require.NoError(t, err)
	return b
}

func (ts *testServices) mustCopy(t *testing.T, bookID int64, available bool) *domain.BookCopy {
	t.Helper()
	c, err := ts.copies.CreateCopy(context.Background(), CopyRequest{BookID: bookID, IsAvailable: boolPtr(available)})
	require.NoError(t, err)
	return c
}

func (ts *testServices) mustUser(t *testing.T, name, email string) *domain.User {
	t.Helper()
	u, err := ts.users.CreateUser(context.Background(), UserRequest{Name: name, Email: email})
	require.NoError(t, err)
	return u
}

func (ts *testServices) mustLoan(t *testing.T, copyID, userID int64) *domain.Loan {
	t.Helper()
	l, err := ts.loans.CreateLoan(context.Background(), loanRequest(copyID, userID))
	require.NoError(t, err)
	return l
}

func loanRequest(copyID, userID int64) CreateLoanRequest {
	return CreateLoanRequest{
		CopyID:             copyID,
		UserID:             userID,
		LoanDate:           fixedNow.Add(-time.Hour),
		ExpectedReturnDate: fixedNow.Add(14 * 24 * time.Hour),
	}
}

func requireCode(t *testing.T, err error, code domainerrors.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, domainerrors.CodeOf(err), "unexpected error: %v", err)
}
