package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfkeep/library-server/internal/domain"
	"github.com/shelfkeep/library-server/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := Open(DriverSQLite, dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var fk int
	require.NoError(t, s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	for _, table := range []string{"books", "book_copies", "users", "loan_records"} {
		var name string
		err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}
}

func TestOpen_IsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "library.db")

	s1, err := Open(DriverSQLite, dbPath, nil)
	require.NoError(t, err)
	require.NoError(t, s1.CreateBook(context.Background(), &domain.Book{Title: "Dune", Genre: domain.GenreSciFi}))
	require.NoError(t, s1.Close())

	s2, err := Open(DriverSQLite, dbPath, nil)
	require.NoError(t, err)
	defer s2.Close()

	books, err := s2.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "whatever", nil)
	assert.Error(t, err)
}

func TestSQLiteStore_Contract(t *testing.T) {
	runStoreContract(t, newTestStore(t))
}

// TestPostgresStore_Contract runs against a live server when LIBRARY_TEST_POSTGRES_DSN is set.
func TestPostgresStore_Contract(t *testing.T) {
	dsn := os.Getenv("LIBRARY_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LIBRARY_TEST_POSTGRES_DSN not set")
	}

	s, err := Open(DriverPostgres, dsn, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	runStoreContract(t, s)
}

// runStoreContract exercises behavior both dialects must share. Names are
// suffixed so repeated runs against a persistent database do not collide.
func runStoreContract(t *testing.T, s *Store) {
	ctx := context.Background()
	suffix := fmt.Sprintf("-%d", time.Now().UnixNano())

	t.Run("book crud", func(t *testing.T) {
		b := &domain.Book{Title: "1984" + suffix, Author: "Orwell", Genre: domain.GenreSciFi, Description: "dystopia"}
		require.NoError(t, s.CreateBook(ctx, b))
		require.NotZero(t, b.ID)

		got, err := s.GetBook(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, b, got)

		found, err := s.FindBook(ctx, b.Title, "Orwell", domain.GenreSciFi)
		require.NoError(t, err)
		assert.Equal(t, b.ID, found.ID)

		_, err = s.FindBook(ctx, b.Title, "Orwell", domain.GenreHistory)
		assert.ErrorIs(t, err, store.ErrNotFound)

		b.Description = "updated"
		require.NoError(t, s.UpdateBook(ctx, b))
		got, err = s.GetBook(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "updated", got.Description)

		require.NoError(t, s.DeleteBook(ctx, b.ID))
		_, err = s.GetBook(ctx, b.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, s.DeleteBook(ctx, b.ID), store.ErrNotFound)
	})

	t.Run("duplicate book triple", func(t *testing.T) {
		b := &domain.Book{Title: "Twin" + suffix, Author: "A", Genre: domain.GenreOther}
		require.NoError(t, s.CreateBook(ctx, b))

		dup := &domain.Book{Title: b.Title, Author: "A", Genre: domain.GenreOther}
		assert.ErrorIs(t, s.CreateBook(ctx, dup), store.ErrAlreadyExists)

		differentAuthor := &domain.Book{Title: b.Title, Author: "B", Genre: domain.GenreOther}
		assert.NoError(t, s.CreateBook(ctx, differentAuthor))
	})

	t.Run("copy requires book", func(t *testing.T) {
		err := s.CreateCopy(ctx, &domain.BookCopy{BookID: 987654321, IsAvailable: true})
		assert.ErrorIs(t, err, store.ErrForeignKey)
	})

	t.Run("book with copies cannot be deleted", func(t *testing.T) {
		b := &domain.Book{Title: "Held" + suffix, Genre: domain.GenreFantasy}
		require.NoError(t, s.CreateBook(ctx, b))
		c := &domain.BookCopy{BookID: b.ID, IsAvailable: true}
		require.NoError(t, s.CreateCopy(ctx, c))

		n, err := s.CountCopiesOfBook(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		assert.ErrorIs(t, s.DeleteBook(ctx, b.ID), store.ErrForeignKey)
	})

	t.Run("duplicate email", func(t *testing.T) {
		u := &domain.User{Name: "Ada", Email: "ada" + suffix + "@example.com"}
		require.NoError(t, s.CreateUser(ctx, u))

		dup := &domain.User{Name: "Other Ada", Email: u.Email}
		assert.ErrorIs(t, s.CreateUser(ctx, dup), store.ErrAlreadyExists)

		got, err := s.GetUserByEmail(ctx, u.Email)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("loan lifecycle", func(t *testing.T) {
		b := &domain.Book{Title: "Loaned" + suffix, Genre: domain.GenreMystery}
		require.NoError(t, s.CreateBook(ctx, b))
		c := &domain.BookCopy{BookID: b.ID, IsAvailable: true}
		require.NoError(t, s.CreateCopy(ctx, c))
		u := &domain.User{Name: "Reader", Email: "reader" + suffix + "@example.com"}
		require.NoError(t, s.CreateUser(ctx, u))

		loanDate := time.Date(2024, 5, 1, 9, 30, 0, 123456789, time.UTC)
		l := &domain.Loan{
			CopyID:             c.ID,
			UserID:             u.ID,
			LoanDate:           loanDate,
			ExpectedReturnDate: loanDate.Add(14 * 24 * time.Hour),
		}
		require.NoError(t, s.CreateLoan(ctx, l))
		require.NoError(t, s.ReserveCopy(ctx, c.ID))
		assert.ErrorIs(t, s.ReserveCopy(ctx, c.ID), store.ErrNotAvailable)

		open, err := s.HasOpenLoan(ctx, c.ID, u.ID)
		require.NoError(t, err)
		assert.True(t, open)

		// Partial unique index: a second open loan on the copy is rejected.
		second := &domain.Loan{CopyID: c.ID, UserID: u.ID, LoanDate: loanDate, ExpectedReturnDate: loanDate.Add(time.Hour)}
		assert.ErrorIs(t, s.CreateLoan(ctx, second), store.ErrAlreadyExists)

		got, err := s.GetLoan(ctx, l.ID)
		require.NoError(t, err)
		assert.True(t, got.LoanDate.Equal(loanDate))
		assert.Nil(t, got.ActualReturnDate)

		returnedAt := loanDate.Add(10 * 24 * time.Hour)
		require.NoError(t, s.CloseLoan(ctx, l.ID, returnedAt))
		assert.ErrorIs(t, s.CloseLoan(ctx, l.ID, returnedAt), store.ErrNotFound)
		require.NoError(t, s.SetCopyAvailable(ctx, c.ID, true))

		got, err = s.GetLoan(ctx, l.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ActualReturnDate)
		assert.True(t, got.ActualReturnDate.Equal(returnedAt))

		n, err := s.CountLoansOfCopy(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		assert.ErrorIs(t, s.DeleteCopy(ctx, c.ID), store.ErrForeignKey)
		assert.ErrorIs(t, s.DeleteUser(ctx, u.ID), store.ErrForeignKey)

		require.NoError(t, s.DeleteLoan(ctx, l.ID))
		assert.NoError(t, s.DeleteCopy(ctx, c.ID))
		assert.NoError(t, s.DeleteUser(ctx, u.ID))
	})

	t.Run("transaction rolls back on error", func(t *testing.T) {
		title := "Rollback" + suffix
		errBoom := errors.New("boom")

		err := s.WithTx(ctx, func(q store.Queries) error {
			if err := q.CreateBook(ctx, &domain.Book{Title: title, Genre: domain.GenreOther}); err != nil {
				return err
			}
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)

		_, err = s.FindBook(ctx, title, "", domain.GenreOther)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("transaction commits", func(t *testing.T) {
		title := "Committed" + suffix
		err := s.WithTx(ctx, func(q store.Queries) error {
			return q.CreateBook(ctx, &domain.Book{Title: title, Genre: domain.GenreOther})
		})
		require.NoError(t, err)

		_, err = s.FindBook(ctx, title, "", domain.GenreOther)
		assert.NoError(t, err)
	})
}

func TestListEmptyTables(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	books, err := s.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)

	loans, err := s.ListLoans(ctx)
	require.NoError(t, err)
	assert.NotNil(t, loans)
	assert.Empty(t, loans)
}

func TestClassify(t *testing.T) {
	assert.Nil(t, classify(nil))
	assert.ErrorIs(t, classify(errors.New("constraint failed: UNIQUE constraint failed: users.email")), store.ErrAlreadyExists)
	assert.ErrorIs(t, classify(errors.New("FOREIGN KEY constraint failed")), store.ErrForeignKey)

	plain := errors.New("disk I/O error")
	assert.Same(t, plain, classify(plain))
}
