// Package store defines the persistence interface for the library server.
package store

import (
	"context"
	"time"

	"github.com/shelfkeep/library-server/internal/domain"
)

// Queries is the set of reads and writes available both on the Store and
// inside a transaction started by Store.WithTx.
type Queries interface {
	// Books
	ListBooks(ctx context.Context) ([]*domain.Book, error)
	GetBook(ctx context.Context, id int64) (*domain.Book, error)
	FindBook(ctx context.Context, title, author string, genre domain.Genre) (*domain.Book, error)
	CreateBook(ctx context.Context, book *domain.Book) error
	UpdateBook(ctx context.Context, book *domain.Book) error
	DeleteBook(ctx context.Context, id int64) error
	CountCopiesOfBook(ctx context.Context, bookID int64) (int, error)

	// Copies
	ListCopies(ctx context.Context) ([]*domain.BookCopy, error)
	GetCopy(ctx context.Context, id int64) (*domain.BookCopy, error)
	CreateCopy(ctx context.Context, c *domain.BookCopy) error
	UpdateCopy(ctx context.Context, c *domain.BookCopy) error
	DeleteCopy(ctx context.Context, id int64) error
	SetCopyAvailable(ctx context.Context, id int64, available bool) error
	// ReserveCopy flips an available copy to unavailable.
	// Returns ErrNotAvailable if the copy is missing or already out.
	ReserveCopy(ctx context.Context, id int64) error
	CountLoansOfCopy(ctx context.Context, copyID int64) (int, error)

	// Users
	ListUsers(ctx context.Context) ([]*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
	DeleteUser(ctx context.Context, id int64) error

	// Loans
	ListLoans(ctx context.Context) ([]*domain.Loan, error)
	GetLoan(ctx context.Context, id int64) (*domain.Loan, error)
	CreateLoan(ctx context.Context, l *domain.Loan) error
	CloseLoan(ctx context.Context, id int64, returnedAt time.Time) error
	DeleteLoan(ctx context.Context, id int64) error
	HasOpenLoan(ctx context.Context, copyID, userID int64) (bool, error)
}

// Store is the persistent store shared by all services.
type Store interface {
	Queries

	// WithTx runs fn inside a single transaction. The transaction commits when
	// fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(q Queries) error) error

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	Close() error
}
