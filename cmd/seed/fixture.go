package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/shelfkeep/library-server/internal/service"
	"github.com/shelfkeep/library-server/internal/store"
)

const defaultLoanDays = 14

// Fixture describes a batch of records. References point at earlier entries by index.
type Fixture struct {
	Books  []FixtureBook `json:"books"`
	Copies []FixtureCopy `json:"copies"`
	Users  []FixtureUser `json:"users"`
	Loans  []FixtureLoan `json:"loans"`
}

// FixtureBook is a book entry.
type FixtureBook struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       string `json:"genre"`
	Description string `json:"description"`
}

// FixtureCopy is a copy of Books[BookRef]. IsAvailable defaults to true.
type FixtureCopy struct {
	BookRef     int   `json:"book_ref"`
	IsAvailable *bool `json:"is_available"`
}

// FixtureUser is a user entry.
type FixtureUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FixtureLoan lends Copies[CopyRef] to Users[UserRef] starting now for Days days.
type FixtureLoan struct {
	CopyRef int `json:"copy_ref"`
	UserRef int `json:"user_ref"`
	Days    int `json:"days"`
}

var fixtureJSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

// DecodeFixture reads a fixture and rejects unknown fields.
func DecodeFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	if err := fixtureJSON.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

// Result holds the ids created by a load, in fixture order.
type Result struct {
	BookIDs []int64
	CopyIDs []int64
	UserIDs []int64
	LoanIDs []int64
}

// Print writes a short summary.
func (r *Result) Print(w io.Writer) {
	fmt.Fprintf(w, "books:  %d %v\n", len(r.BookIDs), r.BookIDs)
	fmt.Fprintf(w, "copies: %d %v\n", len(r.CopyIDs), r.CopyIDs)
	fmt.Fprintf(w, "users:  %d %v\n", len(r.UserIDs), r.UserIDs)
	fmt.Fprintf(w, "loans:  %d %v\n", len(r.LoanIDs), r.LoanIDs)
}

// Seeder creates fixture records through the services so every rule applies.
type Seeder struct {
	books  *service.BookService
	copies *service.CopyService
	users  *service.UserService
	loans  *service.LoanService
	now    func() time.Time
}

// NewSeeder creates a seeder on top of st.
func NewSeeder(st store.Store, logger *slog.Logger) *Seeder {
	return &Seeder{
		books:  service.NewBookService(st, logger),
		copies: service.NewCopyService(st, logger),
		users:  service.NewUserService(st, logger),
		loans:  service.NewLoanService(st, logger),
		now:    time.Now,
	}
}

// Load creates every record in f. It stops at the first failure; records
// created before it are kept.
func (s *Seeder) Load(ctx context.Context, f *Fixture) (*Result, error) {
	res := &Result{}

	for i, fb := range f.Books {
		b, err := s.books.CreateBook(ctx, service.BookRequest{
			Title:       fb.Title,
			Author:      fb.Author,
			Genre:       fb.Genre,
			Description: fb.Description,
		})
		if err != nil {
			return res, fmt.Errorf("books[%d]: %w", i, err)
		}
		res.BookIDs = append(res.BookIDs, b.ID)
	}

	for i, fc := range f.Copies {
		bookID, err := ref("book_ref", fc.BookRef, res.BookIDs)
		if err != nil {
			return res, fmt.Errorf("copies[%d]: %w", i, err)
		}
		available := true
		if fc.IsAvailable != nil {
			available = *fc.IsAvailable
		}
		c, err := s.copies.CreateCopy(ctx, service.CopyRequest{BookID: bookID, IsAvailable: &available})
		if err != nil {
			return res, fmt.Errorf("copies[%d]: %w", i, err)
		}
		res.CopyIDs = append(res.CopyIDs, c.ID)
	}

	for i, fu := range f.Users {
		u, err := s.users.CreateUser(ctx, service.UserRequest{Name: fu.Name, Email: fu.Email})
		if err != nil {
			return res, fmt.Errorf("users[%d]: %w", i, err)
		}
		res.UserIDs = append(res.UserIDs, u.ID)
	}

	for i, fl := range f.Loans {
		copyID, err := ref("copy_ref", fl.CopyRef, res.CopyIDs)
		if err != nil {
			return res, fmt.Errorf("loans[%d]: %w", i, err)
		}
		userID, err := ref("user_ref", fl.UserRef, res.UserIDs)
		if err != nil {
			return res, fmt.Errorf("loans[%d]: %w", i, err)
		}
		days := fl.Days
		if days <= 0 {
			days = defaultLoanDays
		}

		lent := s.now().UTC().Truncate(time.Second)
		l, err := s.loans.CreateLoan(ctx, service.CreateLoanRequest{
			CopyID:             copyID,
			UserID:             userID,
			LoanDate:           lent,
			ExpectedReturnDate: lent.AddDate(0, 0, days),
		})
		if err != nil {
			return res, fmt.Errorf("loans[%d]: %w", i, err)
		}
		res.LoanIDs = append(res.LoanIDs, l.ID)
	}

	return res, nil
}

func ref(name string, idx int, ids []int64) (int64, error) {
	if idx < 0 || idx >= len(ids) {
		return 0, fmt.Errorf("%s %d out of range (have %d)", name, idx, len(ids))
	}
	return ids[idx], nil
}
