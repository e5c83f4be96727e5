package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/shelfkeep/library-server/internal/domain"
	"github.com/shelfkeep/library-server/internal/store"
)

const tableLoans = "loan_records"

var loanColumns = []any{"id", "copy_id", "user_id", "loan_date", "expected_return_date", "actual_return_date"}

// loanRow mirrors loan_records. Timestamps are RFC3339Nano text in both dialects.
type loanRow struct {
	ID                 int64          `db:"id"`
	CopyID             int64          `db:"copy_id"`
	UserID             int64          `db:"user_id"`
	LoanDate           string         `db:"loan_date"`
	ExpectedReturnDate string         `db:"expected_return_date"`
	ActualReturnDate   sql.NullString `db:"actual_return_date"`
}

func (r *loanRow) toDomain() (*domain.Loan, error) {
	l := &domain.Loan{ID: r.ID, CopyID: r.CopyID, UserID: r.UserID}

	var err error
	if l.LoanDate, err = parseTime(r.LoanDate); err != nil {
		return nil, fmt.Errorf("loan %d: parse loan_date: %w", r.ID, err)
	}
	if l.ExpectedReturnDate, err = parseTime(r.ExpectedReturnDate); err != nil {
		return nil, fmt.Errorf("loan %d: parse expected_return_date: %w", r.ID, err)
	}
	if l.ActualReturnDate, err = parseNullableTime(r.ActualReturnDate); err != nil {
		return nil, fmt.Errorf("loan %d: parse actual_return_date: %w", r.ID, err)
	}
	return l, nil
}

// ListLoans returns all loan records ordered by id.
func (q *queries) ListLoans(ctx context.Context) ([]*domain.Loan, error) {
	var rows []loanRow
	ds := q.dialect.From(tableLoans).Select(loanColumns...).Order(goqu.C("id").Asc())
	if err := q.selectAll(ctx, &rows, ds); err != nil {
		return nil, err
	}

	loans := make([]*domain.Loan, 0, len(rows))
	for i := range rows {
		l, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, nil
}

// GetLoan retrieves a loan record by id.
func (q *queries) GetLoan(ctx context.Context, id int64) (*domain.Loan, error) {
	var row loanRow
	ds := q.dialect.From(tableLoans).Select(loanColumns...).Where(goqu.C("id").Eq(id))
	if err := q.get(ctx, &row, ds); err != nil {
		return nil, err
	}
	return row.toDomain()
}

// CreateLoan inserts l and sets l.ID.
// A second open loan on the same copy violates the partial unique index and
// returns store.ErrAlreadyExists.
func (q *queries) CreateLoan(ctx context.Context, l *domain.Loan) error {
	record := goqu.Record{
		"copy_id":              l.CopyID,
		"user_id":              l.UserID,
		"loan_date":            formatTime(l.LoanDate),
		"expected_return_date": formatTime(l.ExpectedReturnDate),
		"actual_return_date":   nil,
	}
	if l.ActualReturnDate != nil {
		record["actual_return_date"] = formatTime(*l.ActualReturnDate)
	}

	id, err := q.insert(ctx, q.dialect.Insert(tableLoans).Rows(record))
	if err != nil {
		return err
	}
	l.ID = id
	return nil
}

// CloseLoan sets actual_return_date on an open loan.
// Returns store.ErrNotFound if the loan is missing or already closed.
func (q *queries) CloseLoan(ctx context.Context, id int64, returnedAt time.Time) error {
	query, args, err := q.dialect.Update(tableLoans).
		Set(goqu.Record{"actual_return_date": formatTime(returnedAt)}).
		Where(goqu.C("id").Eq(id), goqu.C("actual_return_date").IsNull()).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	return q.execAffectingOne(ctx, query, args, store.ErrNotFound)
}

// DeleteLoan removes a loan record without touching copy availability.
func (q *queries) DeleteLoan(ctx context.Context, id int64) error {
	query, args, err := q.dialect.Delete(tableLoans).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	return q.execAffectingOne(ctx, query, args, store.ErrNotFound)
}

// HasOpenLoan reports whether userID currently holds copyID.
func (q *queries) HasOpenLoan(ctx context.Context, copyID, userID int64) (bool, error) {
	n, err := q.count(ctx, q.dialect.From(tableLoans).Where(
		goqu.C("copy_id").Eq(copyID),
		goqu.C("user_id").Eq(userID),
		goqu.C("actual_return_date").IsNull(),
	))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
