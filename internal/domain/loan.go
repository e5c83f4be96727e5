package domain

import "time"

// LoanStatus describes where a loan is in its lifecycle.
type LoanStatus string

// Loan lifecycle states. A loan only moves from open to closed.
const (
	LoanOpen   LoanStatus = "open"
	LoanClosed LoanStatus = "closed"
)

// Loan records a copy lent to a user.
// ActualReturnDate is nil while the loan is open.
type Loan struct {
	ID                 int64      `json:"id"`
	CopyID             int64      `json:"copy_id"`
	UserID             int64      `json:"user_id"`
	LoanDate           time.Time  `json:"loan_date"`
	ExpectedReturnDate time.Time  `json:"expected_return_date"`
	ActualReturnDate   *time.Time `json:"actual_return_date,omitempty"`
}

// IsOpen reports whether the copy has not been returned yet.
func (l *Loan) IsOpen() bool {
	return l.ActualReturnDate == nil
}

// Status returns the lifecycle state of the loan.
func (l *Loan) Status() LoanStatus {
	if l.IsOpen() {
		return LoanOpen
	}
	return LoanClosed
}

// Close marks the loan as returned at the given time.
func (l *Loan) Close(at time.Time) {
	returned := at
	l.ActualReturnDate = &returned
}

// IsOverdue reports whether an open loan is past its expected return date.
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.IsOpen() && now.After(l.ExpectedReturnDate)
}
