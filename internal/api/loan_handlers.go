package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfkeep/library-server/internal/domain"
	"github.com/shelfkeep/library-server/internal/service"
)

func (s *Server) registerLoanRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLoans",
		Method:      http.MethodGet,
		Path:        "/api/v1/loans",
		Summary:     "List loans",
		Description: "Returns every loan record, open and returned",
		Tags:        []string{"Loans"},
	}, s.handleListLoans)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLoan",
		Method:      http.MethodGet,
		Path:        "/api/v1/loans/{id}",
		Summary:     "Get loan",
		Description: "Returns a loan record by ID",
		Tags:        []string{"Loans"},
	}, s.handleGetLoan)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createLoan",
		Method:        http.MethodPost,
		Path:          "/api/v1/loans",
		Summary:       "Lend a copy",
		Description:   "Opens a loan for an available copy and marks the copy unavailable",
		Tags:          []string{"Loans"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateLoan)

	huma.Register(s.api, huma.Operation{
		OperationID:   "returnLoan",
		Method:        http.MethodPut,
		Path:          "/api/v1/loans/{id}/return",
		Summary:       "Return a copy",
		Description:   "Closes an open loan now and makes the copy available again",
		Tags:          []string{"Loans"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleReturnLoan)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteLoan",
		Method:        http.MethodDelete,
		Path:          "/api/v1/loans/{id}",
		Summary:       "Delete loan",
		Description:   "Removes a loan record. Copy availability is not changed.",
		Tags:          []string{"Loans"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteLoan)
}

// === DTOs ===

// LoanResponse contains loan data in API responses.
type LoanResponse struct {
	ID                 int64      `json:"id" doc:"Loan ID"`
	CopyID             int64      `json:"copy_id" doc:"Lent copy"`
	UserID             int64      `json:"user_id" doc:"Borrowing user"`
	LoanDate           time.Time  `json:"loan_date" doc:"When the copy was lent"`
	ExpectedReturnDate time.Time  `json:"expected_return_date" doc:"When the copy is due back"`
	ActualReturnDate   *time.Time `json:"actual_return_date" doc:"When the copy came back; null while open"`
	Status             string     `json:"status" enum:"open,closed" doc:"Loan state"`
	Overdue            bool       `json:"overdue" doc:"Open and past the expected return date"`
}

// ListLoansResponse contains a list of loans.
type ListLoansResponse struct {
	Loans []LoanResponse `json:"loans" doc:"Loans"`
}

// ListLoansOutput wraps the list loans response for Huma.
type ListLoansOutput struct {
	Body ListLoansResponse
}

// LoanOutput wraps a single loan for Huma.
type LoanOutput struct {
	Body LoanResponse
}

// LoanIDInput addresses a loan by ID.
type LoanIDInput struct {
	ID int64 `path:"id" doc:"Loan ID"`
}

// CreateLoanRequest is the request body for lending a copy.
type CreateLoanRequest struct {
	CopyID             int64      `json:"copy_id" minimum:"1" doc:"Copy to lend"`
	UserID             int64      `json:"user_id" doc:"Borrowing user"`
	LoanDate           time.Time  `json:"loan_date" doc:"Lend time, not in the future"`
	ExpectedReturnDate time.Time  `json:"expected_return_date" doc:"Due time, after loan_date"`
	ActualReturnDate   *time.Time `json:"actual_return_date,omitempty" doc:"Must be omitted; set by the return operation"`
}

// CreateLoanInput wraps the create loan request for Huma.
type CreateLoanInput struct {
	Body CreateLoanRequest
}

// === Handlers ===

func (s *Server) handleListLoans(ctx context.Context, _ *struct{}) (*ListLoansOutput, error) {
	loans, err := s.services.Loan.ListLoans(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]LoanResponse, len(loans))
	for i, l := range loans {
		resp[i] = toLoanResponse(l)
	}
	return &ListLoansOutput{Body: ListLoansResponse{Loans: resp}}, nil
}

func (s *Server) handleGetLoan(ctx context.Context, input *LoanIDInput) (*LoanOutput, error) {
	l, err := s.services.Loan.GetLoan(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &LoanOutput{Body: toLoanResponse(l)}, nil
}

func (s *Server) handleCreateLoan(ctx context.Context, input *CreateLoanInput) (*LoanOutput, error) {
	l, err := s.services.Loan.CreateLoan(ctx, service.CreateLoanRequest{
		CopyID:             input.Body.CopyID,
		UserID:             input.Body.UserID,
		LoanDate:           input.Body.LoanDate,
		ExpectedReturnDate: input.Body.ExpectedReturnDate,
		ActualReturnDate:   input.Body.ActualReturnDate,
	})
	if err != nil {
		return nil, err
	}
	return &LoanOutput{Body: toLoanResponse(l)}, nil
}

func (s *Server) handleReturnLoan(ctx context.Context, input *LoanIDInput) (*struct{}, error) {
	if _, err := s.services.Loan.ReturnLoan(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleDeleteLoan(ctx context.Context, input *LoanIDInput) (*struct{}, error) {
	if err := s.services.Loan.DeleteLoan(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func toLoanResponse(l *domain.Loan) LoanResponse {
	return LoanResponse{
		ID:                 l.ID,
		CopyID:             l.CopyID,
		UserID:             l.UserID,
		LoanDate:           l.LoanDate,
		ExpectedReturnDate: l.ExpectedReturnDate,
		ActualReturnDate:   l.ActualReturnDate,
		Status:             string(l.Status()),
		Overdue:            l.IsOverdue(time.Now()),
	}
}
