package api

import "github.com/shelfkeep/library-server/internal/service"

// Services groups the business-rule services used by the handlers.
type Services struct {
	Book *service.BookService
	Copy *service.CopyService
	User *service.UserService
	Loan *service.LoanService
}
