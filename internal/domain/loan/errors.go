package loan

import "errors"

var (
	ErrNotFound               = errors.New("loan not found")
	ErrInvalidAmount          = errors.New("amount must be greater than 0")
	ErrMissingCollateral      = errors.New("collateral is required")
	ErrInvalidDeadline        = errors.New("deadline must be in the future")
	ErrInsufficientCollateral = errors.New("not sufficient collateral")
	ErrLoanNotPending         = errors.New("loan is not pending")
	ErrLoanNotFunded          = errors.New("loan is not funded")
	ErrInsufficientLiquidity  = errors.New("ledger cannot cover the loan amount")
	ErrInsufficientRepayment  = errors.New("payment does not cover the amount due")
	ErrNotPastDue             = errors.New("loan deadline has not passed")
	ErrUnauthorized           = errors.New("caller lacks the required role")
)
