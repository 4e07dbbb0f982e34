package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/domain/identity"
	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/domain/loan"
	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/policy"
	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/treasury"
)

// HeaderActorID carries the authenticated caller identity, supplied by
// the wallet-connection layer in front of this API.
const HeaderActorID = "Ax-Actor-Id"

// actor resolves the caller: the configured lender ID gets the lender
// role, everyone else is a borrower.
func actor(c echo.Context, lenderID string) (identity.Actor, bool) {
	id := strings.TrimSpace(c.Request().Header.Get(HeaderActorID))
	if id == "" {
		return identity.Actor{}, false
	}
	if id == lenderID {
		return identity.Lender(id), true
	}
	return identity.Borrower(id), true
}

func loanIDParam(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("loan_id"), 10, 64)
}

// statusFor maps the domain error taxonomy onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, loan.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, loan.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, loan.ErrInvalidAmount),
		errors.Is(err, loan.ErrMissingCollateral),
		errors.Is(err, loan.ErrInvalidDeadline),
		errors.Is(err, policy.ErrInvalidArgument),
		errors.Is(err, treasury.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, loan.ErrLoanNotPending),
		errors.Is(err, loan.ErrLoanNotFunded),
		errors.Is(err, loan.ErrNotPastDue):
		return http.StatusConflict
	case errors.Is(err, loan.ErrInsufficientCollateral),
		errors.Is(err, loan.ErrInsufficientLiquidity),
		errors.Is(err, loan.ErrInsufficientRepayment),
		errors.Is(err, treasury.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func domainError(c echo.Context, err error) error {
	return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
}

func missingActor(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing " + HeaderActorID + " header"})
}
