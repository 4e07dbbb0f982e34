package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/ledger"
)

// LenderHandler covers the lender-only operations: funding the pool,
// approving loans and liquidating defaults. Role checks live in the
// ledger; the handler only resolves the caller.
type LenderHandler struct{ ledger *ledger.Ledger }

func NewLenderHandler(l *ledger.Ledger) *LenderHandler { return &LenderHandler{ledger: l} }

type fundReq struct {
	Amount string `json:"amount" validate:"required,money"`
}

func (h *LenderHandler) FundPool(c echo.Context) error {
	caller, ok := actor(c, h.ledger.LenderID())
	if !ok {
		return missingActor(c)
	}
	var req fundReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	amount, _ := decimal.NewFromString(req.Amount)

	if err := h.ledger.Fund(caller, amount); err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"available": h.ledger.Available().String()})
}

func (h *LenderHandler) ApproveLoan(c echo.Context) error {
	caller, ok := actor(c, h.ledger.LenderID())
	if !ok {
		return missingActor(c)
	}
	id, err := loanIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan_id"})
	}

	if err := h.ledger.ApproveLoan(caller, id); err != nil {
		return domainError(c, err)
	}
	rec, err := h.ledger.Loan(id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, toLoanDTO(rec))
}

func (h *LenderHandler) Liquidate(c echo.Context) error {
	caller, ok := actor(c, h.ledger.LenderID())
	if !ok {
		return missingActor(c)
	}
	id, err := loanIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan_id"})
	}

	if err := h.ledger.Liquidate(caller, id); err != nil {
		return domainError(c, err)
	}
	rec, err := h.ledger.Loan(id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, toLoanDTO(rec))
}
