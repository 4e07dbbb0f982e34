package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/domain/loan"
	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/ledger"
)

type LoanHandler struct{ ledger *ledger.Ledger }

func NewLoanHandler(l *ledger.Ledger) *LoanHandler { return &LoanHandler{ledger: l} }

type requestLoanReq struct {
	Amount     string `json:"amount"      validate:"required,money"`
	Collateral string `json:"collateral"  validate:"required,money0"`
	// RFC3339 with timezone, e.g. 2025-09-09T10:00:00Z
	Deadline string `json:"deadline"    validate:"required"`
}

type loanDTO struct {
	LoanID     uint64    `json:"loan_id"`
	Borrower   string    `json:"borrower"`
	Amount     string    `json:"amount"`
	Collateral string    `json:"collateral"`
	Deadline   time.Time `json:"deadline"`
	Status     string    `json:"status"`
}

func toLoanDTO(l loan.Loan) loanDTO {
	return loanDTO{
		LoanID:     l.ID,
		Borrower:   l.Borrower,
		Amount:     l.Amount.String(),
		Collateral: l.Collateral.String(),
		Deadline:   l.Deadline,
		Status:     l.Status.String(),
	}
}

func (h *LoanHandler) RequestLoan(c echo.Context) error {
	caller, ok := actor(c, h.ledger.LenderID())
	if !ok {
		return missingActor(c)
	}
	var req requestLoanReq
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
	collateral, _ := decimal.NewFromString(req.Collateral)
	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "deadline must be RFC3339 with timezone"})
	}

	id, err := h.ledger.RequestLoan(caller, amount, deadline, collateral)
	if err != nil {
		return domainError(c, err)
	}
	rec, err := h.ledger.Loan(id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, toLoanDTO(rec))
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, err := loanIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan_id"})
	}
	rec, err := h.ledger.Loan(id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, toLoanDTO(rec))
}

func (h *LoanHandler) GetApproval(c echo.Context) error {
	id, err := loanIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan_id"})
	}
	if _, err := h.ledger.Loan(id); err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"approved": h.ledger.Approval(id)})
}

type snapshotDTO struct {
	Borrowers   []string    `json:"borrowers"`
	Amounts     []string    `json:"amounts"`
	Collaterals []string    `json:"collaterals"`
	Deadlines   []time.Time `json:"deadlines"`
	Statuses    []int       `json:"statuses"`
	Count       uint64      `json:"count"`
}

// ListLoans is the bulk dashboard query: parallel arrays so the client
// can filter by status index without a join.
func (h *LoanHandler) ListLoans(c echo.Context) error {
	snap := h.ledger.AllLoans()
	dto := snapshotDTO{
		Borrowers:   snap.Borrowers,
		Amounts:     make([]string, 0, len(snap.Amounts)),
		Collaterals: make([]string, 0, len(snap.Collaterals)),
		Deadlines:   snap.Deadlines,
		Statuses:    make([]int, 0, len(snap.Statuses)),
		Count:       h.ledger.LoanCount(),
	}
	if dto.Borrowers == nil {
		dto.Borrowers = []string{}
	}
	if dto.Deadlines == nil {
		dto.Deadlines = []time.Time{}
	}
	for _, a := range snap.Amounts {
		dto.Amounts = append(dto.Amounts, a.String())
	}
	for _, col := range snap.Collaterals {
		dto.Collaterals = append(dto.Collaterals, col.String())
	}
	for _, s := range snap.Statuses {
		dto.Statuses = append(dto.Statuses, int(s))
	}
	return c.JSON(http.StatusOK, dto)
}

type repayReq struct {
	Payment string `json:"payment" validate:"required,money"`
}

func (h *LoanHandler) Repay(c echo.Context) error {
	caller, ok := actor(c, h.ledger.LenderID())
	if !ok {
		return missingActor(c)
	}
	id, err := loanIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan_id"})
	}
	var req repayReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	payment, _ := decimal.NewFromString(req.Payment)

	if err := h.ledger.Repay(caller, id, payment); err != nil {
		return domainError(c, err)
	}
	rec, err := h.ledger.Loan(id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, toLoanDTO(rec))
}
