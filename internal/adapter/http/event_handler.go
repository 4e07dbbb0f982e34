package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/domain/event"
)

// EventHandler serves the persisted event journal to dashboards.
type EventHandler struct{ repo event.Repository }

func NewEventHandler(repo event.Repository) *EventHandler { return &EventHandler{repo: repo} }

type eventDTO struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	LoanID     uint64    `json:"loan_id"`
	Borrower   string    `json:"borrower"`
	Amount     string    `json:"amount"`
	Collateral string    `json:"collateral"`
	Deadline   time.Time `json:"deadline"`
	Success    bool      `json:"success"`
	EmittedAt  time.Time `json:"emitted_at"`
}

func toEventDTOs(records []event.Record) []eventDTO {
	out := make([]eventDTO, 0, len(records))
	for _, r := range records {
		out = append(out, eventDTO{
			EventID:    r.EventID,
			Type:       r.Type,
			LoanID:     r.LoanID,
			Borrower:   r.Borrower,
			Amount:     r.Amount.String(),
			Collateral: r.Collateral.String(),
			Deadline:   r.Deadline,
			Success:    r.Success,
			EmittedAt:  r.EmittedAt,
		})
	}
	return out
}

func (h *EventHandler) ListLoanEvents(c echo.Context) error {
	id, err := loanIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan_id"})
	}
	records, err := h.repo.ListByLoanID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "journal unavailable"})
	}
	return c.JSON(http.StatusOK, toEventDTOs(records))
}

// maxRecentEvents caps a single journal page; larger requests are
// clamped, never scanned in full.
const maxRecentEvents = 200

func (h *EventHandler) ListRecentEvents(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		if n > maxRecentEvents {
			n = maxRecentEvents
		}
		limit = n
	}
	records, err := h.repo.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "journal unavailable"})
	}
	return c.JSON(http.StatusOK, toEventDTOs(records))
}
