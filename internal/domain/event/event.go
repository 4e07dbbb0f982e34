package event

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Type string

const (
	TypeCollateralLocked     Type = "collateral_locked"
	TypeFunded               Type = "funded"
	TypeRepaid               Type = "repaid"
	TypeCollateralReleased   Type = "collateral_released"
	TypeCollateralLiquidated Type = "collateral_liquidated"
)

// Event is a lifecycle notification emitted by the ledger inside its
// critical section, so a sink observes events in commit order.
type Event struct {
	ID       string
	Type     Type
	LoanID   uint64
	Borrower string
	// Amount carries the principal for Funded, the payment for Repaid,
	// and the collateral value for the collateral events.
	Amount     decimal.Decimal
	Collateral decimal.Decimal
	Deadline   time.Time
	Success    bool
	At         time.Time
}

// Sink consumes ledger events. Publish must not block for long: it runs
// under the ledger's lock.
type Sink interface {
	Publish(e Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(e Event)

func (f SinkFunc) Publish(e Event) { f(e) }

// Record is the persisted shape of an Event, the dashboard read model.
type Record struct {
	ID         uint64          `gorm:"primaryKey;column:id"`
	EventID    string          `gorm:"size:32;column:event_id;uniqueIndex:ux_loan_events_event_id"`
	Type       string          `gorm:"size:32;column:type;index:idx_loan_events_type"`
	LoanID     uint64          `gorm:"column:loan_id;index:idx_loan_events_loan"`
	Borrower   string          `gorm:"size:64;column:borrower;index:idx_loan_events_borrower"`
	Amount     decimal.Decimal `gorm:"type:decimal(36,18);column:amount"`
	Collateral decimal.Decimal `gorm:"type:decimal(36,18);column:collateral"`
	Deadline   time.Time       `gorm:"column:deadline"`
	Success    bool            `gorm:"column:success"`
	EmittedAt  time.Time       `gorm:"column:emitted_at"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	DeletedAt  gorm.DeletedAt  `gorm:"column:deleted_at;index"`
}

func (Record) TableName() string { return "loan_events" }

// ToRecord maps an emitted event onto its persisted row.
func ToRecord(e Event) *Record {
	return &Record{
		EventID:    e.ID,
		Type:       string(e.Type),
		LoanID:     e.LoanID,
		Borrower:   e.Borrower,
		Amount:     e.Amount,
		Collateral: e.Collateral,
		Deadline:   e.Deadline,
		Success:    e.Success,
		EmittedAt:  e.At,
	}
}

// Repository persists the event journal.
type Repository interface {
	Create(ctx context.Context, r *Record) error
	ListByLoanID(ctx context.Context, loanID uint64) ([]Record, error)
	ListRecent(ctx context.Context, limit int) ([]Record, error)
}
