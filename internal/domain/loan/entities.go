package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status follows the numeric encoding the dashboards consume:
// Pending(0) -> Funded(1) -> Repaid(2) | Defaulted(3). Repaid and
// Defaulted are terminal; there are no other edges.
type Status int

const (
	StatusPending Status = iota
	StatusFunded
	StatusRepaid
	StatusDefaulted
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFunded:
		return "funded"
	case StatusRepaid:
		return "repaid"
	case StatusDefaulted:
		return "defaulted"
	}
	return "unknown"
}

// Terminal reports whether no further transition may fire from s.
func (s Status) Terminal() bool { return s == StatusRepaid || s == StatusDefaulted }

// Loan is a single record in the ledger's registry. Borrower, Amount,
// Collateral and Deadline are immutable after creation; only Status is
// mutated, and only by the ledger's transition operations.
type Loan struct {
	ID         uint64
	Borrower   string
	Amount     decimal.Decimal
	Collateral decimal.Decimal
	Deadline   time.Time
	Status     Status
	CreatedAt  time.Time
}

// Snapshot is the bulk-query row: parallel arrays keyed by position,
// consumed by the dashboard to filter loans by status.
type Snapshot struct {
	Borrowers   []string
	Amounts     []decimal.Decimal
	Collaterals []decimal.Decimal
	Deadlines   []time.Time
	Statuses    []Status
}
