package ledger

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/domain/event"
	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/domain/identity"
	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/domain/loan"
	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/policy"
	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/pkg/id"
)

// CustodyAccount is the book account holding the pool and all locked
// collateral. The ledger is its sole owner.
const CustodyAccount = "ledger"

// Transfers is the currency rail the ledger consumes. Attached value is
// debited from the caller atomically with the operation; payouts move
// from custody to the recipient.
type Transfers interface {
	Transfer(from, to string, amount decimal.Decimal) error
	Balance(account string) decimal.Decimal
}

type Config struct {
	// LenderID is the distinguished identity allowed to fund the pool,
	// approve loans and liquidate defaults.
	LenderID string
	Policy   *policy.Policy
	Book     Transfers
	Sink     event.Sink
	Logger   *slog.Logger
	// Now is the clock; defaults to time.Now in UTC.
	Now func() time.Time
}

// Ledger owns the loan registry, ID allocation and per-loan status. One
// mutex serializes every mutating operation, so each call runs
// to completion without interleaving; readers share the read lock and
// always see a consistent snapshot. Nothing outside the ledger writes a
// Loan record.
type Ledger struct {
	mu sync.RWMutex

	loans    []*loan.Loan
	approved map[uint64]bool
	// locked is the collateral held in custody for non-terminal loans.
	// It is reserved: disbursements may only spend custody beyond it.
	locked decimal.Decimal

	lenderID string
	policy   *policy.Policy
	book     Transfers
	sink     event.Sink
	log      *slog.Logger
	now      func() time.Time
}

func New(cfg Config) *Ledger {
	l := &Ledger{
		approved: make(map[uint64]bool),
		lenderID: cfg.LenderID,
		policy:   cfg.Policy,
		book:     cfg.Book,
		sink:     cfg.Sink,
		log:      cfg.Logger,
		now:      cfg.Now,
	}
	if l.policy == nil {
		l.policy = policy.Default()
	}
	if l.now == nil {
		l.now = func() time.Time { return time.Now().UTC() }
	}
	if l.log == nil {
		l.log = slog.Default()
	}
	return l
}

// Fund moves attached currency from the lender into the custody pool.
func (l *Ledger) Fund(caller identity.Actor, attached decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller.ID != l.lenderID {
		return fmt.Errorf("fund: %w", loan.ErrUnauthorized)
	}
	if !attached.IsPositive() {
		return fmt.Errorf("fund: %w", loan.ErrInvalidAmount)
	}
	if err := l.book.Transfer(caller.ID, CustodyAccount, attached); err != nil {
		return fmt.Errorf("fund: %w", err)
	}
	l.log.Info("pool funded", "lender", caller.ID, "amount", attached)
	return nil
}

// RequestLoan validates the request, takes custody of the attached
// collateral and creates a Pending loan. IDs are strictly increasing
// from 0 and never reused.
func (l *Ledger) RequestLoan(caller identity.Actor, amount decimal.Decimal, deadline time.Time, attachedCollateral decimal.Decimal) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !attachedCollateral.IsPositive() {
		return 0, fmt.Errorf("request loan: %w", loan.ErrMissingCollateral)
	}
	if !amount.IsPositive() {
		return 0, fmt.Errorf("request loan: %w", loan.ErrInvalidAmount)
	}
	now := l.now()
	if !deadline.After(now) {
		return 0, fmt.Errorf("request loan: %w", loan.ErrInvalidDeadline)
	}
	ok, err := l.policy.Sufficient(amount, attachedCollateral)
	if err != nil {
		return 0, fmt.Errorf("request loan: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("request loan: %w", loan.ErrInsufficientCollateral)
	}

	// All checks passed: take custody of the collateral, then create the
	// record. A failed debit leaves no trace of the request.
	if err := l.book.Transfer(caller.ID, CustodyAccount, attachedCollateral); err != nil {
		return 0, fmt.Errorf("request loan: lock collateral: %w", err)
	}

	l.locked = l.locked.Add(attachedCollateral)
	rec := &loan.Loan{
		ID:         uint64(len(l.loans)),
		Borrower:   caller.ID,
		Amount:     amount,
		Collateral: attachedCollateral,
		Deadline:   deadline.UTC(),
		Status:     loan.StatusPending,
		CreatedAt:  now,
	}
	l.loans = append(l.loans, rec)

	l.emit(event.Event{
		Type:       event.TypeCollateralLocked,
		LoanID:     rec.ID,
		Borrower:   rec.Borrower,
		Amount:     rec.Collateral,
		Collateral: rec.Collateral,
		Deadline:   rec.Deadline,
	})
	l.log.Info("loan requested", "loan_id", rec.ID, "borrower", rec.Borrower, "amount", amount, "collateral", attachedCollateral)
	return rec.ID, nil
}

// ApproveLoan transitions a Pending loan to Funded and pays the
// principal out of the pool. Approval is exactly-once: a second call
// fails the Pending guard.
func (l *Ledger) ApproveLoan(caller identity.Actor, loanID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller.ID != l.lenderID {
		return fmt.Errorf("approve loan %d: %w", loanID, loan.ErrUnauthorized)
	}
	rec, err := l.get(loanID)
	if err != nil {
		return fmt.Errorf("approve loan %d: %w", loanID, err)
	}
	if rec.Status != loan.StatusPending {
		return fmt.Errorf("approve loan %d: %w", loanID, loan.ErrLoanNotPending)
	}
	// Locked collateral is not lendable. Only the unencumbered part of
	// custody backs a disbursement, so every later release stays covered.
	if l.book.Balance(CustodyAccount).Sub(l.locked).LessThan(rec.Amount) {
		return fmt.Errorf("approve loan %d: %w", loanID, loan.ErrInsufficientLiquidity)
	}

	if err := l.book.Transfer(CustodyAccount, rec.Borrower, rec.Amount); err != nil {
		return fmt.Errorf("approve loan %d: disburse: %w", loanID, err)
	}
	rec.Status = loan.StatusFunded
	l.approved[loanID] = true

	l.emit(event.Event{
		Type:       event.TypeFunded,
		LoanID:     rec.ID,
		Borrower:   rec.Borrower,
		Amount:     rec.Amount,
		Collateral: rec.Collateral,
		Deadline:   rec.Deadline,
	})
	l.log.Info("loan funded", "loan_id", rec.ID, "borrower", rec.Borrower, "amount", rec.Amount)
	return nil
}

// Repay settles a Funded loan. A repayment landing strictly after the
// deadline owes the principal plus the policy's late fee (round down).
// The payment goes to the lender and the collateral returns to the
// borrower; both happen with the status change or not at all.
func (l *Ledger) Repay(caller identity.Actor, loanID uint64, attachedPayment decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, err := l.get(loanID)
	if err != nil {
		return fmt.Errorf("repay loan %d: %w", loanID, err)
	}
	if caller.ID != rec.Borrower {
		return fmt.Errorf("repay loan %d: %w", loanID, loan.ErrUnauthorized)
	}
	if rec.Status != loan.StatusFunded {
		return fmt.Errorf("repay loan %d: %w", loanID, loan.ErrLoanNotFunded)
	}

	now := l.now()
	late := now.After(rec.Deadline)
	due := l.policy.RepaymentDue(rec.Amount, late)
	if attachedPayment.LessThan(due) {
		return fmt.Errorf("repay loan %d: due %s: %w", loanID, due, loan.ErrInsufficientRepayment)
	}

	// Pull the payment into custody, forward it to the lender, then
	// release the collateral. Unwind on any transfer failure so a
	// rejected call mutates nothing.
	if err := l.book.Transfer(caller.ID, CustodyAccount, attachedPayment); err != nil {
		return fmt.Errorf("repay loan %d: attach payment: %w", loanID, err)
	}
	if err := l.book.Transfer(CustodyAccount, l.lenderID, attachedPayment); err != nil {
		l.refund(caller.ID, attachedPayment)
		return fmt.Errorf("repay loan %d: forward payment: %w", loanID, err)
	}
	if err := l.book.Transfer(CustodyAccount, rec.Borrower, rec.Collateral); err != nil {
		l.unwind(l.lenderID, caller.ID, attachedPayment)
		return fmt.Errorf("repay loan %d: release collateral: %w", loanID, err)
	}
	l.locked = l.locked.Sub(rec.Collateral)
	rec.Status = loan.StatusRepaid

	l.emit(event.Event{
		Type:       event.TypeRepaid,
		LoanID:     rec.ID,
		Borrower:   rec.Borrower,
		Amount:     attachedPayment,
		Collateral: rec.Collateral,
		Deadline:   rec.Deadline,
		Success:    true,
	})
	l.emit(event.Event{
		Type:       event.TypeCollateralReleased,
		LoanID:     rec.ID,
		Borrower:   rec.Borrower,
		Amount:     rec.Collateral,
		Collateral: rec.Collateral,
		Deadline:   rec.Deadline,
	})
	l.log.Info("loan repaid", "loan_id", rec.ID, "borrower", rec.Borrower, "paid", attachedPayment, "late", late)
	return nil
}

// Liquidate seizes the collateral of a Funded loan once its deadline
// has passed. Seizure before the deadline is rejected.
func (l *Ledger) Liquidate(caller identity.Actor, loanID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller.ID != l.lenderID {
		return fmt.Errorf("liquidate loan %d: %w", loanID, loan.ErrUnauthorized)
	}
	rec, err := l.get(loanID)
	if err != nil {
		return fmt.Errorf("liquidate loan %d: %w", loanID, err)
	}
	if rec.Status != loan.StatusFunded {
		return fmt.Errorf("liquidate loan %d: %w", loanID, loan.ErrLoanNotFunded)
	}
	if l.now().Before(rec.Deadline) {
		return fmt.Errorf("liquidate loan %d: %w", loanID, loan.ErrNotPastDue)
	}

	if err := l.book.Transfer(CustodyAccount, l.lenderID, rec.Collateral); err != nil {
		return fmt.Errorf("liquidate loan %d: seize collateral: %w", loanID, err)
	}
	l.locked = l.locked.Sub(rec.Collateral)
	rec.Status = loan.StatusDefaulted

	l.emit(event.Event{
		Type:       event.TypeCollateralLiquidated,
		LoanID:     rec.ID,
		Borrower:   rec.Borrower,
		Amount:     rec.Collateral,
		Collateral: rec.Collateral,
		Deadline:   rec.Deadline,
	})
	l.log.Info("loan liquidated", "loan_id", rec.ID, "borrower", rec.Borrower, "collateral", rec.Collateral)
	return nil
}

// get returns the live record; callers hold the lock.
func (l *Ledger) get(loanID uint64) (*loan.Loan, error) {
	if loanID >= uint64(len(l.loans)) {
		return nil, loan.ErrNotFound
	}
	return l.loans[loanID], nil
}

// refund best-effort returns attached value after a failed payout leg.
func (l *Ledger) refund(account string, amount decimal.Decimal) {
	if err := l.book.Transfer(CustodyAccount, account, amount); err != nil {
		l.log.Error("refund failed", "account", account, "amount", amount, "err", err)
	}
}

// unwind reverses an already-forwarded transfer so a failed operation
// leaves account balances where they started.
func (l *Ledger) unwind(from, to string, amount decimal.Decimal) {
	if err := l.book.Transfer(from, to, amount); err != nil {
		l.log.Error("unwind failed", "from", from, "to", to, "amount", amount, "err", err)
	}
}

func (l *Ledger) emit(e event.Event) {
	if l.sink == nil {
		return
	}
	e.ID = id.NewID32()
	e.At = l.now()
	l.sink.Publish(e)
}

// Loan returns a copy of the record; the live one never leaves the lock.
func (l *Ledger) Loan(loanID uint64) (loan.Loan, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, err := l.get(loanID)
	if err != nil {
		return loan.Loan{}, err
	}
	return *rec, nil
}

// Approval reports whether the loan has been approved. Set exactly once
// on the Pending -> Funded transition.
func (l *Ledger) Approval(loanID uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.approved[loanID]
}

// LoanDetails is the per-loan dashboard accessor.
func (l *Ledger) LoanDetails(loanID uint64) (borrower string, amount decimal.Decimal, deadline time.Time, collateral decimal.Decimal, status loan.Status, err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, err := l.get(loanID)
	if err != nil {
		return "", decimal.Zero, time.Time{}, decimal.Zero, 0, err
	}
	return rec.Borrower, rec.Amount, rec.Deadline, rec.Collateral, rec.Status, nil
}

// AllLoans returns the bulk dashboard snapshot as parallel arrays.
func (l *Ledger) AllLoans() loan.Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s := loan.Snapshot{
		Borrowers:   make([]string, 0, len(l.loans)),
		Amounts:     make([]decimal.Decimal, 0, len(l.loans)),
		Collaterals: make([]decimal.Decimal, 0, len(l.loans)),
		Deadlines:   make([]time.Time, 0, len(l.loans)),
		Statuses:    make([]loan.Status, 0, len(l.loans)),
	}
	for _, rec := range l.loans {
		s.Borrowers = append(s.Borrowers, rec.Borrower)
		s.Amounts = append(s.Amounts, rec.Amount)
		s.Collaterals = append(s.Collaterals, rec.Collateral)
		s.Deadlines = append(s.Deadlines, rec.Deadline)
		s.Statuses = append(s.Statuses, rec.Status)
	}
	return s
}

// LoanCount is the number of loans ever created, terminal ones included.
func (l *Ledger) LoanCount() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.loans))
}

// Available is the custody balance: the pool plus locked collateral.
func (l *Ledger) Available() decimal.Decimal {
	return l.book.Balance(CustodyAccount)
}

// LenderID exposes the configured lender identity for role resolution at
// the transport edge.
func (l *Ledger) LenderID() string { return l.lenderID }
