package treasury

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("transfer amount must be positive")
)

// Book is an in-memory account book: one decimal balance per identity.
// It is the currency-transfer mechanism the ledger consumes; a deployment
// backed by a real payment rail implements the same two calls.
type Book struct {
	mu       sync.RWMutex
	balances map[string]decimal.Decimal
}

func NewBook() *Book {
	return &Book{balances: make(map[string]decimal.Decimal)}
}

// Mint credits an account out of thin air. Test and bootstrap helper:
// production deployments fund accounts through their payment rail.
func (b *Book) Mint(account string, amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] = b.balances[account].Add(amount)
}

// Transfer moves amount from one account to another. Debit and credit
// apply together or not at all.
func (b *Book) Transfer(from, to string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	bal := b.balances[from]
	if bal.LessThan(amount) {
		return ErrInsufficientFunds
	}
	b.balances[from] = bal.Sub(amount)
	b.balances[to] = b.balances[to].Add(amount)
	return nil
}

func (b *Book) Balance(account string) decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balances[account]
}
