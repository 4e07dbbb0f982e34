package treasury

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransfer(t *testing.T) {
	b := NewBook()
	b.Mint("alice", decimal.NewFromInt(10))

	if err := b.Transfer("alice", "bob", decimal.NewFromInt(4)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if got := b.Balance("alice"); !got.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("alice = %s, want 6", got)
	}
	if got := b.Balance("bob"); !got.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("bob = %s, want 4", got)
	}
}

func TestTransfer_Insufficient(t *testing.T) {
	b := NewBook()
	b.Mint("alice", decimal.NewFromInt(1))

	err := b.Transfer("alice", "bob", decimal.NewFromInt(2))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	// Neither side moved.
	if got := b.Balance("alice"); !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("alice = %s, want 1", got)
	}
	if !b.Balance("bob").IsZero() {
		t.Fatalf("bob = %s, want 0", b.Balance("bob"))
	}
}

func TestTransfer_RejectsNonPositive(t *testing.T) {
	b := NewBook()
	b.Mint("alice", decimal.NewFromInt(5))

	for _, amt := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-1)} {
		if err := b.Transfer("alice", "bob", amt); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("Transfer(%s) err = %v, want ErrInvalidAmount", amt, err)
		}
	}
}

func TestTransfer_Concurrent(t *testing.T) {
	b := NewBook()
	b.Mint("pool", decimal.NewFromInt(100))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Transfer("pool", "out", decimal.NewFromInt(1))
		}()
	}
	wg.Wait()

	if !b.Balance("pool").IsZero() {
		t.Fatalf("pool = %s, want 0", b.Balance("pool"))
	}
	if got := b.Balance("out"); !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("out = %s, want 100", got)
	}
}
