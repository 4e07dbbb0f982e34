package policy

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalculateCollateral(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		risk    int64
		want    string
		wantErr error
	}{
		{name: "reference case 100 at 150%", amount: "100", risk: 150, want: "150"},
		{name: "small principal", amount: "2", risk: 150, want: "3"},
		{name: "zero amount", amount: "0", risk: 150, want: "0"},
		{name: "zero risk", amount: "100", risk: 0, want: "0"},
		{name: "fractional result", amount: "3", risk: 50, want: "1.5"},
		{name: "negative amount", amount: "-1", risk: 150, wantErr: ErrInvalidArgument},
		{name: "negative risk", amount: "1", risk: -10, wantErr: ErrInvalidArgument},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CalculateCollateral(dec(tc.amount), tc.risk)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CalculateCollateral: %v", err)
			}
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("collateral = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestCalculateCollateral_Deterministic(t *testing.T) {
	a, err := CalculateCollateral(dec("123456.789"), 137)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	b, err := CalculateCollateral(dec("123456.789"), 137)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !a.Equal(b) {
		t.Fatalf("non-deterministic: %s vs %s", a, b)
	}
}

func TestMeetsThreshold_ReferenceRegression(t *testing.T) {
	p := Default()

	// The collateral computed for (100, 150) must clear the configured
	// threshold baseline.
	c, err := CalculateCollateral(dec("100"), 150)
	if err != nil {
		t.Fatalf("CalculateCollateral: %v", err)
	}
	if !p.MeetsThreshold(c) {
		t.Fatalf("collateral %s below threshold %s", c, p.Threshold)
	}
}

func TestSufficient(t *testing.T) {
	p := Default() // 150%

	ok, err := p.Sufficient(dec("2"), dec("4"))
	if err != nil || !ok {
		t.Fatalf("Sufficient(2, 4) = %v, %v; want true", ok, err)
	}
	ok, err = p.Sufficient(dec("2"), dec("2.99"))
	if err != nil || ok {
		t.Fatalf("Sufficient(2, 2.99) = %v, %v; want false", ok, err)
	}
}

func TestRepaymentDue(t *testing.T) {
	p := Default() // 10% late fee

	if got := p.RepaymentDue(dec("2"), false); !got.Equal(dec("2")) {
		t.Fatalf("on-time due = %s, want 2", got)
	}
	if got := p.RepaymentDue(dec("2"), true); !got.Equal(dec("2.2")) {
		t.Fatalf("late due = %s, want 2.2", got)
	}
	// Late fee rounds down at the 18th fractional digit.
	if got := p.LateFee(dec("0.000000000000000015")); !got.Equal(dec("0.000000000000000001")) {
		t.Fatalf("late fee = %s, want 0.000000000000000001", got)
	}
}
