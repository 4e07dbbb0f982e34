package policy

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidArgument = errors.New("invalid argument")

// scale is the smallest currency unit the policy rounds to: 18 fractional
// digits, matching the decimal(36,18) columns of the event journal.
const scale = 18

var hundred = decimal.NewFromInt(100)

// Policy is the pure collateral and interest arithmetic the ledger
// consults. It holds configuration only; every method is deterministic
// given the same inputs and performs no side effects.
type Policy struct {
	// RiskPercent is the over-collateralization ratio: a loan of X
	// requires collateral of at least X * RiskPercent / 100.
	RiskPercent int64
	// LateFeePercent is charged on the principal when repayment lands
	// strictly after the deadline.
	LateFeePercent int64
	// Threshold is a configured minimum acceptable collateral value,
	// used as a comparison baseline, not as the sizing formula.
	Threshold decimal.Decimal
}

// Default mirrors the reference deployment: 150% collateralization,
// 10% late fee, threshold of 100 currency units.
func Default() *Policy {
	return &Policy{
		RiskPercent:    150,
		LateFeePercent: 10,
		Threshold:      decimal.NewFromInt(100),
	}
}

// CalculateCollateral returns amount * riskPercent / 100, truncated
// (rounded down) at the currency scale. Negative inputs are rejected.
func CalculateCollateral(amount decimal.Decimal, riskPercent int64) (decimal.Decimal, error) {
	if amount.IsNegative() || riskPercent < 0 {
		return decimal.Zero, ErrInvalidArgument
	}
	return amount.Mul(decimal.NewFromInt(riskPercent)).Div(hundred).Truncate(scale), nil
}

// RequiredCollateral applies the policy's configured ratio.
func (p *Policy) RequiredCollateral(amount decimal.Decimal) (decimal.Decimal, error) {
	return CalculateCollateral(amount, p.RiskPercent)
}

// Sufficient reports whether the attached collateral covers the required
// collateral for the requested amount.
func (p *Policy) Sufficient(amount, collateral decimal.Decimal) (bool, error) {
	required, err := p.RequiredCollateral(amount)
	if err != nil {
		return false, err
	}
	return collateral.GreaterThanOrEqual(required), nil
}

// MeetsThreshold compares a collateral value against the configured
// baseline.
func (p *Policy) MeetsThreshold(collateral decimal.Decimal) bool {
	return collateral.GreaterThanOrEqual(p.Threshold)
}

// LateFee returns principal * LateFeePercent / 100, rounded down.
func (p *Policy) LateFee(principal decimal.Decimal) decimal.Decimal {
	return principal.Mul(decimal.NewFromInt(p.LateFeePercent)).Div(hundred).Truncate(scale)
}

// RepaymentDue is the amount a borrower must attach to settle: the
// principal, plus the late fee when the repayment is late.
func (p *Policy) RepaymentDue(principal decimal.Decimal, late bool) decimal.Decimal {
	if late {
		return principal.Add(p.LateFee(principal))
	}
	return principal
}
