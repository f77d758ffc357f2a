// Package money implements the marketplace's exact-decimal currency value
// object. All monetary math in the checkout, payment and settlement
// pipelines flows through this type so that totals never drift through
// float64 rounding.
package money

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrCurrencyMismatch is returned by any binary operation mixing currencies.
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	// ErrNegativeResult is returned when a subtraction would go below zero.
	ErrNegativeResult = errors.New("money: result would be negative")
	// ErrNegativeFactor is returned when Multiply is called with a negative factor.
	ErrNegativeFactor = errors.New("money: factor must be non-negative")
)

// Money is an (amount, currency) pair. Amount is always >= 0; negative
// balances are not representable, matching the Order/OrderItem domain
// where every line is a charge, never a credit.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// Zero returns the additive identity for a currency.
func Zero(currency string) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// New builds a Money from a decimal string, e.g. "29.99".
func New(amount string, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("money: invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return Money{}, fmt.Errorf("money: amount %q must be >= 0", amount)
	}
	return Money{amount: d, currency: currency}, nil
}

// FromFloat builds a Money from a float64, rounded to 2 decimal places.
// Only used at the boundary where external systems hand us a float; all
// internal arithmetic stays in decimal.
func FromFloat(amount float64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, fmt.Errorf("money: amount %v must be >= 0", amount)
	}
	return Money{amount: decimal.NewFromFloat(amount).Round(2), currency: currency}, nil
}

// MustNew panics on error; reserved for literal constants in tests.
func MustNew(amount string, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }

// Add requires equal currency.
func (m Money) Add(o Money) (Money, error) {
	if m.currency != o.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount.Add(o.amount), currency: m.currency}, nil
}

// Subtract requires equal currency and a non-negative result.
func (m Money) Subtract(o Money) (Money, error) {
	if m.currency != o.currency {
		return Money{}, ErrCurrencyMismatch
	}
	r := m.amount.Sub(o.amount)
	if r.IsNegative() {
		return Money{}, ErrNegativeResult
	}
	return Money{amount: r, currency: m.currency}, nil
}

// Multiply scales the amount by a non-negative integer quantity.
func (m Money) Multiply(n int) (Money, error) {
	if n < 0 {
		return Money{}, ErrNegativeFactor
	}
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(n))), currency: m.currency}, nil
}

// MultiplyPercent scales by a percentage (0-100) using banker's rounding
// (round-half-to-even) at 2 decimal places, matching spec's platform-fee
// computation.
func (m Money) MultiplyPercent(pct decimal.Decimal) Money {
	factor := pct.Div(decimal.NewFromInt(100))
	return Money{amount: m.amount.Mul(factor).RoundBank(2), currency: m.currency}
}

// Equal is structural equality: same amount, same currency.
func (m Money) Equal(o Money) bool {
	return m.currency == o.currency && m.amount.Equal(o.amount)
}

// Compare requires equal currency and returns ErrCurrencyMismatch
// otherwise; SameCurrency checks this up front when comparing money from
// independent sources.
func (m Money) Compare(o Money) (int, error) {
	if m.currency != o.currency {
		return 0, ErrCurrencyMismatch
	}
	return m.amount.Cmp(o.amount), nil
}

func (m Money) SameCurrency(o Money) bool { return m.currency == o.currency }

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.StringFixed(2), Currency: m.currency})
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var mj moneyJSON
	if err := json.Unmarshal(b, &mj); err != nil {
		return err
	}
	d, err := decimal.NewFromString(mj.Amount)
	if err != nil {
		return fmt.Errorf("money: invalid amount %q: %w", mj.Amount, err)
	}
	if d.IsNegative() {
		return fmt.Errorf("money: amount %q must be >= 0", mj.Amount)
	}
	m.amount = d
	m.currency = mj.Currency
	return nil
}

// Sum adds a sequence of Money values, all of which must share currency.
// Returns Zero(currency) for an empty input.
func Sum(currency string, items ...Money) (Money, error) {
	total := Zero(currency)
	for _, it := range items {
		var err error
		total, err = total.Add(it)
		if err != nil {
			return Money{}, err
		}
	}
	return total, nil
}
