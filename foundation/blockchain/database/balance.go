package database

import (
	"fmt"
	"math"
)

// BalanceDelta represents a signed net effect on an account balance. The
// sign is carried as a tag next to an unsigned magnitude so the full uint64
// range is available in both directions. The zero value is Pos(0).
type BalanceDelta struct {
	Amount   uint64
	Negative bool
}

// Pos constructs a positive delta.
func Pos(amount uint64) BalanceDelta {
	return BalanceDelta{Amount: amount}
}

// Neg constructs a negative delta.
func Neg(amount uint64) BalanceDelta {
	return BalanceDelta{Amount: amount, Negative: true}
}

// Add returns the sum of both deltas. Opposite signs cancel, same signs
// add magnitudes and saturate at math.MaxUint64.
func (bd BalanceDelta) Add(other BalanceDelta) BalanceDelta {
	if bd.Negative == other.Negative {
		sum := bd.Amount + other.Amount
		if sum < bd.Amount {
			sum = math.MaxUint64
		}
		return BalanceDelta{Amount: sum, Negative: bd.Negative}
	}

	pos, neg := bd, other
	if bd.Negative {
		pos, neg = other, bd
	}

	if pos.Amount > neg.Amount {
		return Pos(pos.Amount - neg.Amount)
	}
	return Neg(neg.Amount - pos.Amount)
}

// IsPositiveOrNil is the solvency predicate: true for any Pos value and
// for Neg(0).
func (bd BalanceDelta) IsPositiveOrNil() bool {
	return !bd.Negative || bd.Amount == 0
}

// Uint64 returns the delta as an account balance. The second return is
// false when the delta is strictly negative.
func (bd BalanceDelta) Uint64() (uint64, bool) {
	if !bd.IsPositiveOrNil() {
		return 0, false
	}
	return bd.Amount, true
}

// Equal compares two deltas treating Pos(0) and Neg(0) as the same value.
func (bd BalanceDelta) Equal(other BalanceDelta) bool {
	if bd.Amount == 0 && other.Amount == 0 {
		return true
	}
	return bd == other
}

// String implements the fmt.Stringer interface.
func (bd BalanceDelta) String() string {
	if bd.Negative {
		return fmt.Sprintf("Neg(%d)", bd.Amount)
	}
	return fmt.Sprintf("Pos(%d)", bd.Amount)
}
