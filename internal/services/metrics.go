package services

import (
	"fmt"
	"math"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/models"
)

// BudgetMetrics holds derived spending figures for a single budget.
type BudgetMetrics struct {
	Spent           int64
	Remaining       int64
	UsagePercentage float64
}

// ComputeBudgetMetrics derives spent/remaining/usage figures from a budget's
// total allocation and its expense sum. Remaining may go negative; that is a
// displayable state, not an error. Usage is 0.0 when the allocation is not
// positive, guarding the division.
func ComputeBudgetMetrics(totalAmount, spent int64) BudgetMetrics {
	m := BudgetMetrics{
		Spent:     spent,
		Remaining: totalAmount - spent,
	}
	if totalAmount > 0 {
		m.UsagePercentage = percentOf(spent, totalAmount)
	}
	return m
}

// CheckExpenseAllowed verifies that adding a new expense would not push the
// budget past its ceiling. Spending exactly up to the ceiling is allowed.
// Callers must run this check and the subsequent insert inside a single
// database transaction so concurrent writers cannot both pass on a stale
// spent total.
func CheckExpenseAllowed(budget *models.Budget, currentSpent, newExpenseAmount int64) error {
	projected := currentSpent + newExpenseAmount
	if projected > budget.TotalAmount {
		return apperrors.WithMessage(apperrors.ErrBudgetExceeded,
			fmt.Sprintf("This expense exceeds the budget '%s'. Spent: %d / %d",
				budget.Name, projected, budget.TotalAmount))
	}
	return nil
}

// percentOf returns part/whole*100 rounded half-up to two decimal places.
func percentOf(part, whole int64) float64 {
	return roundHalfUp(float64(part) / float64(whole) * 100)
}

// roundHalfUp rounds to two decimal places, ties away from zero.
func roundHalfUp(x float64) float64 {
	if x < 0 {
		return -math.Floor(-x*100+0.5) / 100
	}
	return math.Floor(x*100+0.5) / 100
}

// divRoundHalfUp divides a non-negative amount in minor units by n,
// rounding half-up to the nearest unit.
func divRoundHalfUp(amount, n int64) int64 {
	q := amount / n
	if 2*(amount%n) >= n {
		q++
	}
	return q
}
