// Package advice derives one behavioral insight from a newly recorded expense.
//
// The generator is a pure function over the transaction, a bounded window of
// recent expenses, and the user's active goals. Rules are evaluated in a fixed
// priority order and the first match wins; several rules can be true at once,
// so the ordering is part of the contract. A default rule guarantees that an
// advice is always produced.
package advice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

const defaultText = "Every purchase is a choice toward your financial goals. " +
	"You're building great money awareness by tracking your spending!"

var (
	homeBrewCost = decimal.NewFromInt(3)
	hundred      = decimal.NewFromInt(100)
	thirty       = decimal.NewFromInt(30)
)

// Generator produces spending advice. The zero value is ready to use.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate returns exactly one advice for the given expense transaction.
//
// recent is the most-recent-first window of the user's past expense
// transactions (at most the window size the caller queries, conventionally
// 20); it is the only denominator source for the share and monthly-sum rules.
// Only the first goal in goals is consulted. now anchors the calendar-month
// sum. Malformed inputs default to zero rather than failing: advice
// generation never errors.
func (g *Generator) Generate(tx core.Transaction, recent []core.RecentTransaction, goals []core.Goal, now time.Time) core.Advice {
	amount := tx.Amount
	category := tx.Category

	var categorySpending, totalSpending decimal.Decimal
	for _, t := range recent {
		totalSpending = totalSpending.Add(t.Amount)
		if t.Category == category {
			categorySpending = categorySpending.Add(t.Amount)
		}
	}

	var categoryShare decimal.Decimal
	if totalSpending.IsPositive() {
		categoryShare = categorySpending.Div(totalSpending).Mul(hundred)
	}

	var monthlySpending decimal.Decimal
	for _, t := range recent {
		if t.Date.Year() == now.Year() && t.Date.Month() == now.Month() {
			monthlySpending = monthlySpending.Add(t.Amount)
		}
	}

	advice := func(kind core.AdviceType, text string) core.Advice {
		return core.Advice{
			UserID:        tx.UserID,
			TransactionID: tx.ID,
			Type:          kind,
			Text:          text,
		}
	}

	// Rule 1: pricey coffee.
	if category == core.CategoryCoffee && amount.GreaterThan(decimal.NewFromInt(5)) {
		perCup := amount.Sub(homeBrewCost)
		monthly := perCup.Mul(decimal.NewFromInt(20))
		return advice(core.BadHabit, fmt.Sprintf(
			"That's a pricey coffee! Consider brewing at home to save $%s per cup. You could save over $%s monthly.",
			perCup.StringFixed(2), monthly.StringFixed(0)))
	}

	// Rule 2: dining out dominating the window. Threshold is strict.
	if category == core.CategoryFoodDining && categoryShare.GreaterThan(thirty) {
		return advice(core.BadHabit, fmt.Sprintf(
			"Dining out represents %s%% of your spending. Try meal prepping to reduce this category and boost your savings.",
			categoryShare.StringFixed(0)))
	}

	// Rule 3: expensive subscription.
	if category == core.CategorySubscriptions && amount.GreaterThan(decimal.NewFromInt(15)) {
		return advice(core.Suggestion,
			"Review your subscriptions regularly. Cancel unused services and consider sharing family plans to reduce monthly costs.")
	}

	// Rule 4: modest grocery run.
	if category == core.CategoryGroceries && amount.LessThan(decimal.NewFromInt(50)) {
		return advice(core.GoodHabit,
			"Great job keeping grocery costs reasonable! Planning meals and shopping with a list helps maintain this good habit.")
	}

	// Rule 5: pricey ride.
	if category == core.CategoryTransportation && amount.GreaterThan(decimal.NewFromInt(50)) {
		return advice(core.Suggestion,
			"Consider carpooling, public transit, or biking for shorter trips to reduce transportation costs.")
	}

	// Rule 6: entertainment share of the window.
	if category == core.CategoryEntertainment && categoryShare.GreaterThan(decimal.NewFromInt(15)) {
		return advice(core.Suggestion,
			"Look for free entertainment options like parks, free museums, or community events to balance your entertainment budget.")
	}

	// Rule 7: well-managed utilities.
	if category == core.CategoryBillsUtilities && amount.LessThan(hundred) {
		return advice(core.GoodHabit,
			"Your utility costs are well-managed! Energy-efficient habits are paying off and helping your budget.")
	}

	// Rule 8: large purchase weighed against the first active goal. A goal
	// already at or past its target yields no day count; skip instead of
	// dividing by zero.
	if amount.GreaterThan(hundred) && len(goals) > 0 {
		goal := goals[0]
		daysToSave := goal.TargetAmount.Sub(goal.CurrentAmount).Div(thirty).Ceil()
		if daysToSave.IsPositive() {
			days := amount.Div(daysToSave).Floor()
			return advice(core.Suggestion, fmt.Sprintf(
				"This purchase could fund %s days toward your %q goal. Consider if it aligns with your priorities.",
				days.String(), goal.Title))
		}
	}

	// Rule 9: heavy calendar-month total within the window.
	if monthlySpending.GreaterThan(decimal.NewFromInt(1000)) {
		return advice(core.BadHabit, fmt.Sprintf(
			"Your monthly spending is quite high at $%s. Review your largest expense categories for potential savings.",
			monthlySpending.StringFixed(0)))
	}

	// Rule 10: default encouragement.
	return advice(core.GoodHabit, defaultText)
}
