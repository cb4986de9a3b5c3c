package core

import "github.com/shopspring/decimal"

type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// MonthOverview aggregates one calendar month of a user's activity for the
// insights widgets.
type MonthOverview struct {
	Year       int
	Month      int
	Income     decimal.Decimal
	Expenses   decimal.Decimal
	ByCategory []CategoryAmount
}
