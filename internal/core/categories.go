package core

import "strings"

// Expense categories.
const (
	CategoryTransportation = "Transportation"
	CategoryCoffee         = "Coffee"
	CategoryFoodDining     = "Food & Dining"
	CategoryGroceries      = "Groceries"
	CategoryGas            = "Gas"
	CategoryEntertainment  = "Entertainment"
	CategoryHealthcare     = "Healthcare"
	CategoryBillsUtilities = "Bills & Utilities"
	CategoryShopping       = "Shopping"
	CategorySubscriptions  = "Subscriptions"
	CategoryOther          = "Other"
)

// Income categories.
const (
	CategorySalary      = "Salary"
	CategoryFreelance   = "Freelance"
	CategoryInvestment  = "Investment"
	CategoryRefund      = "Refund"
	CategoryOtherIncome = "Other Income"
)

type keywordRule struct {
	keywords []string
	category string
}

// Rule order is a behavioral contract: the first rule with a matching keyword
// wins, so e.g. "atm cash at a supermarket" categorizes as Other, not Groceries.
var expenseKeywordRules = []keywordRule{
	{[]string{"atm", "cash"}, CategoryOther},
	{[]string{"uber", "ola", "taxi", "metro"}, CategoryTransportation},
	{[]string{"starbucks", "cafe", "coffee"}, CategoryCoffee},
	{[]string{"restaurant", "hotel", "food", "zomato", "swiggy"}, CategoryFoodDining},
	{[]string{"grocery", "supermarket", "mart"}, CategoryGroceries},
	{[]string{"petrol", "gas", "fuel"}, CategoryGas},
	{[]string{"movie", "cinema", "entertainment"}, CategoryEntertainment},
	{[]string{"medical", "hospital", "pharmacy"}, CategoryHealthcare},
	{[]string{"electricity", "water", "bill"}, CategoryBillsUtilities},
	{[]string{"amazon", "flipkart", "shopping"}, CategoryShopping},
	{[]string{"netflix", "spotify", "subscription"}, CategorySubscriptions},
}

var incomeKeywordRules = []keywordRule{
	{[]string{"salary", "payroll"}, CategorySalary},
	{[]string{"freelance", "contract"}, CategoryFreelance},
	{[]string{"dividend", "interest"}, CategoryInvestment},
	{[]string{"refund", "return"}, CategoryRefund},
}

var expenseCategories = map[string]bool{
	CategoryTransportation: true,
	CategoryCoffee:         true,
	CategoryFoodDining:     true,
	CategoryGroceries:      true,
	CategoryGas:            true,
	CategoryEntertainment:  true,
	CategoryHealthcare:     true,
	CategoryBillsUtilities: true,
	CategoryShopping:       true,
	CategorySubscriptions:  true,
	CategoryOther:          true,
}

var incomeCategories = map[string]bool{
	CategorySalary:      true,
	CategoryFreelance:   true,
	CategoryInvestment:  true,
	CategoryRefund:      true,
	CategoryOtherIncome: true,
}

// Categorize maps free text plus an extracted merchant onto the closed
// category set for the given transaction type. Unrecognized content falls
// back to Other / Other Income.
func Categorize(text, merchant string, txType TransactionType) string {
	haystack := strings.ToLower(text + " " + merchant)

	rules := expenseKeywordRules
	fallback := CategoryOther
	if txType == Income {
		rules = incomeKeywordRules
		fallback = CategoryOtherIncome
	}

	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				return rule.category
			}
		}
	}
	return fallback
}

// ValidCategory reports whether name belongs to the closed category set for
// the given transaction type.
func ValidCategory(name string, txType TransactionType) bool {
	if txType == Income {
		return incomeCategories[name]
	}
	return expenseCategories[name]
}

// ExpenseCategories returns the closed expense category set in rule order.
func ExpenseCategories() []string {
	out := make([]string, 0, len(expenseKeywordRules)+1)
	seen := map[string]bool{}
	for _, r := range expenseKeywordRules {
		if !seen[r.category] {
			out = append(out, r.category)
			seen[r.category] = true
		}
	}
	if !seen[CategoryOther] {
		out = append(out, CategoryOther)
	}
	return out
}

// IncomeCategories returns the closed income category set in rule order.
func IncomeCategories() []string {
	out := make([]string, 0, len(incomeKeywordRules)+1)
	for _, r := range incomeKeywordRules {
		out = append(out, r.category)
	}
	return append(out, CategoryOtherIncome)
}
