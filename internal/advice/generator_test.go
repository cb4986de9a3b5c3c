package advice

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

var testNow = time.Date(2024, 12, 20, 9, 0, 0, 0, time.UTC)

func expense(category, amount string) core.Transaction {
	return core.Transaction{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Amount:   decimal.RequireFromString(amount),
		Type:     core.Expense,
		Category: category,
	}
}

func recent(category, amount string, date time.Time) core.RecentTransaction {
	return core.RecentTransaction{
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Type:     core.Expense,
		Date:     date,
	}
}

func goal(title, target, current string) core.Goal {
	return core.Goal{
		ID:            uuid.New(),
		Title:         title,
		TargetAmount:  decimal.RequireFromString(target),
		CurrentAmount: decimal.RequireFromString(current),
		Active:        true,
	}
}

func TestGenerator_CoffeeRuleWinsOverGoalRule(t *testing.T) {
	// Coffee above the threshold satisfies rule 1; the amount also exceeds
	// 100 and a goal exists, so rule 8 would fire too. Rule 1 must win.
	g := NewGenerator()
	tx := expense(core.CategoryCoffee, "150")
	goals := []core.Goal{goal("Vacation", "900", "0")}

	got := g.Generate(tx, nil, goals, testNow)

	if got.Type != core.BadHabit {
		t.Fatalf("Type = %s, want bad_habit (coffee rule outranks goal rule)", got.Type)
	}
	if !strings.Contains(got.Text, "pricey coffee") {
		t.Errorf("Text = %q, want coffee advice", got.Text)
	}
}

func TestGenerator_CoffeeSavingsMath(t *testing.T) {
	g := NewGenerator()

	got := g.Generate(expense(core.CategoryCoffee, "6"), nil, nil, testNow)

	if got.Type != core.BadHabit {
		t.Fatalf("Type = %s, want bad_habit", got.Type)
	}
	// (6-3) per cup, (6-3)*20 per month.
	if !strings.Contains(got.Text, "$3.00 per cup") {
		t.Errorf("Text = %q, want $3.00 per cup", got.Text)
	}
	if !strings.Contains(got.Text, "$60 monthly") {
		t.Errorf("Text = %q, want $60 monthly", got.Text)
	}
}

func TestGenerator_DiningShareThresholdIsStrict(t *testing.T) {
	g := NewGenerator()
	tx := expense(core.CategoryFoodDining, "10")
	old := testNow.AddDate(0, -2, 0) // outside the current month, so rule 9 stays quiet

	t.Run("share exactly 30 percent does not fire", func(t *testing.T) {
		window := []core.RecentTransaction{
			recent(core.CategoryFoodDining, "30", old),
			recent(core.CategoryShopping, "70", old),
		}
		got := g.Generate(tx, window, nil, testNow)
		if got.Type == core.BadHabit {
			t.Errorf("Type = bad_habit, want rule skipped at exactly 30%%")
		}
	})

	t.Run("share above 30 percent fires", func(t *testing.T) {
		window := []core.RecentTransaction{
			recent(core.CategoryFoodDining, "31", old),
			recent(core.CategoryShopping, "69", old),
		}
		got := g.Generate(tx, window, nil, testNow)
		if got.Type != core.BadHabit {
			t.Fatalf("Type = %s, want bad_habit", got.Type)
		}
		if !strings.Contains(got.Text, "31% of your spending") {
			t.Errorf("Text = %q, want 31%% share", got.Text)
		}
	})
}

func TestGenerator_RuleTable(t *testing.T) {
	old := testNow.AddDate(0, -2, 0)

	tests := []struct {
		name     string
		tx       core.Transaction
		window   []core.RecentTransaction
		goals    []core.Goal
		wantType core.AdviceType
		wantText string
	}{
		{
			name:     "expensive subscription",
			tx:       expense(core.CategorySubscriptions, "16"),
			wantType: core.Suggestion,
			wantText: "Review your subscriptions",
		},
		{
			name:     "subscription at threshold falls through to default",
			tx:       expense(core.CategorySubscriptions, "15"),
			wantType: core.GoodHabit,
			wantText: "money awareness",
		},
		{
			name:     "cheap groceries",
			tx:       expense(core.CategoryGroceries, "40"),
			wantType: core.GoodHabit,
			wantText: "grocery costs",
		},
		{
			name:     "expensive transportation",
			tx:       expense(core.CategoryTransportation, "51"),
			wantType: core.Suggestion,
			wantText: "carpooling",
		},
		{
			name: "entertainment share",
			tx:   expense(core.CategoryEntertainment, "5"),
			window: []core.RecentTransaction{
				recent(core.CategoryEntertainment, "20", old),
				recent(core.CategoryShopping, "80", old),
			},
			wantType: core.Suggestion,
			wantText: "free entertainment",
		},
		{
			name:     "modest utility bill",
			tx:       expense(core.CategoryBillsUtilities, "80"),
			wantType: core.GoodHabit,
			wantText: "utility costs",
		},
		{
			name:     "large purchase against first goal",
			tx:       expense(core.CategoryShopping, "150"),
			goals:    []core.Goal{goal("New Laptop", "900", "0"), goal("Ignored", "10000", "0")},
			wantType: core.Suggestion,
			// ceil((900-0)/30) = 30 days to save, floor(150/30) = 5.
			wantText: `fund 5 days toward your "New Laptop" goal`,
		},
		{
			name: "heavy month",
			tx:   expense(core.CategoryShopping, "10"),
			window: []core.RecentTransaction{
				recent(core.CategoryShopping, "600", testNow.AddDate(0, 0, -1)),
				recent(core.CategoryGas, "500", testNow.AddDate(0, 0, -3)),
				recent(core.CategoryGas, "500", old),
			},
			wantType: core.BadHabit,
			wantText: "$1100",
		},
		{
			name:     "default encouragement",
			tx:       expense(core.CategoryShopping, "10"),
			wantType: core.GoodHabit,
			wantText: "money awareness",
		},
		{
			name:     "already funded goal skips goal rule",
			tx:       expense(core.CategoryShopping, "150"),
			goals:    []core.Goal{goal("Done", "500", "500")},
			wantType: core.GoodHabit,
			wantText: "money awareness",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewGenerator().Generate(tt.tx, tt.window, tt.goals, testNow)
			if got.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", got.Type, tt.wantType)
			}
			if !strings.Contains(got.Text, tt.wantText) {
				t.Errorf("Text = %q, want substring %q", got.Text, tt.wantText)
			}
			if got.TransactionID != tt.tx.ID {
				t.Errorf("TransactionID = %s, want %s", got.TransactionID, tt.tx.ID)
			}
		})
	}
}

func TestGenerator_AlwaysReturnsAdvice(t *testing.T) {
	// Zero-value inputs must default, never panic or error out.
	got := NewGenerator().Generate(core.Transaction{}, nil, nil, testNow)
	if !got.Type.Valid() {
		t.Errorf("Type = %q, want a valid advice type", got.Type)
	}
	if got.Text == "" {
		t.Error("Text is empty, want default advice")
	}
}
