// Package sms parses bank notification text into structured transactions.
//
// Bank SMS bodies have no fixed schema, so extraction runs an ordered list of
// phrase patterns: the first pattern that binds an amount wins and fixes the
// transaction type. Pattern order is a behavioral contract, not an
// optimization; callers must treat an unparseable message as a normal outcome.
package sms

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// ErrUnparseable reports that no amount-bearing phrase matched, or the amount
// resolved to zero. It is a per-message outcome, never fatal to a batch.
var ErrUnparseable = errors.New("sms: message not parseable")

type amountRule struct {
	// verbs gates the rule: the rule applies only when one of its trigger
	// verbs occurs as a word in the message.
	verbs *regexp.Regexp
	// near binds the amount adjacent to a trigger verb, accepting the amount
	// on either side ("debited by Rs.250.00", "Rs.1,200.00 credited").
	near   *regexp.Regexp
	txType core.TransactionType
}

const currency = `(?:rs\.?|inr|₹|\$)?\s*`
const number = `([0-9][0-9,]*(?:\.[0-9]+)?)`

var amountRules = []amountRule{
	{
		verbs:  regexp.MustCompile(`(?i)\b(?:debited|spent|purchase|paid)\b`),
		near:   nearAmountRe(`debited|spent|purchase|paid`),
		txType: core.Expense,
	},
	{
		verbs:  regexp.MustCompile(`(?i)\b(?:credited|received|deposit|salary)\b`),
		near:   nearAmountRe(`credited|received|deposit|salary`),
		txType: core.Income,
	},
	{
		verbs:  regexp.MustCompile(`(?i)\b(?:atm|withdrawal|cash)\b`),
		near:   nearAmountRe(`atm|withdrawal|cash`),
		txType: core.Expense,
	},
}

// nearAmountRe builds the amount-binding pattern for a verb alternation.
// Left alternative: amount (optionally currency-marked) followed by the verb,
// possibly across "has been"/"was". Right alternative: verb followed by the
// amount, allowing one short filler word ("by", "of", "for", "with", "at").
func nearAmountRe(verbs string) *regexp.Regexp {
	left := currency + number + `\s*(?:has been\s+|was\s+)?(?:` + verbs + `)`
	right := `(?:` + verbs + `)(?:\s+(?:by|of|for|with|at))?\s*` + currency + number
	return regexp.MustCompile(`(?i)` + left + `|` + right)
}

// Merchant phrases run against the original-case text. The name stops at
// "on"/"dated"/"for", at punctuation, or at end of string.
var merchantRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:at|from)\s+([A-Za-z0-9][A-Za-z0-9 ]*?)(?:\s+(?:on|dated|for)\b|\s*[^A-Za-z0-9 ]|\s*$)`),
	regexp.MustCompile(`(?i)\b(?:to|towards)\s+([A-Za-z0-9][A-Za-z0-9 ]*?)(?:\s+(?:on|dated|for)\b|\s*[^A-Za-z0-9 ]|\s*$)`),
}

var (
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`)
	namedDateRe   = regexp.MustCompile(`\b(\d{1,2})[/-]([A-Za-z]{3,9})[/-](\d{2,4})\b`)
)

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Parser converts raw bank SMS text into core.ParsedTransaction values. The
// zero value is ready to use; it is stateless and safe for concurrent use.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts a transaction from one message. now supplies the transaction
// date when the message carries no date token, keeping parsing deterministic
// under an injected clock. Returns ErrUnparseable when no amount phrase
// matches or the amount is exactly zero.
func (p *Parser) Parse(raw string, now time.Time) (core.ParsedTransaction, error) {
	amount, txType, ok := extractAmount(raw)
	if !ok {
		return core.ParsedTransaction{}, ErrUnparseable
	}
	if amount.IsZero() {
		return core.ParsedTransaction{}, ErrUnparseable
	}

	merchant := extractMerchant(raw)
	category := core.Categorize(raw, merchant, txType)
	date := extractDate(raw, now)

	description := merchant
	if description == "" {
		if txType == core.Income {
			description = "Income from SMS"
		} else {
			description = "Expense from SMS"
		}
	}

	return core.ParsedTransaction{
		Amount:      amount,
		Type:        txType,
		Category:    category,
		Description: description,
		Merchant:    merchant,
		Date:        date,
	}, nil
}

func extractAmount(raw string) (decimal.Decimal, core.TransactionType, bool) {
	for _, rule := range amountRules {
		if !rule.verbs.MatchString(raw) {
			continue
		}

		// The amount must sit adjacent to the trigger verb; a verb with no
		// bound amount leaves the rule unmatched. Grabbing the first number
		// in the message instead would turn a date token into an amount.
		m := rule.near.FindStringSubmatch(raw)
		if m == nil {
			continue
		}

		// One alternative captured; take the non-empty group.
		token := m[1]
		if token == "" {
			token = m[2]
		}
		if token == "" {
			continue
		}

		amount, err := decimal.NewFromString(strings.ReplaceAll(token, ",", ""))
		if err != nil {
			continue
		}
		return amount, rule.txType, true
	}
	return decimal.Decimal{}, "", false
}

func extractMerchant(raw string) string {
	for _, re := range merchantRes {
		if m := re.FindStringSubmatch(raw); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// extractDate looks for a D[-/]M[-/]YY|YYYY token, numeric or with an
// abbreviated month name ("15-Dec-24"). Two-digit years mean 2000+YY.
func extractDate(raw string, now time.Time) time.Time {
	if m := numericDateRe.FindStringSubmatch(raw); m != nil {
		day := atoi(m[1])
		month := atoi(m[2])
		year := normalizeYear(atoi(m[3]), len(m[3]))
		if month >= 1 && month <= 12 {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		}
	}
	if m := namedDateRe.FindStringSubmatch(raw); m != nil {
		if month, ok := monthNames[strings.ToLower(m[2])[:3]]; ok {
			day := atoi(m[1])
			year := normalizeYear(atoi(m[3]), len(m[3]))
			return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		}
	}
	return now
}

func normalizeYear(year, digits int) int {
	if digits == 2 {
		return 2000 + year
	}
	return year
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
