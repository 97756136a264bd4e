package normalize

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/harrisonrobin/opsboard/pkg/model"
	"github.com/shopspring/decimal"
)

var (
	numberPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
	currencyCodes = []string{"usd", "eur", "gbp", "inr", "aud", "cad", "rs.", "rs"}
	unitSuffixes  = []string{"pages", "page", "pgs", "pg", "pp"}
)

// ParseAmount reads a number out of loosely formatted text such as
// " $1,250.50 ", "150 USD" or "12 pages". Currency markers and a page unit
// may surround the number; any other text makes the value unparseable.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, u := range unitSuffixes {
		if rest, ok := strings.CutSuffix(s, u); ok {
			s = strings.TrimSpace(rest)
			break
		}
	}
	for _, code := range currencyCodes {
		if rest, ok := strings.CutPrefix(s, code); ok {
			s = rest
			break
		}
	}
	for _, code := range currencyCodes {
		if rest, ok := strings.CutSuffix(s, code); ok {
			s = rest
			break
		}
	}
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.Is(unicode.Sc, r) || unicode.IsSpace(r)
	})
	s = strings.ReplaceAll(s, ",", "")
	if !numberPattern.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(s, "."))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// foldKey lowercases s and drops everything but letters and digits.
func foldKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var workStatusAliases = map[string]model.WorkStatus{
	"pending":    model.Pending,
	"todo":       model.Pending,
	"notstarted": model.Pending,
	"new":        model.Pending,
	"inprogress": model.InProgress,
	"progress":   model.InProgress,
	"doing":      model.InProgress,
	"started":    model.InProgress,
	"active":     model.InProgress,
	"wip":        model.InProgress,
	"completed":  model.Completed,
	"complete":   model.Completed,
	"done":       model.Completed,
	"finished":   model.Completed,
	"delivered":  model.Completed,
}

var paymentStatusAliases = map[string]model.PaymentStatus{
	"unpaid":        model.Unpaid,
	"notpaid":       model.Unpaid,
	"due":           model.Unpaid,
	"no":            model.Unpaid,
	"false":         model.Unpaid,
	"paid":          model.Paid,
	"yes":           model.Paid,
	"true":          model.Paid,
	"settled":       model.Paid,
	"partiallypaid": model.PartiallyPaid,
	"partial":       model.PartiallyPaid,
	"partlypaid":    model.PartiallyPaid,
	"advancepaid":   model.PartiallyPaid,
}

// ParseWorkStatus maps free text to a work status.
func ParseWorkStatus(s string) (model.WorkStatus, bool) {
	ws, ok := workStatusAliases[foldKey(s)]
	return ws, ok
}

// ParsePaymentStatus maps free text to a payment status.
func ParsePaymentStatus(s string) (model.PaymentStatus, bool) {
	ps, ok := paymentStatusAliases[foldKey(s)]
	return ps, ok
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"1/2/2006 3:04 PM",
	"January 2, 2006",
	"January 2, 2006 3:04 PM",
	"Jan 2, 2006",
	"Jan 2, 2006 3:04 PM",
	"02 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
}

// ParseDate accepts the common spreadsheet and Notion date renderings.
// A Notion range "A → B" yields A.
func ParseDate(s string) (model.Date, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "@")
	if i := strings.Index(s, "→"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if s == "" {
		return model.Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.NewDate(t), true
		}
	}
	return model.Date{}, false
}
