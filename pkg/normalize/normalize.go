package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/opsboard/pkg/columns"
	"github.com/harrisonrobin/opsboard/pkg/model"
	"github.com/shopspring/decimal"
)

// DefaultSubmissionWindow is added to the accepted date when a row has no
// usable submission date.
const DefaultSubmissionWindow = 14

// Defaults are the operator-supplied fallbacks applied at normalization time.
type Defaults struct {
	Rate          decimal.Decimal     `json:"rate"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
}

// Result is one normalized row. Reason names the first failing field when
// Valid is false.
type Result struct {
	Record model.CanonicalRecord
	Valid  bool
	Reason string
}

// Normalize converts a mapped row into typed values. It never fails: bad
// rows come back with Valid=false so the rest of the batch keeps going.
func Normalize(p columns.Partial, d Defaults, now time.Time) Result {
	rec := model.CanonicalRecord{RawSource: p.RawSource}
	var reasons []string

	name, _ := p.Get(columns.ProjectName)
	rec.ProjectName = strings.TrimSpace(name)
	if rec.ProjectName == "" {
		reasons = append(reasons, "projectName: missing")
	}

	rawPages, ok := p.Get(columns.Pages)
	switch pages, err := parsePages(rawPages); {
	case !ok || strings.TrimSpace(rawPages) == "":
		reasons = append(reasons, "pages: missing")
	case err != nil:
		reasons = append(reasons, err.Error())
	default:
		rec.Pages = pages
	}

	rawRate, _ := p.Get(columns.Rate)
	if rate, ok := ParseAmount(rawRate); ok && rate.IsPositive() {
		rec.Rate = rate
	} else if d.Rate.IsPositive() {
		rec.Rate = d.Rate
	} else if strings.TrimSpace(rawRate) == "" {
		reasons = append(reasons, "rate: missing and no default rate set")
	} else {
		reasons = append(reasons, fmt.Sprintf("rate: %q is not a positive number and no default rate set", rawRate))
	}

	rec.WorkStatus = model.Pending
	if raw, ok := p.Get(columns.WorkStatus); ok {
		if ws, ok := ParseWorkStatus(raw); ok {
			rec.WorkStatus = ws
		}
	}

	rec.PaymentStatus = d.PaymentStatus
	if !rec.PaymentStatus.Valid() {
		rec.PaymentStatus = model.Unpaid
	}
	if raw, ok := p.Get(columns.PaymentStatus); ok {
		if ps, ok := ParsePaymentStatus(raw); ok {
			rec.PaymentStatus = ps
		}
	}

	notes, _ := p.Get(columns.Notes)
	rec.Notes = strings.TrimSpace(notes)

	rec.AcceptedDate = model.NewDate(now)
	if raw, ok := p.Get(columns.AcceptedDate); ok {
		if dt, ok := ParseDate(raw); ok {
			rec.AcceptedDate = dt
		}
	}
	rec.SubmissionDate = rec.AcceptedDate.AddDays(DefaultSubmissionWindow)
	if raw, ok := p.Get(columns.SubmissionDate); ok {
		if dt, ok := ParseDate(raw); ok {
			rec.SubmissionDate = dt
		}
	}

	res := Result{Record: rec, Valid: len(reasons) == 0}
	if !res.Valid {
		res.Reason = reasons[0]
	}
	return res
}

func parsePages(raw string) (int, error) {
	n, ok := ParseAmount(raw)
	if !ok || !n.IsPositive() || !n.IsInteger() || n.GreaterThan(decimal.NewFromInt(1<<31-1)) {
		return 0, fmt.Errorf("pages: %q is not a positive whole number", raw)
	}
	return int(n.IntPart()), nil
}

// Check re-validates an already typed record without applying defaults.
func Check(rec model.CanonicalRecord) (bool, string) {
	switch {
	case strings.TrimSpace(rec.ProjectName) == "":
		return false, "projectName: missing"
	case rec.Pages <= 0:
		return false, "pages: must be a positive whole number"
	case !rec.Rate.IsPositive():
		return false, "rate: must be a positive number"
	}
	return true, ""
}
