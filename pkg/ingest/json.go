package ingest

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/harrisonrobin/opsboard/pkg/columns"
	"github.com/harrisonrobin/opsboard/pkg/tabular"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when JSON input is not an object or array of objects.
var ErrInvalidJSON = errors.New("cannot parse: invalid JSON input")

// jsonKeys lists the accepted keys per field. JSON input already uses
// canonical naming, so only the camelCase and snake_case spellings are tried.
var jsonKeys = map[columns.Field][]string{
	columns.ProjectName:    {"projectName", "project_name"},
	columns.Pages:          {"pages"},
	columns.Rate:           {"rate"},
	columns.WorkStatus:     {"workStatus", "work_status"},
	columns.PaymentStatus:  {"paymentStatus", "payment_status"},
	columns.Notes:          {"notes"},
	columns.AcceptedDate:   {"acceptedDate", "accepted_date"},
	columns.SubmissionDate: {"submissionDate", "submission_date"},
}

// ParseJSON reads an array of objects (or one object) into partial records.
// Numbers and strings are both accepted for every field.
func ParseJSON(text string) ([]columns.Partial, error) {
	text = strings.TrimSpace(strings.TrimPrefix(text, "\ufeff"))
	if !gjson.Valid(text) {
		return nil, ErrInvalidJSON
	}

	doc := gjson.Parse(text)
	var items []gjson.Result
	switch {
	case doc.IsArray():
		items = doc.Array()
	case doc.IsObject():
		items = []gjson.Result{doc}
	default:
		return nil, ErrInvalidJSON
	}

	out := make([]columns.Partial, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrInvalidJSON, i)
		}
		out = append(out, partialFromObject(item))
	}
	return out, nil
}

func partialFromObject(obj gjson.Result) columns.Partial {
	p := columns.Partial{Values: make(map[columns.Field]string)}

	// keep the source for inspection in key order
	m := obj.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	raw := tabular.Row{Headers: keys, Values: make([]string, len(keys))}
	for i, k := range keys {
		raw.Values[i] = scalar(m[k])
	}
	p.RawSource = raw

	for field, names := range jsonKeys {
		for _, name := range names {
			v := obj.Get(name)
			if !v.Exists() || v.Type == gjson.Null {
				continue
			}
			p.Values[field] = scalar(v)
			break
		}
	}
	return p
}

func scalar(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Null:
		return ""
	case gjson.Number:
		// exponent forms such as 1.5e2 are rendered as plain decimals
		if d, err := decimal.NewFromString(v.Raw); err == nil {
			return d.String()
		}
		return v.Raw
	default:
		return v.String()
	}
}
