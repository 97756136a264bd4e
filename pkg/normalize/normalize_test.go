package normalize

import (
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/opsboard/pkg/columns"
	"github.com/harrisonrobin/opsboard/pkg/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 10, 16, 30, 0, 0, time.UTC)

func partial(values map[columns.Field]string) columns.Partial {
	return columns.Partial{Values: values}
}

func TestNormalizeFullRow(t *testing.T) {
	res := Normalize(partial(map[columns.Field]string{
		columns.ProjectName:    "Website Redesign",
		columns.Pages:          "8",
		columns.Rate:           "150",
		columns.WorkStatus:     "In Progress",
		columns.Notes:          " Modern responsive design ",
		columns.AcceptedDate:   "2024-01-15",
		columns.SubmissionDate: "2024-02-15",
	}), Defaults{Rate: decimal.NewFromInt(100), PaymentStatus: model.Unpaid}, now)

	require.True(t, res.Valid, res.Reason)
	rec := res.Record
	assert.Equal(t, "Website Redesign", rec.ProjectName)
	assert.Equal(t, 8, rec.Pages)
	assert.True(t, rec.Rate.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, model.InProgress, rec.WorkStatus)
	assert.Equal(t, model.Unpaid, rec.PaymentStatus)
	assert.Equal(t, "Modern responsive design", rec.Notes)
	assert.Equal(t, "2024-01-15", rec.AcceptedDate.String())
	assert.Equal(t, "2024-02-15", rec.SubmissionDate.String())
	assert.Equal(t, "1200", rec.Total().String())
}

func TestNormalizeDefaultRate(t *testing.T) {
	d := Defaults{Rate: decimal.NewFromInt(100), PaymentStatus: model.Paid}
	for _, raw := range []string{"", "n/a", "-3", "0"} {
		values := map[columns.Field]string{columns.ProjectName: "Logo", columns.Pages: "2"}
		if raw != "" {
			values[columns.Rate] = raw
		}
		res := Normalize(partial(values), d, now)

		assert.True(t, res.Valid, "rate %q: %s", raw, res.Reason)
		assert.True(t, res.Record.Rate.Equal(d.Rate), "rate %q", raw)
		assert.Equal(t, model.Paid, res.Record.PaymentStatus)
	}
}

func TestNormalizeInvalidPages(t *testing.T) {
	res := Normalize(partial(map[columns.Field]string{
		columns.ProjectName: "Logo",
		columns.Pages:       "abc",
		columns.Rate:        "20",
	}), Defaults{}, now)

	assert.False(t, res.Valid)
	assert.Contains(t, res.Reason, "pages")
	assert.Contains(t, res.Reason, `"abc"`)
}

func TestNormalizeValidityGating(t *testing.T) {
	cases := []struct {
		name   string
		values map[columns.Field]string
		rate   int64
		valid  bool
		field  string
	}{
		{"all present", map[columns.Field]string{columns.ProjectName: "A", columns.Pages: "1", columns.Rate: "5"}, 0, true, ""},
		{"missing name", map[columns.Field]string{columns.Pages: "1", columns.Rate: "5"}, 0, false, "projectName"},
		{"blank name", map[columns.Field]string{columns.ProjectName: "  ", columns.Pages: "1", columns.Rate: "5"}, 0, false, "projectName"},
		{"zero pages", map[columns.Field]string{columns.ProjectName: "A", columns.Pages: "0", columns.Rate: "5"}, 0, false, "pages"},
		{"fractional pages", map[columns.Field]string{columns.ProjectName: "A", columns.Pages: "2.5", columns.Rate: "5"}, 0, false, "pages"},
		{"whole decimal pages", map[columns.Field]string{columns.ProjectName: "A", columns.Pages: "2.0", columns.Rate: "5"}, 0, true, ""},
		{"bad rate no default", map[columns.Field]string{columns.ProjectName: "A", columns.Pages: "1", columns.Rate: "x"}, 0, false, "rate"},
		{"missing rate no default", map[columns.Field]string{columns.ProjectName: "A", columns.Pages: "1"}, 0, false, "rate"},
		{"bad rate with default", map[columns.Field]string{columns.ProjectName: "A", columns.Pages: "1", columns.Rate: "x"}, 7, true, ""},
		{"trailing text pages", map[columns.Field]string{columns.ProjectName: "A", columns.Pages: "12abc", columns.Rate: "5"}, 0, false, "pages"},
		{"date in pages", map[columns.Field]string{columns.ProjectName: "A", columns.Pages: "2024-01-15", columns.Rate: "5"}, 0, false, "pages"},
		{"range in pages", map[columns.Field]string{columns.ProjectName: "A", columns.Pages: "10-12", columns.Rate: "5"}, 0, false, "pages"},
		{"pages with unit", map[columns.Field]string{columns.ProjectName: "A", columns.Pages: "12 pages", columns.Rate: "5"}, 0, true, ""},
		{"trailing text rate no default", map[columns.Field]string{columns.ProjectName: "A", columns.Pages: "1", columns.Rate: "5x"}, 0, false, "rate"},
		{"first failure reported", map[columns.Field]string{columns.Pages: "x"}, 0, false, "projectName"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Normalize(partial(tc.values), Defaults{Rate: decimal.NewFromInt(tc.rate)}, now)
			assert.Equal(t, tc.valid, res.Valid)
			if !tc.valid {
				assert.True(t, strings.HasPrefix(res.Reason, tc.field+":"), res.Reason)
			} else {
				assert.Empty(t, res.Reason)
				assert.Positive(t, res.Record.Pages)
				assert.True(t, res.Record.Rate.IsPositive())
			}
		})
	}
}

func TestNormalizeEnumFallback(t *testing.T) {
	res := Normalize(partial(map[columns.Field]string{
		columns.ProjectName:   "A",
		columns.Pages:         "1",
		columns.Rate:          "1",
		columns.WorkStatus:    "blocked???",
		columns.PaymentStatus: "ask accounting",
	}), Defaults{PaymentStatus: model.PartiallyPaid}, now)

	assert.True(t, res.Valid)
	assert.Equal(t, model.Pending, res.Record.WorkStatus)
	assert.Equal(t, model.PartiallyPaid, res.Record.PaymentStatus)
}

func TestNormalizeDateDefaults(t *testing.T) {
	res := Normalize(partial(map[columns.Field]string{
		columns.ProjectName:  "A",
		columns.Pages:        "1",
		columns.Rate:         "1",
		columns.AcceptedDate: "someday",
	}), Defaults{}, now)

	assert.True(t, res.Valid)
	assert.Equal(t, "2024-03-10", res.Record.AcceptedDate.String())
	assert.Equal(t, "2024-03-24", res.Record.SubmissionDate.String())

	res = Normalize(partial(map[columns.Field]string{
		columns.ProjectName:    "A",
		columns.Pages:          "1",
		columns.Rate:           "1",
		columns.AcceptedDate:   "January 15, 2024",
		columns.SubmissionDate: "garbage",
	}), Defaults{}, now)
	assert.Equal(t, "2024-01-15", res.Record.AcceptedDate.String())
	assert.Equal(t, "2024-01-29", res.Record.SubmissionDate.String())
}

func TestParseAmount(t *testing.T) {
	cases := map[string]string{
		"150":        "150",
		" $1,250.50": "1250.5",
		"€ 40":       "40",
		"150 USD":    "150",
		"USD 150":    "150",
		"12 pages":   "12",
		"₹500":       "500",
		"8.":         "8",
	}
	for in, want := range cases {
		got, ok := ParseAmount(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got.String(), in)
	}
	for _, in := range []string{"", "abc", "$", "n/a", "12abc", "2024-01-15", "10-12", "3 hours"} {
		_, ok := ParseAmount(in)
		assert.False(t, ok, in)
	}
}

func TestParseStatuses(t *testing.T) {
	for _, in := range []string{"In Progress", "in-progress", "IN_PROGRESS", "doing"} {
		ws, ok := ParseWorkStatus(in)
		assert.True(t, ok, in)
		assert.Equal(t, model.InProgress, ws, in)
	}
	ws, ok := ParseWorkStatus("Done")
	assert.True(t, ok)
	assert.Equal(t, model.Completed, ws)

	ps, ok := ParsePaymentStatus("Partially Paid")
	assert.True(t, ok)
	assert.Equal(t, model.PartiallyPaid, ps)
	_, ok = ParsePaymentStatus("maybe")
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	cases := map[string]string{
		"2024-01-15":                          "2024-01-15",
		"2024-01-15T22:00:00Z":                "2024-01-15",
		"01/15/2024":                          "2024-01-15",
		"January 15, 2024":                    "2024-01-15",
		"January 15, 2024 3:04 PM":            "2024-01-15",
		"January 15, 2024 → January 20, 2024": "2024-01-15",
		"15 January 2024":                     "2024-01-15",
	}
	for in, want := range cases {
		d, ok := ParseDate(in)
		require.True(t, ok, in)
		assert.Equal(t, want, d.String(), in)
	}
	_, ok := ParseDate("not a date")
	assert.False(t, ok)
}

func TestCheck(t *testing.T) {
	rec := model.CanonicalRecord{ProjectName: "A", Pages: 1, Rate: decimal.NewFromInt(1)}
	ok, reason := Check(rec)
	assert.True(t, ok)
	assert.Empty(t, reason)

	rec.Pages = 0
	ok, reason = Check(rec)
	assert.False(t, ok)
	assert.Contains(t, reason, "pages")
}
