package columns

import (
	"strings"
	"unicode"

	"github.com/harrisonrobin/opsboard/pkg/tabular"
	"golang.org/x/text/cases"
)

// Partial is a best-effort mapped row. Values holds only the fields whose
// column was found; the strings are the raw cells.
type Partial struct {
	Values    map[Field]string
	RawSource tabular.Row
}

// Get returns the raw value for f and whether a column supplied it.
func (p Partial) Get(f Field) (string, bool) {
	v, ok := p.Values[f]
	return v, ok
}

// Key normalizes a header label for matching: case folded, with
// whitespace and punctuation removed.
func Key(label string) string {
	folded := cases.Fold().String(strings.TrimSpace(label))
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve returns the column index chosen for each field. For each field the
// left-most unclaimed header matching any of its synonyms wins.
func Resolve(headers []string) map[Field]int {
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = Key(h)
	}

	plan := make(map[Field]int)
	claimed := make(map[int]bool)
	for _, syn := range Synonyms {
		accepted := make(map[string]bool, len(syn.Headers))
		for _, h := range syn.Headers {
			accepted[Key(h)] = true
		}
		for i, k := range keys {
			if k == "" || claimed[i] || !accepted[k] {
				continue
			}
			plan[syn.Field] = i
			claimed[i] = true
			break
		}
	}
	return plan
}

// Map projects a row onto the canonical fields. It never rejects a row.
func Map(row tabular.Row) Partial {
	p := Partial{Values: make(map[Field]string), RawSource: row}
	for field, idx := range Resolve(row.Headers) {
		if idx < len(row.Values) {
			p.Values[field] = row.Values[idx]
		}
	}
	return p
}

// Unmapped lists the headers that no field claimed, in header order.
func Unmapped(headers []string) []string {
	used := make(map[int]bool)
	for _, idx := range Resolve(headers) {
		used[idx] = true
	}
	var out []string
	for i, h := range headers {
		if !used[i] {
			out = append(out, h)
		}
	}
	return out
}
