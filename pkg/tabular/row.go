package tabular

// Row is one data line keyed by the header labels found in the source.
// Values always has the same length as Headers.
type Row struct {
	Headers []string `json:"headers"`
	Values  []string `json:"values"`
}

// Len returns the number of columns in the row.
func (r Row) Len() int {
	return len(r.Headers)
}

// Get returns the value of the first column labelled exactly label.
func (r Row) Get(label string) (string, bool) {
	for i, h := range r.Headers {
		if h == label {
			return r.Values[i], true
		}
	}
	return "", false
}

// Map returns the row as label -> value. Later duplicate labels do not
// overwrite earlier ones.
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.Headers))
	for i, h := range r.Headers {
		if _, exists := m[h]; !exists {
			m[h] = r.Values[i]
		}
	}
	return m
}

// IsBlank reports whether every cell is empty after trimming.
func (r Row) IsBlank() bool {
	for _, v := range r.Values {
		if trimmed(v) != "" {
			return false
		}
	}
	return true
}
