package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate(t *testing.T) {
	local := time.FixedZone("UTC+5", 5*60*60)
	d := NewDate(time.Date(2024, 1, 15, 23, 30, 0, 0, local))
	assert.Equal(t, "2024-01-15", d.String())
	assert.Equal(t, "2024-01-29", d.AddDays(14).String())
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), d.Timestamp())

	b, err := json.Marshal(struct{ D Date }{d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"D":"2024-01-15"}`, string(b))

	var back struct{ D Date }
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.D.Equal(d.Time))

	require.NoError(t, json.Unmarshal([]byte(`{"D":""}`), &back))
	assert.True(t, back.D.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`{"D":"15/01/2024"}`), &back))
}

func TestStatuses(t *testing.T) {
	assert.True(t, InProgress.Valid())
	assert.False(t, WorkStatus("Blocked").Valid())
	assert.True(t, PartiallyPaid.Valid())
	assert.False(t, PaymentStatus("").Valid())
}

func TestTotal(t *testing.T) {
	r := CanonicalRecord{Pages: 3, Rate: decimal.RequireFromString("12.50")}
	assert.Equal(t, "37.5", r.Total().String())
}
