package model

import (
	"time"

	"github.com/harrisonrobin/opsboard/pkg/tabular"
	"github.com/shopspring/decimal"
)

type WorkStatus string

const (
	Pending    WorkStatus = "Pending"
	InProgress WorkStatus = "In Progress"
	Completed  WorkStatus = "Completed"
)

type PaymentStatus string

const (
	Unpaid        PaymentStatus = "Unpaid"
	Paid          PaymentStatus = "Paid"
	PartiallyPaid PaymentStatus = "Partially Paid"
)

// Valid reports whether s is one of the known payment statuses.
func (s PaymentStatus) Valid() bool {
	switch s {
	case Unpaid, Paid, PartiallyPaid:
		return true
	}
	return false
}

// Valid reports whether s is one of the known work statuses.
func (s WorkStatus) Valid() bool {
	switch s {
	case Pending, InProgress, Completed:
		return true
	}
	return false
}

// CanonicalRecord is one imported row after column mapping and normalization.
type CanonicalRecord struct {
	ProjectName    string          `json:"projectName"`
	Pages          int             `json:"pages"`
	Rate           decimal.Decimal `json:"rate"`
	WorkStatus     WorkStatus      `json:"workStatus"`
	PaymentStatus  PaymentStatus   `json:"paymentStatus"`
	Notes          string          `json:"notes,omitempty"`
	AcceptedDate   Date            `json:"acceptedDate"`
	SubmissionDate Date            `json:"submissionDate"`
	// RawSource is kept for inspection only and never reaches a Store.
	RawSource tabular.Row `json:"rawSource,omitempty"`
}

// Total is pages * rate.
func (r CanonicalRecord) Total() decimal.Decimal {
	return r.Rate.Mul(decimal.NewFromInt(int64(r.Pages)))
}

// Client is the parent entity imported tasks are attached to.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Task is a persisted task record owned by a Store.
type Task struct {
	ID             string          `json:"id"`
	ClientID       string          `json:"clientId"`
	SlNo           int             `json:"slNo"`
	ProjectName    string          `json:"projectName"`
	Pages          int             `json:"pages"`
	Rate           decimal.Decimal `json:"rate"`
	Total          decimal.Decimal `json:"total"`
	AmountPaid     decimal.Decimal `json:"amountPaid"`
	WorkStatus     WorkStatus      `json:"workStatus"`
	PaymentStatus  PaymentStatus   `json:"paymentStatus"`
	Notes          string          `json:"notes,omitempty"`
	AcceptedDate   time.Time       `json:"acceptedDate"`
	SubmissionDate time.Time       `json:"submissionDate"`
	CreatedAt      time.Time       `json:"createdAt"`
}
