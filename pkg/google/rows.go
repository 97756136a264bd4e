package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/opsboard/pkg/model"
	"github.com/shopspring/decimal"
)

var (
	clientHeader = []any{"ID", "Name", "Email", "Created At"}
	taskHeader   = []any{
		"ID", "Client ID", "Sl No", "Project Name", "Pages", "Rate", "Total", "Amount Paid",
		"Work Status", "Payment Status", "Notes", "Accepted Date", "Submission Date", "Created At",
	}
)

// ConvertTaskToRow renders a task as one Tasks sheet row, in taskHeader order.
func ConvertTaskToRow(t *model.Task) ([]any, error) {
	if t == nil {
		return nil, fmt.Errorf("could not convert nil Task")
	}
	return []any{
		t.ID,
		t.ClientID,
		t.SlNo,
		t.ProjectName,
		t.Pages,
		t.Rate.String(),
		t.Total.String(),
		t.AmountPaid.String(),
		string(t.WorkStatus),
		string(t.PaymentStatus),
		t.Notes,
		t.AcceptedDate.UTC().Format(time.RFC3339),
		t.SubmissionDate.UTC().Format(time.RFC3339),
		t.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// ConvertRowToTask parses a Tasks sheet row written by ConvertTaskToRow.
func ConvertRowToTask(row []any) (*model.Task, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(fmt.Sprint(row[i]))
		}
		return ""
	}
	t := &model.Task{
		ID:            cell(0),
		ClientID:      cell(1),
		ProjectName:   cell(3),
		WorkStatus:    model.WorkStatus(cell(8)),
		PaymentStatus: model.PaymentStatus(cell(9)),
		Notes:         cell(10),
	}
	var err error
	if t.SlNo, err = strconv.Atoi(cell(2)); err != nil {
		return nil, fmt.Errorf("task %s: bad sl no %q", t.ID, cell(2))
	}
	if t.Pages, err = strconv.Atoi(cell(4)); err != nil {
		return nil, fmt.Errorf("task %s: bad pages %q", t.ID, cell(4))
	}
	for _, f := range []struct {
		dst *decimal.Decimal
		col int
	}{{&t.Rate, 5}, {&t.Total, 6}, {&t.AmountPaid, 7}} {
		if *f.dst, err = decimal.NewFromString(cell(f.col)); err != nil {
			return nil, fmt.Errorf("task %s: bad amount %q", t.ID, cell(f.col))
		}
	}
	for _, f := range []struct {
		dst *time.Time
		col int
	}{{&t.AcceptedDate, 11}, {&t.SubmissionDate, 12}, {&t.CreatedAt, 13}} {
		if *f.dst, err = time.Parse(time.RFC3339, cell(f.col)); err != nil {
			return nil, fmt.Errorf("task %s: bad timestamp %q", t.ID, cell(f.col))
		}
	}
	return t, nil
}

func convertRowToClient(row []any) model.Client {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(fmt.Sprint(row[i]))
		}
		return ""
	}
	c := model.Client{ID: cell(0), Name: cell(1), Email: cell(2)}
	if t, err := time.Parse(time.RFC3339, cell(3)); err == nil {
		c.CreatedAt = t
	}
	return c
}
