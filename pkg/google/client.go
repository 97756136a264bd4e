// Package google stores clients and tasks in a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/harrisonrobin/opsboard/pkg/auth"
	"github.com/harrisonrobin/opsboard/pkg/model"
	"github.com/sethvargo/go-retry"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"
)

const (
	ClientsSheet = "Clients"
	TasksSheet   = "Tasks"

	maxReadRetries = 3
)

// SheetsClient is a Google Sheets API client that implements the commit store.
type SheetsClient struct {
	srv           *sheets.Service
	spreadsheetID string
	retryBase     time.Duration
}

// NewClient authenticates and opens the spreadsheet with the given id.
func NewClient(ctx context.Context, spreadsheetID string) (*SheetsClient, error) {
	if spreadsheetID == "" {
		return nil, errors.New("no spreadsheet configured; run 'opsboard config set-spreadsheet <id>'")
	}
	srv, err := auth.GetSheetsService(ctx)
	if err != nil {
		return nil, err
	}
	return NewSheetsClient(srv, spreadsheetID), nil
}

// NewSheetsClient wraps an existing service.
func NewSheetsClient(srv *sheets.Service, spreadsheetID string) *SheetsClient {
	return &SheetsClient{srv: srv, spreadsheetID: spreadsheetID, retryBase: 200 * time.Millisecond}
}

// read fetches a range, retrying rate limits and server errors.
func (c *SheetsClient) read(ctx context.Context, rng string) ([][]any, error) {
	var values [][]any
	backoff := retry.WithMaxRetries(maxReadRetries, retry.NewExponential(c.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
		if err != nil {
			if retryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		values = resp.Values
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", rng, err)
	}
	return values, nil
}

func retryable(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
}

// appendRow adds one row after the last row of the sheet. Appends are not
// retried: a write that timed out may still have landed.
func (c *SheetsClient) appendRow(ctx context.Context, sheet string, row []any) error {
	vr := &sheets.ValueRange{Values: [][]any{row}}
	_, err := c.srv.Spreadsheets.Values.Append(c.spreadsheetID, sheet+"!A1", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to append to %s: %w", sheet, err)
	}
	return nil
}

// ListClients returns every client row below the header.
func (c *SheetsClient) ListClients(ctx context.Context) ([]model.Client, error) {
	rows, err := c.read(ctx, ClientsSheet+"!A2:D")
	if err != nil {
		return nil, err
	}
	out := make([]model.Client, 0, len(rows))
	for _, row := range rows {
		cl := convertRowToClient(row)
		if cl.ID == "" {
			continue
		}
		out = append(out, cl)
	}
	return out, nil
}

// GetClient looks a client up by id.
func (c *SheetsClient) GetClient(ctx context.Context, id string) (*model.Client, error) {
	clients, err := c.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		if clients[i].ID == id {
			return &clients[i], nil
		}
	}
	return nil, fmt.Errorf("client %q: %w", id, model.ErrClientNotFound)
}

// CreateClient appends a client, assigning an id when missing.
func (c *SheetsClient) CreateClient(ctx context.Context, cl *model.Client) error {
	if cl.ID == "" {
		cl.ID = uuid.NewString()
	}
	if cl.CreatedAt.IsZero() {
		cl.CreatedAt = time.Now().UTC()
	}
	return c.appendRow(ctx, ClientsSheet, []any{cl.ID, cl.Name, cl.Email, cl.CreatedAt.UTC().Format(time.RFC3339)})
}

// CountTasks counts non-empty id cells in the Tasks sheet.
func (c *SheetsClient) CountTasks(ctx context.Context) (int, error) {
	rows, err := c.read(ctx, TasksSheet+"!A2:A")
	if err != nil {
		return 0, err
	}
	n := 0
	for _, row := range rows {
		if len(row) > 0 && fmt.Sprint(row[0]) != "" {
			n++
		}
	}
	return n, nil
}

// CreateTask appends a task row.
func (c *SheetsClient) CreateTask(ctx context.Context, t *model.Task) (*model.Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	row, err := ConvertTaskToRow(t)
	if err != nil {
		return nil, err
	}
	if err := c.appendRow(ctx, TasksSheet, row); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTasks returns a client's tasks. An empty clientID lists all tasks.
func (c *SheetsClient) ListTasks(ctx context.Context, clientID string) ([]*model.Task, error) {
	rows, err := c.read(ctx, TasksSheet+"!A2:N")
	if err != nil {
		return nil, err
	}
	var out []*model.Task
	for i, row := range rows {
		t, err := ConvertRowToTask(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", TasksSheet, i+2, err)
		}
		if clientID == "" || t.ClientID == clientID {
			out = append(out, t)
		}
	}
	return out, nil
}

// EnsureHeaders writes the header rows when a sheet's first row is empty.
func (c *SheetsClient) EnsureHeaders(ctx context.Context) error {
	for _, s := range []struct {
		name   string
		header []any
	}{{ClientsSheet, clientHeader}, {TasksSheet, taskHeader}} {
		rows, err := c.read(ctx, s.name+"!1:1")
		if err != nil {
			return err
		}
		if len(rows) > 0 && len(rows[0]) > 0 {
			continue
		}
		vr := &sheets.ValueRange{Values: [][]any{s.header}}
		_, err = c.srv.Spreadsheets.Values.Update(c.spreadsheetID, s.name+"!A1", vr).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("unable to write %s header: %w", s.name, err)
		}
	}
	return nil
}
