// Package sqlite is the local, file-backed task store built on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/harrisonrobin/opsboard/pkg/model"
	"github.com/shopspring/decimal"
	// Register modernc SQLite driver with database/sql.
	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

var taskColumns = []string{
	"id", "client_id", "sl_no", "project_name", "pages", "rate", "total", "amount_paid",
	"work_status", "payment_status", "notes", "accepted_date", "submission_date", "created_at",
}

// Store implements the commit engine's persistence interface on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
// path may be ":memory:".
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("sqlite: create database directory: %w", err)
		}
	}
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	// one connection keeps :memory: databases shared and writes serialized
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// --- Clients ---

func (s *Store) CreateClient(ctx context.Context, c *model.Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	q, args, err := squirrel.Insert("clients").
		Columns("id", "name", "email", "created_at").
		Values(c.ID, strings.TrimSpace(c.Name), c.Email, c.CreatedAt.UTC().Format(timeLayout)).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: build client insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("sqlite: create client: %w", err)
	}
	return nil
}

func (s *Store) ListClients(ctx context.Context) ([]model.Client, error) {
	q, args, err := squirrel.Select("id", "name", "email", "created_at").From("clients").OrderBy("name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: build client query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list clients: %w", err)
	}
	defer rows.Close()
	var out []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iter clients: %w", err)
	}
	return out, nil
}

func (s *Store) GetClient(ctx context.Context, id string) (*model.Client, error) {
	q, args, err := squirrel.Select("id", "name", "email", "created_at").From("clients").
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: build client query: %w", err)
	}
	c, err := scanClient(s.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrClientNotFound
		}
		return nil, err
	}
	return c, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(row scanner) (*model.Client, error) {
	var c model.Client
	var created string
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: scan client: %w", err)
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("sqlite: parse client created_at: %w", err)
	}
	c.CreatedAt = t
	return &c, nil
}

// --- Tasks ---

func (s *Store) CountTasks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count tasks: %w", err)
	}
	return n, nil
}

func (s *Store) CreateTask(ctx context.Context, t *model.Task) (*model.Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	q, args, err := squirrel.Insert("tasks").Columns(taskColumns...).Values(
		t.ID, t.ClientID, t.SlNo, t.ProjectName, t.Pages,
		t.Rate.String(), t.Total.String(), t.AmountPaid.String(),
		string(t.WorkStatus), string(t.PaymentStatus), t.Notes,
		t.AcceptedDate.UTC().Format(timeLayout),
		t.SubmissionDate.UTC().Format(timeLayout),
		t.CreatedAt.UTC().Format(timeLayout),
	).ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: build task insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("sqlite: create task: %w", err)
	}
	return t, nil
}

// ListTasks returns a client's tasks by serial number. An empty clientID lists all tasks.
func (s *Store) ListTasks(ctx context.Context, clientID string) ([]*model.Task, error) {
	sb := squirrel.Select(taskColumns...).From("tasks").OrderBy("sl_no")
	if clientID != "" {
		sb = sb.Where(squirrel.Eq{"client_id": clientID})
	}
	q, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: build task query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list tasks: %w", err)
	}
	defer rows.Close()
	var out []*model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iter tasks: %w", err)
	}
	return out, nil
}

func scanTask(row scanner) (*model.Task, error) {
	var (
		t                               model.Task
		rate, total, paid               string
		work, payment                   string
		accepted, submission, createdAt string
	)
	if err := row.Scan(&t.ID, &t.ClientID, &t.SlNo, &t.ProjectName, &t.Pages,
		&rate, &total, &paid, &work, &payment, &t.Notes,
		&accepted, &submission, &createdAt); err != nil {
		return nil, fmt.Errorf("sqlite: scan task: %w", err)
	}
	t.WorkStatus = model.WorkStatus(work)
	t.PaymentStatus = model.PaymentStatus(payment)

	var err error
	if t.Rate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("sqlite: parse task rate: %w", err)
	}
	if t.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("sqlite: parse task total: %w", err)
	}
	if t.AmountPaid, err = decimal.NewFromString(paid); err != nil {
		return nil, fmt.Errorf("sqlite: parse task amount paid: %w", err)
	}
	for _, f := range []struct {
		dst *time.Time
		src string
	}{{&t.AcceptedDate, accepted}, {&t.SubmissionDate, submission}, {&t.CreatedAt, createdAt}} {
		if *f.dst, err = time.Parse(timeLayout, f.src); err != nil {
			return nil, fmt.Errorf("sqlite: parse task timestamp: %w", err)
		}
	}
	return &t, nil
}
