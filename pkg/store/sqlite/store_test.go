package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/harrisonrobin/opsboard/pkg/commit"
	"github.com/harrisonrobin/opsboard/pkg/logger"
	"github.com/harrisonrobin/opsboard/pkg/model"
	"github.com/harrisonrobin/opsboard/pkg/normalize"
	"github.com/harrisonrobin/opsboard/pkg/review"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ commit.Store = (*Store)(nil)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "opsboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestClients(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	c := &model.Client{Name: "Acme", Email: "ops@acme.test"}
	require.NoError(t, s.CreateClient(ctx, c))
	require.NotEmpty(t, c.ID)

	got, err := s.GetClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.GetClient(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrClientNotFound)

	require.NoError(t, s.CreateClient(ctx, &model.Client{Name: "Beta"}))
	list, err := s.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Acme", list[0].Name)
}

func TestTasksRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	c := &model.Client{Name: "Acme"}
	require.NoError(t, s.CreateClient(ctx, c))

	accepted := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	task := &model.Task{
		ClientID:       c.ID,
		SlNo:           1,
		ProjectName:    "Website",
		Pages:          8,
		Rate:           decimal.RequireFromString("150.25"),
		Total:          decimal.RequireFromString("1202"),
		AmountPaid:     decimal.Zero,
		WorkStatus:     model.InProgress,
		PaymentStatus:  model.Unpaid,
		AcceptedDate:   accepted,
		SubmissionDate: accepted.AddDate(0, 0, 14),
	}
	_, err := s.CreateTask(ctx, task)
	require.NoError(t, err)

	n, err := s.CountTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tasks, err := s.ListTasks(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	got := tasks[0]
	assert.Equal(t, task.ID, got.ID)
	assert.True(t, got.Rate.Equal(task.Rate))
	assert.True(t, got.Total.Equal(task.Total))
	assert.Equal(t, model.InProgress, got.WorkStatus)
	assert.True(t, got.AcceptedDate.Equal(accepted))

	dup := *task
	dup.ID = ""
	_, err = s.CreateTask(ctx, &dup)
	assert.Error(t, err, "serial numbers are unique")
}

func TestCommitThroughStore(t *testing.T) {
	s := setupStore(t)
	ctx := logger.ContextWithLogger(context.Background(), logger.NewForTests())
	c := &model.Client{Name: "Acme"}
	require.NoError(t, s.CreateClient(ctx, c))

	session := review.NewSession(normalize.Defaults{})
	session.Stage([]normalize.Result{
		{Record: model.CanonicalRecord{ProjectName: "A", Pages: 2, Rate: decimal.NewFromInt(10)}, Valid: true},
		{Record: model.CanonicalRecord{ProjectName: "B", Pages: 3, Rate: decimal.NewFromInt(10)}, Valid: true},
	})

	engine := commit.NewEngine(s)
	res, err := engine.Commit(ctx, c.ID, session.Selected())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Committed)

	res, err = engine.Commit(ctx, c.ID, session.Selected())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Tasks[1].SlNo)

	n, err := s.CountTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = engine.Commit(ctx, "nope", session.Selected())
	assert.ErrorIs(t, err, commit.ErrParentNotFound)
}
