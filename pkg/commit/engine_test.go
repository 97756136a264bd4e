package commit

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/harrisonrobin/opsboard/pkg/ingest"
	"github.com/harrisonrobin/opsboard/pkg/ledger"
	"github.com/harrisonrobin/opsboard/pkg/logger"
	"github.com/harrisonrobin/opsboard/pkg/model"
	"github.com/harrisonrobin/opsboard/pkg/normalize"
	"github.com/harrisonrobin/opsboard/pkg/review"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu       sync.Mutex
	clients  map[string]model.Client
	tasks    []*model.Task
	existing int
	failOn   int // 1-based CreateTask call that fails; 0 never
	calls    int
	delay    time.Duration
}

func newMemStore(existing int) *memStore {
	return &memStore{
		clients:  map[string]model.Client{"c1": {ID: "c1", Name: "Acme"}},
		existing: existing,
	}
}

func (m *memStore) ListClients(context.Context) ([]model.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Client
	for _, c := range m.clients {
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) GetClient(_ context.Context, id string) (*model.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, model.ErrClientNotFound
	}
	return &c, nil
}

func (m *memStore) CountTasks(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.existing + len(m.tasks), nil
}

func (m *memStore) CreateTask(_ context.Context, task *model.Task) (*model.Task, error) {
	time.Sleep(m.delay)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failOn != 0 && m.calls == m.failOn {
		return nil, errors.New("write rejected")
	}
	m.tasks = append(m.tasks, task)
	return task, nil
}

func testCtx() context.Context {
	return logger.ContextWithLogger(context.Background(), logger.NewForTests())
}

func stage(t *testing.T, n int) []review.StagedRecord {
	t.Helper()
	s := review.NewSession(normalize.Defaults{})
	var results []normalize.Result
	for i := 0; i < n; i++ {
		results = append(results, normalize.Result{
			Record: model.CanonicalRecord{
				ProjectName:  fmt.Sprintf("project %d", i),
				Pages:        i + 2,
				Rate:         decimal.NewFromInt(25),
				AcceptedDate: model.NewDate(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
			},
			Valid: true,
		})
	}
	return s.Stage(results)
}

func TestCommitFromJSON(t *testing.T) {
	results, err := ingest.Preview(`[
		{"projectName": "Website", "pages": 8, "rate": 150},
		{"projectName": "Report", "pages": 3, "rate": "40.5"}
	]`, ingest.FormatJSON, normalize.Defaults{}, time.Now())
	require.NoError(t, err)
	s := review.NewSession(normalize.Defaults{})
	s.Stage(results)

	store := newMemStore(5)
	res, err := NewEngine(store).Commit(testCtx(), "c1", s.Selected())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Committed)
	assert.Equal(t, "c1", res.ParentID)
	require.Len(t, store.tasks, 2)
	assert.Equal(t, 6, store.tasks[0].SlNo)
	assert.Equal(t, 7, store.tasks[1].SlNo)
	assert.Equal(t, "1200", store.tasks[0].Total.String())
	assert.Equal(t, "121.5", store.tasks[1].Total.String())
	for _, task := range store.tasks {
		assert.Equal(t, "c1", task.ClientID)
		assert.True(t, task.AmountPaid.IsZero())
		assert.Equal(t, time.UTC, task.AcceptedDate.Location())
	}
}

func TestCommitSequenceIsContiguous(t *testing.T) {
	records := stage(t, 6)
	// hand them over out of order
	records[0], records[5] = records[5], records[0]

	store := newMemStore(41)
	_, err := NewEngine(store).Commit(testCtx(), "c1", records)
	require.NoError(t, err)

	require.Len(t, store.tasks, 6)
	for i, task := range store.tasks {
		assert.Equal(t, 42+i, task.SlNo)
		assert.Equal(t, fmt.Sprintf("project %d", i), task.ProjectName)
		assert.True(t, task.Total.Equal(task.Rate.Mul(decimal.NewFromInt(int64(task.Pages)))))
	}
}

func TestCommitStopsAtFirstFailure(t *testing.T) {
	records := stage(t, 3)
	store := newMemStore(0)
	store.failOn = 2

	res, err := NewEngine(store).Commit(testCtx(), "c1", records)
	require.Error(t, err)

	var recErr *RecordError
	require.True(t, errors.As(err, &recErr))
	assert.Equal(t, records[1].OriginalIndex, recErr.OriginalIndex)
	assert.Equal(t, 2, recErr.SlNo)
	assert.Contains(t, err.Error(), "row 2")

	require.NotNil(t, res)
	assert.Equal(t, 1, res.Committed)
	require.Len(t, store.tasks, 1)
	assert.Equal(t, "project 0", store.tasks[0].ProjectName)
	assert.Equal(t, 2, store.calls, "third record must not be attempted")
}

func TestCommitPreconditions(t *testing.T) {
	store := newMemStore(0)
	engine := NewEngine(store)

	_, err := engine.Commit(testCtx(), "", stage(t, 1))
	assert.ErrorIs(t, err, ErrNoParent)

	_, err = engine.Commit(testCtx(), "c1", nil)
	assert.ErrorIs(t, err, ErrNothingSelected)

	_, err = engine.Commit(testCtx(), "missing", stage(t, 1))
	assert.ErrorIs(t, err, ErrParentNotFound)

	assert.Zero(t, store.calls)
}

func TestCommitCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(testCtx())
	cancel()

	store := newMemStore(0)
	res, err := NewEngine(store).Commit(ctx, "c1", stage(t, 2))

	var recErr *RecordError
	require.True(t, errors.As(err, &recErr))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Committed)
	assert.Zero(t, store.calls)
}

func TestCommitSharedLockSerializes(t *testing.T) {
	store := newMemStore(0)
	store.delay = 5 * time.Millisecond
	lockPath := filepath.Join(t.TempDir(), "locks", "import.lock")

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			engine := NewEngine(store, WithLock(lockPath, 5*time.Second))
			_, err := engine.Commit(testCtx(), "c1", stage(t, 4))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	seen := make(map[int]bool)
	for _, task := range store.tasks {
		assert.False(t, seen[task.SlNo], "duplicate slNo %d", task.SlNo)
		seen[task.SlNo] = true
	}
	assert.Len(t, seen, 12)
}

func TestCommitRecordsLedger(t *testing.T) {
	l, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.json"))
	require.NoError(t, err)
	records := stage(t, 2)

	store := newMemStore(0)
	_, err = NewEngine(store, WithLedger(l)).Commit(testCtx(), "c1", records)
	require.NoError(t, err)

	for i, rec := range records {
		assert.Equal(t, store.tasks[i].ID, l.Get(ledger.Fingerprint("c1", rec.CanonicalRecord)))
	}

	// a retried batch still writes, idempotency is not promised
	_, err = NewEngine(store, WithLedger(l)).Commit(testCtx(), "c1", records)
	require.NoError(t, err)
	assert.Len(t, store.tasks, 4)
	assert.Equal(t, 4, store.tasks[3].SlNo)
}
