package commit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/harrisonrobin/opsboard/pkg/ledger"
	"github.com/harrisonrobin/opsboard/pkg/logger"
	"github.com/harrisonrobin/opsboard/pkg/model"
	"github.com/harrisonrobin/opsboard/pkg/review"
	"github.com/shopspring/decimal"
)

const lockRetryDelay = 100 * time.Millisecond

// Result summarizes a commit. On failure it still lists what was written.
type Result struct {
	ParentID  string
	Committed int
	Tasks     []*model.Task
}

// Engine writes approved records to a Store. Commits through one Engine, or
// through engines sharing a lock file, never overlap, so the count-then-insert
// numbering cannot interleave between them.
type Engine struct {
	store    Store
	mu       sync.Mutex
	lockPath string
	lockWait time.Duration
	ledger   *ledger.Ledger
	now      func() time.Time
}

type Option func(*Engine)

// WithLock serializes commits across processes with a lock file at path.
// wait bounds how long Commit waits for another holder.
func WithLock(path string, wait time.Duration) Option {
	return func(e *Engine) {
		e.lockPath = path
		e.lockWait = wait
	}
}

// WithLedger records written fingerprints and warns about repeats.
func WithLedger(l *ledger.Ledger) Option {
	return func(e *Engine) { e.ledger = l }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{store: store, now: time.Now, lockWait: 10 * time.Second}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Commit persists records under parentID one at a time, numbering them
// existing+1.. in source order. The first failed write stops the loop and
// is returned as a *RecordError; earlier writes are not rolled back.
func (e *Engine) Commit(ctx context.Context, parentID string, records []review.StagedRecord) (*Result, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(parentID) == "" {
		return nil, ErrNoParent
	}
	if len(records) == 0 {
		return nil, ErrNothingSelected
	}

	client, err := e.store.GetClient(ctx, parentID)
	if err != nil {
		if errors.Is(err, model.ErrClientNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrParentNotFound, parentID)
		}
		return nil, fmt.Errorf("failed to look up client %s: %w", parentID, err)
	}

	unlock, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := e.store.CountTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count existing tasks: %w", err)
	}

	ordered := make([]review.StagedRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OriginalIndex < ordered[j].OriginalIndex
	})

	res := &Result{ParentID: client.ID}
	defer e.saveLedger(log)

	for i, rec := range ordered {
		slNo := existing + i + 1
		if err := ctx.Err(); err != nil {
			return res, &RecordError{OriginalIndex: rec.OriginalIndex, SlNo: slNo, ProjectName: rec.ProjectName, Err: err}
		}
		if !rec.IsValid {
			log.Warn("committing record flagged invalid", "row", rec.OriginalIndex+1, "reason", rec.Reason)
		}

		fp := ledger.Fingerprint(client.ID, rec.CanonicalRecord)
		if e.ledger != nil {
			if prev := e.ledger.Get(fp); prev != "" {
				log.Warn("record looks like an earlier import", "row", rec.OriginalIndex+1, "project", rec.ProjectName, "task", prev)
			}
		}

		task := BuildTask(client.ID, slNo, rec.CanonicalRecord, e.now())
		created, err := e.store.CreateTask(ctx, task)
		if err != nil {
			log.Error("task write failed, stopping import", "row", rec.OriginalIndex+1, "slNo", slNo, "written", res.Committed, "err", err)
			return res, &RecordError{OriginalIndex: rec.OriginalIndex, SlNo: slNo, ProjectName: rec.ProjectName, Err: err}
		}
		if created == nil {
			created = task
		}
		res.Tasks = append(res.Tasks, created)
		res.Committed++
		if e.ledger != nil {
			e.ledger.Set(fp, created.ID)
		}
		log.Debug("task written", "row", rec.OriginalIndex+1, "slNo", slNo, "id", created.ID)
	}

	log.Info("import committed", "client", client.Name, "tasks", res.Committed, "firstSlNo", existing+1)
	return res, nil
}

// BuildTask derives the persisted task for a record.
func BuildTask(clientID string, slNo int, rec model.CanonicalRecord, now time.Time) *model.Task {
	return &model.Task{
		ID:             uuid.NewString(),
		ClientID:       clientID,
		SlNo:           slNo,
		ProjectName:    rec.ProjectName,
		Pages:          rec.Pages,
		Rate:           rec.Rate,
		Total:          rec.Total(),
		AmountPaid:     decimal.Zero,
		WorkStatus:     rec.WorkStatus,
		PaymentStatus:  rec.PaymentStatus,
		Notes:          rec.Notes,
		AcceptedDate:   rec.AcceptedDate.Timestamp(),
		SubmissionDate: rec.SubmissionDate.Timestamp(),
		CreatedAt:      now.UTC(),
	}
}

func (e *Engine) acquire(ctx context.Context) (func(), error) {
	e.mu.Lock()
	if e.lockPath == "" {
		return e.mu.Unlock, nil
	}

	if err := os.MkdirAll(filepath.Dir(e.lockPath), 0700); err != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	fl := flock.New(e.lockPath)
	lockCtx, cancel := context.WithTimeout(ctx, e.lockWait)
	defer cancel()
	locked, err := fl.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil || !locked {
		e.mu.Unlock()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("failed to acquire import lock %s: %w", e.lockPath, err)
		}
		return nil, ErrLocked
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			logger.FromContext(ctx).Warn("failed to release import lock", "path", e.lockPath, "err", err)
		}
		e.mu.Unlock()
	}, nil
}

func (e *Engine) saveLedger(log logger.Logger) {
	if e.ledger == nil {
		return
	}
	if err := e.ledger.Save(); err != nil {
		log.Warn("failed to save import ledger", "err", err)
	}
}
