package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/harrisonrobin/opsboard/pkg/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	rec := model.CanonicalRecord{ProjectName: "Logo", Pages: 2, Rate: decimal.NewFromInt(10)}
	same := rec
	same.ProjectName = "  logo "
	same.Notes = "notes do not count"

	assert.Equal(t, Fingerprint("c1", rec), Fingerprint("c1", same))
	assert.NotEqual(t, Fingerprint("c1", rec), Fingerprint("c2", rec))

	rec.Pages = 3
	assert.NotEqual(t, Fingerprint("c1", rec), Fingerprint("c1", same))
}

func TestLedgerPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	l, err := Open(path)
	require.NoError(t, err)
	assert.Empty(t, l.Get("fp"))

	l.Set("fp", "task-1")
	require.NoError(t, l.Save())

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "task-1", reopened.Get("fp"))

	reopened.Set("fp", "task-2")
	require.NoError(t, reopened.Save())
	again, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "task-2", again.Get("fp"))
}

func TestLedgerNullFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte("null\n"), 0600))

	l, err := Open(path)
	require.NoError(t, err)
	assert.NotPanics(t, func() { l.Set("fp", "task-1") })
	require.NoError(t, l.Save())
}
