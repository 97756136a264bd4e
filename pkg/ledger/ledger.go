package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/harrisonrobin/opsboard/pkg/model"
)

// Ledger remembers which imported records have been written, keyed by a
// content fingerprint, so a retried batch can warn about duplicates.
type Ledger struct {
	Mappings map[string]string `json:"mappings"`
	Path     string            `json:"-"`
	mu       sync.RWMutex
	dirty    bool
}

// Open loads the ledger at path, or starts an empty one if the file does not exist.
func Open(path string) (*Ledger, error) {
	l := &Ledger{
		Mappings: make(map[string]string),
		Path:     path,
	}

	if _, err := os.Stat(path); err == nil {
		if err := l.Load(); err != nil {
			return nil, err
		}
	}

	return l, nil
}

func (l *Ledger) Load() error {
	f, err := os.Open(l.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&l.Mappings); err != nil {
		return err
	}
	if l.Mappings == nil {
		l.Mappings = make(map[string]string)
	}
	return nil
}

func (l *Ledger) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.dirty {
		return nil
	}

	dir := filepath.Dir(l.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	f, err := os.Create(l.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(l.Mappings); err != nil {
		return err
	}
	l.dirty = false
	return nil
}

// Fingerprint identifies a record's content within one client.
func Fingerprint(clientID string, rec model.CanonicalRecord) string {
	parts := []string{
		clientID,
		strings.ToLower(strings.TrimSpace(rec.ProjectName)),
		strconv.Itoa(rec.Pages),
		rec.Rate.String(),
		rec.AcceptedDate.String(),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// Get returns the task id recorded for a fingerprint, or "".
func (l *Ledger) Get(fingerprint string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.Mappings[fingerprint]
}

func (l *Ledger) Set(fingerprint, taskID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Mappings[fingerprint] != taskID {
		l.Mappings[fingerprint] = taskID
		l.dirty = true
	}
}
