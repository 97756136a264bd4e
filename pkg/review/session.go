package review

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/harrisonrobin/opsboard/pkg/model"
	"github.com/harrisonrobin/opsboard/pkg/normalize"
	"github.com/shopspring/decimal"
)

// ErrRecordNotFound is returned for ids that are not in the session.
var ErrRecordNotFound = errors.New("record not found in review session")

// StagedRecord is a normalized record awaiting operator approval.
type StagedRecord struct {
	model.CanonicalRecord
	ID            string `json:"id"`
	OriginalIndex int    `json:"originalIndex"`
	IsValid       bool   `json:"isValid"`
	Reason        string `json:"reason,omitempty"`
	Selected      bool   `json:"selected"`
}

// Patch is a partial edit. Nil fields are left unchanged.
type Patch struct {
	ProjectName    *string
	Pages          *int
	Rate           *decimal.Decimal
	WorkStatus     *model.WorkStatus
	PaymentStatus  *model.PaymentStatus
	Notes          *string
	AcceptedDate   *model.Date
	SubmissionDate *model.Date
}

// Session is the operator's working set for one import. It is owned by the
// caller and is not safe for concurrent use.
type Session struct {
	Defaults  normalize.Defaults `json:"defaults"`
	Records   []StagedRecord     `json:"records"`
	NextIndex int                `json:"nextIndex"`
	CreatedAt time.Time          `json:"createdAt"`
	Path      string             `json:"-"`
	dirty     bool
}

// NewSession starts an empty session with the given normalization defaults.
func NewSession(d normalize.Defaults) *Session {
	return &Session{Defaults: d, CreatedAt: time.Now().UTC()}
}

// SetDefaults records the defaults used for the latest staged batch.
// Records already staged keep the values they were normalized with.
func (s *Session) SetDefaults(d normalize.Defaults) {
	if s.Defaults.Rate.Equal(d.Rate) && s.Defaults.PaymentStatus == d.PaymentStatus {
		return
	}
	s.Defaults = d
	s.dirty = true
}

// Stage wraps normalized results into staged records, appending them to the
// session. Selection starts out equal to validity.
func (s *Session) Stage(results []normalize.Result) []StagedRecord {
	staged := make([]StagedRecord, 0, len(results))
	for _, res := range results {
		rec := StagedRecord{
			CanonicalRecord: res.Record,
			ID:              uuid.NewString(),
			OriginalIndex:   s.NextIndex,
			IsValid:         res.Valid,
			Reason:          res.Reason,
			Selected:        res.Valid,
		}
		s.NextIndex++
		staged = append(staged, rec)
	}
	s.Records = append(s.Records, staged...)
	if len(staged) > 0 {
		s.dirty = true
	}
	return staged
}

func (s *Session) find(id string) (int, error) {
	for i := range s.Records {
		if s.Records[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
}

// Get returns a copy of the record with the given id.
func (s *Session) Get(id string) (StagedRecord, error) {
	i, err := s.find(id)
	if err != nil {
		return StagedRecord{}, err
	}
	return s.Records[i], nil
}

// ToggleSelection flips the selection flag of one record.
func (s *Session) ToggleSelection(id string) error {
	i, err := s.find(id)
	if err != nil {
		return err
	}
	s.Records[i].Selected = !s.Records[i].Selected
	s.dirty = true
	return nil
}

// SetSelected sets the selection flag of one record.
func (s *Session) SetSelected(id string, selected bool) error {
	i, err := s.find(id)
	if err != nil {
		return err
	}
	if s.Records[i].Selected != selected {
		s.Records[i].Selected = selected
		s.dirty = true
	}
	return nil
}

// SelectAll selects every record, valid or not.
func (s *Session) SelectAll() {
	s.setAll(func(StagedRecord) bool { return true })
}

// DeselectAll clears every selection.
func (s *Session) DeselectAll() {
	s.setAll(func(StagedRecord) bool { return false })
}

// SelectValid resets selection to the records currently marked valid.
func (s *Session) SelectValid() {
	s.setAll(func(r StagedRecord) bool { return r.IsValid })
}

func (s *Session) setAll(selected func(StagedRecord) bool) {
	for i := range s.Records {
		want := selected(s.Records[i])
		if s.Records[i].Selected != want {
			s.Records[i].Selected = want
			s.dirty = true
		}
	}
}

// Update applies an operator edit and recomputes IsValid from the edited
// fields. Defaults are not re-applied and Selected is left as it was.
func (s *Session) Update(id string, p Patch) error {
	i, err := s.find(id)
	if err != nil {
		return err
	}
	rec := &s.Records[i]
	if p.ProjectName != nil {
		rec.ProjectName = *p.ProjectName
	}
	if p.Pages != nil {
		rec.Pages = *p.Pages
	}
	if p.Rate != nil {
		rec.Rate = *p.Rate
	}
	if p.WorkStatus != nil {
		rec.WorkStatus = *p.WorkStatus
	}
	if p.PaymentStatus != nil {
		rec.PaymentStatus = *p.PaymentStatus
	}
	if p.Notes != nil {
		rec.Notes = *p.Notes
	}
	if p.AcceptedDate != nil {
		rec.AcceptedDate = *p.AcceptedDate
	}
	if p.SubmissionDate != nil {
		rec.SubmissionDate = *p.SubmissionDate
	}
	rec.IsValid, rec.Reason = normalize.Check(rec.CanonicalRecord)
	s.dirty = true
	return nil
}

// Remove drops a record. Surviving records keep their OriginalIndex.
func (s *Session) Remove(id string) error {
	i, err := s.find(id)
	if err != nil {
		return err
	}
	s.Records = append(s.Records[:i], s.Records[i+1:]...)
	s.dirty = true
	return nil
}

// All returns a copy of all records in source order.
func (s *Session) All() []StagedRecord {
	out := make([]StagedRecord, len(s.Records))
	copy(out, s.Records)
	sortByIndex(out)
	return out
}

// Selected returns the selected records in source order.
func (s *Session) Selected() []StagedRecord {
	var out []StagedRecord
	for _, r := range s.Records {
		if r.Selected {
			out = append(out, r)
		}
	}
	sortByIndex(out)
	return out
}

// Summary counts records by state.
type Summary struct {
	Total    int
	Valid    int
	Selected int
}

func (s *Session) Summary() Summary {
	var sum Summary
	for _, r := range s.Records {
		sum.Total++
		if r.IsValid {
			sum.Valid++
		}
		if r.Selected {
			sum.Selected++
		}
	}
	return sum
}

// Len returns the number of staged records.
func (s *Session) Len() int {
	return len(s.Records)
}

func sortByIndex(recs []StagedRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].OriginalIndex < recs[j].OriginalIndex
	})
}
