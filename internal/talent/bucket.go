package talent

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BucketKind distinguishes role requisitions from search-keyword groupings.
type BucketKind string

const (
	BucketRole    BucketKind = "role"
	BucketKeyword BucketKind = "keyword"
)

// Bucket groups candidates under a named role or search keyword. Positions
// is the slot capacity for selected candidates and is meaningful only for
// role buckets.
type Bucket struct {
	ID          string                `json:"id"`
	Kind        BucketKind            `json:"kind"`
	Name        string                `json:"name"`
	JD          string                `json:"jd,omitempty"`
	CTC         string                `json:"ctc,omitempty"`
	Positions   int                   `json:"positions,omitempty"`
	TallyLink   string                `json:"tally_link,omitempty"`
	TallyFormID string                `json:"tally_form_id,omitempty"`
	SheetURL    string                `json:"sheet_url,omitempty"`
	Candidates  map[string]*Candidate `json:"candidates"`
	CreatedAt   time.Time             `json:"created_at"`
	LastScanned time.Time             `json:"last_scanned,omitempty"`
}

// NewBucketID returns a short random bucket identifier.
func NewBucketID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// SelectedCount counts candidates currently holding a slot.
func (b *Bucket) SelectedCount() int {
	n := 0
	for _, c := range b.Candidates {
		if c.Status == StatusSelected {
			n++
		}
	}
	return n
}
