// Package store holds the durable keyed collection of buckets and their
// candidates. All mutations happen under one lock and are flushed to the
// persister before returning, so an acknowledged write survives a restart.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"talentlens/internal/talent"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrCapacityExceeded = errors.New("all positions are filled")
	ErrDuplicate        = errors.New("duplicate submission")
)

// Thresholds are the score bands used for automatic status assignment.
type Thresholds struct {
	Hire   int
	Reject int
}

// DefaultThresholds match the original rubric: HIRE >= 71, REJECT <= 40.
var DefaultThresholds = Thresholds{Hire: 71, Reject: 40}

// Store is the single shared mutable resource of the pipeline.
type Store struct {
	mu         sync.Mutex
	buckets    map[string]*talent.Bucket
	seen       map[string]struct{}
	persister  Persister
	thresholds Thresholds
	logger     *zap.Logger
}

// New loads the snapshot from the persister and returns a ready store.
func New(p Persister, thresholds Thresholds, logger *zap.Logger) (*Store, error) {
	snap, err := p.Load()
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	if snap.Buckets == nil {
		snap.Buckets = make(map[string]*talent.Bucket)
	}

	seen := make(map[string]struct{}, len(snap.SeenRowIDs))
	for _, id := range snap.SeenRowIDs {
		seen[id] = struct{}{}
	}

	if thresholds.Hire == 0 && thresholds.Reject == 0 {
		thresholds = DefaultThresholds
	}

	logger.Info("store loaded",
		zap.Int("buckets", len(snap.Buckets)),
		zap.Int("seen_row_ids", len(seen)),
	)

	return &Store{
		buckets:    snap.Buckets,
		seen:       seen,
		persister:  p,
		thresholds: thresholds,
		logger:     logger,
	}, nil
}

// CreateBucket registers a new bucket, assigning an id when none is set.
func (s *Store) CreateBucket(b *talent.Bucket) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(b.ID) == "" {
		b.ID = talent.NewBucketID()
	}
	if b.Candidates == nil {
		b.Candidates = make(map[string]*talent.Candidate)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}

	s.buckets[b.ID] = b
	if err := s.flush(); err != nil {
		delete(s.buckets, b.ID)
		return "", err
	}

	return b.ID, nil
}

// ListBuckets returns deep copies of every bucket.
func (s *Store) ListBuckets() []*talent.Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*talent.Bucket, 0, len(s.buckets))
	for _, b := range s.buckets {
		out = append(out, cloneBucket(b))
	}
	return out
}

// GetBucket returns a deep copy of one bucket.
func (s *Store) GetBucket(id string) (*talent.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBucket(b), nil
}

// DeleteBucket removes a whole bucket. Individual candidates are never
// deleted, only buckets.
func (s *Store) DeleteBucket(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[id]
	if !ok {
		return ErrNotFound
	}

	delete(s.buckets, id)
	if err := s.flush(); err != nil {
		s.buckets[id] = b
		return err
	}
	return nil
}

// Upsert merges cand into the bucket under its natural key and returns a
// copy of the merged record. Re-delivering the same record is a no-op
// beyond the merge itself.
func (s *Store) Upsert(bucketID string, cand *talent.Candidate) (*talent.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[bucketID]
	if !ok {
		return nil, ErrNotFound
	}

	key := cand.Key()
	merged := mergeCandidate(b.Candidates[key], cand)
	b.Candidates[key] = merged

	if err := s.flush(); err != nil {
		return nil, err
	}
	return cloneCandidate(merged), nil
}

// Candidate returns a deep copy of one candidate record.
func (s *Store) Candidate(bucketID, key string) (*talent.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[bucketID]
	if !ok {
		return nil, ErrNotFound
	}
	c, ok := b.Candidates[key]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneCandidate(c), nil
}

// ContainsKey reports whether the bucket already holds the key.
func (s *Store) ContainsKey(bucketID, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[bucketID]
	if !ok {
		return false
	}
	_, ok = b.Candidates[key]
	return ok
}

// SetStatus writes a manual status. Selecting a candidate is rejected when
// it would exceed the bucket's position capacity; the prior state is kept.
func (s *Store) SetStatus(bucketID, key string, status talent.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[bucketID]
	if !ok {
		return ErrNotFound
	}
	c, ok := b.Candidates[key]
	if !ok {
		return ErrNotFound
	}

	if status == talent.StatusSelected && b.Kind == talent.BucketRole {
		if selectedExcluding(b, key) >= b.Positions {
			return ErrCapacityExceeded
		}
	}

	prev := c.Status
	c.Status = status
	if err := s.flush(); err != nil {
		c.Status = prev
		return err
	}
	return nil
}

// ApplyEvaluation attaches freshly fetched signals and the evaluation to a
// candidate, then auto-assigns status from the score band. Nil arguments
// leave the corresponding stored signal untouched, so a failed re-run never
// erases earlier results.
func (s *Store) ApplyEvaluation(bucketID, key string, eval *talent.Evaluation, gh *talent.GitHubStats, resume *talent.ResumeProfile, analyses []talent.WorkAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[bucketID]
	if !ok {
		return ErrNotFound
	}
	c, ok := b.Candidates[key]
	if !ok {
		return ErrNotFound
	}

	if gh != nil {
		c.GitHub = gh
	}
	if resume != nil {
		c.Resume = resume
	}
	if len(analyses) > 0 {
		c.ImageAnalyses = analyses
	}
	if eval != nil {
		c.Evaluation = eval
		c.Status = s.autoStatus(b, key, eval.OverallScore)
	}

	return s.flush()
}

// autoStatus maps a score onto a status, honoring slot capacity: a hire-band
// score only becomes selected while a slot remains free.
func (s *Store) autoStatus(b *talent.Bucket, key string, score int) talent.Status {
	switch {
	case score >= s.thresholds.Hire:
		if b.Kind == talent.BucketRole && selectedExcluding(b, key) >= b.Positions {
			return talent.StatusWaitlisted
		}
		return talent.StatusSelected
	case score <= s.thresholds.Reject:
		return talent.StatusRejected
	default:
		return talent.StatusWaitlisted
	}
}

// ResolveFormBucket finds the bucket a webhook submission belongs to:
// matching form id first, then a bucket with no form id configured, then
// any bucket, finally a newly created default one.
func (s *Store) ResolveFormBucket(formID, formName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, b := range s.buckets {
		if b.TallyFormID != "" && b.TallyFormID == formID {
			return id, nil
		}
	}
	for id, b := range s.buckets {
		if b.TallyFormID == "" {
			return id, nil
		}
	}
	for id := range s.buckets {
		return id, nil
	}

	name := strings.TrimSpace(formName)
	if name == "" {
		name = "Default Role"
	}
	b := &talent.Bucket{
		ID:          talent.NewBucketID(),
		Kind:        talent.BucketRole,
		Name:        name,
		Positions:   10,
		TallyFormID: formID,
		Candidates:  make(map[string]*talent.Candidate),
		CreatedAt:   time.Now(),
	}
	s.buckets[b.ID] = b

	s.logger.Info("created default bucket for webhook form",
		zap.String("bucket_id", b.ID),
		zap.String("form_id", formID),
	)

	if err := s.flush(); err != nil {
		delete(s.buckets, b.ID)
		return "", err
	}
	return b.ID, nil
}

// Seen reports whether a sheet row id was already imported somewhere.
func (s *Store) Seen(rowID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[rowID]
	return ok
}

// MarkSeen records a sheet row id after a successful import.
func (s *Store) MarkSeen(rowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[rowID] = struct{}{}
	return s.flush()
}

// TouchScan stamps the bucket's last-scanned time.
func (s *Store) TouchScan(bucketID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[bucketID]
	if !ok {
		return ErrNotFound
	}
	b.LastScanned = time.Now()
	return s.flush()
}

// flush writes the current snapshot through the persister. Callers hold the
// lock.
func (s *Store) flush() error {
	seen := make([]string, 0, len(s.seen))
	for id := range s.seen {
		seen = append(seen, id)
	}

	if err := s.persister.Save(&Snapshot{Buckets: s.buckets, SeenRowIDs: seen}); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

func selectedExcluding(b *talent.Bucket, key string) int {
	n := 0
	for k, c := range b.Candidates {
		if k != key && c.Status == talent.StatusSelected {
			n++
		}
	}
	return n
}

func cloneBucket(b *talent.Bucket) *talent.Bucket {
	return cloneJSON(b)
}

func cloneCandidate(c *talent.Candidate) *talent.Candidate {
	return cloneJSON(c)
}

// cloneJSON deep-copies via the same encoding the persister uses, so copies
// can never diverge from what a reload would produce.
func cloneJSON[T any](v *T) *T {
	data, err := json.Marshal(v)
	if err != nil {
		out := *v
		return &out
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		copied := *v
		return &copied
	}
	return &out
}
