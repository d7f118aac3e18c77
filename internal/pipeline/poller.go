package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"talentlens/internal/logger"
	"talentlens/internal/store"
	"talentlens/internal/talent"
)

// DefaultPollInterval matches the original sheet poll cadence.
const DefaultPollInterval = 5 * time.Minute

// newTicker is swapped out in tests to drive ticks without real waits.
var newTicker = func(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// SheetSource fetches candidate rows from a published sheet.
type SheetSource interface {
	FetchRows(ctx context.Context, sheetURL string) ([]*talent.Candidate, error)
}

// CandidateAnalyzer is the slice of Analyzer the poller triggers for newly
// imported rows.
type CandidateAnalyzer interface {
	AnalyzeCandidate(ctx context.Context, bucketID, key string) error
}

// Poller periodically imports sheet rows: the global sheet feeds the first
// role bucket, and every bucket with its own sheet URL is imported too.
type Poller struct {
	store     *store.Store
	sheets    SheetSource
	analyzer  CandidateAnalyzer
	globalURL string
	interval  time.Duration
	logger    *zap.Logger
}

func NewPoller(st *store.Store, sheets SheetSource, analyzer CandidateAnalyzer, globalURL string, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		store:     st,
		sheets:    sheets,
		analyzer:  analyzer,
		globalURL: globalURL,
		interval:  interval,
		logger:    logger,
	}
}

// Run imports once immediately, then on every tick until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.ImportAll(ctx)

	ticks, stop := newTicker(p.interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("sheet poller stopped")
			return
		case <-ticks:
			p.ImportAll(ctx)
		}
	}
}

// ImportAll walks every configured sheet once and returns how many new
// candidates were imported.
func (p *Poller) ImportAll(ctx context.Context) int {
	total := 0

	if p.globalURL != "" {
		if id, ok := p.firstRoleBucket(); ok {
			total += p.importSheet(ctx, id, p.globalURL)
		} else {
			p.logger.Debug("global sheet configured but no role bucket exists")
		}
	}

	for _, b := range p.store.ListBuckets() {
		if b.SheetURL == "" {
			continue
		}
		total += p.importSheet(ctx, b.ID, b.SheetURL)
	}

	if total > 0 {
		p.logger.Info("sheet import finished", zap.Int("new_candidates", total))
	}
	return total
}

// ImportBucket imports one bucket's sheet on demand and returns how many
// new candidates arrived.
func (p *Poller) ImportBucket(ctx context.Context, bucketID string) (int, error) {
	b, err := p.store.GetBucket(bucketID)
	if err != nil {
		return 0, err
	}

	url := b.SheetURL
	if url == "" {
		url = p.globalURL
	}
	if url == "" {
		return 0, nil
	}
	return p.importSheet(ctx, bucketID, url), nil
}

func (p *Poller) importSheet(ctx context.Context, bucketID, sheetURL string) int {
	rows, err := p.sheets.FetchRows(ctx, sheetURL)
	if err != nil {
		p.logger.Warn("sheet fetch failed",
			zap.String("bucket", bucketID),
			zap.Error(err),
		)
		return 0
	}

	added := 0
	for _, row := range rows {
		key := row.Key()
		if p.store.ContainsKey(bucketID, key) || p.store.Seen(key) {
			continue
		}

		if _, err := p.store.Upsert(bucketID, row); err != nil {
			fields := append(logger.CandidateFields(bucketID, key), zap.Error(err))
			p.logger.Warn("sheet row upsert failed", fields...)
			continue
		}
		// Marked seen only after the row is durably stored.
		if err := p.store.MarkSeen(key); err != nil {
			p.logger.Warn("mark seen failed", zap.String("candidate", key), zap.Error(err))
		}
		added++

		go func(key string) {
			if err := p.analyzer.AnalyzeCandidate(ctx, bucketID, key); err != nil {
				fields := append(logger.CandidateFields(bucketID, key), zap.Error(err))
				p.logger.Warn("imported row analysis failed", fields...)
			}
		}(key)
	}

	return added
}

func (p *Poller) firstRoleBucket() (string, bool) {
	for _, b := range p.store.ListBuckets() {
		if b.Kind == talent.BucketRole {
			return b.ID, true
		}
	}
	return "", false
}
