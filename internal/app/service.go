// Package service runs the persona segmentation pipeline and serves lookups
// over the resulting segment table.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	repository "github.com/okian/persona/internal/adapters/repository"
	"github.com/okian/persona/internal/domain/aggregate"
	"github.com/okian/persona/internal/domain/bucket"
	"github.com/okian/persona/internal/domain/dedupe"
	"github.com/okian/persona/internal/domain/model"
	"github.com/okian/persona/internal/domain/persona"
	"github.com/okian/persona/internal/domain/segment"
	"github.com/okian/persona/pkg/logger"
	"github.com/okian/persona/pkg/metrics"
	"github.com/okian/persona/pkg/tracing"
)

// Stage names used in logs, spans and metrics.
const (
	StageAggregate = "aggregate"
	StageBucket    = "bucket"
	StagePersona   = "persona"
	StageDedupe    = "dedupe"
	StageSegment   = "segment"
	StageStore     = "store"
)

const (
	tracerName            = "github.com/okian/persona/internal/app"
	microsecondsPerMillis = 1000.0
)

// Result is the output of one pipeline run.
type Result struct {
	RunID        string
	Transactions int
	Groups       []model.GroupMean
	AgeLabels    []string
	PersonaRows  int
	Unresolved   int
	Segments     []model.Segment // ordered by mean price desc, key asc
	Summary      []model.SegmentSummary
	Duration     time.Duration
}

// Service runs the pipeline stages in order and keeps the segment table of
// the last successful run for queries.
type Service struct {
	mu sync.RWMutex

	// Stage components
	deduper   dedupe.Deduper
	segmenter segment.Segmenter
	labels    []string
	newStore  func(ctx context.Context) repository.Store

	// State of the last successful run
	store repository.Store
	last  *Result

	tracer trace.Tracer
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSegmentLabels sets the tier labels in ascending price order. Fewer
// than two labels are ignored.
func WithSegmentLabels(labels ...string) Option {
	return func(s *Service) {
		if len(labels) < 2 {
			return
		}
		s.labels = append([]string(nil), labels...)
		s.segmenter = segment.NewQuantileSegmenter(segment.WithLabels(s.labels...))
	}
}

// WithDeduper replaces the mean-of-means deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithStoreFactory sets how the segment table of each run is created.
func WithStoreFactory(fn func(ctx context.Context) repository.Store) Option {
	return func(s *Service) {
		if fn != nil {
			s.newStore = fn
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		deduper:   dedupe.NewMeanOfMeans(),
		segmenter: segment.NewQuantileSegmenter(),
		labels:    append([]string(nil), segment.DefaultLabels...),
		newStore: func(ctx context.Context) repository.Store {
			return repository.NewTreapStore(ctx)
		},
		tracer: tracing.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("pipeline")
	}
	return s
}

// Run executes every stage over txs. On success the segment table of the
// run replaces the previous one; on failure the previous table is kept.
func (s *Service) Run(ctx context.Context, txs []model.Transaction) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString(), Transactions: len(txs)}

	ctx, span := s.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run_id", res.RunID),
		attribute.Int("transactions", len(txs)),
	))
	defer span.End()

	log := s.logger.With(logger.String("run_id", res.RunID))
	log.Info(ctx, "pipeline run started", logger.Int("transactions", len(txs)))
	metrics.RecordTransactionsLoaded(len(txs))

	store, err := s.run(ctx, log, txs, res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordRun("failure")
		log.Error(ctx, "pipeline run failed", logger.Error(err))
		return nil, err
	}
	res.Duration = time.Since(start)

	s.mu.Lock()
	s.store = store
	s.last = res
	s.mu.Unlock()

	metrics.ResetSegments()
	for _, sum := range res.Summary {
		metrics.UpdateSegment(sum.Label, sum.Count, sum.MeanPrice)
	}
	metrics.RecordRun("success")
	metrics.UpdateLastRunUnix(float64(time.Now().Unix()))

	log.Info(ctx, "pipeline run finished",
		logger.Int("personas", len(res.Segments)),
		logger.Int("unresolved_ages", res.Unresolved),
		logger.String("duration", res.Duration.String()),
	)
	return res, nil
}

func (s *Service) run(ctx context.Context, log logger.Logger, txs []model.Transaction, res *Result) (repository.Store, error) {
	err := s.stage(ctx, log, StageAggregate, func(ctx context.Context) (int, error) {
		groups, err := aggregate.GroupMeans(ctx, txs)
		res.Groups = groups
		return len(groups), err
	})
	if err != nil {
		return nil, err
	}
	metrics.UpdateGroups(len(res.Groups))

	// Quantiles over nothing are undefined; fail before deriving age edges.
	if len(res.Groups) == 0 {
		metrics.RecordStageError(StageSegment)
		return nil, fmt.Errorf("%s: %w: no transactions", StageSegment, segment.ErrEmptyPopulation)
	}

	var b *bucket.Bucketer
	err = s.stage(ctx, log, StageBucket, func(ctx context.Context) (int, error) {
		var err error
		b, err = bucket.FromGroups(ctx, res.Groups)
		if err != nil {
			return 0, err
		}
		res.AgeLabels = b.Labels()
		return len(res.AgeLabels), nil
	})
	if err != nil {
		return nil, err
	}

	var built persona.Result
	err = s.stage(ctx, log, StagePersona, func(ctx context.Context) (int, error) {
		var err error
		built, err = persona.Build(ctx, res.Groups, b)
		return len(built.Rows), err
	})
	if err != nil {
		return nil, err
	}
	res.PersonaRows = len(built.Rows)
	res.Unresolved = built.Unresolved
	metrics.UpdatePersonaRows(res.PersonaRows)
	if built.Unresolved > 0 {
		metrics.RecordUnresolvedAges(built.Unresolved)
		log.Warn(ctx, "ages outside every bucket", logger.Int("rows", built.Unresolved), logger.String("label", model.UnresolvedLabel))
	}

	var rows []model.PersonaRow
	err = s.stage(ctx, log, StageDedupe, func(ctx context.Context) (int, error) {
		var err error
		rows, err = s.deduper.Dedupe(ctx, built.Rows)
		return len(rows), err
	})
	if err != nil {
		return nil, err
	}
	metrics.UpdatePersonas(len(rows))

	err = s.stage(ctx, log, StageSegment, func(ctx context.Context) (int, error) {
		var err error
		res.Segments, err = s.segmenter.Segment(ctx, rows)
		return len(res.Segments), err
	})
	if err != nil {
		return nil, err
	}
	res.Summary = segment.Summarize(res.Segments, s.labels)

	store := s.newStore(ctx)
	err = s.stage(ctx, log, StageStore, func(ctx context.Context) (int, error) {
		for _, seg := range res.Segments {
			if err := store.Put(ctx, seg); err != nil {
				return 0, fmt.Errorf("put %s: %w", seg.PersonaKey, err)
			}
		}
		return store.Count(ctx), nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// stage runs fn inside its own span, recording duration, errors and the
// number of rows it produced.
func (s *Service) stage(ctx context.Context, log logger.Logger, name string, fn func(ctx context.Context) (int, error)) error {
	ctx, span := s.tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	n, err := fn(ctx)
	elapsed := time.Since(start)
	metrics.RecordStageDuration(name, float64(elapsed.Microseconds())/microsecondsPerMillis)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordStageError(name)
		return fmt.Errorf("%s: %w", name, err)
	}
	span.SetAttributes(attribute.Int("rows", n))
	log.Debug(ctx, "stage done", logger.String("stage", name), logger.Int("rows", n), logger.String("elapsed", elapsed.String()))
	return nil
}

// Lookup returns the segment for an exact persona key from the last run.
// An unknown key, or no run yet, reports false.
func (s *Service) Lookup(ctx context.Context, key string) (model.Segment, bool) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()

	if store == nil {
		return model.Segment{}, false
	}
	return store.Lookup(ctx, key)
}

// Rank returns the dense price rank of a persona.
func (s *Service) Rank(ctx context.Context, key string) (repository.Entry, error) {
	store, err := s.current()
	if err != nil {
		return repository.Entry{}, err
	}
	return store.Rank(ctx, key)
}

// TopN returns the n most expensive personas.
func (s *Service) TopN(ctx context.Context, n int) ([]repository.Entry, error) {
	store, err := s.current()
	if err != nil {
		return nil, err
	}
	return store.TopN(ctx, n)
}

// Suggest returns up to n stored keys that fuzzy-match key, best first.
func (s *Service) Suggest(ctx context.Context, key string, n int) []string {
	store, err := s.current()
	if err != nil || n <= 0 {
		return nil
	}
	matches := fuzzy.FindFrom(key, keySource(store.Keys(ctx)))
	out := make([]string, 0, min(n, len(matches)))
	for _, m := range matches {
		if len(out) == n {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

// Last returns the result of the last successful run.
func (s *Service) Last() (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, ErrNoRun
	}
	return s.last, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"ran":    s.last != nil,
		"labels": append([]string(nil), s.labels...),
	}
	if s.last != nil {
		stats["runID"] = s.last.RunID
		stats["transactions"] = s.last.Transactions
		stats["groups"] = len(s.last.Groups)
		stats["personas"] = s.store.Count(context.Background())
		stats["unresolvedAges"] = s.last.Unresolved
	}
	return stats
}

func (s *Service) current() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, ErrNoRun
	}
	return s.store, nil
}

// keySource exposes persona keys to fuzzy.FindFrom.
type keySource []string

func (k keySource) String(i int) string { return k[i] }
func (k keySource) Len() int            { return len(k) }
