package importer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linkln33/garden-buddy-sub000/internal/logging"
	"github.com/linkln33/garden-buddy-sub000/internal/pesticide"
	"github.com/linkln33/garden-buddy-sub000/internal/store"
)

// Options configures a Service.
type Options struct {
	// Workers is the number of reconciliation shards per run.
	Workers int

	// MaxConcurrent bounds simultaneous import runs.
	MaxConcurrent int

	// MaxWait is how long a run waits for a slot before rejection.
	MaxWait time.Duration

	// CropCacheTTL bounds how long resolved crop names are memoized.
	CropCacheTTL time.Duration

	// RetainRuns caps how many finished run reports are kept for the API.
	RetainRuns int
}

// DefaultRetainRuns is how many finished runs are kept when Options
// does not say otherwise.
const DefaultRetainRuns = 50

// Run is one import execution: parse plus reconciliation.
type Run struct {
	ID         uuid.UUID `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Report     Report    `json:"report"`
}

// Service ties the parser and the engine together behind a concurrency
// limiter and keeps a bounded history of finished runs.
type Service struct {
	parser  *pesticide.Parser
	engine  *Engine
	limiter *Limiter
	retain  int

	mu    sync.RWMutex
	runs  map[uuid.UUID]*Run
	order []uuid.UUID // insertion order, oldest first
}

// NewService creates an import service over st.
func NewService(st store.Store, opts Options) *Service {
	retain := opts.RetainRuns
	if retain <= 0 {
		retain = DefaultRetainRuns
	}
	return &Service{
		parser:  pesticide.NewParser(pesticide.NewLookupCache(opts.CropCacheTTL)),
		engine:  NewEngine(st, opts.Workers),
		limiter: NewLimiter(opts.MaxConcurrent, opts.MaxWait),
		retain:  retain,
		runs:    make(map[uuid.UUID]*Run),
	}
}

// Run parses data and imports the resulting records, returning the
// finished run. Returns ErrTooManyImports when no slot frees up in time.
// An empty or header-only blob completes normally with an empty report
// ("nothing to import" is a result, not an error).
func (s *Service) Run(ctx context.Context, data string) (*Run, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	run := &Run{
		ID:        uuid.New(),
		StartedAt: time.Now(),
	}
	logger := logging.WithFields(ctx, "run_id", run.ID)
	logger.Info("import started", "bytes", len(data))

	records, stats := s.parser.Parse(ctx, data)
	report := s.engine.Import(ctx, records)
	report.RowsSeen = stats.RowsSeen
	report.RowsSkipped = stats.RowsSkipped

	run.Report = report
	run.FinishedAt = time.Now()

	logger.Info("import finished",
		"rows_seen", report.RowsSeen,
		"rows_skipped", report.RowsSkipped,
		"success", report.SuccessCount,
		"errors", report.ErrorCount,
		"duration_ms", run.FinishedAt.Sub(run.StartedAt).Milliseconds(),
	)

	s.remember(run)
	return run, nil
}

// Get returns a finished run by ID.
func (s *Service) Get(id uuid.UUID) (*Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	return run, ok
}

// ActiveCount reports how many runs are currently in flight.
func (s *Service) ActiveCount() int {
	return s.limiter.ActiveCount()
}

// WaitForDrain blocks until in-flight runs finish or ctx is cancelled.
func (s *Service) WaitForDrain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// remember stores a finished run, evicting the oldest beyond the cap.
func (s *Service) remember(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)
	for len(s.order) > s.retain {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
}
