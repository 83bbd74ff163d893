package tuning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/leakscan/pkg/detector"
)

// Applier merges tuning overrides. *detector.Detector implements it.
type Applier interface {
	Apply(t detector.Tuning) detector.MergeReport
}

// Observer is notified after every load attempt.
type Observer interface {
	ObserveTuningLoad(source string, report detector.MergeReport, err error)
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// Logger receives load outcomes. Defaults to slog.Default().
	Logger *slog.Logger

	// Observer receives load outcomes, typically a metrics collector.
	Observer Observer

	// Watch reloads on file changes. Only effective for a *FileSource.
	Watch bool

	// DebounceInterval is the watcher's quiet period.
	DebounceInterval time.Duration

	// RefreshSchedule is a cron expression for periodic reloads.
	RefreshSchedule string
}

// Status describes the loader's most recent attempt.
type Status struct {
	Source          string    `json:"source"`
	Ready           bool      `json:"ready"`
	Loaded          bool      `json:"loaded"`
	Version         uint64    `json:"version"`
	LastAttempt     time.Time `json:"last_attempt"`
	LastSuccess     time.Time `json:"last_success"`
	LastError       string    `json:"last_error,omitempty"`
	DocumentVersion string    `json:"document_version,omitempty"`
	ModelType       string    `json:"model_type,omitempty"`
	SkippedPatterns int       `json:"skipped_patterns"`
}

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("tuning loader already started")

// Loader fetches tuning documents and merges them into a detector.
// The first load runs in the background; failures leave the detector on
// its current tables.
type Loader struct {
	target   Applier
	source   Source
	opts     LoaderOptions
	logger   *slog.Logger
	observer Observer

	ready     chan struct{}
	readyOnce sync.Once

	// reloadMu serializes loads from Start, the watcher, the scheduler and
	// explicit Reload calls.
	reloadMu sync.Mutex

	mu        sync.RWMutex
	status    Status
	started   bool
	cancel    context.CancelFunc
	watcher   *FileWatcher
	scheduler *Scheduler
	wg        sync.WaitGroup

	startScheduler func(*Scheduler, context.Context) error
}

// NewLoader creates a loader that merges documents from src into target.
func NewLoader(target Applier, src Source, opts LoaderOptions) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		target:   target,
		source:   src,
		opts:     opts,
		logger:   logger.With("component", "tuning.loader", "source", src.String()),
		observer: opts.Observer,
		ready:    make(chan struct{}),
		status:   Status{Source: src.String()},

		startScheduler: (*Scheduler).Start,
	}
}

// Start launches the initial load in the background and, when configured,
// the file watcher and refresh scheduler. It returns without waiting for
// the load; use Ready or WaitReady for that.
func (l *Loader) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return ErrAlreadyStarted
	}
	if l.opts.RefreshSchedule != "" {
		if err := ValidateSchedule(l.opts.RefreshSchedule); err != nil {
			l.mu.Unlock()
			return err
		}
	}
	ctx, cancel := context.WithCancel(ctx)

	// The scheduler goes first so a failure leaves nothing running and the
	// loader can be started again.
	var sched *Scheduler
	if l.opts.RefreshSchedule != "" {
		sched = NewScheduler(l.opts.RefreshSchedule, func(ctx context.Context) {
			_, _ = l.Reload(ctx)
		}, l.logger)
		if err := l.startScheduler(sched, ctx); err != nil {
			cancel()
			l.mu.Unlock()
			return err
		}
	}
	l.cancel = cancel
	l.scheduler = sched
	l.started = true
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer l.markReady()
		_, _ = l.Reload(ctx)
	}()

	if l.opts.Watch {
		if err := l.startWatcher(ctx); err != nil {
			l.logger.Warn("tuning file watch disabled", "error", err)
		}
	}

	return nil
}

func (l *Loader) startWatcher(ctx context.Context) error {
	fs, ok := l.source.(*FileSource)
	if !ok {
		return fmt.Errorf("source %s is not a file", l.source)
	}

	w, err := NewFileWatcher(fs.Path(), l.opts.DebounceInterval, l.logger)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.watcher = w
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := w.Watch(ctx, func() { _, _ = l.Reload(ctx) }); err != nil {
			l.logger.Error("tuning file watcher exited", "error", err)
		}
	}()
	return nil
}

// Reload loads the document now and merges it. Errors are logged, recorded
// in Status, and returned; the detector keeps its previous tables.
func (l *Loader) Reload(ctx context.Context) (detector.MergeReport, error) {
	l.reloadMu.Lock()
	defer l.reloadMu.Unlock()

	started := time.Now()
	doc, err := l.source.Load(ctx)
	if err != nil {
		l.recordFailure(started, err)
		l.logger.Warn("tuning document not loaded, keeping current rules", "error", err)
		if l.observer != nil {
			l.observer.ObserveTuningLoad(l.source.String(), detector.MergeReport{}, err)
		}
		return detector.MergeReport{}, err
	}

	report := l.target.Apply(doc.Tuning())
	report.PatternErrors = append(doc.PatternRejections(), report.PatternErrors...)
	for _, rej := range doc.Rejected {
		if rej.Section != sectionPatterns {
			l.logger.Warn("skipped malformed tuning entry", "section", rej.Section, "key", rej.Key, "error", rej.Err)
		}
	}
	for _, perr := range report.PatternErrors {
		l.logger.Warn("skipped invalid tuning pattern", "tag", perr.Tag, "error", perr.Err)
	}

	l.mu.Lock()
	l.status.LastAttempt = started
	l.status.LastSuccess = started
	l.status.LastError = ""
	l.status.Loaded = true
	l.status.Version = report.Version
	l.status.DocumentVersion = doc.Version
	l.status.ModelType = doc.ModelType()
	l.status.SkippedPatterns = len(report.PatternErrors)
	l.mu.Unlock()

	l.logger.Info("tuning document applied",
		"version", report.Version,
		"patterns", len(report.PatternsApplied),
		"skipped_patterns", len(report.PatternErrors),
		"categories", len(report.CategoriesApplied),
		"ml_keywords", report.MLKeywords,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if l.observer != nil {
		l.observer.ObserveTuningLoad(l.source.String(), report, nil)
	}
	return report, nil
}

func (l *Loader) recordFailure(at time.Time, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status.LastAttempt = at
	l.status.LastError = err.Error()
}

func (l *Loader) markReady() {
	l.readyOnce.Do(func() { close(l.ready) })
}

// Ready is closed once the first load attempt has finished, whether or not
// it succeeded.
func (l *Loader) Ready() <-chan struct{} {
	return l.ready
}

// WaitReady blocks until Ready is closed or ctx is done.
func (l *Loader) WaitReady(ctx context.Context) error {
	select {
	case <-l.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a copy of the loader status.
func (l *Loader) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := l.status
	select {
	case <-l.ready:
		s.Ready = true
	default:
	}
	return s
}

// Stop cancels background work and waits for it to finish.
func (l *Loader) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	watcher := l.watcher
	scheduler := l.scheduler
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			l.logger.Warn("failed to stop tuning watcher", "error", err)
		}
	}
	l.wg.Wait()
}
