package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"buybox_tracker/internal/domain"
	"buybox_tracker/internal/domain/entity"
	"buybox_tracker/pkg/contextx"
	"buybox_tracker/pkg/errcodes"
	"buybox_tracker/pkg/logx"
	"buybox_tracker/pkg/metrics"
)

type DiffEngine interface {
	ProcessItem(ctx context.Context, subjectID string, item entity.TrackedItem) error
}

type SubjectRepository interface {
	Get(ctx context.Context, subjectID string) (*entity.Subject, error)
	List(ctx context.Context) ([]entity.Subject, error)
}

type TrackedItemRepository interface {
	List(ctx context.Context, subjectID string) ([]entity.TrackedItem, error)
}

// CycleResult summarizes one pass over a subject's tracked items.
type CycleResult struct {
	Subjects   int
	Processed  int
	Skipped    int
	Failed     int
	FinishedAt time.Time
}

// Status is a point-in-time view of the scheduler for the admin surface.
type Status struct {
	Running       bool
	CycleInFlight bool
	LastCycleAt   time.Time
	LastResult    *CycleResult
}

// Scheduler drives the diff engine on a fixed cadence. One goroutine owns the
// recurring cycle; manual single-subject runs share the same request pacer so
// the provider never sees bursts regardless of who initiated the work.
type Scheduler struct {
	engine   DiffEngine
	subjects SubjectRepository
	items    TrackedItemRepository

	period    time.Duration
	itemDelay time.Duration
	metrics   *metrics.Tracker

	// Request pacing, shared between cycles and manual triggers.
	paceMu   sync.Mutex
	nextSlot time.Time

	// Control fields. Stopping is signalled through stopCh, not through the
	// cycle's context: an in-flight pass always runs to completion and only
	// process shutdown cancels it mid-flight.
	mu            sync.Mutex
	stopCh        chan struct{}
	isRunning     bool
	wg            sync.WaitGroup
	cycleInFlight atomic.Bool
	lastCycleAt   time.Time
	lastResult    *CycleResult

	// One lock per subject so a manual trigger never interleaves with the
	// recurring cycle on the same subject's items.
	subjectMu sync.Map
}

func NewScheduler(
	engine DiffEngine,
	subjects SubjectRepository,
	items TrackedItemRepository,
	period time.Duration,
	itemDelay time.Duration,
) *Scheduler {
	return &Scheduler{
		engine:    engine,
		subjects:  subjects,
		items:     items,
		period:    period,
		itemDelay: itemDelay,
	}
}

func (w *Scheduler) WithMetrics(m *metrics.Tracker) *Scheduler {
	w.metrics = m
	return w
}

// Start launches the recurring cycle. Starting an already running scheduler
// is a no-op.
func (w *Scheduler) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		logger(ctx).Warn("tracker already running, start ignored")
		return
	}

	stopCh := make(chan struct{})
	w.stopCh = stopCh
	w.isRunning = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			w.isRunning = false
			w.stopCh = nil
			w.mu.Unlock()
		}()

		if err := w.run(ctx, stopCh); err != nil && !errors.Is(err, context.Canceled) {
			logger(ctx).Error("tracker stopped with error", logx.Error(err))
		}
	}()
}

// Stop cancels future cycles and waits for the in-flight pass to finish. The
// running pass is never interrupted. Stopping a stopped scheduler is a no-op.
func (w *Scheduler) Stop() {
	w.mu.Lock()

	if !w.isRunning || w.stopCh == nil {
		w.mu.Unlock()
		return
	}

	close(w.stopCh)
	w.stopCh = nil
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *Scheduler) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	return Status{
		Running:       w.isRunning,
		CycleInFlight: w.cycleInFlight.Load(),
		LastCycleAt:   w.lastCycleAt,
		LastResult:    w.lastResult,
	}
}

func (w *Scheduler) run(ctx context.Context, stop <-chan struct{}) error {
	logger(ctx).Info("tracker started", slog.Duration("period", w.period))

	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	// First pass runs immediately, the ticker handles the rest. Only this
	// select observes the stop signal, so a pass that already began keeps
	// its uncancelled context and runs out.
	w.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			logger(ctx).Info("tracker stopped")
			return ctx.Err()
		case <-stop:
			logger(ctx).Info("tracker stopped")
			return nil
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

// runCycle walks every subject's tracked items once. If the previous cycle is
// still in flight the tick is skipped, never queued.
func (w *Scheduler) runCycle(ctx context.Context) {
	if !w.cycleInFlight.CompareAndSwap(false, true) {
		logger(ctx).Warn("previous cycle still in flight, tick skipped")
		if w.metrics != nil {
			w.metrics.CyclesSkipped.Inc()
		}
		return
	}
	defer w.cycleInFlight.Store(false)

	started := time.Now()

	subjects, err := w.subjects.List(ctx)
	if err != nil {
		logger(ctx).Error("failed to list subjects", logx.Error(err))
		return
	}

	result := CycleResult{Subjects: len(subjects)}

	for _, subject := range subjects {
		select {
		case <-ctx.Done():
			return
		default:
		}

		subjectResult := w.runSubject(ctx, subject.ID)
		result.Processed += subjectResult.Processed
		result.Skipped += subjectResult.Skipped
		result.Failed += subjectResult.Failed
	}

	result.FinishedAt = time.Now()

	w.mu.Lock()
	w.lastCycleAt = result.FinishedAt
	w.lastResult = &result
	w.mu.Unlock()

	if w.metrics != nil {
		w.metrics.CyclesTotal.Inc()
		w.metrics.CycleDuration.Observe(time.Since(started).Seconds())
	}

	logger(ctx).Info("cycle completed",
		slog.Int("subjects", result.Subjects),
		slog.Int("processed", result.Processed),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed),
		slog.Duration("took", time.Since(started)),
	)
}

// TriggerOnce runs a single pass over one subject's items outside the
// recurring cadence. It shares the pacer and the per-subject lock with the
// cycle, so a trigger during a running cycle waits its turn instead of
// doubling the request rate.
func (w *Scheduler) TriggerOnce(ctx context.Context, subjectID string) (CycleResult, error) {
	if _, err := w.subjects.Get(ctx, subjectID); err != nil {
		return CycleResult{}, fmt.Errorf("get subject: %w", err)
	}

	result := w.runSubject(ctx, subjectID)
	result.Subjects = 1
	result.FinishedAt = time.Now()

	return result, nil
}

func (w *Scheduler) runSubject(ctx context.Context, subjectID string) CycleResult {
	lock := w.lockFor(subjectID)
	lock.Lock()
	defer lock.Unlock()

	ctx = contextx.WithSubjectID(ctx, contextx.SubjectID(subjectID))
	ctx = contextx.WithLogger(ctx, logger(ctx).With(slog.String(logx.FieldSubjectID, subjectID)))

	var result CycleResult

	items, err := w.items.List(ctx, subjectID)
	if err != nil {
		logger(ctx).Error("failed to list tracked items", logx.Error(err))
		return result
	}

	for _, item := range items {
		if err := w.waitForNextSlot(ctx); err != nil {
			return result
		}

		err := w.engine.ProcessItem(ctx, subjectID, item)

		switch {
		case err == nil:
			result.Processed++
			w.countItem(metrics.ResultProcessed)
		case domain.HasCode(err, errcodes.OfferNotFound),
			domain.HasCode(err, errcodes.RateLimited):
			result.Skipped++
			w.countItem(metrics.ResultSkipped)
		default:
			result.Failed++
			w.countItem(metrics.ResultFailed)
			logger(ctx).Error("item processing failed",
				slog.String(logx.FieldItemID, item.ItemID),
				logx.Error(err),
			)
		}
	}

	return result
}

// waitForNextSlot reserves the next provider slot and sleeps until it opens.
// Reservation happens under the lock, sleeping does not, so concurrent
// callers line up itemDelay apart.
func (w *Scheduler) waitForNextSlot(ctx context.Context) error {
	w.paceMu.Lock()
	now := time.Now()
	slot := w.nextSlot
	if slot.Before(now) {
		slot = now
	}
	w.nextSlot = slot.Add(w.itemDelay)
	w.paceMu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return nil
	}

	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Scheduler) lockFor(subjectID string) *sync.Mutex {
	lock, _ := w.subjectMu.LoadOrStore(subjectID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (w *Scheduler) countItem(result string) {
	if w.metrics != nil {
		w.metrics.ItemsProcessed.WithLabelValues(result).Inc()
	}
}
