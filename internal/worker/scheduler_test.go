package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"buybox_tracker/internal/domain"
	"buybox_tracker/internal/domain/entity"
	"buybox_tracker/pkg/errcodes"
)

type fakeEngine struct {
	mu      sync.Mutex
	calls   []string
	results map[string]error
}

func (e *fakeEngine) ProcessItem(_ context.Context, _ string, item entity.TrackedItem) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, item.ItemID)
	return e.results[item.ItemID]
}

func (e *fakeEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

type fakeSubjects struct {
	subjects []entity.Subject
}

func (r *fakeSubjects) Get(_ context.Context, subjectID string) (*entity.Subject, error) {
	for _, subject := range r.subjects {
		if subject.ID == subjectID {
			copied := subject
			return &copied, nil
		}
	}
	return nil, domain.NewError(errcodes.SubjectNotFound, "subject not found")
}

func (r *fakeSubjects) List(context.Context) ([]entity.Subject, error) {
	return r.subjects, nil
}

type fakeItems struct {
	items map[string][]entity.TrackedItem
}

func (r *fakeItems) List(_ context.Context, subjectID string) ([]entity.TrackedItem, error) {
	return r.items[subjectID], nil
}

func testScheduler(engine *fakeEngine, itemIDs ...string) *Scheduler {
	items := make([]entity.TrackedItem, 0, len(itemIDs))
	for _, id := range itemIDs {
		items = append(items, entity.TrackedItem{SubjectID: "subject-1", ItemID: id})
	}

	return NewScheduler(
		engine,
		&fakeSubjects{subjects: []entity.Subject{{ID: "subject-1"}}},
		&fakeItems{items: map[string][]entity.TrackedItem{"subject-1": items}},
		time.Hour, // period irrelevant, cycles are driven manually or once
		0,
	)
}

func TestTriggerOnceClassifiesItemResults(t *testing.T) {
	rq := require.New(t)

	engine := &fakeEngine{results: map[string]error{
		"item-skipped-notfound": domain.NewError(errcodes.OfferNotFound, "no featured offer holder"),
		"item-skipped-limited":  domain.NewError(errcodes.RateLimited, "provider rate limit exceeded"),
		"item-failed":           domain.NewError(errcodes.ProviderUnavailable, "provider request failed"),
	}}

	w := testScheduler(engine,
		"item-ok-1", "item-ok-2",
		"item-skipped-notfound", "item-skipped-limited",
		"item-failed",
	)

	result, err := w.TriggerOnce(context.Background(), "subject-1")
	rq.NoError(err)

	rq.Equal(1, result.Subjects)
	rq.Equal(2, result.Processed)
	rq.Equal(2, result.Skipped)
	rq.Equal(1, result.Failed)
	rq.False(result.FinishedAt.IsZero())
	rq.Equal(5, engine.callCount())
}

func TestTriggerOnceUnknownSubject(t *testing.T) {
	rq := require.New(t)

	engine := &fakeEngine{}
	w := testScheduler(engine, "item-1")

	_, err := w.TriggerOnce(context.Background(), "nobody")
	rq.Error(err)
	rq.True(domain.HasCode(err, errcodes.SubjectNotFound))
	rq.Zero(engine.callCount())
}

func TestSchedulerStartStop(t *testing.T) {
	rq := require.New(t)

	engine := &fakeEngine{}
	w := testScheduler(engine, "item-1", "item-2")

	rq.False(w.Status().Running)

	w.Start(context.Background())
	rq.True(w.Status().Running)

	// The first cycle runs immediately on start.
	rq.Eventually(func() bool {
		return engine.callCount() >= 2
	}, time.Second, 5*time.Millisecond)

	rq.Eventually(func() bool {
		return w.Status().LastResult != nil
	}, time.Second, 5*time.Millisecond)

	status := w.Status()
	rq.Equal(2, status.LastResult.Processed)
	rq.False(status.LastCycleAt.IsZero())

	w.Stop()
	rq.False(w.Status().Running)

	// Stopping again is a no-op.
	w.Stop()
}

func TestSchedulerStartTwiceIsNoOp(t *testing.T) {
	rq := require.New(t)

	engine := &fakeEngine{}
	w := testScheduler(engine, "item-1")

	w.Start(context.Background())
	defer w.Stop()

	w.Start(context.Background())
	rq.True(w.Status().Running)

	rq.Eventually(func() bool {
		return w.Status().LastResult != nil
	}, time.Second, 5*time.Millisecond)

	// A single recurring goroutine means exactly one immediate cycle.
	rq.Equal(1, engine.callCount())
}

type blockingEngine struct {
	mu          sync.Mutex
	calls       int
	inFlight    int
	maxInFlight int
	delay       time.Duration
}

func (e *blockingEngine) ProcessItem(context.Context, string, entity.TrackedItem) error {
	e.mu.Lock()
	e.calls++
	e.inFlight++
	if e.inFlight > e.maxInFlight {
		e.maxInFlight = e.inFlight
	}
	e.mu.Unlock()

	time.Sleep(e.delay)

	e.mu.Lock()
	e.inFlight--
	e.mu.Unlock()

	return nil
}

func (e *blockingEngine) busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inFlight > 0
}

func (e *blockingEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func TestStopWaitsOutInFlightCycle(t *testing.T) {
	rq := require.New(t)

	// The item delay is long enough that the pacer actually sleeps between
	// items; a stop signal must not cut those waits short.
	engine := &blockingEngine{delay: 5 * time.Millisecond}
	w := NewScheduler(
		engine,
		&fakeSubjects{subjects: []entity.Subject{{ID: "subject-1"}}},
		&fakeItems{items: map[string][]entity.TrackedItem{
			"subject-1": {
				{SubjectID: "subject-1", ItemID: "item-1"},
				{SubjectID: "subject-1", ItemID: "item-2"},
				{SubjectID: "subject-1", ItemID: "item-3"},
			},
		}},
		time.Hour,
		50*time.Millisecond,
	)

	w.Start(context.Background())
	rq.Eventually(engine.busy, time.Second, time.Millisecond)

	w.Stop()

	// Stop blocks until the running pass completes all items.
	rq.Equal(3, engine.callCount())
	rq.False(w.Status().Running)
	rq.NotNil(w.Status().LastResult)
	rq.Equal(3, w.Status().LastResult.Processed)
}

func TestCycleTickSkippedWhileInFlight(t *testing.T) {
	rq := require.New(t)

	engine := &blockingEngine{delay: 100 * time.Millisecond}
	w := NewScheduler(
		engine,
		&fakeSubjects{subjects: []entity.Subject{{ID: "subject-1"}}},
		&fakeItems{items: map[string][]entity.TrackedItem{
			"subject-1": {{SubjectID: "subject-1", ItemID: "item-1"}},
		}},
		time.Hour,
		0,
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.runCycle(context.Background())
	}()

	rq.Eventually(engine.busy, time.Second, time.Millisecond)

	// Second tick while the first cycle still runs: returns immediately.
	started := time.Now()
	w.runCycle(context.Background())
	rq.Less(time.Since(started), engine.delay)
	rq.True(w.Status().CycleInFlight)

	<-done
	rq.NotNil(w.Status().LastResult)
	rq.Equal(1, w.Status().LastResult.Processed)
}

func TestTriggerOnceSameSubjectDoesNotOverlap(t *testing.T) {
	rq := require.New(t)

	engine := &blockingEngine{delay: 30 * time.Millisecond}
	w := NewScheduler(
		engine,
		&fakeSubjects{subjects: []entity.Subject{{ID: "subject-1"}}},
		&fakeItems{items: map[string][]entity.TrackedItem{
			"subject-1": {
				{SubjectID: "subject-1", ItemID: "item-1"},
				{SubjectID: "subject-1", ItemID: "item-2"},
			},
		}},
		time.Hour,
		0,
	)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.TriggerOnce(context.Background(), "subject-1")
			rq.NoError(err)
		}()
	}
	wg.Wait()

	// The subject lock serializes the two runs.
	rq.Equal(1, engine.maxInFlight)
}

func TestWaitForNextSlotPacesItems(t *testing.T) {
	rq := require.New(t)

	const delay = 20 * time.Millisecond

	engine := &fakeEngine{}
	w := testScheduler(engine, "item-1", "item-2", "item-3")
	w.itemDelay = delay

	started := time.Now()
	result, err := w.TriggerOnce(context.Background(), "subject-1")
	rq.NoError(err)
	rq.Equal(3, result.Processed)

	// First item is immediate, the second and third wait a slot each.
	rq.GreaterOrEqual(time.Since(started), 2*delay)
}

func TestWaitForNextSlotHonorsCancellation(t *testing.T) {
	rq := require.New(t)

	engine := &fakeEngine{}
	w := testScheduler(engine, "item-1", "item-2")
	w.itemDelay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	started := time.Now()
	result, err := w.TriggerOnce(ctx, "subject-1")
	rq.NoError(err)

	// The first item processes, the second aborts inside its wait.
	rq.Equal(1, result.Processed)
	rq.Less(time.Since(started), time.Second)
}
