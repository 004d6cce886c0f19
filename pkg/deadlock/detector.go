package deadlock

import (
	"context"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"deadlockwatch/pkg/dlerror"
	"deadlockwatch/pkg/logging"
	"deadlockwatch/pkg/primitives"
)

// lifecycleState is the background worker's state machine:
// Idle -> Running -> Stopping -> Idle. Only one transition is ever in
// flight; concurrent starts while non-Idle are ignored with a warning and
// concurrent stops are idempotent.
type lifecycleState int32

const (
	stateIdle lifecycleState = iota
	stateRunning
	stateStopping
)

// DefaultInterval is used when Start is called with a non-positive
// interval.
const DefaultInterval = time.Second

// Detector is the process-wide deadlock detector: the single instance
// required by the observation layer. Callers create
// one with New, wire OnLockBefore/OnLockAfter/OnUnlockAfter into their
// lock/unlock paths (directly, or via pkg/guard), and call Start to begin
// periodic background detection. When the background worker finds a
// cycle it writes a full report to the writer set by SetReportWriter
// (os.Stderr by default) before going idle.
type Detector struct {
	tables *Tables
	graph  *WaitForGraph

	state lifecycleState

	lifecycleMu sync.Mutex // guards cancel/eg/interval across Start/Stop
	cancel      context.CancelFunc
	eg          *errgroup.Group
	interval    time.Duration

	checkMu sync.Mutex // serializes detection passes over the shared graph

	detectedMu       sync.Mutex
	deadlockDetected bool
	deadlockAt       time.Time
	lastCycle        []primitives.ThreadID

	reportMu     sync.Mutex
	reportWriter io.Writer // where loop() writes the report on self-detection
}

// New returns an idle detector with no locks or threads observed yet.
//
// A finalizer is registered that calls Stop once the Detector becomes
// unreachable. While the background worker is running its goroutine holds
// a reference to the Detector, so a started Detector is never collected and
// its worker keeps running until Stop is called or it detects a deadlock.
func New() *Detector {
	d := &Detector{
		tables:       NewTables(),
		graph:        NewWaitForGraph(),
		interval:     DefaultInterval,
		reportWriter: os.Stderr,
	}
	runtime.SetFinalizer(d, (*Detector).finalize)
	return d
}

func (d *Detector) finalize() {
	d.Stop()
}

// SetReportWriter redirects where the background worker writes its deadlock
// report when CheckDeadlock first finds a cycle. Defaults to os.Stderr.
func (d *Detector) SetReportWriter(w io.Writer) {
	d.reportMu.Lock()
	defer d.reportMu.Unlock()
	d.reportWriter = w
}

func (d *Detector) currentReportWriter() io.Writer {
	d.reportMu.Lock()
	defer d.reportMu.Unlock()
	return d.reportWriter
}

// Start begins the background detector with the given polling interval.
// A non-positive interval falls back to DefaultInterval. Calling Start
// while the detector is not Idle is programmer misuse: it is rejected
// and logged as a warning.
func (d *Detector) Start(interval time.Duration) error {
	if !atomic.CompareAndSwapInt32((*int32)(&d.state), int32(stateIdle), int32(stateRunning)) {
		logging.WithComponent("detector").Warn("start called while detector is not idle")
		return dlerror.New(dlerror.ErrCategoryMisuse, dlerror.CodeAlreadyRunning, "detector already running")
	}

	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	eg, loopCtx := errgroup.WithContext(ctx)

	d.lifecycleMu.Lock()
	d.cancel = cancel
	d.eg = eg
	d.interval = interval
	d.lifecycleMu.Unlock()

	eg.Go(func() error { return d.loop(loopCtx) })

	logging.WithComponent("detector").Info("detector started")
	return nil
}

// Stop ends background detection and waits for the worker to exit.
// Idempotent: calling Stop on an Idle detector is a no-op.
func (d *Detector) Stop() {
	if atomic.LoadInt32((*int32)(&d.state)) == int32(stateIdle) {
		return
	}
	atomic.CompareAndSwapInt32((*int32)(&d.state), int32(stateRunning), int32(stateStopping))

	d.lifecycleMu.Lock()
	cancel := d.cancel
	eg := d.eg
	d.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if eg != nil {
		_ = eg.Wait()
	}

	atomic.StoreInt32((*int32)(&d.state), int32(stateIdle))
	logging.WithComponent("detector").Info("detector stopped")
}

// IsRunning reports whether the background worker is currently active.
func (d *Detector) IsRunning() bool {
	return atomic.LoadInt32((*int32)(&d.state)) == int32(stateRunning)
}

// SetInterval changes the polling interval; it takes effect on the
// worker's next sleep.
func (d *Detector) SetInterval(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	d.lifecycleMu.Lock()
	d.interval = interval
	d.lifecycleMu.Unlock()
}

func (d *Detector) currentInterval() time.Duration {
	d.lifecycleMu.Lock()
	defer d.lifecycleMu.Unlock()
	return d.interval
}

// loop is the background worker's main loop. On the first confirmed cycle
// it flags the detection, emits the full report, and breaks out — a
// permanent cycle would just mean re-reporting the same deadlock every
// pass.
func (d *Detector) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(d.currentInterval()):
		}

		if d.CheckDeadlock() {
			atomic.CompareAndSwapInt32((*int32)(&d.state), int32(stateRunning), int32(stateStopping))
			logging.WithComponent("detector").Warn("deadlock detected, stopping background detection")
			d.PrintDeadlockInfo(d.currentReportWriter())
			atomic.StoreInt32((*int32)(&d.state), int32(stateIdle))
			return nil
		}
	}
}

// CheckDeadlock runs a one-shot synchronous detection pass — snapshot,
// graph build, cycle test — independent of the background worker. On
// the first positive result it records the detection timestamp and
// participating threads.
func (d *Detector) CheckDeadlock() bool {
	d.checkMu.Lock()
	defer d.checkMu.Unlock()

	snap := d.tables.GetSnapshot()
	BuildWaitingGraph(d.graph, snap)

	if !d.graph.HasCycle() {
		return false
	}

	d.recordDetection(d.graph.CycleParticipants())
	return true
}

func (d *Detector) recordDetection(participants []primitives.ThreadID) {
	d.detectedMu.Lock()
	defer d.detectedMu.Unlock()

	if d.deadlockDetected {
		return
	}
	d.deadlockDetected = true
	d.deadlockAt = time.Now()
	d.lastCycle = participants
}

// DeadlockDetectedAt reports when the first deadlock was detected, if any.
func (d *Detector) DeadlockDetectedAt() (time.Time, bool) {
	d.detectedMu.Lock()
	defer d.detectedMu.Unlock()
	return d.deadlockAt, d.deadlockDetected
}

func (d *Detector) cycleParticipants() []primitives.ThreadID {
	d.detectedMu.Lock()
	defer d.detectedMu.Unlock()
	return append([]primitives.ThreadID(nil), d.lastCycle...)
}
