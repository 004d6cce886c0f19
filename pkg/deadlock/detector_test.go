package deadlock

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deadlockwatch/pkg/primitives"
)

// safeBuffer wraps bytes.Buffer with a mutex so a test can read from it
// concurrently with the background worker goroutine writing a report.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestABBATwoThreadDeadlock(t *testing.T) {
	d := New()

	const t1, t2 primitives.ThreadID = 1, 2
	const l1, l2 primitives.LockID = 100, 200

	d.OnLockBefore(t1, l1)
	d.OnLockAfter(t1, l1)
	d.OnLockBefore(t2, l2)
	d.OnLockAfter(t2, l2)

	d.OnLockBefore(t1, l2) // T1 now waits for L2 (held by T2)
	d.OnLockBefore(t2, l1) // T2 now waits for L1 (held by T1)

	require.True(t, d.CheckDeadlock())

	participants := d.cycleParticipants()
	assert.ElementsMatch(t, []primitives.ThreadID{t1, t2}, participants)
}

func TestThreeThreadRingDeadlock(t *testing.T) {
	d := New()

	const t1, t2, t3 primitives.ThreadID = 1, 2, 3
	const l1, l2, l3 primitives.LockID = 100, 200, 300

	d.OnLockBefore(t1, l1)
	d.OnLockAfter(t1, l1)
	d.OnLockBefore(t2, l2)
	d.OnLockAfter(t2, l2)
	d.OnLockBefore(t3, l3)
	d.OnLockAfter(t3, l3)

	d.OnLockBefore(t1, l2) // T1 -> T2
	d.OnLockBefore(t2, l3) // T2 -> T3
	d.OnLockBefore(t3, l1) // T3 -> T1

	require.True(t, d.CheckDeadlock())
	assert.ElementsMatch(t, []primitives.ThreadID{t1, t2, t3}, d.cycleParticipants())
}

func TestNoDeadlockSameAcquisitionOrder(t *testing.T) {
	d := New()

	const t1, t2 primitives.ThreadID = 1, 2
	const l1, l2 primitives.LockID = 100, 200

	for i := 0; i < 5; i++ {
		d.OnLockBefore(t1, l1)
		d.OnLockAfter(t1, l1)
		d.OnLockBefore(t1, l2)
		d.OnLockAfter(t1, l2)
		d.OnUnlockAfter(t1, l2)
		d.OnUnlockAfter(t1, l1)

		d.OnLockBefore(t2, l1)
		d.OnLockAfter(t2, l1)
		d.OnLockBefore(t2, l2)
		d.OnLockAfter(t2, l2)
		d.OnUnlockAfter(t2, l2)
		d.OnUnlockAfter(t2, l1)

		assert.False(t, d.CheckDeadlock())
	}
}

func TestTransientWaitIsNotACycle(t *testing.T) {
	d := New()

	const t1, t2 primitives.ThreadID = 1, 2
	const l1 primitives.LockID = 100

	d.OnLockBefore(t1, l1)
	d.OnLockAfter(t1, l1)
	d.OnLockBefore(t2, l1) // T2 waits for L1, held by T1: a linear chain.

	assert.False(t, d.CheckDeadlock())

	d.OnUnlockAfter(t1, l1)
	assert.False(t, d.CheckDeadlock())
}

func TestSelfLoopRecursiveAcquire(t *testing.T) {
	d := New()

	const t1 primitives.ThreadID = 1
	const l1 primitives.LockID = 100

	d.OnLockBefore(t1, l1)
	d.OnLockAfter(t1, l1)
	d.OnLockBefore(t1, l1) // unsupported recursive re-acquire

	require.True(t, d.CheckDeadlock())
	assert.Equal(t, []primitives.ThreadID{t1}, d.cycleParticipants())
}

func TestDelayedDeadlockDetectedWithinBoundedLatency(t *testing.T) {
	d := New()

	const t1, t2 primitives.ThreadID = 1, 2
	const l1, l2 primitives.LockID = 100, 200

	d.SetReportWriter(io.Discard)
	require.NoError(t, d.Start(50 * time.Millisecond))
	defer d.Stop()

	go func() {
		time.Sleep(100 * time.Millisecond)
		d.OnLockBefore(t1, l1)
		d.OnLockAfter(t1, l1)
		d.OnLockBefore(t2, l2)
		d.OnLockAfter(t2, l2)
		d.OnLockBefore(t1, l2)
		d.OnLockBefore(t2, l1)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, detected := d.DeadlockDetectedAt(); detected {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("deadlock was never detected within the expected window")
}

func TestBackgroundLoopEmitsReportOnDetection(t *testing.T) {
	d := New()

	const t1, t2 primitives.ThreadID = 1, 2
	const l1, l2 primitives.LockID = 100, 200

	var buf safeBuffer
	d.SetReportWriter(&buf)

	require.NoError(t, d.Start(20*time.Millisecond))
	defer d.Stop()

	d.OnLockBefore(t1, l1)
	d.OnLockAfter(t1, l1)
	d.OnLockBefore(t2, l2)
	d.OnLockAfter(t2, l2)
	d.OnLockBefore(t1, l2)
	d.OnLockBefore(t2, l1)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, detected := d.DeadlockDetectedAt(); detected {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return buf.String() != ""
	}, time.Second, 10*time.Millisecond, "background loop never wrote a report")

	report := buf.String()
	assert.Contains(t, report, "DEADLOCK DETECTED")
	assert.Contains(t, report, t1.String())
	assert.Contains(t, report, t2.String())
}

func TestStartWhileRunningIsIgnored(t *testing.T) {
	d := New()
	require.NoError(t, d.Start(time.Hour))
	defer d.Stop()

	err := d.Start(time.Hour)
	assert.Error(t, err)
	assert.True(t, d.IsRunning())
}

func TestStopIsIdempotent(t *testing.T) {
	d := New()
	d.Stop()
	d.Stop()
	assert.False(t, d.IsRunning())
}

func TestStartStopTerminatesInBoundedTime(t *testing.T) {
	d := New()
	require.NoError(t, d.Start(time.Hour))

	done := make(chan struct{})
	go func() {
		d.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return in bounded time")
	}
	assert.False(t, d.IsRunning())
}

func TestConcurrentHookInterleavingNeverSelfDeadlocks(t *testing.T) {
	d := New()

	const threads = 40
	const locks = 8

	var wg sync.WaitGroup
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tid := primitives.ThreadID(i + 1)
			for j := 0; j < 20; j++ {
				lock := primitives.LockID((i+j)%locks + 1)
				d.OnLockBefore(tid, lock)
				d.OnLockAfter(tid, lock)
				d.CheckDeadlock()
				d.OnUnlockAfter(tid, lock)
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("stress test did not complete; possible self-deadlock in the detector's own locking")
	}
}
