package guard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deadlockwatch/pkg/deadlock"
)

func TestCurrentThreadIsStableWithinGoroutine(t *testing.T) {
	a := CurrentThread()
	b := CurrentThread()
	assert.Equal(t, a, b)
}

func TestCurrentThreadDiffersAcrossGoroutines(t *testing.T) {
	ids := make(chan uint64, 2)
	for i := 0; i < 2; i++ {
		go func() { ids <- uint64(CurrentThread()) }()
	}
	a, b := <-ids, <-ids
	assert.NotEqual(t, a, b)
}

func TestMutexReportsToDetector(t *testing.T) {
	det := deadlock.New()
	m := NewMutex(det)

	m.Lock()
	m.Unlock()

	assert.False(t, det.CheckDeadlock())
}

func TestGuardedMutexesDetectABBADeadlock(t *testing.T) {
	det := deadlock.New()
	l1 := NewMutex(det)
	l2 := NewMutex(det)

	go func() {
		l1.Lock()
		time.Sleep(20 * time.Millisecond)
		l2.Lock() // blocks forever: T2 holds l2 already
		l2.Unlock()
		l1.Unlock()
	}()
	go func() {
		l2.Lock()
		time.Sleep(20 * time.Millisecond)
		l1.Lock() // blocks forever: T1 holds l1 already
		l1.Unlock()
		l2.Unlock()
	}()

	time.Sleep(60 * time.Millisecond)
	require.True(t, det.CheckDeadlock())
}
