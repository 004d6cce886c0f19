// Package guard provides an optional convenience wrapper that brackets a
// real sync.Mutex with the detector's observation hooks, for applications
// that would rather embed a drop-in mutex type than hand-write the
// bracketing calls themselves.
//
// Using this package is never required: any code calling
// (*deadlock.Detector).OnLockBefore/OnLockAfter/OnUnlockAfter directly
// around its own locking satisfies the same contract.
package guard

import (
	"sync"
	"unsafe"

	"github.com/petermattis/goid"

	"deadlockwatch/pkg/deadlock"
	"deadlockwatch/pkg/primitives"
)

// CurrentThread returns the calling goroutine's ThreadID, derived from its
// runtime goroutine id. This is the Go substitute for a native OS thread
// identifier: Go exposes no stable public API for that, so the detector
// observes goroutines instead.
func CurrentThread() primitives.ThreadID {
	return primitives.ThreadID(goid.Get())
}

// Mutex wraps a sync.Mutex so that Lock and Unlock automatically report to
// a Detector, the way a macro-redirected pthread_mutex_lock would in a
// language with a preprocessor.
type Mutex struct {
	mu  sync.Mutex
	id  primitives.LockID
	det *deadlock.Detector
}

// NewMutex returns a Mutex instrumented against det. Its LockID is derived
// from the guard's own address, mirroring how the instrumented primitive
// is identified on the host platform.
func NewMutex(det *deadlock.Detector) *Mutex {
	m := &Mutex{det: det}
	m.id = primitives.LockID(uintptr(unsafe.Pointer(m)))
	return m
}

// Lock brackets the real acquire with OnLockBefore/OnLockAfter.
func (m *Mutex) Lock() {
	tid := CurrentThread()
	m.det.OnLockBefore(tid, m.id)
	m.mu.Lock()
	m.det.OnLockAfter(tid, m.id)
}

// Unlock releases the real mutex and reports OnUnlockAfter.
func (m *Mutex) Unlock() {
	tid := CurrentThread()
	m.mu.Unlock()
	m.det.OnUnlockAfter(tid, m.id)
}
