package deadlock

import (
	"deadlockwatch/pkg/logging"
	"deadlockwatch/pkg/primitives"
)

// OnLockBefore is called by the instrumentation shim immediately before
// a thread blocks on lock. It has no failure modes other than programmer
// misuse, which is tolerated silently — hooks must never perturb
// application semantics.
func (d *Detector) OnLockBefore(tid primitives.ThreadID, lock primitives.LockID) {
	d.tables.recordWait(tid, lock)
	logging.WithThreadLock(tid, lock).Debug("thread blocked on lock")
}

// OnLockAfter is called by the instrumentation shim immediately after
// the underlying acquire returns successfully. If the underlying acquire
// never returns because the thread deadlocked, this is never invoked and
// the waiters/contexts entry from OnLockBefore persists — exactly what
// the detector needs to see the deadlock.
func (d *Detector) OnLockAfter(tid primitives.ThreadID, lock primitives.LockID) {
	d.tables.recordAcquire(tid, lock)
	logging.WithThreadLock(tid, lock).Debug("lock acquired")
}

// OnUnlockAfter is called immediately after a thread releases lock.
func (d *Detector) OnUnlockAfter(tid primitives.ThreadID, lock primitives.LockID) {
	d.tables.recordRelease(lock)
	logging.WithThreadLock(tid, lock).Debug("lock released")
}
