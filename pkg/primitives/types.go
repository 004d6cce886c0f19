package primitives

import "fmt"

// ThreadID uniquely identifies a running thread (goroutine) within the host
// process for its lifetime. It is opaque: callers must not assume anything
// about its numeric value beyond uniqueness and stability for the life of
// the thread.
type ThreadID uint64

// LockID uniquely identifies a lock object for its lifetime. In practice it
// is derived from the lock's address, mirroring how the instrumented
// primitive is identified on the host platform.
type LockID uint64

// InvalidThreadID is the sentinel returned where no thread is associated
// with a table entry.
const InvalidThreadID ThreadID = 0

// InvalidLockID is the sentinel returned where no lock is associated with a
// table entry.
const InvalidLockID LockID = 0

func (t ThreadID) String() string {
	return fmt.Sprintf("T%d", uint64(t))
}

func (l LockID) String() string {
	return fmt.Sprintf("L%#x", uint64(l))
}
