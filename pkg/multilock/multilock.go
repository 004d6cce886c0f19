// Package multilock provides a simultaneous-acquisition primitive for
// taking several locks as a single atomic step, avoiding the sequential
// lock-ordering deadlocks that a naive "lock A, then lock B" sequence is
// exposed to.
//
// This is the Go analogue of C++'s std::lock: instead of blocking on each
// mutex in turn, every candidate is try-locked in order; the first failure
// releases everything acquired so far and the whole attempt is retried
// after a short backoff. No two callers can ever observe a partial hold of
// the same lock set, so the set of locks taken through Acquire can never
// deadlock against itself.
package multilock

import "time"

// Locker is satisfied by *sync.Mutex and *sync.RWMutex (via their TryLock
// method, added in Go 1.18).
type Locker interface {
	TryLock() bool
	Unlock()
}

const backoff = 50 * time.Microsecond

// Acquire locks every argument as a single atomic step and returns a
// function that releases them all, in reverse acquisition order. Callers
// must defer the returned function.
func Acquire(locks ...Locker) func() {
	for {
		acquired := make([]Locker, 0, len(locks))
		ok := true

		for _, l := range locks {
			if l.TryLock() {
				acquired = append(acquired, l)
				continue
			}
			ok = false
			break
		}

		if ok {
			return func() {
				for i := len(acquired) - 1; i >= 0; i-- {
					acquired[i].Unlock()
				}
			}
		}

		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
		}
		time.Sleep(backoff)
	}
}
