package logging

import (
	"github.com/sirupsen/logrus"

	"deadlockwatch/pkg/primitives"
)

// WithThread creates a logger with thread context.
// Use this to automatically include the thread ID in all logs emitted by
// hook and table code.
//
// Example:
//
//	log := logging.WithThread(tid)
//	log.Info("acquired lock")
func WithThread(tid primitives.ThreadID) *logrus.Entry {
	return GetLogger().WithField("thread_id", tid.String())
}

// WithLockID creates a logger with lock context.
//
// Example:
//
//	log := logging.WithLockID(lockID)
//	log.Debug("lock released")
func WithLockID(lockID primitives.LockID) *logrus.Entry {
	return GetLogger().WithField("lock_id", lockID.String())
}

// WithThreadLock creates a logger with both thread and lock context. Used
// on the hot path of OnLockBefore / OnLockAfter / OnUnlockAfter where both
// identities are always known.
//
// Example:
//
//	log := logging.WithThreadLock(tid, lockID)
//	log.Info("lock acquired")
func WithThreadLock(tid primitives.ThreadID, lockID primitives.LockID) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"thread_id": tid.String(),
		"lock_id":   lockID.String(),
	})
}

// WithComponent creates a logger with component/subsystem context.
//
// Example:
//
//	log := logging.WithComponent("detector")
//	log.Info("component initialized")
func WithComponent(component string) *logrus.Entry {
	return GetLogger().WithField("component", component)
}

// WithError creates a logger with error context.
// Use this when logging errors to include the error in structured format.
//
// Example:
//
//	log := logging.WithError(err)
//	log.Error("detection cycle failed")
func WithError(err error) *logrus.Entry {
	return GetLogger().WithField("error", err.Error())
}
