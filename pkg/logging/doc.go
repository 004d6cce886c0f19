// Package logging provides a process-wide structured logger for the
// detector.
//
// The package wraps [github.com/sirupsen/logrus] and exposes a single
// global logger instance that is initialized once and then retrieved via
// GetLogger. All subsystems should obtain a logger through this package
// rather than constructing their own logrus.Logger values, so that log
// level and output destination are controlled from a single place.
//
// # Initialisation
//
// Call Init (or InitDefault for sensible defaults) once at program startup,
// before any goroutines that might call GetLogger are spawned:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug, OutputPath: "/var/log/deadlockwatch/detector.log"}); err != nil {
//	    log.Fatal(err)
//	}
//
// InitDefault writes INFO-level logs to stderr without a log file.
//
// # Retrieving the logger
//
//	logger := logging.GetLogger()
//	logger.Info("detector started")
//
// If GetLogger is called before Init, a default stderr logger is created
// lazily (via sync.Once) so that packages that log during init are safe.
//
// # Context helpers
//
// Several helpers return child entries pre-populated with structured
// fields, reducing repetition on the hook hot path:
//
//	log := logging.WithThread(tid)            // adds thread_id field
//	log := logging.WithLockID(lockID)         // adds lock_id field
//	log := logging.WithThreadLock(tid, lockID) // adds both
package logging
