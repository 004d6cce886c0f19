// Package deadlock implements a runtime deadlock detector for
// multithreaded Go programs that use plain mutexes.
//
// # Overview
//
// Application code (typically through pkg/guard, but direct calls work
// too) brackets each lock/unlock with three hooks — OnLockBefore,
// OnLockAfter, OnUnlockAfter — which maintain three tables: which thread
// holds which lock, which thread is waiting for which lock, and a
// diagnostic context string per waiting thread.
//
// A background [Detector] worker wakes up on a configurable interval,
// takes a consistent snapshot of the tables, derives a wait-for graph from
// it, and tests the graph for a cycle using Kahn's algorithm. A cycle
// means a deadlock: the participating threads will never make progress.
// Detection is one-shot — the first positive result stops the worker,
// since a cycle in this model is permanent and re-detecting it every pass
// would just be log spam.
//
// # Components
//
//   - [WaitForGraph] — the directed wait-for graph and its cycle test.
//   - [Tables]        — the three state tables and the hooks' mutation
//     logic, all coordinated through pkg/multilock so the detector can
//     never deadlock against itself.
//   - [Detector]      — the public entry point: lifecycle (Start/Stop),
//     one-shot detection (CheckDeadlock), and the three hooks.
//   - [Reporter]      — structural presentation of a detected cycle or the
//     detector's overall status.
package deadlock
