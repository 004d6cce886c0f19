package deadlock

// BuildWaitingGraph clears g and, for every (tid, lock) pair in
// snap.Waiters, looks lock up in snap.Holders; if a holder is present,
// it adds the edge tid → holder.
// Waiters whose awaited lock has no observed holder in the snapshot
// contribute no edge — the holder may have released just before the
// snapshot was taken, and such transient states cannot be part of a cycle.
func BuildWaitingGraph(g *WaitForGraph, snap Snapshot) {
	g.Clear()

	for tid, lock := range snap.Waiters {
		holder, ok := snap.Holders[lock]
		if !ok {
			continue
		}
		g.AddEdge(tid, holder)
	}
}
