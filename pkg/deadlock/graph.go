package deadlock

import (
	"fmt"
	"io"
	"sync"

	"deadlockwatch/pkg/primitives"
)

// WaitForGraph is a directed graph whose vertices are threads and whose
// edges represent "is currently blocked waiting for a lock held by". It
// supports incremental construction and cycle detection via topological
// reduction (Kahn's algorithm).
//
// A thread waiting on at most one lock at a time means this is effectively
// a simple graph in practice, but AddEdge tolerates parallel edges between
// the same pair of vertices: each call increments the target's indegree,
// and each traversal during detection decrements it exactly once, so the
// arithmetic stays sound either way.
type WaitForGraph struct {
	mu       sync.Mutex
	indegree map[primitives.ThreadID]int
	outEdges map[primitives.ThreadID][]primitives.ThreadID
}

// NewWaitForGraph returns an empty graph.
func NewWaitForGraph() *WaitForGraph {
	return &WaitForGraph{
		indegree: make(map[primitives.ThreadID]int),
		outEdges: make(map[primitives.ThreadID][]primitives.ThreadID),
	}
}

// AddEdge inserts a directed edge from → to. Both endpoints are created on
// demand with indegree 0 if not already present. A self-loop (from == to)
// is permitted and is handled correctly by cycle detection.
func (g *WaitForGraph) AddEdge(from, to primitives.ThreadID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.ensureNode(from)
	g.ensureNode(to)

	g.outEdges[from] = append(g.outEdges[from], to)
	g.indegree[to]++
}

func (g *WaitForGraph) ensureNode(tid primitives.ThreadID) {
	if _, ok := g.indegree[tid]; !ok {
		g.indegree[tid] = 0
	}
}

// Clear removes every vertex and edge.
func (g *WaitForGraph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.indegree = make(map[primitives.ThreadID]int)
	g.outEdges = make(map[primitives.ThreadID][]primitives.ThreadID)
}

// Nodes enumerates all vertices in unspecified order.
func (g *WaitForGraph) Nodes() []primitives.ThreadID {
	g.mu.Lock()
	defer g.mu.Unlock()

	nodes := make([]primitives.ThreadID, 0, len(g.indegree))
	for tid := range g.indegree {
		nodes = append(nodes, tid)
	}
	return nodes
}

// HasCycle decides cycle presence using Kahn's topological-reduction
// procedure: seed a queue with every zero-indegree vertex, repeatedly pop
// and relax out-edges, and compare the processed count to the vertex
// count. An empty graph has no unprocessed vertices and returns false.
func (g *WaitForGraph) HasCycle() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.unprocessedLocked()) > 0
}

// CycleParticipants returns the vertices left unprocessed by Kahn's
// algorithm: the union of every cycle in the graph and every vertex
// reachable from one. For the single-cycle scenarios this package's
// detector actually produces, this set is exactly the cycle's
// participants.
func (g *WaitForGraph) CycleParticipants() []primitives.ThreadID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.unprocessedLocked()
}

func (g *WaitForGraph) unprocessedLocked() []primitives.ThreadID {
	working := make(map[primitives.ThreadID]int, len(g.indegree))
	for tid, d := range g.indegree {
		working[tid] = d
	}

	queue := make([]primitives.ThreadID, 0, len(working))
	for tid, d := range working {
		if d == 0 {
			queue = append(queue, tid)
		}
	}

	visited := make(map[primitives.ThreadID]bool, len(working))
	for len(queue) > 0 {
		tid := queue[0]
		queue = queue[1:]
		visited[tid] = true

		for _, next := range g.outEdges[tid] {
			working[next]--
			if working[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(visited) == len(g.indegree) {
		return nil
	}

	unprocessed := make([]primitives.ThreadID, 0, len(g.indegree)-len(visited))
	for tid := range g.indegree {
		if !visited[tid] {
			unprocessed = append(unprocessed, tid)
		}
	}
	return unprocessed
}

// PrintGraph renders each vertex with its indegree and out-neighbor list,
// for diagnostic use.
func (g *WaitForGraph) PrintGraph(w io.Writer) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for tid, d := range g.indegree {
		fmt.Fprintf(w, "%s (indegree=%d) -> %v\n", tid, d, g.outEdges[tid])
	}
}
