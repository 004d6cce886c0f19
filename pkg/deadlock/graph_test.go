package deadlock

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"deadlockwatch/pkg/primitives"
)

func TestHasCycleEmptyGraph(t *testing.T) {
	g := NewWaitForGraph()
	assert.False(t, g.HasCycle())
}

func TestHasCycleAcyclic(t *testing.T) {
	g := NewWaitForGraph()
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)
	g.AddEdge(1, 3)
	assert.False(t, g.HasCycle())
}

func TestHasCycleTwoThreadRing(t *testing.T) {
	g := NewWaitForGraph()
	g.AddEdge(1, 2)
	g.AddEdge(2, 1)
	assert.True(t, g.HasCycle())

	participants := threadIDs(g.CycleParticipants())
	assert.ElementsMatch(t, []primitives.ThreadID{1, 2}, participants)
}

func TestHasCycleThreeThreadRing(t *testing.T) {
	g := NewWaitForGraph()
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)
	g.AddEdge(3, 1)
	assert.True(t, g.HasCycle())

	participants := threadIDs(g.CycleParticipants())
	assert.ElementsMatch(t, []primitives.ThreadID{1, 2, 3}, participants)
}

func TestHasCycleSelfLoop(t *testing.T) {
	g := NewWaitForGraph()
	g.AddEdge(1, 1)
	assert.True(t, g.HasCycle())
	assert.Equal(t, []primitives.ThreadID{1}, g.CycleParticipants())
}

func TestHasCycleLinearChainNoCycle(t *testing.T) {
	g := NewWaitForGraph()
	g.AddEdge(2, 1)
	assert.False(t, g.HasCycle())
}

func TestClearRemovesEverything(t *testing.T) {
	g := NewWaitForGraph()
	g.AddEdge(1, 2)
	g.Clear()
	assert.False(t, g.HasCycle())
	assert.Empty(t, g.Nodes())
}

func TestParallelEdgesDoNotBreakDetection(t *testing.T) {
	g := NewWaitForGraph()
	g.AddEdge(1, 2)
	g.AddEdge(1, 2)
	g.AddEdge(2, 1)
	assert.True(t, g.HasCycle())
}

func threadIDs(in []primitives.ThreadID) []primitives.ThreadID {
	out := append([]primitives.ThreadID(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
