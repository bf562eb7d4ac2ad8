package saturate

import (
	"container/heap"

	"github.com/cottand/rootcause/graph"
)

type queued struct {
	edge *graph.Edge
	seq  uint64
}

// edgeHeap orders pending derived edges by derivation length, and by
// insertion order among edges of the same length
type edgeHeap []queued

func (h edgeHeap) Len() int { return len(h) }
func (h edgeHeap) Less(i, j int) bool {
	if h[i].edge.Size() != h[j].edge.Size() {
		return h[i].edge.Size() < h[j].edge.Size()
	}
	return h[i].seq < h[j].seq
}
func (h edgeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *edgeHeap) Push(x any)   { *h = append(*h, x.(queued)) }
func (h *edgeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = queued{}
	*h = old[:n-1]
	return item
}

// edgeQueue is a min-priority queue of derived edges.
//
// Superseded entries are not removed when a shorter edge for the same
// table cell is pushed: the engine discards them when they are popped
type edgeQueue struct {
	h   edgeHeap
	seq uint64
}

func (q *edgeQueue) push(e *graph.Edge) {
	heap.Push(&q.h, queued{edge: e, seq: q.seq})
	q.seq++
}

func (q *edgeQueue) pop() *graph.Edge {
	return heap.Pop(&q.h).(queued).edge
}

func (q *edgeQueue) Len() int { return q.h.Len() }
