package splice

import "github.com/gnolang/keyfmt/internal/grid"

// Queue carries grids extracted before reformatting to the splice pass.
// Grids are consumed strictly in the order they were pushed.
type Queue struct {
	grids []grid.Grid
	head  int
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Push(g grid.Grid) {
	q.grids = append(q.grids, g)
}

// Pop removes and returns the oldest grid. ok is false when the queue is empty.
func (q *Queue) Pop() (g grid.Grid, ok bool) {
	if q.head >= len(q.grids) {
		return grid.Grid{}, false
	}
	g = q.grids[q.head]
	q.grids[q.head] = grid.Grid{}
	q.head++
	return g, true
}

// Len returns the number of grids not consumed yet.
func (q *Queue) Len() int {
	return len(q.grids) - q.head
}
