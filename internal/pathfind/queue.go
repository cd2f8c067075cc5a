package pathfind

// Status reports how a search ended.
type Status int

const (
	StatusFound Status = iota
	StatusExhausted
	StatusInvalidEndpoint
	StatusBudgetExceeded
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusExhausted:
		return "exhausted"
	case StatusInvalidEndpoint:
		return "invalid_endpoint"
	case StatusBudgetExceeded:
		return "budget_exceeded"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type node struct {
	pt    Point
	g     float64
	f     float64
	seq   int
	index int
}

// nodeQueue is a min-heap ordered by f, then lower g, then insertion order.
type nodeQueue []*node

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	a, b := q[i], q[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.g != b.g {
		return a.g < b.g
	}
	return a.seq < b.seq
}

func (q nodeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *nodeQueue) Push(x any) {
	n := x.(*node)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *nodeQueue) Pop() any {
	old := *q
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.index = -1
	*q = old[:last]
	return n
}
