package telemetry

import (
	"io"
	"sync"
	"time"

	"github.com/robinvdvleuten/margin/output"
)

// TimingCollector collects a tree of timings. The first timer started becomes
// the root; later top-level timers nest under whichever timer is open.
type TimingCollector struct {
	mu      sync.Mutex
	root    *timerNode
	current *timerNode
	now     func() time.Time
}

type timerNode struct {
	name     string
	start    time.Time
	end      time.Time
	children []*timerNode
	parent   *timerNode
}

func (n *timerNode) duration() time.Duration {
	if n.end.IsZero() {
		return 0
	}
	return n.end.Sub(n.start)
}

// NewTimingCollector creates a new timing collector.
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{now: time.Now}
}

// Start begins timing an operation.
func (c *TimingCollector) Start(name string) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	node := &timerNode{name: name, start: c.now()}

	if c.root == nil {
		c.root = node
	} else {
		parent := c.current
		if parent == nil {
			parent = c.root
		}
		node.parent = parent
		parent.children = append(parent.children, node)
	}
	c.current = node

	return &timingTimer{collector: c, node: node}
}

// Report writes the timing tree.
func (c *TimingCollector) Report(w io.Writer, styles *output.Styles) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.root == nil {
		return
	}
	formatTimingTree(w, c.root, styles)
}

// Span is a flattened timing entry.
type Span struct {
	Name     string        `json:"name"`
	Depth    int           `json:"depth"`
	Duration time.Duration `json:"duration"`
}

// Spans returns the tree in depth-first order.
func (c *TimingCollector) Spans() []Span {
	c.mu.Lock()
	defer c.mu.Unlock()

	var spans []Span
	var walk func(n *timerNode, depth int)
	walk = func(n *timerNode, depth int) {
		spans = append(spans, Span{Name: n.name, Depth: depth, Duration: n.duration()})
		for _, child := range n.children {
			walk(child, depth+1)
		}
	}
	if c.root != nil {
		walk(c.root, 0)
	}
	return spans
}

type timingTimer struct {
	collector *TimingCollector
	node      *timerNode
}

// End stops the timer. Ending twice keeps the first end time.
func (t *timingTimer) End() {
	c := t.collector
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.node.end.IsZero() {
		t.node.end = c.now()
	}
	if c.current == t.node {
		c.current = t.node.parent
	}
}

// Child creates a timer nested under this one.
func (t *timingTimer) Child(name string) Timer {
	c := t.collector
	c.mu.Lock()
	defer c.mu.Unlock()

	node := &timerNode{name: name, start: c.now(), parent: t.node}
	t.node.children = append(t.node.children, node)

	return &timingTimer{collector: c, node: node}
}
