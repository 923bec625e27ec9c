package sim

import (
	"reflect"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/sarchlab/quartz/model"
	"github.com/sarchlab/quartz/proc"
	"github.com/sarchlab/quartz/vtime"
)

// classOf names the "model class" spec section 6's transition_stats groups
// by: the concrete Go type behind the model.Atomic interface, since quartz
// has no separate class-name field on Atomic itself (state.Class covers
// only models that declare Stateful fields).
func classOf(a model.Atomic) string {
	return reflect.TypeOf(a).String()
}

// classCounts holds the int/ext/con/total counters for one model class.
type classCounts struct {
	Internal int
	External int
	Confluent int
	Total    int
}

// TransitionStats accumulates per-class and grand-total transition
// counters as Simulation runs (spec section 6: "transition_stats: counters
// for int/ext/con per model class and total"), plus the inter-event
// virtual-time gap statistics InterEventStats reports via gonum/stat.
type TransitionStats struct {
	mu      sync.Mutex
	byClass map[string]*classCounts
	total   classCounts

	lastTimeByClass map[string]float64
	gapsByClass     map[string][]float64
}

func newTransitionStats() *TransitionStats {
	return &TransitionStats{
		byClass:         make(map[string]*classCounts),
		lastTimeByClass: make(map[string]float64),
		gapsByClass:     make(map[string][]float64),
	}
}

func (ts *TransitionStats) record(a model.Atomic, kind proc.TransitionKind, t vtime.TimePoint) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	class := classOf(a)
	c, ok := ts.byClass[class]
	if !ok {
		c = &classCounts{}
		ts.byClass[class] = c
	}

	switch kind {
	case proc.Internal:
		c.Internal++
		ts.total.Internal++
	case proc.External:
		c.External++
		ts.total.External++
	case proc.Confluent:
		c.Confluent++
		ts.total.Confluent++
	}
	c.Total++
	ts.total.Total++

	q := t.Quantity()
	if last, seen := ts.lastTimeByClass[class]; seen {
		ts.gapsByClass[class] = append(ts.gapsByClass[class], q-last)
	}
	ts.lastTimeByClass[class] = q
}

// ForClass returns a copy of the counters accumulated for class (the
// result of classOf on a concrete atomic model). The zero value is
// returned for a class never observed.
func (ts *TransitionStats) ForClass(class string) (internal, external, confluent, total int) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	c, ok := ts.byClass[class]
	if !ok {
		return 0, 0, 0, 0
	}
	return c.Internal, c.External, c.Confluent, c.Total
}

// Total returns the grand-total counters across every model class.
func (ts *TransitionStats) Total() (internal, external, confluent, total int) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.total.Internal, ts.total.External, ts.total.Confluent, ts.total.Total
}

// InterEventStats reports the mean and standard deviation of the
// virtual-time gaps between consecutive transitions of the given model
// class, computed with gonum/stat.MeanStdDev. ok is false if fewer than
// two transitions have been recorded for that class.
func (ts *TransitionStats) InterEventStats(class string) (mean, stddev float64, ok bool) {
	ts.mu.Lock()
	gaps := append([]float64(nil), ts.gapsByClass[class]...)
	ts.mu.Unlock()

	if len(gaps) == 0 {
		return 0, 0, false
	}
	mean, stddev = stat.MeanStdDev(gaps, nil)
	return mean, stddev, true
}
