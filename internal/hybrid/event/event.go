// Package event implements the SBML-style event engine of §4.10: trigger
// edge detection, a delay min-heap, a volatile FIFO queue for non-persistent
// executions awaiting retraction, and an immediate priority queue.
package event

import (
	"container/heap"
	"sort"

	"github.com/StochSS/GillesPy2-sub000/internal/model"
)

// execution is one scheduled firing of an event, captured at the instant
// its trigger edge was detected.
type execution struct {
	eventID  int
	fireTime float64
	priority float64

	// snapshot/vars are non-nil only for events with UseTriggerState set;
	// they hold the state/vars at the moment the trigger fired.
	snapshot []float64
	vars     []float64
}

type delayHeap []execution

func (h delayHeap) Len() int            { return len(h) }
func (h delayHeap) Less(i, j int) bool  { return h[i].fireTime < h[j].fireTime }
func (h delayHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *delayHeap) Push(x interface{}) { *h = append(*h, x.(execution)) }
func (h *delayHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// List is the per-trajectory event engine: trigger-state map, delay
// min-heap, volatile FIFO queue and immediate priority queue (§4.10).
type List struct {
	m *model.Model

	triggered map[int]bool
	delay     delayHeap
	volatile  []execution
	immediate []execution
}

// New returns an empty List for m's event declarations.
func New(m *model.Model) *List {
	l := &List{m: m, triggered: make(map[int]bool, len(m.Events))}
	heap.Init(&l.delay)
	return l
}

// InitTriggers evaluates every event's trigger at t=0 and schedules any
// event whose InitialValue is true for immediate firing (§4.11 step 2).
func (l *List) InitTriggers(t float64, state, vars, consts []float64) {
	for i := range l.m.Events {
		e := &l.m.Events[i]
		l.triggered[e.ID] = e.Trigger(t, state, vars, consts)
		if e.InitialValue {
			l.immediate = append(l.immediate, l.snapshot(e, t, state, vars, consts))
		}
	}
}

func (l *List) snapshot(e *model.Event, t float64, state, vars, consts []float64) execution {
	ex := execution{eventID: e.ID, fireTime: t, priority: e.Priority(t, state, vars, consts)}
	if e.UseTriggerState {
		ex.snapshot = append([]float64(nil), state...)
		ex.vars = append([]float64(nil), vars...)
	}
	return ex
}

// Step runs the full §4.10 per-integration-step algorithm against state as
// of time t: detect edges, walk the volatile queue, drain the delay queue,
// drain the immediate queue, and repeat until nothing further fires within
// this step.
func (l *List) Step(t float64, state, vars, consts []float64) {
	for {
		fired := l.detectEdges(t, state, vars, consts)
		volatileMoved := l.walkVolatile(t)
		delayMoved := l.drainDelay(t)
		ran := l.drainImmediate(t, state, vars, consts)
		if !fired && !volatileMoved && !delayMoved && !ran {
			return
		}
	}
}

// detectEdges re-evaluates every trigger, routing each rising edge to the
// immediate, delay, or volatile queue per §4.10 step 1.
func (l *List) detectEdges(t float64, state, vars, consts []float64) bool {
	any := false
	for i := range l.m.Events {
		e := &l.m.Events[i]
		now := e.Trigger(t, state, vars, consts)
		was := l.triggered[e.ID]
		l.triggered[e.ID] = now
		if !now || was {
			continue
		}
		delay := e.Delay(t, state, vars, consts)
		ex := l.snapshot(e, t, state, vars, consts)
		switch {
		case delay <= 0:
			l.immediate = append(l.immediate, ex)
			any = true
		case e.IsPersistent:
			ex.fireTime = t + delay
			heap.Push(&l.delay, ex)
			any = true
		default:
			if idx := l.findVolatile(e.ID); idx >= 0 {
				// A second rising edge while the first is still pending:
				// retract both and flip the trigger state back so the next
				// genuine edge is detected cleanly. A retraction is not
				// reported as a firing, so Step does not re-detect the edge
				// it just cleared within the same step.
				l.volatile = append(l.volatile[:idx], l.volatile[idx+1:]...)
				l.triggered[e.ID] = false
			} else {
				ex.fireTime = t + delay
				l.volatile = append(l.volatile, ex)
				any = true
			}
		}
	}
	return any
}

func (l *List) findVolatile(eventID int) int {
	for i, ex := range l.volatile {
		if ex.eventID == eventID {
			return i
		}
	}
	return -1
}

// walkVolatile drops any volatile entry whose trigger fell back to false
// before its scheduled time and promotes any entry past its scheduled time
// to the immediate queue (§4.10 step 2).
func (l *List) walkVolatile(t float64) bool {
	any := false
	kept := l.volatile[:0]
	for _, ex := range l.volatile {
		switch {
		case t >= ex.fireTime:
			l.immediate = append(l.immediate, ex)
			any = true
		case !l.triggered[ex.eventID]:
			any = true // retracted, dropped
		default:
			kept = append(kept, ex)
		}
	}
	l.volatile = kept
	return any
}

// drainDelay promotes every delay-queue entry whose scheduled time has
// passed to the immediate queue (§4.10 step 3).
func (l *List) drainDelay(t float64) bool {
	any := false
	for l.delay.Len() > 0 && l.delay[0].fireTime <= t {
		ex := heap.Pop(&l.delay).(execution)
		l.immediate = append(l.immediate, ex)
		any = true
	}
	return any
}

// drainImmediate fires every queued execution, highest priority first,
// running its assignments against a trigger-time snapshot when the event
// captured one, then folding the result back into the live state/vars the
// solver continues with (§4.10 step 4).
func (l *List) drainImmediate(t float64, state, vars, consts []float64) bool {
	if len(l.immediate) == 0 {
		return false
	}
	batch := l.immediate
	l.immediate = nil
	sort.SliceStable(batch, func(i, j int) bool { return batch[i].priority > batch[j].priority })
	for _, ex := range batch {
		e := &l.m.Events[ex.eventID]
		s, v := state, vars
		if ex.snapshot != nil {
			s = append([]float64(nil), ex.snapshot...)
			v = append([]float64(nil), ex.vars...)
		}
		for _, assign := range e.Assignments {
			assign(t, s, v, consts)
		}
		if ex.snapshot != nil {
			copy(state, s)
			copy(vars, v)
		}
	}
	return true
}

// Pending reports whether any execution is still queued (delay or
// volatile).
func (l *List) Pending() bool {
	return l.delay.Len() > 0 || len(l.volatile) > 0
}

// WouldTrigger reports whether any event's trigger would be at a rising
// edge if evaluated at (t, state) right now, without mutating any queue or
// recorded trigger state. The hybrid solver's microstep loop uses this as
// a root-crossing check for event triggers, at the same per-microstep
// resolution it already uses for discrete-reaction clock crossings
// (§4.11): once a microstep reports an edge, the solver stops advancing
// and calls Step at that time, which performs the real (state-mutating)
// edge detection and queuing.
func (l *List) WouldTrigger(t float64, state, vars, consts []float64) bool {
	for i := range l.m.Events {
		e := &l.m.Events[i]
		if e.Trigger(t, state, vars, consts) && !l.triggered[e.ID] {
			return true
		}
	}
	return false
}
