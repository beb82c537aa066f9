package viewstate

import (
	"sync"
	"time"
)

// deferred holds at most one cancelable delayed action per note id.
type deferred struct {
	mu      sync.Mutex
	actions map[int64]*deferredAction
	gen     uint64
	closed  bool
}

type deferredAction struct {
	timer *time.Timer
	gen   uint64
}

func newDeferred() *deferred {
	return &deferred{actions: make(map[int64]*deferredAction)}
}

// schedule runs fn after delay unless cancelled first. An action already
// scheduled for id is cancelled and replaced.
func (d *deferred) schedule(id int64, delay time.Duration, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}

	if cur, ok := d.actions[id]; ok {
		cur.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.actions[id] = &deferredAction{
		gen:   gen,
		timer: time.AfterFunc(delay, func() { d.fire(id, gen, fn) }),
	}
	return true
}

func (d *deferred) fire(id int64, gen uint64, fn func()) {
	d.mu.Lock()
	cur, ok := d.actions[id]
	if d.closed || !ok || cur.gen != gen {
		// Cancelled or replaced after the timer had already fired.
		d.mu.Unlock()
		return
	}
	delete(d.actions, id)
	d.mu.Unlock()

	fn()
}

// cancel drops the action for id. It reports true only when the action was
// still waiting, in which case it will never run.
func (d *deferred) cancel(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	cur, ok := d.actions[id]
	if !ok {
		return false
	}
	cur.timer.Stop()
	delete(d.actions, id)
	return true
}

// cancelAll drops every action and rejects new ones.
func (d *deferred) cancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for id, cur := range d.actions {
		cur.timer.Stop()
		delete(d.actions, id)
	}
}

func (d *deferred) scheduled(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.actions[id]
	return ok
}

func (d *deferred) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.actions)
}
