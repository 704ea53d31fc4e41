package dumps

import "sync"

// Non-blocking mutual exclusion between the dumps. At most one hold
// exists at a time.
type ExclusionGate struct {
	held  bool
	mutex sync.Mutex
}

// Proof of the acquired gate. Releasing it reopens the gate.
type GateHold struct {
	gate *ExclusionGate
	once sync.Once
}

// Creates an open gate.
func NewExclusionGate() *ExclusionGate {
	return &ExclusionGate{}
}

// Attempts to acquire the gate. It never waits: it returns false when
// the gate is already held.
func (g *ExclusionGate) TryAcquire() (*GateHold, bool) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if g.held {
		return nil, false
	}
	g.held = true
	return &GateHold{gate: g}, true
}

// Checks if the gate is currently held.
func (g *ExclusionGate) IsHeld() bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.held
}

// Releases the gate. Subsequent calls have no effect.
func (h *GateHold) Release() {
	h.once.Do(func() {
		h.gate.mutex.Lock()
		defer h.gate.mutex.Unlock()
		h.gate.held = false
	})
}
