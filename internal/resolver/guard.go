package resolver

// cycleGuard holds the nominal types being expanded on the active path of
// one request. It is created per request and never shared.
type cycleGuard[T comparable] struct {
	expanding map[T]struct{}
}

func newCycleGuard[T comparable]() *cycleGuard[T] {
	return &cycleGuard[T]{expanding: make(map[T]struct{})}
}

func (g *cycleGuard[T]) active(t T) bool {
	_, ok := g.expanding[t]
	return ok
}

func (g *cycleGuard[T]) enter(t T) {
	g.expanding[t] = struct{}{}
}

func (g *cycleGuard[T]) leave(t T) {
	delete(g.expanding, t)
}

func (g *cycleGuard[T]) size() int {
	return len(g.expanding)
}
