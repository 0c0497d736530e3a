package resolver

import "github.com/funvibe/objectify/pkg/typerep"

// ResolveGuarded resolves root like Resolve and also reports how many
// handles the request's cycle guard still holds afterwards.
func (r *Resolver[T]) ResolveGuarded(root T) (typerep.Type, int, error) {
	tc := &traversal[T]{
		p:        r.provider,
		log:      r.opts.logger,
		maxDepth: r.opts.maxDepth,
		guard:    newCycleGuard[T](),
		onPath:   make(map[T]struct{}),
		circling: make(map[T]struct{}),
	}
	tree, err := tc.run(root)
	return tree, tc.guard.size(), err
}
