package resolver

import (
	"log/slog"
	"strconv"

	"github.com/funvibe/objectify/pkg/typerep"
)

// slot is the key and optionality of a Property whose type is still being
// resolved.
type slot struct {
	key      typerep.Key
	required bool
}

// child is a handle queued for resolution below a frame. label extends the
// diagnostic path.
type child[T comparable] struct {
	handle T
	label  string
}

// collectMembers turns the provider's member list into property slots in
// provider order. Members without a declaration site are synthetic and are
// dropped without error.
func collectMembers[T comparable](p Provider[T], log *slog.Logger, t T, path string) ([]slot, []child[T]) {
	members := p.Members(t)
	slots := make([]slot, 0, len(members))
	children := make([]child[T], 0, len(members))
	for _, m := range members {
		if m.Site == "" {
			log.Debug("dropping member without declaration", "member", m.Name, "path", displayPath(path))
			continue
		}
		slots = append(slots, slot{key: typerep.NameKey(m.Name), required: !m.Optional})
		children = append(children, child[T]{handle: m.Type, label: "." + m.Name})
	}
	return slots, children
}

// collectElements keys named tuple elements by name and the rest by
// position.
func collectElements[T comparable](p Provider[T], t T) ([]slot, []child[T]) {
	elems := p.TupleElements(t)
	slots := make([]slot, len(elems))
	children := make([]child[T], len(elems))
	for i, e := range elems {
		key := typerep.IndexKey(i)
		if e.Name != "" {
			key = typerep.NameKey(e.Name)
		}
		slots[i] = slot{key: key, required: !e.Optional}
		children[i] = child[T]{handle: e.Type, label: "[" + strconv.Itoa(i) + "]"}
	}
	return slots, children
}

func collectParams[T comparable](p Provider[T], t T) ([]slot, []child[T]) {
	params := p.Parameters(t)
	slots := make([]slot, len(params))
	children := make([]child[T], len(params))
	for i, prm := range params {
		slots[i] = slot{key: typerep.NameKey(prm.Name), required: !prm.Optional}
		children[i] = child[T]{handle: prm.Type, label: "(" + prm.Name + ")"}
	}
	return slots, children
}

func indexedChildren[T comparable](ts []T, open, close string) []child[T] {
	out := make([]child[T], len(ts))
	for i, t := range ts {
		out[i] = child[T]{handle: t, label: open + strconv.Itoa(i) + close}
	}
	return out
}

func displayPath(path string) string {
	if len(path) > 0 && path[0] == '.' {
		return path[1:]
	}
	return path
}
