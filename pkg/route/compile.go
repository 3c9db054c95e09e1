package route

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrRouteConflict is returned by Compile when two definitions claim the
// same slot of the tree.
var ErrRouteConflict = errors.New("route conflict")

// ConflictError reports the path and slot of a conflicting definition.
// It matches ErrRouteConflict with errors.Is.
type ConflictError struct {
	Path string
	Slot string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("route conflict at %s: %s already defined", e.Path, e.Slot)
}

// Is reports whether target is ErrRouteConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrRouteConflict
}

// Compile turns a flat route map with slash-delimited keys into a
// nested tree:
//
//	route.Compile(map[string]route.Node[string]{
//	    "/":            home,
//	    "/docs/*/edit": edit,
//	})
//
// Redundant slashes are tolerated. The empty key (or "/") addresses the
// branch itself and sets its index. A "*" segment addresses the wildcard.
// A resolver that ends up with children becomes the index of a new branch
// holding them. Branch values are compiled recursively. The input is never
// modified.
func Compile[T any](flat map[string]Node[T]) (*Branch[T], error) {
	root := &Branch[T]{}
	for _, key := range sortedKeys(flat) {
		n, err := compileNode[T](flat[key])
		if err != nil {
			return nil, err
		}
		if err := root.insert("", splitKey(key), n); err != nil {
			return nil, fmt.Errorf("cannot add %q: %w", key, err)
		}
	}
	return root, nil
}

// compileNode returns a compiled copy of n. Resolvers are returned as is.
func compileNode[T any](n Node[T]) (Node[T], error) {
	b, ok := n.(*Branch[T])
	if !ok || b == nil {
		return n, nil
	}

	out := &Branch[T]{Guard: b.Guard}
	if b.Index != nil {
		idx, err := compileNode[T](b.Index)
		if err != nil {
			return nil, err
		}
		out.Index = idx
	}
	if b.Wildcard != nil {
		w, err := compileNode[T](b.Wildcard)
		if err != nil {
			return nil, err
		}
		out.Wildcard = w
	}
	for _, key := range sortedKeys(b.Children) {
		child, err := compileNode[T](b.Children[key])
		if err != nil {
			return nil, err
		}
		if err := out.insert("", splitKey(key), child); err != nil {
			return nil, fmt.Errorf("cannot add %q: %w", key, err)
		}
	}
	return out, nil
}

// insert places an already compiled node at the given segments below b.
// at is the path of b, used in conflict errors.
func (b *Branch[T]) insert(at string, segs []string, n Node[T]) error {
	if len(segs) == 0 {
		return b.merge(at, n)
	}

	seg, rest := segs[0], segs[1:]
	existing := b.get(seg)

	if len(rest) == 0 && existing == nil {
		b.set(seg, n)
		return nil
	}

	child := asBranch[T](existing)
	b.set(seg, child)
	return child.insert(at+"/"+seg, rest, n)
}

// merge folds n into b: a resolver becomes b's index, a branch is merged
// slot by slot.
func (b *Branch[T]) merge(at string, n Node[T]) error {
	if at == "" {
		at = "/"
	}

	src, ok := n.(*Branch[T])
	if !ok {
		if b.Index != nil {
			return &ConflictError{Path: at, Slot: "index"}
		}
		b.Index = n
		return nil
	}
	if src == nil {
		return nil
	}

	if src.Guard != nil {
		if b.Guard != nil {
			return &ConflictError{Path: at, Slot: "guard"}
		}
		b.Guard = src.Guard
	}
	if src.Index != nil {
		if err := b.mergeIndex(at, src.Index); err != nil {
			return err
		}
	}
	if src.Wildcard != nil {
		if err := b.insert(strings.TrimSuffix(at, "/"), []string{WildcardKey}, src.Wildcard); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(src.Children) {
		if err := b.insert(strings.TrimSuffix(at, "/"), []string{key}, src.Children[key]); err != nil {
			return err
		}
	}
	return nil
}

// mergeIndex combines two index definitions. Only two virtual branches
// can be merged.
func (b *Branch[T]) mergeIndex(at string, idx Node[T]) error {
	if b.Index == nil {
		b.Index = idx
		return nil
	}
	dst, dstIsBranch := b.Index.(*Branch[T])
	_, srcIsBranch := idx.(*Branch[T])
	if !dstIsBranch || !srcIsBranch {
		return &ConflictError{Path: at, Slot: "index"}
	}
	return dst.merge(at, idx)
}

func (b *Branch[T]) get(seg string) Node[T] {
	if seg == WildcardKey {
		return b.Wildcard
	}
	return b.Children[seg]
}

func (b *Branch[T]) set(seg string, n Node[T]) {
	if seg == WildcardKey {
		b.Wildcard = n
		return
	}
	if b.Children == nil {
		b.Children = make(map[string]Node[T])
	}
	b.Children[seg] = n
}

// asBranch returns n as a branch, wrapping a resolver as the index of a new one.
func asBranch[T any](n Node[T]) *Branch[T] {
	switch v := n.(type) {
	case *Branch[T]:
		if v != nil {
			return v
		}
	case Resolve[T]:
		return &Branch[T]{Index: v}
	}
	return &Branch[T]{}
}

func splitKey(key string) []string {
	var segs []string
	for _, s := range strings.Split(key, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func sortedKeys[T any](m map[string]Node[T]) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
