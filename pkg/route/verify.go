package route

import (
	"fmt"
	"strings"
)

// Problem is a single defect found by Verify.
type Problem struct {
	// Path is the location of the defect in the tree (e.g. "/docs/*").
	Path string

	// Message is the human-readable description.
	Message string
}

func (p Problem) Error() string {
	return fmt.Sprintf("route %s: %s", p.Path, p.Message)
}

// VerifyError wraps all problems found by Verify.
type VerifyError struct {
	Problems []Problem
}

func (e *VerifyError) Error() string {
	if len(e.Problems) == 1 {
		return e.Problems[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d invalid route definitions:\n", len(e.Problems))
	for i, p := range e.Problems {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, p.Error())
	}
	return sb.String()
}

// Verify checks that a tree is well formed: every node is a non-nil
// resolver or branch, children keys are single plain segments, and the
// tree has no cycles. It returns nil or a *VerifyError listing every
// problem found.
func Verify[T any](n Node[T]) error {
	v := verifier[T]{onPath: make(map[*Branch[T]]bool)}
	v.walk("/", n)
	if len(v.problems) > 0 {
		return &VerifyError{Problems: v.problems}
	}
	return nil
}

type verifier[T any] struct {
	problems []Problem
	onPath   map[*Branch[T]]bool
}

func (v *verifier[T]) report(path, format string, args ...any) {
	v.problems = append(v.problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *verifier[T]) walk(path string, n Node[T]) {
	switch node := n.(type) {
	case nil:
		v.report(path, "missing route definition")
	case Resolve[T]:
		if node == nil {
			v.report(path, "nil resolver")
		}
	case *Branch[T]:
		if node == nil {
			v.report(path, "nil branch")
			return
		}
		if v.onPath[node] {
			v.report(path, "cyclic route tree")
			return
		}
		v.onPath[node] = true
		defer delete(v.onPath, node)

		if node.Index != nil {
			v.walk(join(path, "(index)"), node.Index)
		}
		if node.Wildcard != nil {
			v.walk(join(path, WildcardKey), node.Wildcard)
		}
		for _, key := range sortedKeys(node.Children) {
			if v.checkKey(path, key) {
				v.walk(join(path, key), node.Children[key])
			}
		}
	default:
		v.report(path, "unsupported node type %T", n)
	}
}

// checkKey reports invalid children keys and returns whether the key is valid.
func (v *verifier[T]) checkKey(path, key string) bool {
	switch {
	case key == "":
		v.report(path, "empty route key")
	case key == WildcardKey:
		v.report(path, "wildcard route must be set as the branch wildcard")
	case strings.HasPrefix(key, "/"):
		v.report(path, "route key %q has a leading slash", key)
	case strings.HasSuffix(key, "/"):
		v.report(path, "route key %q has a trailing slash", key)
	case strings.Contains(key, "/"):
		v.report(path, "route key %q spans multiple segments", key)
	default:
		return true
	}
	return false
}

func join(path, seg string) string {
	return strings.TrimSuffix(path, "/") + "/" + seg
}
