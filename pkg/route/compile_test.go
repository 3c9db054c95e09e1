package route

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/vango-dev/navroute/pkg/nav"
)

// describe renders a tree with resolvers labelled by their value.
func describe(t *testing.T, n Node[string]) string {
	t.Helper()
	switch v := n.(type) {
	case nil:
		return "nil"
	case Resolve[string]:
		res, err := v(context.Background(), nav.New("/"), nil)
		if err != nil {
			t.Fatalf("resolver error: %v", err)
		}
		if res.IsRedirect() {
			return "->" + res.Target().Href()
		}
		return res.Value()
	case *Branch[string]:
		var parts []string
		if v.Guard != nil {
			parts = append(parts, "?")
		}
		if v.Index != nil {
			parts = append(parts, "index:"+describe(t, v.Index))
		}
		if v.Wildcard != nil {
			parts = append(parts, "*:"+describe(t, v.Wildcard))
		}
		for _, k := range sortedKeys(v.Children) {
			parts = append(parts, k+":"+describe(t, v.Children[k]))
		}
		return "{" + strings.Join(parts, " ") + "}"
	}
	return fmt.Sprintf("%T", n)
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name string
		flat map[string]Node[string]
		want string
	}{
		{
			name: "removes leading slashes",
			flat: map[string]Node[string]{
				"/":    Value("root"),
				"/foo": Value("foo"),
			},
			want: "{index:root foo:foo}",
		},
		{
			name: "nests routes with slashes",
			flat: map[string]Node[string]{
				"/foo/bar": Value("bar"),
			},
			want: "{foo:{bar:bar}}",
		},
		{
			name: "tolerates unnecessary slashes",
			flat: map[string]Node[string]{
				"///foo//bar//": Value("bar"),
			},
			want: "{foo:{bar:bar}}",
		},
		{
			name: "extends existing routes",
			flat: map[string]Node[string]{
				"/foo/bar/baz": Value("baz"),
				"/foo":         Value("foo"),
				"foo": &Branch[string]{Children: map[string]Node[string]{
					"bar": Value("bar"),
				}},
			},
			want: "{foo:{index:foo bar:{index:bar baz:baz}}}",
		},
		{
			name: "wildcard segments",
			flat: map[string]Node[string]{
				"/docs/*/edit": Value("edit"),
				"/docs/*":      Value("show"),
			},
			want: "{docs:{*:{index:show edit:edit}}}",
		},
		{
			name: "nested branch keys are compiled",
			flat: map[string]Node[string]{
				"/a": &Branch[string]{
					Children: map[string]Node[string]{
						"b/c": Value("c"),
						"":    Value("a"),
					},
				},
			},
			want: "{a:{index:a b:{c:c}}}",
		},
		{
			name: "guards are kept",
			flat: map[string]Node[string]{
				"/admin": &Branch[string]{
					Guard: func(context.Context, *nav.Opts) (*nav.Opts, error) { return nil, nil },
				},
				"/admin/users": Value("users"),
			},
			want: "{admin:{? users:users}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compile(tt.flat)
			if err != nil {
				t.Fatalf("Compile() error: %v", err)
			}
			if s := describe(t, got); s != tt.want {
				t.Errorf("Compile() = %s, want %s", s, tt.want)
			}
			if err := Verify[string](got); err != nil {
				t.Errorf("compiled tree does not verify: %v", err)
			}
		})
	}
}

func TestCompileConflicts(t *testing.T) {
	tests := []struct {
		name     string
		flat     map[string]Node[string]
		wantPath string
	}{
		{
			name: "two resolvers on the same path",
			flat: map[string]Node[string]{
				"/foo":  Value("a"),
				"foo/":  Value("b"),
				"/bar/": Value("c"),
			},
			wantPath: "/foo",
		},
		{
			name: "two guards",
			flat: map[string]Node[string]{
				"/x": &Branch[string]{Guard: func(context.Context, *nav.Opts) (*nav.Opts, error) { return nil, nil }},
				"x": &Branch[string]{Guard: func(context.Context, *nav.Opts) (*nav.Opts, error) { return nil, nil }},
			},
			wantPath: "/x",
		},
		{
			name: "root index twice",
			flat: map[string]Node[string]{
				"":  Value("a"),
				"/": Value("b"),
			},
			wantPath: "/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.flat)
			if !errors.Is(err, ErrRouteConflict) {
				t.Fatalf("Compile() error = %v, want ErrRouteConflict", err)
			}
			var ce *ConflictError
			if !errors.As(err, &ce) {
				t.Fatalf("error %T is not a *ConflictError", err)
			}
			if ce.Path != tt.wantPath {
				t.Errorf("conflict path = %q, want %q", ce.Path, tt.wantPath)
			}
		})
	}
}

func TestCompileDoesNotModifyInput(t *testing.T) {
	foo := &Branch[string]{Children: map[string]Node[string]{"bar": Value("bar")}}
	flat := map[string]Node[string]{
		"foo":      foo,
		"/foo/baz": Value("baz"),
	}

	if _, err := Compile(flat); err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	if len(foo.Children) != 1 {
		t.Errorf("input branch was modified: %s", describe(t, foo))
	}
}

func TestCompileManyRoutes(t *testing.T) {
	flat := make(map[string]Node[string])
	for i := 0; i < 10000; i++ {
		key := fmt.Sprintf("aaaaaaaaaa%d/", i%100)
		if i > 100 {
			key += fmt.Sprintf("bbbbbbbbb%d", i%300)
		}
		key += "/"
		if i > 300 {
			key += fmt.Sprintf("cccccccccc%d", i)
		}
		flat[key] = Value("v")
	}

	if _, err := Compile(flat); err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
}
