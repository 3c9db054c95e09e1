package nav

import (
	"reflect"
	"testing"
)

func TestNewFromPath(t *testing.T) {
	o := FromPath([]string{"foo", "bar"})

	if got := o.Path(); !reflect.DeepEqual(got, []string{"foo", "bar"}) {
		t.Errorf("Path() = %v, want [foo bar]", got)
	}
	if got := o.PathString(); got != "/foo/bar" {
		t.Errorf("PathString() = %q, want %q", got, "/foo/bar")
	}
	if got := o.Href(); got != "/foo/bar" {
		t.Errorf("Href() = %q, want %q", got, "/foo/bar")
	}
	if got := o.Search(); len(got) != 0 {
		t.Errorf("Search() = %v, want empty", got)
	}
	if got := o.SearchString(); got != "" {
		t.Errorf("SearchString() = %q, want empty", got)
	}
}

func TestNewFromHref(t *testing.T) {
	tests := []struct {
		name       string
		href       string
		opts       []Option
		wantPath   []string
		wantSearch map[string]string
		wantHref   string
		wantHash   string
	}{
		{
			name:       "path and query",
			href:       "/foo/bar?a=b",
			wantPath:   []string{"foo", "bar"},
			wantSearch: map[string]string{"a": "b"},
			wantHref:   "/foo/bar?a=b",
		},
		{
			name:       "missing leading slash",
			href:       "foo",
			wantPath:   []string{"foo"},
			wantSearch: map[string]string{},
			wantHref:   "/foo",
		},
		{
			name:       "redundant slashes",
			href:       "//foo///bar/",
			wantPath:   []string{"foo", "bar"},
			wantSearch: map[string]string{},
			wantHref:   "/foo/bar",
		},
		{
			name:       "root",
			href:       "/",
			wantPath:   []string{},
			wantSearch: map[string]string{},
			wantHref:   "/",
		},
		{
			name:       "hash is kept apart from href",
			href:       "/docs?x=1#intro",
			wantPath:   []string{"docs"},
			wantSearch: map[string]string{"x": "1"},
			wantHref:   "/docs?x=1",
			wantHash:   "intro",
		},
		{
			name:       "search map overrides query",
			href:       "/foo/bar?a=b",
			opts:       []Option{WithSearch(map[string]string{"a": "c"})},
			wantPath:   []string{"foo", "bar"},
			wantSearch: map[string]string{"a": "c"},
			wantHref:   "/foo/bar?a=c",
		},
		{
			name:       "search string overrides query",
			href:       "/foo/bar?a=b",
			opts:       []Option{WithSearchString("?a=c")},
			wantPath:   []string{"foo", "bar"},
			wantSearch: map[string]string{"a": "c"},
			wantHref:   "/foo/bar?a=c",
		},
		{
			name:       "query keys are sorted",
			href:       "/s?z=1&a=2",
			wantPath:   []string{"s"},
			wantSearch: map[string]string{"z": "1", "a": "2"},
			wantHref:   "/s?a=2&z=1",
		},
		{
			name:       "escaped segments are decoded",
			href:       "/files/a%20b",
			wantPath:   []string{"files", "a b"},
			wantSearch: map[string]string{},
			wantHref:   "/files/a%20b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(tt.href, tt.opts...)
			if got := o.Path(); !reflect.DeepEqual(got, tt.wantPath) {
				t.Errorf("Path() = %#v, want %#v", got, tt.wantPath)
			}
			if got := o.Search(); !reflect.DeepEqual(got, tt.wantSearch) {
				t.Errorf("Search() = %v, want %v", got, tt.wantSearch)
			}
			if got := o.Href(); got != tt.wantHref {
				t.Errorf("Href() = %q, want %q", got, tt.wantHref)
			}
			if got := o.Hash(); got != tt.wantHash {
				t.Errorf("Hash() = %q, want %q", got, tt.wantHash)
			}
		})
	}
}

func TestHrefRoundTrip(t *testing.T) {
	inputs := []*Opts{
		New("/foo/bar?a=b"),
		New("foo//bar/?b=2&a=1"),
		New("/files/a%2Fb"),
		New("/bad%zzescape"),
		FromPath([]string{"a?b", "c#d", "e f"}),
		FromPath(nil, WithSearch(map[string]string{"q": "x y&z"})),
	}

	for _, o := range inputs {
		href := o.Href()
		if got := New(href).Href(); got != href {
			t.Errorf("New(%q).Href() = %q, want stable href", href, got)
		}
	}
}

func TestStateAndReplace(t *testing.T) {
	o := New("/foo/bar?a=b")
	if o.State() != nil {
		t.Errorf("State() = %v, want nil", o.State())
	}
	if o.Replace() {
		t.Error("Replace() should default to false")
	}
	if o.Pop() {
		t.Error("Pop() should default to false")
	}

	o = New("/foo/bar?a=b", WithState("abc"), WithReplace(true), WithPop(true))
	if o.State() != "abc" {
		t.Errorf("State() = %v, want abc", o.State())
	}
	if !o.Replace() {
		t.Error("Replace() should be true")
	}
	if !o.Pop() {
		t.Error("Pop() should be true")
	}
}

func TestGo(t *testing.T) {
	t.Run("creates a new descriptor with a new path", func(t *testing.T) {
		o1 := FromPath([]string{"a", "b"})
		o2 := o1.Go("/a")

		if o1 == o2 {
			t.Fatal("Go() returned the receiver")
		}
		if got := o2.Path(); !reflect.DeepEqual(got, []string{"a"}) {
			t.Errorf("Path() = %v, want [a]", got)
		}
	})

	t.Run("only inherits replace", func(t *testing.T) {
		o1 := FromPath([]string{"a", "b"},
			WithReplace(true),
			WithSearch(map[string]string{"a": "b"}),
			WithState(map[string]int{}),
		)
		o2 := o1.Go("/a")

		if !o2.Replace() {
			t.Error("Replace() should be inherited")
		}
		if len(o2.Search()) != 0 {
			t.Errorf("Search() = %v, want empty", o2.Search())
		}
		if o2.State() != nil {
			t.Errorf("State() = %v, want nil", o2.State())
		}
	})

	t.Run("applies new options", func(t *testing.T) {
		o1 := FromPath([]string{"a", "b"}, WithReplace(true))
		o2 := o1.Go("/a", WithReplace(false), WithSearch(map[string]string{"a": "b"}), WithState(123))

		if o2.Replace() {
			t.Error("Replace() should be overridden")
		}
		if got := o2.Search(); !reflect.DeepEqual(got, map[string]string{"a": "b"}) {
			t.Errorf("Search() = %v", got)
		}
		if o2.State() != 123 {
			t.Errorf("State() = %v, want 123", o2.State())
		}
	})

	t.Run("GoPath", func(t *testing.T) {
		o := New("/x", WithReplace(true)).GoPath(nil)
		if o.Href() != "/" || !o.Replace() {
			t.Errorf("GoPath(nil) = %q replace=%v", o.Href(), o.Replace())
		}
	})
}

func TestEqual(t *testing.T) {
	base := New("/foo?a=b", WithState(map[string]int{"n": 1}))

	tests := []struct {
		name  string
		other *Opts
		want  bool
	}{
		{"same values", New("/foo?a=b", WithState(map[string]int{"n": 1})), true},
		{"different href", New("/bar?a=b", WithState(map[string]int{"n": 1})), false},
		{"different state", New("/foo?a=b", WithState(map[string]int{"n": 2})), false},
		{"different replace", New("/foo?a=b", WithState(map[string]int{"n": 1}), WithReplace(true)), false},
		{"different params", New("/foo?a=b", WithState(map[string]int{"n": 1})).WithParams([]string{"x"}), false},
		{"pop is ignored", New("/foo?a=b", WithState(map[string]int{"n": 1}), WithPop(true)), true},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Equal(tt.other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSameLocation(t *testing.T) {
	a := New("/foo").WithParams([]string{"x"})
	b := New("/foo", WithReplace(true))
	if !a.SameLocation(b) {
		t.Error("SameLocation() should ignore params and replace")
	}
	if a.SameLocation(New("/foo", WithState(1))) {
		t.Error("SameLocation() should compare state")
	}
}

func TestWithParamsDoesNotMutate(t *testing.T) {
	o := New("/foo/bar")
	c := o.WithParams([]string{"bar"})

	if len(o.Params()) != 0 {
		t.Errorf("original Params() = %v, want empty", o.Params())
	}
	if p, ok := c.Param(0); !ok || p != "bar" {
		t.Errorf("Param(0) = %q, %v", p, ok)
	}
	if _, ok := c.Param(1); ok {
		t.Error("Param(1) should not exist")
	}
	if c.Href() != o.Href() {
		t.Errorf("Href() = %q, want %q", c.Href(), o.Href())
	}
}

func TestString(t *testing.T) {
	var o *Opts
	if o.String() != "<nil>" {
		t.Errorf("nil String() = %q", o.String())
	}
	if got := New("/a?b=c").String(); got != "/a?b=c" {
		t.Errorf("String() = %q", got)
	}
}
