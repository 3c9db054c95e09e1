package history

import (
	"slices"
	"testing"
)

func TestMemoryStack(t *testing.T) {
	m := NewMemory("https://example.com", "/")
	m.Push(1, "/a")
	m.Push(2, "/b?x=1#top")

	loc := m.Location()
	if loc.Path != "/b" || loc.Search != "?x=1" || loc.Hash != "#top" || loc.State != 2 {
		t.Errorf("Location() = %+v", loc)
	}
	if loc.Origin != "https://example.com" {
		t.Errorf("Origin = %q", loc.Origin)
	}

	var pops []any
	cancel := m.OnPopState(func(p PopState) { pops = append(pops, p.State) })

	if !m.Back() {
		t.Fatal("Back() = false")
	}
	if got := m.Location().Href(); got != "/a" {
		t.Errorf("after Back() href = %q, want /a", got)
	}

	m.Replace(3, "/a2")
	if !m.Forward() {
		t.Fatal("Forward() = false")
	}
	if m.Forward() {
		t.Error("Forward() at end of stack = true")
	}

	if !m.Go(-2) {
		t.Fatal("Go(-2) = false")
	}
	if m.Back() {
		t.Error("Back() at start of stack = true")
	}

	if want := []any{1, 2, nil}; !slices.Equal(pops, want) {
		t.Errorf("popstate states = %v, want %v", pops, want)
	}

	cancel()
	cancel()
	m.Forward()
	if len(pops) != 3 {
		t.Errorf("listener called after cancel")
	}
}

func TestMemoryPushDropsForwardEntries(t *testing.T) {
	m := NewMemory("https://example.com", "/")
	m.Push(nil, "/a")
	m.Push(nil, "/b")
	m.Back()
	m.Push(nil, "/c")

	hrefs, index := m.Entries()
	if want := []string{"/", "/a", "/c"}; !slices.Equal(hrefs, want) {
		t.Errorf("entries = %v, want %v", hrefs, want)
	}
	if index != 2 {
		t.Errorf("index = %d, want 2", index)
	}
}

func TestMemoryClickLink(t *testing.T) {
	tests := []struct {
		name        string
		href        string
		replace     bool
		wantOrigin  string
		wantHref    string
		wantReplace bool
	}{
		{"absolute path", "/docs?page=2#intro", false, "https://example.com", "/docs?page=2", false},
		{"relative path", "b", true, "https://example.com", "/a/b", true},
		{"full url same origin", "https://example.com/x", false, "https://example.com", "/x", false},
		{"other origin", "https://other.org/x", false, "https://other.org", "/x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMemory("https://example.com", "/a/")
			var got Click
			m.OnClick(func(c Click) bool {
				got = c
				return c.Origin == "https://example.com"
			})

			prevented := m.ClickLink(tt.href, tt.replace)
			if got.Origin != tt.wantOrigin || got.Href() != tt.wantHref || got.Replace != tt.wantReplace {
				t.Errorf("click = %+v, want origin %s href %s replace %v", got, tt.wantOrigin, tt.wantHref, tt.wantReplace)
			}
			if want := tt.wantOrigin == "https://example.com"; prevented != want {
				t.Errorf("prevented = %v, want %v", prevented, want)
			}
		})
	}
}

func TestMemoryUnpreventedClickNavigates(t *testing.T) {
	m := NewMemory("https://example.com", "/")

	if m.ClickLink("/plain", false) {
		t.Fatal("click without listeners was prevented")
	}
	if got := m.Location().Href(); got != "/plain" {
		t.Errorf("href = %q, want /plain", got)
	}

	m.ClickLink("https://other.org/away", false)
	if got := m.Location().Href(); got != "/plain" {
		t.Errorf("cross-origin click changed href to %q", got)
	}
}

func TestMemoryListeners(t *testing.T) {
	m := NewMemory("https://example.com", "")
	if got := m.Location().Path; got != "/" {
		t.Errorf("default path = %q, want /", got)
	}

	c1 := m.OnPopState(func(PopState) {})
	c2 := m.OnClick(func(Click) bool { return false })
	if pops, clicks := m.Listeners(); pops != 1 || clicks != 1 {
		t.Errorf("Listeners() = %d, %d; want 1, 1", pops, clicks)
	}
	c1()
	c2()
	if pops, clicks := m.Listeners(); pops != 0 || clicks != 0 {
		t.Errorf("Listeners() after cancel = %d, %d; want 0, 0", pops, clicks)
	}
}
