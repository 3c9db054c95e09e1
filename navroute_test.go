package navroute

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vango-dev/navroute/pkg/resolve"
	"github.com/vango-dev/navroute/pkg/route"
	"github.com/vango-dev/navroute/pkg/router"
)

func TestRouterFacade(t *testing.T) {
	routes, err := Compile(map[string]route.Node[string]{
		"/":       Value("home"),
		"/docs":   Layout("index", func(next string) string { return "docs:" + next }),
		"/docs/*": Value("page"),
		"/old":    To[string]("/docs", WithReplace(true)),
	})
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	if err := Verify[string](routes); err != nil {
		t.Fatalf("Verify() error: %v", err)
	}

	mem := NewMemoryHistory("https://example.com", "/old")
	r := NewRouter[string](routes, router.WithHistory[string](mem))
	if err := r.Init(context.Background()); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	defer r.Dispose()

	res, ok := r.Resolved()
	if !ok || res.Value != "index" || res.Opts.Href() != "/docs" {
		t.Errorf("Resolved() = %q at %q", res.Value, res.Opts.Href())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Go(ctx, "/docs/intro"); err != nil {
		t.Fatalf("Go() error: %v", err)
	}
	if got := mem.Location().Href(); got != "/docs/intro" {
		t.Errorf("location = %q, want /docs/intro", got)
	}
	if res, _ := r.Resolved(); res.Value != "docs:page" {
		t.Errorf("Resolved() = %q, want docs:page", res.Value)
	}
}

func TestResolverFacade(t *testing.T) {
	loop := &route.Branch[string]{
		Children: map[string]route.Node[string]{
			"a": To[string]("/b"),
			"b": To[string]("/a"),
		},
	}
	_, err := NewResolver[string]().Resolve(context.Background(), loop, NewOpts("/a"), nil)
	if !errors.Is(err, ErrRedirectLoop) {
		t.Errorf("Resolve() error = %v, want ErrRedirectLoop", err)
	}

	_, err = NewResolver[string](resolve.WithMaxRedirects(1)).Resolve(context.Background(), loop, NewOpts("/a"), nil)
	if !errors.Is(err, ErrTooManyRedirects) {
		t.Errorf("Resolve() error = %v, want ErrTooManyRedirects", err)
	}
}

func TestParse(t *testing.T) {
	o, err := Parse("/docs//intro?x=1")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got := o.Href(); got != "/docs/intro?x=1" {
		t.Errorf("Href() = %q", got)
	}
	if _, err := Parse("https://other.example/"); err == nil {
		t.Error("Parse() accepted an absolute URL")
	}
}
