package manifest

import (
	"context"
	stderrors "errors"
	"fmt"
	"html"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vango-dev/navroute/internal/errors"
	"github.com/vango-dev/navroute/pkg/nav"
	"github.com/vango-dev/navroute/pkg/resolve"
	"github.com/vango-dev/navroute/pkg/route"
)

// Placeholders expanded in content, layout and redirect strings.
const (
	// NextPlaceholder marks where a layout embeds the deeper match.
	NextPlaceholder = "{{next}}"

	// paramPrefix starts a wildcard capture placeholder, e.g. {{param0}}.
	paramPrefix = "{{param"
)

// Manifest is a declarative route table.
type Manifest struct {
	// MaxRedirects overrides resolve.DefaultMaxRedirects when positive.
	MaxRedirects int `json:"maxRedirects,omitempty" yaml:"maxRedirects,omitempty" toml:"maxRedirects,omitempty" validate:"gte=0,lte=100"`

	// NotFound is resolved when no route matches. Nil redirects to "/".
	NotFound *Entry `json:"notFound,omitempty" yaml:"notFound,omitempty" toml:"notFound,omitempty"`

	// Routes maps slash-delimited keys to entries. A "*" segment is a
	// wildcard.
	Routes map[string]Entry `json:"routes" yaml:"routes" toml:"routes" validate:"required,min=1,dive"`
}

// Entry defines the content of one route.
type Entry struct {
	// Content is the resolved value, an HTML fragment. {{paramN}} is
	// replaced with the Nth wildcard capture, HTML-escaped.
	Content string `json:"content,omitempty" yaml:"content,omitempty" toml:"content,omitempty"`

	// Layout wraps deeper matches at {{next}}. Without a deeper match it
	// wraps Content.
	Layout string `json:"layout,omitempty" yaml:"layout,omitempty" toml:"layout,omitempty"`

	// Redirect sends the navigation elsewhere.
	Redirect string `json:"redirect,omitempty" yaml:"redirect,omitempty" toml:"redirect,omitempty" validate:"omitempty,startswith=/"`

	// Replace makes Redirect replace the history entry.
	Replace bool `json:"replace,omitempty" yaml:"replace,omitempty" toml:"replace,omitempty"`

	// Guard protects the route and everything below it.
	Guard *Guard `json:"guard,omitempty" yaml:"guard,omitempty" toml:"guard,omitempty"`
}

// Guard admits a navigation when a query parameter has the expected value.
type Guard struct {
	// Query is the search parameter to check.
	Query string `json:"query" yaml:"query" toml:"query" validate:"required"`

	// Equals is the required value. Empty only requires presence.
	Equals string `json:"equals,omitempty" yaml:"equals,omitempty" toml:"equals,omitempty"`

	// Redirect is where rejected navigations go.
	Redirect string `json:"redirect" yaml:"redirect" toml:"redirect" validate:"required,startswith=/"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field formats and entry combinations. It returns nil or
// an E103 *errors.Error listing every problem.
func (m *Manifest) Validate() error {
	var problems []string

	if err := validate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if !stderrors.As(err, &verrs) {
			return errors.New(errors.ManifestEntry).Wrap(err)
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	for _, key := range sortedKeys(m.Routes) {
		if !strings.HasPrefix(key, "/") {
			problems = append(problems, fmt.Sprintf("route %q: key must start with \"/\"", key))
		}
		if strings.ContainsAny(key, "?#") {
			problems = append(problems, fmt.Sprintf("route %q: key must not contain a query or hash", key))
		}
		problems = append(problems, m.Routes[key].check("route "+strconv.Quote(key))...)
	}
	if m.NotFound != nil {
		problems = append(problems, m.NotFound.check("notFound")...)
		if m.NotFound.Guard != nil {
			problems = append(problems, "notFound: guards are not allowed")
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New(errors.ManifestEntry).
		Wrap(fmt.Errorf("%s", strings.Join(problems, "; "))).
		WithSuggestion(`Give each route exactly one of "content" or "redirect", optionally with a "layout"`)
}

// check returns combination problems of e.
func (e Entry) check(at string) []string {
	var problems []string
	switch {
	case e.Content == "" && e.Layout == "" && e.Redirect == "":
		problems = append(problems, at+": needs content, layout or redirect")
	case e.Redirect != "" && (e.Content != "" || e.Layout != ""):
		problems = append(problems, at+": redirect cannot be combined with content or layout")
	}
	if e.Layout != "" && !strings.Contains(e.Layout, NextPlaceholder) {
		problems = append(problems, at+": layout must contain "+NextPlaceholder)
	}
	if e.Replace && e.Redirect == "" {
		problems = append(problems, at+": replace requires redirect")
	}
	return problems
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Manifest.")
	switch fe.Tag() {
	case "required":
		return field + ": is required"
	case "min":
		return field + ": must have at least " + fe.Param() + " entry"
	case "startswith":
		return fmt.Sprintf("%s: %q must start with %q", field, fe.Value(), fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s: %v is out of range", field, fe.Value())
	}
	return fmt.Sprintf("%s: failed %q validation", field, fe.Tag())
}

// Build validates m and compiles it into a verified route tree.
func (m *Manifest) Build() (*route.Branch[string], error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	flat := make(map[string]route.Node[string], len(m.Routes))
	for key, e := range m.Routes {
		flat[key] = e.node()
	}

	tree, err := route.Compile[string](flat)
	if err != nil {
		return nil, errors.New(errors.ManifestConflict).Wrap(err).
			WithSuggestion(`Keys differing only in slashes, such as "/docs" and "/docs/", address the same route`)
	}
	if err := route.Verify[string](tree); err != nil {
		return nil, errors.New(errors.ManifestInvalidTree).Wrap(err)
	}
	return tree, nil
}

// NotFoundResolver returns the resolver for unmatched locations.
func (m *Manifest) NotFoundResolver() route.Resolve[string] {
	if m.NotFound == nil {
		return route.Root[string]()
	}
	return m.NotFound.index()
}

// ResolverOptions returns the resolver options the manifest asks for.
func (m *Manifest) ResolverOptions() []resolve.Option {
	if m.MaxRedirects > 0 {
		return []resolve.Option{resolve.WithMaxRedirects(m.MaxRedirects)}
	}
	return nil
}

// node returns the tree node for e. Guarded entries become branches.
func (e Entry) node() route.Node[string] {
	idx := e.index()
	if e.Guard == nil {
		return idx
	}
	return &route.Branch[string]{Index: idx, Guard: e.Guard.guard()}
}

func (e Entry) index() route.Resolve[string] {
	switch {
	case e.Redirect != "":
		return redirectTo(e.Redirect, e.Replace)
	case e.Layout != "":
		return layout(e.Layout, e.Content)
	}
	return content(e.Content)
}

// content yields tmpl when nothing deeper matched. Entries sit at branch
// index positions, so a deeper match passes through unchanged.
func content(tmpl string) route.Resolve[string] {
	return func(_ context.Context, o *nav.Opts, next *string) (route.Result[string], error) {
		if next != nil {
			return route.Done(*next), nil
		}
		return route.Done(expand(tmpl, o, html.EscapeString)), nil
	}
}

func layout(tmpl, index string) route.Resolve[string] {
	return func(_ context.Context, o *nav.Opts, next *string) (route.Result[string], error) {
		inner := expand(index, o, html.EscapeString)
		if next != nil {
			inner = *next
		}
		return route.Done(strings.ReplaceAll(expand(tmpl, o, html.EscapeString), NextPlaceholder, inner)), nil
	}
}

// redirectTo redirects when nothing deeper matched.
func redirectTo(href string, replace bool) route.Resolve[string] {
	var opts []nav.Option
	if replace {
		opts = append(opts, nav.WithReplace(true))
	}
	return func(_ context.Context, o *nav.Opts, next *string) (route.Result[string], error) {
		if next != nil {
			return route.Done(*next), nil
		}
		return route.Redirect[string](o.Go(expand(href, o, url.PathEscape), opts...)), nil
	}
}

func (g *Guard) guard() route.Guard {
	return func(_ context.Context, o *nav.Opts) (*nav.Opts, error) {
		v, ok := o.SearchParam(g.Query)
		if ok && (g.Equals == "" || v == g.Equals) {
			return nil, nil
		}
		return o.Go(g.Redirect), nil
	}
}

// expand replaces {{paramN}} with the Nth capture of o, passed through
// escape. Captures come from the requested URL, so content escapes them
// as HTML and redirects as path segments. Placeholders without a capture
// are left as is.
func expand(tmpl string, o *nav.Opts, escape func(string) string) string {
	params := o.Params()
	if len(params) == 0 || !strings.Contains(tmpl, paramPrefix) {
		return tmpl
	}
	pairs := make([]string, 0, 2*len(params))
	for i, p := range params {
		pairs = append(pairs, paramPrefix+strconv.Itoa(i)+"}}", escape(p))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func sortedKeys(m map[string]Entry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
