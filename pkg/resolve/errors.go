package resolve

import (
	"errors"
	"strings"

	"github.com/vango-dev/navroute/pkg/nav"
)

// Sentinel errors for failed resolutions. Both are returned wrapped in a
// *RedirectError.
var (
	// ErrRedirectLoop is returned when a resolution revisits a descriptor.
	ErrRedirectLoop = errors.New("redirect loop")

	// ErrTooManyRedirects is returned when more descriptors than the
	// configured maximum were visited.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrNilTarget is returned by Resolve when called without a target.
	ErrNilTarget = errors.New("resolve: nil target")
)

// RedirectError carries the chain of descriptors visited by a failed
// resolution.
type RedirectError struct {
	// Kind is ErrRedirectLoop or ErrTooManyRedirects.
	Kind error

	// Chain is the ordered list of visited descriptors. For a loop the last
	// entry is the revisited descriptor.
	Chain []*nav.Opts
}

func (e *RedirectError) Error() string {
	hrefs := make([]string, len(e.Chain))
	for i, o := range e.Chain {
		hrefs[i] = o.String()
	}
	path := strings.Join(hrefs, " -> ")

	switch e.Kind {
	case ErrRedirectLoop:
		return "Detected redirect loop: " + path
	case ErrTooManyRedirects:
		return "Exceeded max redirects: " + path
	}
	return e.Kind.Error() + ": " + path
}

func (e *RedirectError) Unwrap() error {
	return e.Kind
}
