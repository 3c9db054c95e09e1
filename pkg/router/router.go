package router

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/vango-dev/navroute/pkg/history"
	"github.com/vango-dev/navroute/pkg/nav"
	"github.com/vango-dev/navroute/pkg/resolve"
	"github.com/vango-dev/navroute/pkg/route"
)

// eventBuffer is the number of popstate and click navigations that may
// queue before the history adapter blocks.
const eventBuffer = 64

// Router errors.
var (
	// ErrNoHistory is returned by Init when the router has no history adapter.
	ErrNoHistory = errors.New("router: no history adapter")

	// ErrInitialized is returned by Init when the router is already listening.
	ErrInitialized = errors.New("router: already initialized")
)

// Listener receives every successful resolution.
type Listener[T any] func(resolve.Resolved[T])

// Option configures a Router.
type Option[T any] func(*Router[T])

// WithResolver sets the resolution engine. The default is resolve.New[T]().
func WithResolver[T any](r *resolve.Resolver[T]) Option[T] {
	return func(rt *Router[T]) {
		if r != nil {
			rt.resolver = r
		}
	}
}

// WithNotFound sets the resolver used when no route matches. The default
// redirects to "/".
func WithNotFound[T any](fn route.Resolve[T]) Option[T] {
	return func(rt *Router[T]) {
		if fn != nil {
			rt.notFound = fn
		}
	}
}

// WithHistory sets the history adapter. Without one the router resolves
// and notifies listeners but never writes history.
func WithHistory[T any](h history.Adapter) Option[T] {
	return func(rt *Router[T]) {
		rt.history = h
	}
}

// WithLogger sets the logger.
func WithLogger[T any](l *slog.Logger) Option[T] {
	return func(rt *Router[T]) {
		if l != nil {
			rt.logger = l
		}
	}
}

// WithoutClick disables anchor click interception.
func WithoutClick[T any]() Option[T] {
	return func(rt *Router[T]) {
		rt.noClick = true
	}
}

// WithOnResolve registers a listener at construction.
func WithOnResolve[T any](l Listener[T]) Option[T] {
	return func(rt *Router[T]) {
		rt.OnResolve(l)
	}
}

// Router owns a route tree, serializes navigations through the resolver
// and keeps the history adapter in sync with the resolved state.
type Router[T any] struct {
	resolver *resolve.Resolver[T]
	notFound route.Resolve[T]
	history  history.Adapter
	logger   *slog.Logger
	noClick  bool

	// nav admits one navigation at a time, in arrival order.
	nav *semaphore.Weighted

	mu        sync.RWMutex
	routes    route.Node[T]
	resolved  *resolve.Resolved[T]
	listeners map[int]Listener[T]
	nextID    int

	// pending holds resolutions awaiting delivery to listeners.
	notifyMu   sync.Mutex
	pending    []resolve.Resolved[T]
	delivering bool

	lifeMu  sync.Mutex
	cancels []func()
	events  chan func(context.Context)
	loopCtx context.Context
	stop    context.CancelFunc
}

// New creates a router for routes. Call Init to start listening to the
// history adapter.
func New[T any](routes route.Node[T], opts ...Option[T]) *Router[T] {
	r := &Router[T]{
		routes:    routes,
		notFound:  route.Root[T](),
		logger:    slog.Default().With("component", "router"),
		nav:       semaphore.NewWeighted(1),
		listeners: make(map[int]Listener[T]),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.resolver == nil {
		r.resolver = resolve.New[T](resolve.WithLogger(r.logger))
	}
	return r
}

// Go navigates to href.
func (r *Router[T]) Go(ctx context.Context, href string, opts ...nav.Option) error {
	return r.Navigate(ctx, nav.New(href, opts...))
}

// GoPath navigates to the given path segments.
func (r *Router[T]) GoPath(ctx context.Context, segments []string, opts ...nav.Option) error {
	return r.Navigate(ctx, nav.FromPath(segments, opts...))
}

// Navigate resolves o, pushes or replaces the history entry according to
// the resolved descriptor, then notifies listeners. Navigations run one at a
// time in call order. ctx bounds the wait for earlier navigations and is
// passed to resolvers. Listeners may call Navigate; such a call returns
// before its own resolution is delivered.
func (r *Router[T]) Navigate(ctx context.Context, o *nav.Opts) error {
	_, err := r.apply(ctx, o, func(res resolve.Resolved[T]) error {
		return r.updateState(res.Opts)
	})
	return err
}

// apply commits o, then delivers pending resolutions outside the slot.
func (r *Router[T]) apply(ctx context.Context, o *nav.Opts, after func(resolve.Resolved[T]) error) (resolve.Resolved[T], error) {
	res, err := r.commit(ctx, o, after)
	r.deliver()
	return res, err
}

// commit resolves o and runs after while holding the navigation slot. The
// resolution is queued for listeners before the slot is released.
func (r *Router[T]) commit(ctx context.Context, o *nav.Opts, after func(resolve.Resolved[T]) error) (resolve.Resolved[T], error) {
	if err := r.nav.Acquire(ctx, 1); err != nil {
		return resolve.Resolved[T]{}, err
	}
	defer r.nav.Release(1)

	id := uuid.NewString()
	r.logger.Debug("navigation started", "nav_id", id, "href", o.Href(), "pop", o.Pop())

	res, err := r.resolver.Resolve(ctx, r.Routes(), o, r.notFound)
	if err != nil {
		r.logger.Debug("navigation failed", "nav_id", id, "href", o.Href(), "error", err)
		return resolve.Resolved[T]{}, err
	}

	r.mu.Lock()
	r.resolved = &res
	r.mu.Unlock()

	r.notifyMu.Lock()
	r.pending = append(r.pending, res)
	r.notifyMu.Unlock()

	r.logger.Debug("navigation resolved", "nav_id", id, "href", res.Opts.Href())
	if after != nil {
		if err := after(res); err != nil {
			return res, err
		}
	}
	return res, nil
}

// deliver hands queued resolutions to listeners in order. A navigation
// started from a listener queues its resolution behind the delivery already
// running and returns without waiting for it.
func (r *Router[T]) deliver() {
	r.notifyMu.Lock()
	if r.delivering {
		r.notifyMu.Unlock()
		return
	}
	r.delivering = true
	for len(r.pending) > 0 {
		res := r.pending[0]
		r.pending = r.pending[1:]
		r.notifyMu.Unlock()
		r.notify(res)
		r.notifyMu.Lock()
	}
	r.delivering = false
	r.notifyMu.Unlock()
}

// updateState writes o to the history adapter. It is the only place the
// router writes history.
func (r *Router[T]) updateState(o *nav.Opts) error {
	if r.history == nil {
		return nil
	}
	href := o.Href()
	if h := o.Hash(); h != "" {
		href += "#" + h
	}
	if o.Replace() {
		return r.history.Replace(o.State(), href)
	}
	return r.history.Push(o.State(), href)
}

// OnResolve registers a listener for successful resolutions. If a
// resolution already completed, the listener is called with it
// immediately. The returned function removes the listener and may be
// called more than once.
func (r *Router[T]) OnResolve(l Listener[T]) (unsubscribe func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = l
	last := r.resolved
	r.mu.Unlock()

	if last != nil {
		l(*last)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.listeners, id)
			r.mu.Unlock()
		})
	}
}

// notify calls listeners in registration order outside the lock.
func (r *Router[T]) notify(res resolve.Resolved[T]) {
	r.mu.RLock()
	ids := make([]int, 0, len(r.listeners))
	for id := range r.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	ls := make([]Listener[T], 0, len(ids))
	for _, id := range ids {
		ls = append(ls, r.listeners[id])
	}
	r.mu.RUnlock()

	for _, l := range ls {
		l(res)
	}
}

// Resolved returns the last successful resolution.
func (r *Router[T]) Resolved() (resolve.Resolved[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.resolved == nil {
		return resolve.Resolved[T]{}, false
	}
	return *r.resolved, true
}

// Routes returns the current route tree.
func (r *Router[T]) Routes() route.Node[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.routes
}

// SetRoutes swaps the route tree. Navigations already resolving keep the
// tree they started with.
func (r *Router[T]) SetRoutes(routes route.Node[T]) {
	r.mu.Lock()
	r.routes = routes
	r.mu.Unlock()
}

// Init subscribes to popstate and (unless disabled) anchor clicks on the
// history adapter and resolves the current location. Background
// navigations keep the values of ctx but not its cancellation; they stop
// on Dispose.
func (r *Router[T]) Init(ctx context.Context) error {
	if r.history == nil {
		return ErrNoHistory
	}

	r.lifeMu.Lock()
	if r.stop != nil {
		r.lifeMu.Unlock()
		return ErrInitialized
	}
	loopCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	r.loopCtx, r.stop = loopCtx, stop
	r.events = make(chan func(context.Context), eventBuffer)
	go r.loop(loopCtx, r.events)

	r.cancels = append(r.cancels, r.history.OnPopState(r.handlePopState))
	if !r.noClick {
		r.cancels = append(r.cancels, r.history.OnClick(r.handleClick))
	}
	r.lifeMu.Unlock()

	return r.restore(ctx, r.history.Location(), false)
}

// Dispose releases the history subscriptions and stops background
// navigations. It may be called more than once.
func (r *Router[T]) Dispose() {
	r.lifeMu.Lock()
	defer r.lifeMu.Unlock()

	for _, cancel := range r.cancels {
		cancel()
	}
	r.cancels = nil
	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
}

func (r *Router[T]) loop(ctx context.Context, events <-chan func(context.Context)) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-events:
			fn(ctx)
		}
	}
}

// enqueue schedules a background navigation. It drops fn when the router
// is not initialized.
func (r *Router[T]) enqueue(fn func(context.Context)) {
	r.lifeMu.Lock()
	events, ctx := r.events, r.loopCtx
	active := r.stop != nil
	r.lifeMu.Unlock()
	if !active {
		return
	}

	select {
	case events <- fn:
	case <-ctx.Done():
	}
}

// handlePopState reads the location when the event fires. A navigation
// queued before it may push a new entry by the time it runs.
func (r *Router[T]) handlePopState(p history.PopState) {
	loc := r.history.Location()
	loc.State = p.State
	r.enqueue(func(ctx context.Context) {
		if err := r.restore(ctx, loc, true); err != nil {
			r.logger.Error("popstate navigation failed", "error", err)
		}
	})
}

// restore resolves loc. If guards or redirects changed it, the history
// entry is replaced with the canonical location.
func (r *Router[T]) restore(ctx context.Context, loc history.Location, pop bool) error {
	initial := nav.New(loc.Path+loc.Search,
		nav.WithState(loc.State),
		nav.WithHash(loc.Hash),
		nav.WithPop(pop),
	)

	_, err := r.apply(ctx, initial, func(res resolve.Resolved[T]) error {
		if res.Opts.SameLocation(initial) {
			return nil
		}
		return r.updateState(nav.FromPath(res.Opts.Path(),
			nav.WithReplace(true),
			nav.WithSearch(res.Opts.Search()),
			nav.WithState(res.Opts.State()),
			nav.WithHash(res.Opts.Hash()),
		))
	})
	return err
}

// handleClick routes same-origin anchor clicks internally.
func (r *Router[T]) handleClick(c history.Click) bool {
	if c.Origin != r.history.Location().Origin {
		return false
	}

	href := c.Href()
	opts := []nav.Option{nav.WithReplace(c.Replace)}
	if c.Hash != "" {
		opts = append(opts, nav.WithHash(c.Hash))
	}
	r.enqueue(func(ctx context.Context) {
		if err := r.Go(ctx, href, opts...); err != nil {
			r.logger.Error("click navigation failed", "href", href, "error", err)
		}
	})
	return true
}
