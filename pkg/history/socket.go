package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/vango-dev/navroute/pkg/nav"
)

// Socket errors.
var (
	// ErrHandshake is returned by Accept when the first message is not a
	// valid hello.
	ErrHandshake = errors.New("history: invalid socket handshake")

	// ErrSocketClosed is returned when writing to a closed socket.
	ErrSocketClosed = errors.New("history: socket closed")
)

// SocketConfig configures a Socket.
type SocketConfig struct {
	// HandshakeTimeout bounds the wait for the client's hello.
	HandshakeTimeout time.Duration

	// WriteTimeout bounds every write.
	WriteTimeout time.Duration

	// EventRate and EventBurst limit inbound popstate and click events.
	// Events over the limit are dropped.
	EventRate  rate.Limit
	EventBurst int

	// Logger receives socket diagnostics.
	Logger *slog.Logger
}

// DefaultSocketConfig returns a SocketConfig with sensible defaults.
func DefaultSocketConfig() *SocketConfig {
	return &SocketConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		EventRate:        20,
		EventBurst:       40,
	}
}

// Socket is an Adapter bridging a browser client over a WebSocket. The
// client reports its location, back/forward navigation and intercepted
// anchor clicks; the socket forwards pushState and replaceState requests
// and resolved values back.
type Socket struct {
	id      string
	conn    *websocket.Conn
	config  *SocketConfig
	limiter *rate.Limiter
	logger  *slog.Logger

	mu  sync.RWMutex
	loc Location

	writeMu sync.Mutex
	closed  atomic.Bool
	done    chan struct{}

	pops   listeners[PopState]
	clicks listeners[Click]
}

var _ Adapter = (*Socket)(nil)

// Accept upgrades the request, reads the client's hello and returns the
// connected socket. Call Serve to process further messages.
func Accept(w http.ResponseWriter, r *http.Request, upgrader *websocket.Upgrader, config *SocketConfig) (*Socket, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("history: upgrade: %w", err)
	}

	s := NewSocket(conn, config)
	if err := s.handshake(r.Header.Get("Origin")); err != nil {
		s.sendError(err.Error())
		s.Close()
		return nil, err
	}
	return s, nil
}

// NewSocket wraps an established connection. Most callers use Accept.
func NewSocket(conn *websocket.Conn, config *SocketConfig) *Socket {
	if config == nil {
		config = DefaultSocketConfig()
	}
	id := uuid.NewString()
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Socket{
		id:      id,
		conn:    conn,
		config:  config,
		limiter: rate.NewLimiter(config.EventRate, config.EventBurst),
		logger:  logger.With("component", "history", "socket_id", id),
		done:    make(chan struct{}),
	}
}

// ID returns the connection ID.
func (s *Socket) ID() string { return s.id }

// Done is closed when the socket is closed.
func (s *Socket) Done() <-chan struct{} { return s.done }

func (s *Socket) handshake(headerOrigin string) error {
	if s.config.HandshakeTimeout > 0 {
		s.conn.SetReadDeadline(time.Now().Add(s.config.HandshakeTimeout))
		defer s.conn.SetReadDeadline(time.Time{})
	}

	m, err := s.read()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	if m.Type != MsgHello {
		return fmt.Errorf("%w: expected %s, got %q", ErrHandshake, MsgHello, m.Type)
	}
	// The browser sets Origin on the upgrade request. The hello origin is
	// only a fallback for clients that send no header.
	if headerOrigin != "" {
		m.Origin = headerOrigin
	}
	loc, err := parseLocation(m)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}

	s.mu.Lock()
	s.loc = loc
	s.mu.Unlock()
	s.logger.Debug("socket connected", "origin", loc.Origin, "href", loc.Href())
	return nil
}

// Serve reads client messages until the connection closes or ctx is done.
// A normal closure returns nil.
func (s *Socket) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, s.Close)
	defer stop()
	defer s.Close()

	for {
		m, err := s.read()
		if err != nil {
			var syntax *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntax) || errors.As(err, &typeErr) {
				s.logger.Warn("message decode error", "error", err)
				s.sendError("invalid message")
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if s.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("history: read: %w", err)
		}
		s.handle(m)
	}
}

func (s *Socket) read() (Message, error) {
	var m Message
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, err
	}
	return m, nil
}

func (s *Socket) handle(m Message) {
	switch m.Type {
	case MsgPopState, MsgClick:
		if !s.limiter.Allow() {
			s.logger.Warn("event rate limited", "type", m.Type)
			return
		}
	case MsgHello:
		s.logger.Warn("duplicate hello ignored")
		return
	default:
		s.logger.Warn("unknown message type", "type", m.Type)
		s.sendError("unknown message type")
		return
	}

	origin := s.Location().Origin
	if m.Origin == "" {
		m.Origin = origin
	}
	loc, err := parseLocation(m)
	if err != nil {
		s.logger.Warn("invalid client location", "type", m.Type, "path", m.Path, "error", err)
		s.sendError(err.Error())
		return
	}

	switch m.Type {
	case MsgPopState:
		loc.Origin = origin
		s.mu.Lock()
		s.loc = loc
		s.mu.Unlock()
		s.pops.dispatch(PopState{State: loc.State})
	case MsgClick:
		s.clicks.dispatch(Click{
			Origin:  loc.Origin,
			Path:    loc.Path,
			Search:  loc.Search,
			Hash:    loc.Hash,
			Replace: m.Replace,
		})
	}
}

// parseLocation canonicalizes the path reported by the client.
func parseLocation(m Message) (Location, error) {
	path := m.Path
	if path == "" {
		path = "/"
	}
	search := m.Search
	if search != "" && !strings.HasPrefix(search, "?") {
		search = "?" + search
	}
	o, err := nav.Parse(path + search)
	if err != nil {
		return Location{}, err
	}

	loc := Location{Origin: m.Origin, Path: o.PathString(), State: m.State}
	if q := o.SearchString(); q != "" {
		loc.Search = "?" + q
	}
	if h := strings.TrimPrefix(m.Hash, "#"); h != "" {
		loc.Hash = "#" + h
	}
	return loc, nil
}

// Push sends a pushState request and records the new location.
func (s *Socket) Push(state any, href string) error {
	s.setHref(state, href)
	return s.write(Message{Type: MsgPush, Href: href, State: state})
}

// Replace sends a replaceState request and records the new location.
func (s *Socket) Replace(state any, href string) error {
	s.setHref(state, href)
	return s.write(Message{Type: MsgReplace, Href: href, State: state})
}

// SendResolved delivers a resolved value for href to the client.
func (s *Socket) SendResolved(href string, value any) error {
	return s.write(Message{Type: MsgResolved, Href: href, Value: value})
}

func (s *Socket) setHref(state any, href string) {
	path, search, hash := splitLocation(href)
	s.mu.Lock()
	s.loc = Location{Origin: s.loc.Origin, Path: path, Search: search, Hash: hash, State: state}
	s.mu.Unlock()
}

// Location returns the last location reported by the client or written by
// Push and Replace.
func (s *Socket) Location() Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loc
}

// OnPopState implements Adapter.
func (s *Socket) OnPopState(fn func(PopState)) func() {
	return s.pops.add(func(p PopState) bool {
		fn(p)
		return false
	})
}

// OnClick implements Adapter. The client prevents the default navigation
// itself, so the listener's result is ignored.
func (s *Socket) OnClick(fn func(Click) bool) func() {
	return s.clicks.add(fn)
}

func (s *Socket) write(m Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.closed.Load() {
		return ErrSocketClosed
	}
	if s.config.WriteTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	}
	if err := s.conn.WriteJSON(m); err != nil {
		return fmt.Errorf("history: write %s: %w", m.Type, err)
	}
	return nil
}

func (s *Socket) sendError(msg string) {
	if err := s.write(Message{Type: MsgError, Error: msg}); err != nil {
		s.logger.Debug("send error failed", "error", err)
	}
}

// Close closes the connection. It is safe to call more than once.
func (s *Socket) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	close(s.done)

	s.writeMu.Lock()
	s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	s.writeMu.Unlock()
	s.conn.Close()
	s.logger.Debug("socket closed")
}
