package history

// MessageType identifies a socket message.
type MessageType string

// Client to server.
const (
	// MsgHello opens a session with the client's current location.
	MsgHello MessageType = "hello"

	// MsgPopState reports back/forward navigation with the new location.
	MsgPopState MessageType = "popstate"

	// MsgClick reports a same-origin anchor click the client prevented.
	MsgClick MessageType = "click"
)

// Server to client.
const (
	// MsgPush asks the client to call history.pushState.
	MsgPush MessageType = "push"

	// MsgReplace asks the client to call history.replaceState.
	MsgReplace MessageType = "replace"

	// MsgResolved delivers the value of a finished resolution.
	MsgResolved MessageType = "resolved"

	// MsgError reports a rejected client message.
	MsgError MessageType = "error"
)

// Message is the JSON envelope exchanged with the browser client.
type Message struct {
	Type MessageType `json:"type"`

	// Location fields (hello, popstate, click).
	Origin string `json:"origin,omitempty"`
	Path   string `json:"path,omitempty"`
	Search string `json:"search,omitempty"`
	Hash   string `json:"hash,omitempty"`

	// Replace is the data-replace flag of a click.
	Replace bool `json:"replace,omitempty"`

	// Href is the target of push, replace and resolved.
	Href string `json:"href,omitempty"`

	// State is the history state of hello, popstate, push and replace.
	State any `json:"state,omitempty"`

	// Value is the resolved value.
	Value any `json:"value,omitempty"`

	// Error describes a rejected message.
	Error string `json:"error,omitempty"`
}
