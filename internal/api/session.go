package api

import "sync"

// AuthEvent describes a change of the session's authentication state.
type AuthEvent int

const (
	// AuthChanged fires when tokens are set or cleared explicitly.
	AuthChanged AuthEvent = iota
	// AuthExpired fires once per cascade when the server rejects a
	// previously valid token with 401/403.
	AuthExpired
)

// Session holds the bearer token pair and fans auth changes out to
// subscribers. It is injected into the Client instead of living as package
// state so tests and multiple clients do not bleed into each other.
type Session struct {
	mu      sync.Mutex
	access  string
	refresh string
	expired bool // latch: one AuthExpired per cascade
	subs    []func(AuthEvent)
}

// NewSession creates a session, optionally pre-seeded with stored tokens.
func NewSession(access, refresh string) *Session {
	return &Session{access: access, refresh: refresh}
}

// Token returns the current access token, empty when unauthenticated.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh
}

// Authenticated reports whether an access token is present.
func (s *Session) Authenticated() bool { return s.Token() != "" }

// SetTokens stores a fresh token pair and resets the expiry latch.
func (s *Session) SetTokens(access, refresh string) {
	s.mu.Lock()
	s.access = access
	s.refresh = refresh
	s.expired = false
	subs := append([]func(AuthEvent){}, s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(AuthChanged)
	}
}

// Clear drops both tokens (explicit logout).
func (s *Session) Clear() {
	s.mu.Lock()
	s.access = ""
	s.refresh = ""
	subs := append([]func(AuthEvent){}, s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(AuthChanged)
	}
}

// Subscribe registers a callback for auth events. Callbacks run on the
// goroutine that triggered the event and must not block.
func (s *Session) Subscribe(fn func(AuthEvent)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Invalidate handles a 401/403 from the server. Tokens are dropped either
// way; AuthExpired is emitted only if an access token existed before the
// failure, and only once until SetTokens resets the latch. Concurrent
// failing requests therefore produce a single event.
func (s *Session) Invalidate() {
	s.mu.Lock()
	hadToken := s.access != ""
	s.access = ""
	s.refresh = ""
	fire := hadToken && !s.expired
	if fire {
		s.expired = true
	}
	subs := append([]func(AuthEvent){}, s.subs...)
	s.mu.Unlock()
	if !fire {
		return
	}
	for _, fn := range subs {
		fn(AuthExpired)
	}
}
