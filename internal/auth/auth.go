// Package auth is the identity boundary: it tells the rest of the program
// who is signed in and notifies observers when that changes.
package auth

import "sync"

// Identity is the current user. UserID is empty unless SignedIn.
type Identity struct {
	UserID   string
	SignedIn bool
}

// SignedOut is the identity of nobody.
var SignedOut = Identity{}

// Authenticator reports the current identity and its changes.
//
// Watch calls fn with the current identity immediately and again after
// every change. The returned function stops notifications.
type Authenticator interface {
	Current() Identity
	Watch(fn func(Identity)) (cancel func())
}

// Session is an in-process Authenticator driven by SignIn and SignOut.
type Session struct {
	mu       sync.Mutex
	current  Identity
	watchers map[int]func(Identity)
	next     int
}

var _ Authenticator = (*Session)(nil)

// NewSession returns a signed-out session.
func NewSession() *Session {
	return &Session{watchers: make(map[int]func(Identity))}
}

func (s *Session) Current() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) Watch(fn func(Identity)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.watchers[id] = fn
	cur := s.current
	s.mu.Unlock()

	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, id)
			s.mu.Unlock()
		})
	}
}

// SignIn makes userID the current identity. An empty userID signs out.
func (s *Session) SignIn(userID string) {
	if userID == "" {
		s.set(SignedOut)
		return
	}
	s.set(Identity{UserID: userID, SignedIn: true})
}

// SignOut clears the current identity.
func (s *Session) SignOut() {
	s.set(SignedOut)
}

func (s *Session) set(id Identity) {
	s.mu.Lock()
	if s.current == id {
		s.mu.Unlock()
		return
	}
	s.current = id
	fns := make([]func(Identity), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}
