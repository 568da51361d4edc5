package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession_SignInOut(t *testing.T) {
	s := NewSession()
	assert.Equal(t, SignedOut, s.Current())

	var seen []Identity
	cancel := s.Watch(func(id Identity) { seen = append(seen, id) })

	s.SignIn("u1")
	s.SignIn("u1") // unchanged, not re-published
	s.SignIn("u2")
	s.SignOut()
	s.SignIn("")

	assert.Equal(t, []Identity{
		SignedOut,
		{UserID: "u1", SignedIn: true},
		{UserID: "u2", SignedIn: true},
		SignedOut,
	}, seen)

	cancel()
	cancel()
	s.SignIn("u3")
	assert.Len(t, seen, 4)
	assert.Equal(t, Identity{UserID: "u3", SignedIn: true}, s.Current())
}

func TestSession_WatchReceivesCurrent(t *testing.T) {
	s := NewSession()
	s.SignIn("u1")

	var got Identity
	defer s.Watch(func(id Identity) { got = id })()
	assert.Equal(t, Identity{UserID: "u1", SignedIn: true}, got)
}

func TestSession_WatcherMayCancelItself(t *testing.T) {
	s := NewSession()
	calls := 0
	var cancel func()
	cancel = s.Watch(func(Identity) {
		calls++
		if cancel != nil {
			cancel()
		}
	})
	s.SignIn("u1")
	s.SignIn("u2")
	assert.Equal(t, 2, calls)
}
