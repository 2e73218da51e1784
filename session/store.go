package session

import (
	"context"
	"time"

	"github.com/iabalyuk/gorzdravbot/cache"
)

// DefaultCapacity bounds the number of concurrently tracked conversations.
const DefaultCapacity = 100_000

// Store keeps conversation states keyed by user id. Entries idle for longer
// than the TTL are forgotten and read back as UNDEFINED.
type Store struct {
	states *cache.Cache[int64, State]
}

// NewStore creates a store whose entries expire after ttl.
func NewStore(ttl time.Duration, opts ...cache.Option) *Store {
	return &Store{states: cache.New[int64, State](DefaultCapacity, ttl, opts...)}
}

// Get returns the user's state, creating an UNDEFINED one on first read.
func (s *Store) Get(userID int64) State {
	if st, ok := s.states.Get(userID); ok {
		return st
	}
	st := State{Name: Undefined}
	s.states.Set(userID, st)
	return st
}

// Set replaces the user's state record wholesale.
func (s *Store) Set(userID int64, st State) {
	s.states.Set(userID, st)
}

// Delete forgets the user's state.
func (s *Store) Delete(userID int64) {
	s.states.Delete(userID)
}

// Allowed reports whether the user's current state is one of allowed.
func (s *Store) Allowed(userID int64, allowed ...Name) bool {
	return s.Get(userID).In(allowed...)
}

// Sweep drops expired states and returns how many were removed.
func (s *Store) Sweep() int {
	return s.states.Sweep()
}

// Len returns the number of tracked conversations.
func (s *Store) Len() int {
	return s.states.Len()
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying st.
func NewContext(ctx context.Context, st State) context.Context {
	return context.WithValue(ctx, ctxKey{}, st)
}

// FromContext returns the state stored by NewContext, or UNDEFINED.
func FromContext(ctx context.Context) State {
	if st, ok := ctx.Value(ctxKey{}).(State); ok {
		return st
	}
	return State{Name: Undefined}
}
