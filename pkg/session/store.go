package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Session is one player's live run.
type Session struct {
	ID      string
	Scene   Scene
	Created time.Time
	Updated time.Time
}

// Store keeps sessions in memory for the lifetime of the process.
type Store struct {
	machine  *Machine
	now      func() time.Time
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates an empty store whose sessions advance through machine.
func NewStore(machine *Machine) *Store {
	return &Store{
		machine:  machine,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Machine returns the machine sessions advance through.
func (s *Store) Machine() *Machine {
	return s.machine
}

// Create starts a new session at the first scene.
func (s *Store) Create() Session {
	now := s.now()
	sess := &Session{
		ID:      uuid.New().String(),
		Scene:   s.machine.Start(),
		Created: now,
		Updated: now,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return *sess
}

// Get returns a snapshot of a session.
func (s *Store) Get(id string) (Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *sess, nil
}

// Apply advances a session by one event. On error the session is unchanged.
func (s *Store) Apply(id string, ev Event) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next, err := s.machine.Next(sess.Scene, ev)
	if err != nil {
		return *sess, err
	}
	sess.Scene = next
	sess.Updated = s.now()
	return *sess, nil
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes sessions not updated within maxIdle and returns how many
// were removed.
func (s *Store) Sweep(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.Updated.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Expire sweeps idle sessions every interval until ctx ends.
func (s *Store) Expire(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(maxIdle); n > 0 {
				log.Printf("Expired %d idle session(s)", n)
			}
		}
	}
}
