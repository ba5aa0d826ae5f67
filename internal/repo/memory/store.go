// Package memory is a process-local implementation of every store the services
// depend on. It backs the memory driver for local runs and the service tests.
package memory

import (
	"sync"
	"time"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
)

type swipeKey struct {
	from string
	to   string
}

type feedSessionEntry struct {
	session model.FeedSession
	ids     []string
}

type Store struct {
	mu sync.RWMutex

	profiles      map[string]model.Profile
	swipes        map[swipeKey]model.Swipe
	conversations map[string]model.Conversation
	messages      map[string][]model.Message
	feedSessions  map[string]feedSessionEntry
	currentFeed   map[string]string

	now func() time.Time
}

func New() *Store {
	return &Store{
		profiles:      make(map[string]model.Profile),
		swipes:        make(map[swipeKey]model.Swipe),
		conversations: make(map[string]model.Conversation),
		messages:      make(map[string][]model.Message),
		feedSessions:  make(map[string]feedSessionEntry),
		currentFeed:   make(map[string]string),
		now:           time.Now,
	}
}

// SetNow replaces the clock used for feed session expiry.
func (s *Store) SetNow(now func() time.Time) {
	if now == nil {
		return
	}
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneTime(in *time.Time) *time.Time {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}

func cloneProfile(p model.Profile) model.Profile {
	p.Interests = cloneStrings(p.Interests)
	p.Photos = cloneStrings(p.Photos)
	p.Birthdate = cloneTime(p.Birthdate)
	return p
}

func cloneConversation(c model.Conversation) model.Conversation {
	c.StaleAt = cloneTime(c.StaleAt)
	return c
}

func cloneMessage(m model.Message) model.Message {
	m.SeenAt = cloneTime(m.SeenAt)
	return m
}
