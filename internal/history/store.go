package history

import (
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/xxxsen/brandbot/internal/model"
)

type Config struct {
	MaxTurns int
	MaxUsers int
	TTL      time.Duration
}

// Store keeps a bounded, volatile turn list per user. Users idle for longer
// than TTL or pushed out by MaxUsers lose their history. Lookups share the
// cache's internal lock for the duration of a map access; reading and
// appending turns holds only that user's lock.
type Store struct {
	createMu sync.Mutex
	cache    *expirable.LRU[string, *conversation]
	maxTurns int
}

type conversation struct {
	mu    sync.Mutex
	turns []model.ConversationTurn
}

func New(cfg Config) *Store {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 20
	}
	if cfg.MaxUsers <= 0 {
		cfg.MaxUsers = 10000
	}
	return &Store{
		cache:    expirable.NewLRU[string, *conversation](cfg.MaxUsers, nil, cfg.TTL),
		maxTurns: cfg.MaxTurns,
	}
}

func (s *Store) conversation(userID string, create bool) *conversation {
	if c, ok := s.cache.Get(userID); ok {
		return c
	}
	if !create {
		return nil
	}
	s.createMu.Lock()
	defer s.createMu.Unlock()
	if c, ok := s.cache.Get(userID); ok {
		return c
	}
	c := &conversation{}
	s.cache.Add(userID, c)
	return c
}

// Get returns a copy of the user's turns, oldest first.
func (s *Store) Get(userID string) []model.ConversationTurn {
	c := s.conversation(strings.TrimSpace(userID), false)
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.ConversationTurn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Append records turns and keeps only the newest MaxTurns.
func (s *Store) Append(userID string, turns ...model.ConversationTurn) {
	userID = strings.TrimSpace(userID)
	if userID == "" || len(turns) == 0 {
		return
	}
	c := s.conversation(userID, true)
	c.mu.Lock()
	c.turns = append(c.turns, turns...)
	if over := len(c.turns) - s.maxTurns; over > 0 {
		c.turns = append([]model.ConversationTurn(nil), c.turns[over:]...)
	}
	c.mu.Unlock()
	// re-adding refreshes the expiry of an active conversation
	s.cache.Add(userID, c)
}

// IsFirstTurn reports whether the assistant has not answered userID yet.
func (s *Store) IsFirstTurn(userID string) bool {
	for _, t := range s.Get(userID) {
		if t.Role == model.RoleAssistant {
			return false
		}
	}
	return true
}

func (s *Store) Reset(userID string) bool {
	return s.cache.Remove(strings.TrimSpace(userID))
}

func (s *Store) Users() int {
	return s.cache.Len()
}
