package store

import (
	"sync"
	"sync/atomic"

	"metcm_relay/internal/models"
)

// BulletinStore holds the most recently applied bulletin and an audit history in arrival order.
// Readers never block: the latest bulletin is published through an atomic pointer.
type BulletinStore struct {
	latest atomic.Pointer[models.Bulletin]
	count  atomic.Uint64

	mu           sync.Mutex // serializes writers and guards history
	history      []models.Bulletin
	historyLimit int
}

// New creates an empty store. historyLimit caps the audit history; 0 keeps everything.
func New(historyLimit int) *BulletinStore {
	if historyLimit < 0 {
		historyLimit = 0
	}
	return &BulletinStore{historyLimit: historyLimit}
}

// Put replaces the latest bulletin. The stored value is a private copy.
func (s *BulletinStore) Put(b models.Bulletin) {
	stored := b

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, stored)
	if s.historyLimit > 0 && len(s.history) > s.historyLimit {
		// drop oldest, reallocating so the backing array does not grow forever
		trimmed := make([]models.Bulletin, s.historyLimit)
		copy(trimmed, s.history[len(s.history)-s.historyLimit:])
		s.history = trimmed
	}

	s.latest.Store(&stored)
	s.count.Add(1)
}

// GetLatest returns a copy of the latest bulletin, or false before the first Put
func (s *BulletinStore) GetLatest() (models.Bulletin, bool) {
	p := s.latest.Load()
	if p == nil {
		return models.Bulletin{}, false
	}
	return *p, true
}

// History returns a copy of the retained bulletins, oldest first
func (s *BulletinStore) History() []models.Bulletin {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Bulletin, len(s.history))
	copy(out, s.history)
	return out
}

// Count returns the number of bulletins applied since creation
func (s *BulletinStore) Count() uint64 {
	return s.count.Load()
}
