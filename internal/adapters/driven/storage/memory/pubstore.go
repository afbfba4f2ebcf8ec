package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/diario-cli/internal/core/domain"
	"github.com/custodia-labs/diario-cli/internal/core/ports/driven"
)

// Ensure PublicationStore implements the interface.
var _ driven.PublicationStore = (*PublicationStore)(nil)

// PublicationStore is an in-memory implementation of
// driven.PublicationStore. Used in tests and as a throwaway store for
// dry runs; data does not survive the process.
type PublicationStore struct {
	mu   sync.RWMutex
	rows map[string]domain.ScoredPublication

	// SaveErr, when set, makes every SaveBatch fail. Lets tests
	// exercise the persistence-failure path.
	SaveErr error
}

// NewPublicationStore creates a new in-memory publication store.
func NewPublicationStore() *PublicationStore {
	return &PublicationStore{rows: make(map[string]domain.ScoredPublication)}
}

// rowKey builds the (content hash, target) identity, mirroring the
// composite primary key of the SQLite store.
func rowKey(contentHash string, target domain.Registration) string {
	return contentHash + "\x00" + target.String()
}

// SaveBatch stores a batch, skipping rows already present for the
// same (content hash, target) pair.
func (s *PublicationStore) SaveBatch(_ context.Context, pubs []domain.ScoredPublication) (int, error) {
	if s.SaveErr != nil {
		return 0, s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := 0
	for _, sp := range pubs {
		key := rowKey(sp.Publication.ContentHash, sp.Target)
		if _, ok := s.rows[key]; ok {
			continue
		}
		s.rows[key] = sp
		inserted++
	}
	return inserted, nil
}

// Has reports whether a content hash is stored under any target.
func (s *PublicationStore) Has(_ context.Context, contentHash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sp := range s.rows {
		if sp.Publication.ContentHash == contentHash {
			return true, nil
		}
	}
	return false, nil
}

// List returns stored publications for a target, newest first.
func (s *PublicationStore) List(_ context.Context, target domain.Registration, filter domain.Query) ([]domain.ScoredPublication, error) {
	t := target.Normalise()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ScoredPublication
	for _, sp := range s.rows {
		if sp.Target != t {
			continue
		}
		if filter.Tribunal != "" && sp.Publication.Tribunal != filter.Tribunal {
			continue
		}
		if !filter.Dates.Start.IsZero() && sp.Publication.Date.Before(filter.Dates.Start) {
			continue
		}
		if !filter.Dates.End.IsZero() && sp.Publication.Date.After(filter.Dates.End) {
			continue
		}
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Publication.Date.After(out[j].Publication.Date)
	})
	return out, nil
}

// Count returns how many publications are stored for a target.
func (s *PublicationStore) Count(_ context.Context, target domain.Registration) (int, error) {
	t := target.Normalise()
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sp := range s.rows {
		if sp.Target == t {
			n++
		}
	}
	return n, nil
}
