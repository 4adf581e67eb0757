package cache

import (
	"context"
	"sync"
	"time"

	"github.com/emailai/backend/internal/models"
)

// Freshness is how long a fetched email list is considered current. A fetch
// inside the window against a non-empty cache is skipped unless forced.
const Freshness = 5 * time.Minute

// Loader loads the authoritative email list for the store's user.
type Loader func(ctx context.Context) ([]*models.Email, error)

// Store holds one user's email list between the database and its consumers.
// Actions patch entries optimistically before the remote call resolves; when
// a remote call fails, the caller re-runs Refresh so the cache settles back
// on authoritative state. That is the only rollback strategy: no field-level
// un-flipping, which can race with other in-flight mutations.
type Store struct {
	mu        sync.RWMutex
	loader    Loader
	now       func() time.Time
	emails    []*models.Email
	lastFetch time.Time
	ttl       time.Duration
}

func NewStore(loader Loader) *Store {
	return &Store{
		loader: loader,
		now:    time.Now,
		ttl:    Freshness,
	}
}

// Fetch loads the email list through the loader. Within the freshness window
// a non-empty cache is served as-is; force bypasses the window.
func (s *Store) Fetch(ctx context.Context, force bool) error {
	s.mu.RLock()
	fresh := !force &&
		!s.lastFetch.IsZero() &&
		s.now().Sub(s.lastFetch) < s.ttl &&
		len(s.emails) > 0
	s.mu.RUnlock()

	if fresh {
		return nil
	}

	emails, err := s.loader(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.emails = emails
	s.lastFetch = s.now()
	s.mu.Unlock()

	return nil
}

// Refresh forces an authoritative reload regardless of freshness.
func (s *Store) Refresh(ctx context.Context) error {
	return s.Fetch(ctx, true)
}

// Emails returns a snapshot of the cached list.
func (s *Store) Emails() []*models.Email {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Email, len(s.emails))
	copy(out, s.emails)
	return out
}

// Get returns the cached entry for an id.
func (s *Store) Get(emailID string) (*models.Email, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.emails {
		if e.ID == emailID {
			return e, true
		}
	}
	return nil, false
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.emails)
}

// LastFetch returns when the cache was last filled; zero if never.
func (s *Store) LastFetch() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFetch
}

// Clear empties the store and resets the freshness clock. Called on logout.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = nil
	s.lastFetch = time.Time{}
}

func (s *Store) patch(emailIDs []string, apply func(*models.Email)) {
	ids := make(map[string]bool, len(emailIDs))
	for _, id := range emailIDs {
		ids[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.emails {
		if ids[e.ID] {
			apply(e)
		}
	}
}

// MarkTrashed applies the optimistic soft-delete patch.
func (s *Store) MarkTrashed(emailIDs []string) {
	s.patch(emailIDs, func(e *models.Email) {
		e.IsInTrash = true
		e.IsDeleted = false
	})
}

// MarkArchived applies the optimistic archive patch.
func (s *Store) MarkArchived(emailIDs []string) {
	s.patch(emailIDs, func(e *models.Email) {
		e.IsArchived = true
	})
}

// ToggleStarred applies the optimistic star flip.
func (s *Store) ToggleStarred(emailIDs []string) {
	s.patch(emailIDs, func(e *models.Email) {
		e.IsStarred = !e.IsStarred
	})
}

// ToggleImportant applies the optimistic importance flip.
func (s *Store) ToggleImportant(emailIDs []string) {
	s.patch(emailIDs, func(e *models.Email) {
		e.IsImportant = !e.IsImportant
	})
}

// MarkRead applies the optimistic read patch.
func (s *Store) MarkRead(emailIDs []string) {
	s.patch(emailIDs, func(e *models.Email) {
		e.IsRead = true
	})
}

// MarkRestored applies the optimistic restore patch.
func (s *Store) MarkRestored(emailIDs []string) {
	s.patch(emailIDs, func(e *models.Email) {
		e.IsInTrash = false
		e.IsDeleted = false
	})
}
