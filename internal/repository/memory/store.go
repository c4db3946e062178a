// Package memory keeps profiles, decisions and matches in process memory.
// It implements the same repository contracts as the postgres package.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
)

type pairKey struct {
	from, to int64
}

type Store struct {
	mu        sync.Mutex
	profiles  map[int64]*domain.Profile
	decisions map[pairKey]domain.SwipeDecision
	matches   map[pairKey]*domain.Match
	nextMatch int64
	now       func() time.Time
}

var (
	_ repository.ProfileStore        = (*Store)(nil)
	_ repository.CandidateRepository = (*Store)(nil)
	_ repository.SwipeStore          = (*Store)(nil)
	_ repository.MatchRepository     = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		profiles:  make(map[int64]*domain.Profile),
		decisions: make(map[pairKey]domain.SwipeDecision),
		matches:   make(map[pairKey]*domain.Match),
		now:       time.Now,
	}
}

// PutProfile inserts or replaces a profile.
func (s *Store) PutProfile(p *domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.profiles[p.ID] = &cp
}

func (s *Store) GetProfile(ctx context.Context, id int64) (*domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ProfileExists(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.profiles[id]
	return ok, nil
}

func (s *Store) FetchCandidates(
	ctx context.Context,
	viewerID int64,
	filter domain.CandidateFilter,
	excludeIDs []int64,
	limit, offset int,
) ([]*domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	excluded := make(map[int64]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}
	statuses := make(map[domain.StatusCategory]struct{}, len(filter.Statuses))
	for _, st := range filter.Statuses {
		statuses[st] = struct{}{}
	}

	var out []*domain.Profile
	for id, p := range s.profiles {
		if id == viewerID || !p.IsMatchable() {
			continue
		}
		if _, ok := excluded[id]; ok {
			continue
		}
		if d, ok := s.decisions[pairKey{viewerID, id}]; ok {
			if !filter.IncludeDisliked || d.Kind != domain.DecisionDislike {
				continue
			}
		}
		if len(statuses) > 0 {
			if _, ok := statuses[p.Status]; !ok {
				continue
			}
		}
		if filter.Country != "" && p.Country != filter.Country {
			continue
		}
		if filter.City != "" && p.City != filter.City {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if offset >= len(out) {
		return []*domain.Profile{}, nil
	}
	out = out[offset:]
	if limit >= 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetDecision(ctx context.Context, from, to int64) (*domain.SwipeDecision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.decisions[pairKey{from, to}]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

// DecisionCount returns the number of stored decisions, for tests.
func (s *Store) DecisionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.decisions)
}

// MatchCount returns the number of stored matches, for tests.
func (s *Store) MatchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches)
}

// WithinTx holds the store lock for the whole unit and applies staged writes
// only when fn succeeds and the context is still alive.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.SwipeTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		store:     s,
		decisions: make(map[pairKey]domain.SwipeDecision),
		matches:   make(map[pairKey]*domain.Match),
		lastID:    s.nextMatch,
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for k, d := range tx.decisions {
		s.decisions[k] = d
	}
	for k, m := range tx.matches {
		s.matches[k] = m
	}
	s.nextMatch = tx.lastID
	return nil
}

type memTx struct {
	store     *Store
	decisions map[pairKey]domain.SwipeDecision
	matches   map[pairKey]*domain.Match
	lastID    int64
}

func (t *memTx) LockPair(ctx context.Context, a, b int64) error {
	return ctx.Err()
}

func (t *memTx) UpsertDecision(ctx context.Context, d *domain.SwipeDecision) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Mirrors the message check constraint of swipe_decisions.
	if d.Kind != domain.DecisionSuperlike && d.Message != nil {
		return domain.ErrMessageNotAllowed
	}
	now := t.store.now()
	key := pairKey{d.From, d.To}

	d.CreatedAt = now
	if prev, ok := t.lookup(key); ok {
		d.CreatedAt = prev.CreatedAt
	}
	d.UpdatedAt = now
	t.decisions[key] = *d
	return nil
}

func (t *memTx) GetDecisionForUpdate(ctx context.Context, from, to int64) (*domain.SwipeDecision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, ok := t.lookup(pairKey{from, to})
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (t *memTx) lookup(key pairKey) (domain.SwipeDecision, bool) {
	if d, ok := t.decisions[key]; ok {
		return d, true
	}
	d, ok := t.store.decisions[key]
	return d, ok
}

func (t *memTx) InsertMatch(ctx context.Context, m *domain.Match) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	a, b := domain.CanonicalPair(m.ProfileA, m.ProfileB)
	key := pairKey{a, b}
	if _, ok := t.store.matches[key]; ok {
		return false, nil
	}
	if _, ok := t.matches[key]; ok {
		return false, nil
	}

	t.lastID++
	m.ID = t.lastID
	m.ProfileA, m.ProfileB = a, b
	m.CreatedAt = t.store.now()
	cp := *m
	t.matches[key] = &cp
	return true, nil
}

func (s *Store) GetByProfiles(ctx context.Context, profileA, profileB int64) (*domain.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, b := domain.CanonicalPair(profileA, profileB)
	m, ok := s.matches[pairKey{a, b}]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *Store) Exists(ctx context.Context, profileA, profileB int64) (bool, error) {
	_, err := s.GetByProfiles(ctx, profileA, profileB)
	if err == domain.ErrMatchNotFound {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) ListForProfile(ctx context.Context, profileID int64, limit, offset int) ([]*domain.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Match
	for _, m := range s.matches {
		if m.HasProfile(profileID) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	if offset >= len(out) {
		return []*domain.Match{}, nil
	}
	out = out[offset:]
	if limit >= 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpdateIcebreakers(ctx context.Context, matchID int64, icebreakers []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.matches {
		if m.ID == matchID {
			m.Icebreakers = append([]string(nil), icebreakers...)
			return nil
		}
	}
	return domain.ErrMatchNotFound
}
