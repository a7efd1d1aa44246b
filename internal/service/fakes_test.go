package service_test

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/repository"
	"github.com/google/uuid"
)

// memBuilds is an in-memory BuildRepository. failures queues errors
// returned by the next GetByID calls.
type memBuilds struct {
	mu       sync.Mutex
	builds   map[uuid.UUID]*domain.Build
	failures []error
	getCalls int
	viewErr  error
}

func newMemBuilds() *memBuilds {
	return &memBuilds{builds: map[uuid.UUID]*domain.Build{}}
}

func clone(b *domain.Build) *domain.Build {
	c := *b
	c.Mods = slices.Clone(b.Mods)
	c.Team = slices.Clone(b.Team)
	c.SupportWeapons = slices.Clone(b.SupportWeapons)
	c.VotedBy = slices.Clone(b.VotedBy)
	return &c
}

func (m *memBuilds) Create(_ context.Context, b *domain.Build) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	b.CreatedAt, b.UpdatedAt = now, now
	m.builds[b.ID] = clone(b)
	return nil
}

func (m *memBuilds) GetByID(_ context.Context, id uuid.UUID) (*domain.Build, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if len(m.failures) > 0 {
		err := m.failures[0]
		m.failures = m.failures[1:]
		return nil, err
	}
	b, ok := m.builds[id]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "build", ID: id.String()}
	}
	return clone(b), nil
}

func (m *memBuilds) Update(_ context.Context, id uuid.UUID, patch domain.BuildPatch) (*domain.Build, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.builds[id]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "build", ID: id.String()}
	}
	patch.ApplyTo(&b.BuildContent)
	b.UpdatedAt = time.Now()
	return clone(b), nil
}

func (m *memBuilds) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.builds[id]; !ok {
		return &domain.NotFoundError{Resource: "build", ID: id.String()}
	}
	delete(m.builds, id)
	return nil
}

func (m *memBuilds) List(_ context.Context, f repository.BuildFilter) ([]*domain.Build, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Build
	for _, b := range m.builds {
		if f.Visibility != "" && b.Visibility != f.Visibility {
			continue
		}
		if f.UserID != nil && b.UserID != *f.UserID {
			continue
		}
		out = append(out, clone(b))
	}
	slices.SortFunc(out, func(a, b *domain.Build) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (m *memBuilds) Vote(_ context.Context, id uuid.UUID, userID string, upvote bool) (*domain.Build, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.builds[id]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "build", ID: id.String()}
	}
	has := b.HasVoted(userID)
	switch {
	case upvote && !has:
		b.VotedBy = append(b.VotedBy, userID)
		b.VoteCount++
	case !upvote && has:
		b.VotedBy = slices.DeleteFunc(b.VotedBy, func(v string) bool { return v == userID })
		b.VoteCount = max(b.VoteCount-1, 0)
	}
	return clone(b), nil
}

func (m *memBuilds) IncrementViews(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.viewErr != nil {
		return m.viewErr
	}
	b, ok := m.builds[id]
	if !ok {
		return &domain.NotFoundError{Resource: "build", ID: id.String()}
	}
	b.Views++
	return nil
}

func (m *memBuilds) StatsByUser(_ context.Context, userID uuid.UUID) (domain.BuildStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s domain.BuildStats
	for _, b := range m.builds {
		if b.UserID != userID {
			continue
		}
		s.BuildCount++
		if b.Visibility == domain.VisibilityPublic {
			s.PublicCount++
		}
		s.TotalVotes += b.VoteCount
		s.TotalViews += b.Views
	}
	return s, nil
}

type voteRecorder struct {
	mu    sync.Mutex
	votes []*domain.Build
}

func (r *voteRecorder) BuildVoted(b *domain.Build) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.votes = append(r.votes, b)
}

func (r *voteRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.votes)
}
