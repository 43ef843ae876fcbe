package handler

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/geotrace/geotrace-go/internal/model"
	"github.com/geotrace/geotrace-go/internal/repository"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]model.User{}}
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	u.ID = uuid.NewString()
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUsers) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

type memHistory struct {
	mu   sync.Mutex
	rows []model.HistoryEntry
}

func (m *memHistory) Create(_ context.Context, e *model.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *e)
	return nil
}

func (m *memHistory) ListByUser(_ context.Context, userID string, limit int) ([]model.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.HistoryEntry{}
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memHistory) DeleteByIDs(_ context.Context, userID string, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var n int64
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.UserID == userID && want[r.ID] {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return n, nil
}

// providerStub answers like the ipinfo API for any address.
type providerStub struct {
	mu    sync.Mutex
	calls []string
}

func (p *providerStub) Lookup(_ context.Context, ip string) (map[string]any, error) {
	p.mu.Lock()
	p.calls = append(p.calls, ip)
	p.mu.Unlock()
	return map[string]any{
		"ip":       ip,
		"city":     "Mountain View",
		"region":   "California",
		"country":  "US",
		"loc":      "37.4056,-122.0775",
		"org":      "AS15169 Google LLC",
		"timezone": "America/Los_Angeles",
	}, nil
}

func (p *providerStub) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}
