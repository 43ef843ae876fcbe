package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/geotrace/geotrace-go/internal/model"
	"github.com/geotrace/geotrace-go/internal/repository"
)

type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]*model.User
	nextID  int
	// createErr, when set, is returned by Create after the lookup passed.
	createErr error
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]*model.User{}}
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.byEmail[u.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	m.nextID++
	u.ID = fmt.Sprintf("user-%d", m.nextID)
	cp := *u
	m.byEmail[u.Email] = &cp
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type memHistory struct {
	mu      sync.Mutex
	rows    []model.HistoryEntry
	failing bool

	creates, lists, deletes int
	lastLimit               int
}

func (m *memHistory) Create(_ context.Context, e *model.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.failing {
		return errors.New("store unavailable")
	}
	m.rows = append(m.rows, *e)
	return nil
}

func (m *memHistory) ListByUser(_ context.Context, userID string, limit int) ([]model.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	m.lastLimit = limit

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
	m.deletes++

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

type stubResolver struct {
	snap  *model.GeoSnapshot
	calls int
}

func (s *stubResolver) Resolve(_ context.Context, ip string) *model.GeoSnapshot {
	s.calls++
	if s.snap == nil {
		return nil
	}
	cp := *s.snap
	cp.IP = ip
	return &cp
}
