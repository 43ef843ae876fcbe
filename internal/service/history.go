package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/geotrace/geotrace-go/internal/ipaddr"
	"github.com/geotrace/geotrace-go/internal/metrics"
	"github.com/geotrace/geotrace-go/internal/model"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
)

type HistoryStore interface {
	Create(ctx context.Context, entry *model.HistoryEntry) error
	ListByUser(ctx context.Context, userID string, limit int) ([]model.HistoryEntry, error)
	DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error)
}

// GeoResolver never fails; nil means no usable data.
type GeoResolver interface {
	Resolve(ctx context.Context, ip string) *model.GeoSnapshot
}

// HistoryService records lookups and manages a user's history.
type HistoryService struct {
	store HistoryStore
	geo   GeoResolver
	log   *slog.Logger
	now   func() time.Time
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(store HistoryStore, geo GeoResolver, log *slog.Logger) *HistoryService {
	return &HistoryService{
		store: store,
		geo:   geo,
		log:   log,
		now:   time.Now,
	}
}

// SearchAndRecord resolves ip and stores a history row for userID. The row is
// best effort: a storage failure is logged and the resolved geo is returned
// all the same.
func (s *HistoryService) SearchAndRecord(ctx context.Context, userID, ip string) *model.GeoSnapshot {
	geo := s.geo.Resolve(ctx, ip)

	stored, ok := ipaddr.Normalize(ip)
	if !ok {
		stored = strings.TrimSpace(ip)
	}

	entry := &model.HistoryEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		IP:        stored,
		Geo:       geo,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.store.Create(ctx, entry); err != nil {
		metrics.HistoryPersistFailures.Inc()
		s.log.Error("failed to record search history", "user_id", userID, "ip", stored, "error", err)
	}

	return geo
}

// ClampLimit maps a requested page size into [1, MaxHistoryLimit];
// zero or negative means the default.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}

// ListByUser returns the user's newest entries first.
func (s *HistoryService) ListByUser(ctx context.Context, userID string, limit int) ([]model.HistoryEntry, error) {
	return s.store.ListByUser(ctx, userID, ClampLimit(limit))
}

// DeleteMany removes the given entries owned by userID and reports how many
// went away.
func (s *HistoryService) DeleteMany(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.store.DeleteByIDs(ctx, userID, ids)
}
