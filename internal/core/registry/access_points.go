// Package registry holds the in-memory entity registries. Each registry owns
// its map behind a mutex; callers only ever see copies.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/quacc/access-point-api/internal/core/domain"
	"github.com/quacc/access-point-api/internal/core/ports"
)

// AccessPoints is the concurrent access point registry.
type AccessPoints struct {
	mu     sync.RWMutex
	points map[domain.AccessPointID]domain.AccessPoint
}

var _ ports.AccessPointRegistry = (*AccessPoints)(nil)

// NewAccessPoints returns an empty registry.
func NewAccessPoints() *AccessPoints {
	return &AccessPoints{points: make(map[domain.AccessPointID]domain.AccessPoint)}
}

// Create stores a new access point under the next free id: one past the
// highest id in use, or 0 when the registry is empty.
func (r *AccessPoints) Create(loc domain.Location, opts domain.AccessPointOptions) domain.AccessPoint {
	ap := domain.NewAccessPoint(loc, opts)

	r.mu.Lock()
	defer r.mu.Unlock()

	ap.ID = r.nextID()
	r.points[ap.ID] = ap
	return ap
}

// nextID must be called with the write lock held.
func (r *AccessPoints) nextID() domain.AccessPointID {
	if len(r.points) == 0 {
		return 0
	}
	var highest domain.AccessPointID
	for id := range r.points {
		if id > highest {
			highest = id
		}
	}
	return highest + 1
}

// Get returns a copy of the access point with the given id.
func (r *AccessPoints) Get(id domain.AccessPointID) (domain.AccessPoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ap, ok := r.points[id]
	if !ok {
		return domain.AccessPoint{}, domain.ErrAccessPointNotFound
	}
	return ap, nil
}

// List returns a snapshot of every access point, ordered by id.
func (r *AccessPoints) List() []domain.AccessPoint {
	r.mu.RLock()
	out := make([]domain.AccessPoint, 0, len(r.points))
	for _, ap := range r.points {
		out = append(out, ap)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetStatus overwrites the status of an existing access point.
func (r *AccessPoints) SetStatus(id domain.AccessPointID, status domain.AccessPointStatus) error {
	if !status.Valid() {
		return fmt.Errorf("set status: %w", domain.ErrInvalidStatus)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ap, ok := r.points[id]
	if !ok {
		return domain.ErrAccessPointNotFound
	}
	ap.SetStatus(status)
	r.points[id] = ap
	return nil
}

// Len reports the number of access points.
func (r *AccessPoints) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.points)
}

// Save writes the whole registry to store under key as a JSON object keyed
// by the decimal id.
func (r *AccessPoints) Save(ctx context.Context, store ports.SnapshotStore, key string) error {
	r.mu.RLock()
	snapshot := make(map[domain.AccessPointID]domain.AccessPoint, len(r.points))
	for id, ap := range r.points {
		snapshot[id] = ap
	}
	r.mu.RUnlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("%w: encode access points: %v", domain.ErrStorage, err)
	}
	if err := store.Write(ctx, key, data); err != nil {
		return fmt.Errorf("%w: write access points: %v", domain.ErrStorage, err)
	}
	return nil
}

// LoadAccessPoints reads a registry saved by Save. Any read or decode
// failure yields an empty registry; nothing is partially loaded.
func LoadAccessPoints(ctx context.Context, store ports.SnapshotStore, key string, log zerolog.Logger) *AccessPoints {
	data, err := store.Read(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("access points not loaded, starting empty")
		return NewAccessPoints()
	}

	var points map[domain.AccessPointID]domain.AccessPoint
	if err := json.Unmarshal(data, &points); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("access points unreadable, starting empty")
		return NewAccessPoints()
	}

	r := NewAccessPoints()
	for id, ap := range points {
		ap.ID = id
		ap.Normalize()
		r.points[id] = ap
	}
	log.Info().Int("count", len(r.points)).Str("key", key).Msg("access points loaded")
	return r
}
