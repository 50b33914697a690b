// Package baseline persists the consensus parameter set ("Mother DB") of each
// equipment type. Stores upsert per parameter: saving an entry replaces any
// existing entry with the same parameter name and leaves the others alone.
package baseline

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/agentstation/motherdb/pkg/errors"
)

// Entry is the stored baseline value of one parameter.
type Entry struct {
	ParameterName string    `json:"parameter_name" yaml:"parameter_name" db:"parameter_name"`
	Value         string    `json:"value" yaml:"value" db:"value"`
	Confidence    float64   `json:"confidence" yaml:"confidence" db:"confidence"`
	MinSpec       *float64  `json:"min_spec,omitempty" yaml:"min_spec,omitempty" db:"min_spec"`
	MaxSpec       *float64  `json:"max_spec,omitempty" yaml:"max_spec,omitempty" db:"max_spec"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"updated_at" db:"updated_at"`
}

// Store reads and upserts baselines by equipment type.
type Store interface {
	// GetExisting returns the stored entries keyed by parameter name. An
	// equipment type without a baseline yields an empty map.
	GetExisting(ctx context.Context, equipmentTypeID string) (map[string]Entry, error)
	// Save inserts or replaces entries by parameter name.
	Save(ctx context.Context, equipmentTypeID string, entries []Entry) error
	// Registered reports whether the equipment type is known to the store.
	Registered(ctx context.Context, equipmentTypeID string) (bool, error)
}

// Registrar is implemented by stores that can register an equipment type
// ahead of its first save.
type Registrar interface {
	Register(ctx context.Context, equipmentTypeID string) error
}

// Index keys entries by parameter name.
func Index(entries []Entry) map[string]Entry {
	out := make(map[string]Entry, len(entries))
	for _, e := range entries {
		out[e.ParameterName] = e
	}
	return out
}

// Sorted returns the entries of m ordered by parameter name.
func Sorted(m map[string]Entry) []Entry {
	out := make([]Entry, 0, len(m))
	for _, name := range slices.Sorted(maps.Keys(m)) {
		out = append(out, m[name])
	}
	return out
}

func validateID(equipmentTypeID string) error {
	if equipmentTypeID == "" {
		return errors.NewValidationError("equipment_type_id", equipmentTypeID, "cannot be empty")
	}
	return nil
}

// Compile-time interface checks.
var (
	_ Store     = (*MemoryStore)(nil)
	_ Registrar = (*MemoryStore)(nil)
)

// MemoryStore keeps baselines in memory.
type MemoryStore struct {
	mu         sync.RWMutex
	baselines  map[string]map[string]Entry
	registered map[string]bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		baselines:  make(map[string]map[string]Entry),
		registered: make(map[string]bool),
	}
}

// Register marks an equipment type as known.
func (s *MemoryStore) Register(_ context.Context, equipmentTypeID string) error {
	if err := validateID(equipmentTypeID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registered[equipmentTypeID] = true
	return nil
}

// Registered implements Store.
func (s *MemoryStore) Registered(_ context.Context, equipmentTypeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registered[equipmentTypeID], nil
}

// GetExisting implements Store.
func (s *MemoryStore) GetExisting(_ context.Context, equipmentTypeID string) (map[string]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Entry, len(s.baselines[equipmentTypeID]))
	maps.Copy(out, s.baselines[equipmentTypeID])
	return out, nil
}

// Save implements Store. Saving registers the equipment type.
func (s *MemoryStore) Save(_ context.Context, equipmentTypeID string, entries []Entry) error {
	if err := validateID(equipmentTypeID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.baselines[equipmentTypeID]
	if !ok {
		current = make(map[string]Entry, len(entries))
		s.baselines[equipmentTypeID] = current
	}
	for _, e := range entries {
		if e.UpdatedAt.IsZero() {
			e.UpdatedAt = time.Now().UTC()
		}
		current[e.ParameterName] = e
	}
	s.registered[equipmentTypeID] = true
	return nil
}
