package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/DoyleJ11/minigame-session/internal/areas"
)

// Memory keys areas by label alone; a label names one channel across towns.
type Memory struct {
	mu    sync.RWMutex
	areas map[string]areas.Area
}

func NewMemory() *Memory {
	return &Memory{areas: make(map[string]areas.Area)}
}

func (m *Memory) Create(_ context.Context, a areas.Area) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.areas[a.Label]; ok {
		return areas.ErrAreaExists
	}
	a.PlayersByID = slices.Clone(a.PlayersByID)
	m.areas[a.Label] = a
	return nil
}

func (m *Memory) List(_ context.Context, townID string) ([]areas.Area, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := lo.Filter(lo.Values(m.areas), func(a areas.Area, _ int) bool { return a.TownID == townID })
	slices.SortFunc(out, func(a, b areas.Area) int { return strings.Compare(a.Label, b.Label) })
	return lo.Map(out, func(a areas.Area, _ int) areas.Area {
		a.PlayersByID = slices.Clone(a.PlayersByID)
		return a
	}), nil
}

// lookup finds label within townID. Caller holds mu.
func (m *Memory) lookup(townID, label string) (areas.Area, bool) {
	a, ok := m.areas[label]
	if !ok || a.TownID != townID {
		return areas.Area{}, false
	}
	return a, true
}

func (m *Memory) Get(_ context.Context, townID, label string) (areas.Area, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.lookup(townID, label)
	if !ok {
		return areas.Area{}, areas.ErrAreaNotFound
	}
	a.PlayersByID = slices.Clone(a.PlayersByID)
	return a, nil
}

func (m *Memory) AddPlayer(_ context.Context, townID, label, playerID string) (areas.Area, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.lookup(townID, label)
	if !ok {
		return areas.Area{}, areas.ErrAreaNotFound
	}
	next, err := a.Join(playerID)
	if err != nil {
		return areas.Area{}, err
	}
	m.areas[label] = next
	next.PlayersByID = slices.Clone(next.PlayersByID)
	return next, nil
}

func (m *Memory) Delete(_ context.Context, townID, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lookup(townID, label); !ok {
		return areas.ErrAreaNotFound
	}
	delete(m.areas, label)
	return nil
}

func (m *Memory) Close() error { return nil }
