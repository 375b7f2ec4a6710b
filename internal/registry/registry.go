// Package registry keeps the client's set of areas in line with the
// server's canonical area list.
package registry

import (
	"slices"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/DoyleJ11/minigame-session/internal/area"
	"github.com/DoyleJ11/minigame-session/pkg/types"
)

// Diff lists the labels a reconciliation pass touched.
type Diff struct {
	Created   []string
	Updated   []string
	Destroyed []string
}

func (d Diff) Empty() bool {
	return len(d.Created) == 0 && len(d.Updated) == 0 && len(d.Destroyed) == 0
}

// Registry maps labels to areas. Reconcile is the only writer; lookups may
// come from any goroutine.
type Registry struct {
	mu    sync.RWMutex
	areas map[string]*area.Area
	// OnCreate, when set, sees every area added by Reconcile before its
	// first update.
	OnCreate func(*area.Area)
}

func New() *Registry {
	return &Registry{areas: make(map[string]*area.Area)}
}

func (r *Registry) Get(label string) (*area.Area, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.areas[label]
	return a, ok
}

// Labels returns the known labels in sorted order.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	labels := lo.Keys(r.areas)
	sort.Strings(labels)
	return labels
}

// Reconcile applies the canonical list: unknown labels become new areas,
// labels missing from the list are destroyed and dropped, and the rest are
// updated. Listener callbacks run after the map is consistent and unlocked.
func (r *Registry) Reconcile(canonical []types.AreaDescriptor) Diff {
	incoming := lo.SliceToMap(canonical, func(d types.AreaDescriptor) (string, types.AreaDescriptor) {
		return d.Label, d
	})

	var diff Diff
	var created, destroyed []*area.Area
	type update struct {
		label   string
		a       *area.Area
		players []string
	}
	var updates []update

	r.mu.Lock()
	for label, a := range r.areas {
		if _, ok := incoming[label]; !ok {
			delete(r.areas, label)
			destroyed = append(destroyed, a)
			diff.Destroyed = append(diff.Destroyed, label)
		}
	}
	for _, d := range canonical {
		if a, ok := r.areas[d.Label]; ok {
			players := incoming[d.Label].PlayersByID
			if !slices.Equal(a.Players(), players) {
				updates = append(updates, update{label: d.Label, a: a, players: players})
			}
			continue
		}
		a := area.FromDescriptor(incoming[d.Label])
		r.areas[d.Label] = a
		created = append(created, a)
		diff.Created = append(diff.Created, d.Label)
	}
	r.mu.Unlock()

	for _, a := range destroyed {
		a.Destroy()
	}
	if r.OnCreate != nil {
		for _, a := range created {
			r.OnCreate(a)
		}
	}
	// only updates that actually applied are reported
	for _, u := range updates {
		if u.a.Update(u.players) {
			diff.Updated = append(diff.Updated, u.label)
		}
	}

	sort.Strings(diff.Created)
	sort.Strings(diff.Updated)
	sort.Strings(diff.Destroyed)
	return diff
}

// Close destroys every area; used when the owning context goes away.
func (r *Registry) Close() {
	r.mu.Lock()
	all := lo.Values(r.areas)
	clear(r.areas)
	r.mu.Unlock()

	for _, a := range all {
		a.Destroy()
	}
}
