// Package area mirrors one minigame area on the client and notifies
// subscribers when its participants change or the area goes away.
package area

import (
	"slices"
	"sync"

	"github.com/DoyleJ11/minigame-session/pkg/types"
)

// Listener receives area lifecycle callbacks. Callbacks run on the goroutine
// that called Update or Destroy, never while the area is locked, so they may
// add or remove listeners.
type Listener interface {
	OnPlayersChange(players []string)
	OnAreaDestroyed()
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	PlayersChange func(players []string)
	AreaDestroyed func()
}

func (f ListenerFuncs) OnPlayersChange(players []string) {
	if f.PlayersChange != nil {
		f.PlayersChange(players)
	}
}

func (f ListenerFuncs) OnAreaDestroyed() {
	if f.AreaDestroyed != nil {
		f.AreaDestroyed()
	}
}

// ListenerID identifies one registration.
type ListenerID uint64

type Phase string

const (
	PhaseEmpty            Phase = "EMPTY"
	PhaseWaitingForSecond Phase = "WAITING_FOR_SECOND"
	PhaseReady            Phase = "READY"
	PhaseWaitingForHost   Phase = "WAITING_FOR_HOST"
	PhaseClosed           Phase = "CLOSED"
)

type registration struct {
	id ListenerID
	l  Listener
}

type Area struct {
	label string

	mu        sync.Mutex
	hostID    string
	players   []string
	destroyed bool
	nextID    ListenerID
	listeners []registration // registration order
}

func New(label, hostID string, players []string) *Area {
	return &Area{label: label, hostID: hostID, players: slices.Clone(players)}
}

// FromDescriptor builds an area from its wire shape. A missing host falls
// back to the first player.
func FromDescriptor(d types.AreaDescriptor) *Area {
	host := d.HostID
	if host == "" && len(d.PlayersByID) > 0 {
		host = d.PlayersByID[0]
	}
	return New(d.Label, host, d.PlayersByID)
}

func (a *Area) Label() string { return a.label }

func (a *Area) HostID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hostID
}

// Players returns a copy of the participant list, host first.
func (a *Area) Players() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.players)
}

func (a *Area) Destroyed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.destroyed
}

func (a *Area) AddListener(l Listener) ListenerID {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	a.listeners = append(a.listeners, registration{id: a.nextID, l: l})
	return a.nextID
}

// RemoveListener is a no-op for unknown or already removed IDs.
func (a *Area) RemoveListener(id ListenerID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = slices.DeleteFunc(a.listeners, func(r registration) bool { return r.id == id })
}

// Update replaces the participant list and reports whether it changed.
// Listeners fire only when the new list differs by value.
func (a *Area) Update(players []string) bool {
	a.mu.Lock()
	if a.destroyed || slices.Equal(a.players, players) {
		a.mu.Unlock()
		return false
	}
	a.players = slices.Clone(players)
	if a.hostID == "" && len(players) > 0 {
		a.hostID = players[0]
	}
	snapshot := slices.Clone(a.listeners)
	a.mu.Unlock()

	for _, r := range snapshot {
		if !a.registered(r.id) {
			continue
		}
		r.l.OnPlayersChange(slices.Clone(players))
	}
	return true
}

// Destroy notifies every listener once and clears them. Later calls do nothing.
func (a *Area) Destroy() {
	a.mu.Lock()
	if a.destroyed {
		a.mu.Unlock()
		return
	}
	a.destroyed = true
	snapshot := slices.Clone(a.listeners)
	a.mu.Unlock()

	for _, r := range snapshot {
		if !a.registered(r.id) {
			continue
		}
		r.l.OnAreaDestroyed()
	}

	a.mu.Lock()
	a.listeners = nil
	a.mu.Unlock()
}

// registered reports whether id is still subscribed; a listener removed by an
// earlier callback in the same dispatch is skipped.
func (a *Area) registered(id ListenerID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.ContainsFunc(a.listeners, func(r registration) bool { return r.id == id })
}

// Phase derives the session phase as seen by the player localID.
func (a *Area) Phase(localID string) Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return PhaseClosed
	}
	return PhaseFor(a.players, localID)
}

// PhaseFor derives the phase of a live area from its player list.
func PhaseFor(players []string, localID string) Phase {
	switch {
	case len(players) == 0:
		return PhaseEmpty
	case len(players) == 1:
		return PhaseWaitingForSecond
	case players[0] == localID:
		return PhaseReady
	default:
		return PhaseWaitingForHost
	}
}

// ToSessionRequest shapes the current state for the create-session call.
func (a *Area) ToSessionRequest(sessionToken, townID string) types.CreateSessionRequest {
	a.mu.Lock()
	defer a.mu.Unlock()

	host := a.hostID
	if len(a.players) > 0 {
		host = a.players[0]
	}
	return types.CreateSessionRequest{
		SessionToken: sessionToken,
		TownID:       townID,
		Host:         host,
		Area: types.AreaDescriptor{
			Label:       a.label,
			HostID:      host,
			PlayersByID: slices.Clone(a.players),
		},
	}
}
