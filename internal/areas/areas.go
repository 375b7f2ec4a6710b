package areas

import (
	"errors"
	"slices"
	"strings"

	"github.com/DoyleJ11/minigame-session/pkg/types"
)

var ErrEmptyLabel = errors.New("minigame label is required")
var ErrEmptyHost = errors.New("host is required")
var ErrEmptyPlayer = errors.New("player is required")
var ErrHostMismatch = errors.New("host must be the first player")
var ErrAreaFull = errors.New("minigame area is full")
var ErrAlreadyJoined = errors.New("player already in minigame area")
var ErrAreaExists = errors.New("minigame area already exists")
var ErrAreaNotFound = errors.New("minigame area not found")

// Capacity is the number of participants an area holds: one host, one guest.
const Capacity = 2

// Area is the canonical record of one minigame area in a town.
type Area struct {
	TownID      string
	Label       string
	HostID      string
	PlayersByID []string
}

// New builds a freshly created area holding only its host.
func New(townID, label, host string) (Area, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Area{}, ErrEmptyLabel
	}
	if host == "" {
		return Area{}, ErrEmptyHost
	}
	return Area{TownID: townID, Label: label, HostID: host, PlayersByID: []string{host}}, nil
}

// FromRequest validates a create-session request against the area rules.
// A descriptor may list its players already; the host must come first.
func FromRequest(req types.CreateSessionRequest) (Area, error) {
	a, err := New(req.TownID, req.Area.Label, req.Host)
	if err != nil {
		return Area{}, err
	}
	if req.Area.HostID != "" && req.Area.HostID != req.Host {
		return Area{}, ErrHostMismatch
	}
	if len(req.Area.PlayersByID) > 0 && req.Area.PlayersByID[0] != req.Host {
		return Area{}, ErrHostMismatch
	}
	for _, p := range req.Area.PlayersByID[min(1, len(req.Area.PlayersByID)):] {
		if a, err = a.Join(p); err != nil {
			return Area{}, err
		}
	}
	return a, nil
}

// Join returns a copy of a with player appended.
func (a Area) Join(player string) (Area, error) {
	if player == "" {
		return a, ErrEmptyPlayer
	}
	if slices.Contains(a.PlayersByID, player) {
		return a, ErrAlreadyJoined
	}
	if a.Full() {
		return a, ErrAreaFull
	}
	next := a
	next.PlayersByID = append(slices.Clone(a.PlayersByID), player)
	return next, nil
}

func (a Area) Full() bool { return len(a.PlayersByID) >= Capacity }

func (a Area) Descriptor() types.AreaDescriptor {
	return types.AreaDescriptor{
		Label:       a.Label,
		HostID:      a.HostID,
		PlayersByID: slices.Clone(a.PlayersByID),
	}
}
