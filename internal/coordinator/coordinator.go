// Package coordinator turns area transitions into what a player should see:
// waiting, ready to start, or closed.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/DoyleJ11/minigame-session/internal/area"
	"github.com/DoyleJ11/minigame-session/pkg/types"
)

var ErrNotReady = errors.New("game cannot be started yet")

type SessionCreator interface {
	CreateSession(ctx context.Context, req types.CreateSessionRequest) (types.AreaDescriptor, error)
}

type Starter interface {
	Start(ctx context.Context, label string) error
}

type View struct {
	Phase    area.Phase
	Message  string
	CanStart bool
}

// Notice is a one-off user-facing message.
type Notice struct {
	Title       string
	Description string
	Error       bool
}

type Options struct {
	Me           string
	SessionToken string
	TownID       string
	Creator      SessionCreator
	Starter      Starter

	OnView   func(View)
	OnNotice func(Notice)
	OnClose  func()
}

type Coordinator struct {
	area *area.Area
	opts Options

	mu       sync.Mutex
	id       area.ListenerID
	attached bool
}

func New(a *area.Area, opts Options) *Coordinator {
	return &Coordinator{area: a, opts: opts}
}

// Attach subscribes to the area and publishes the current view.
func (c *Coordinator) Attach() {
	c.mu.Lock()
	if c.attached {
		c.mu.Unlock()
		return
	}
	c.attached = true
	c.id = c.area.AddListener(area.ListenerFuncs{
		PlayersChange: c.onPlayersChange,
		AreaDestroyed: c.onAreaDestroyed,
	})
	c.mu.Unlock()

	c.publish(c.View())
}

// Detach unsubscribes. Callbacks already in flight are ignored.
func (c *Coordinator) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.attached {
		return
	}
	c.attached = false
	c.area.RemoveListener(c.id)
}

func (c *Coordinator) live() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attached
}

func (c *Coordinator) onPlayersChange(players []string) {
	if !c.live() {
		return
	}
	c.publish(ViewFor(area.PhaseFor(players, c.opts.Me), players))
}

func (c *Coordinator) onAreaDestroyed() {
	if !c.live() {
		return
	}
	c.mu.Lock()
	c.attached = false
	c.mu.Unlock()

	c.publish(View{Phase: area.PhaseClosed})
	if c.opts.OnClose != nil {
		c.opts.OnClose()
	}
}

func (c *Coordinator) View() View {
	return ViewFor(c.area.Phase(c.opts.Me), c.area.Players())
}

// ViewFor renders the waiting-room text for a phase.
func ViewFor(phase area.Phase, players []string) View {
	v := View{Phase: phase}
	switch phase {
	case area.PhaseWaitingForSecond:
		v.Message = "Waiting for second player to connect ..."
	case area.PhaseReady:
		v.Message = fmt.Sprintf("%s has joined the lobby. You can now start the game.", players[1])
		v.CanStart = true
	case area.PhaseWaitingForHost:
		v.Message = fmt.Sprintf("Waiting for host %s to start ...", players[0])
	}
	return v
}

// CreateSession submits the area to the server. A failure is reported as a
// single notice and leaves the local area untouched.
func (c *Coordinator) CreateSession(ctx context.Context) error {
	req := c.area.ToSessionRequest(c.opts.SessionToken, c.opts.TownID)
	if _, err := c.opts.Creator.CreateSession(ctx, req); err != nil {
		c.notify(Notice{Title: "Unable to start minigame", Description: err.Error(), Error: true})
		return err
	}
	c.notify(Notice{Title: "Minigame Created!"})
	return nil
}

// Start sends the start signal. Only the host of a full area may start.
func (c *Coordinator) Start(ctx context.Context) error {
	if c.area.Phase(c.opts.Me) != area.PhaseReady {
		return ErrNotReady
	}
	if err := c.opts.Starter.Start(ctx, c.area.Label()); err != nil {
		c.notify(Notice{Title: "Unable to start minigame", Description: err.Error(), Error: true})
		return err
	}
	return nil
}

func (c *Coordinator) publish(v View) {
	if c.opts.OnView != nil {
		c.opts.OnView(v)
	}
}

func (c *Coordinator) notify(n Notice) {
	if c.opts.OnNotice != nil {
		c.opts.OnNotice(n)
	}
}
