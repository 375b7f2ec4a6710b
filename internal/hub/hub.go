package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/minigame-session/internal/room"
	"github.com/DoyleJ11/minigame-session/pkg/types"
)

type HubMsg interface{ isHubMsg() }

// JoinRoom adds a member to the channel named Label, creating it on first use.
type JoinRoom struct {
	Label  string
	Member room.Member
}

// StartGame relays a start signal. A label nobody joined still gets the
// sender acknowledged; the broadcast has no one to reach.
type StartGame struct {
	Label  string
	Sender room.Member
}

// LeaveRoom removes a member. Rooms left empty are dropped.
type LeaveRoom struct {
	Label    string
	MemberID string
}

type GetRoom struct {
	Label string
	Reply chan *room.Room
}

// RemoveRoom abandons the channel of a destroyed area.
type RemoveRoom struct {
	Label string
}

type CountRooms struct {
	Reply chan int
}

type ShutdownHub struct{}

func (JoinRoom) isHubMsg()    {}
func (StartGame) isHubMsg()   {}
func (LeaveRoom) isHubMsg()   {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (CountRooms) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Send delivers msg unless ctx ends or the hub has stopped first.
func (h *Hub) Send(ctx context.Context, msg HubMsg) bool {
	select {
	case h.inbox <- msg:
		return true
	case <-h.ctx.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

// Done is closed once the hub has stopped.
func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case JoinRoom:
				h.ensure(msg.Label).Inbox() <- room.Join{Member: msg.Member}

			case StartGame:
				rm := h.rooms[msg.Label]
				if rm == nil {
					room.Deliver(h.log, msg.Sender, types.ServerEvent{Event: types.EventHostStartGame})
					break
				}
				rm.Inbox() <- room.Start{Sender: msg.Sender}

			case LeaveRoom:
				rm := h.rooms[msg.Label]
				if rm == nil {
					break
				}
				reply := make(chan int, 1)
				rm.Inbox() <- room.Leave{MemberID: msg.MemberID, Reply: reply}
				if <-reply == 0 {
					h.drop(msg.Label)
				}

			case GetRoom:
				msg.Reply <- h.rooms[msg.Label] // May be nil

			case RemoveRoom:
				h.drop(msg.Label)

			case CountRooms:
				msg.Reply <- len(h.rooms)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) ensure(label string) *room.Room {
	if rm := h.rooms[label]; rm != nil {
		return rm
	}
	rm := room.NewRoom(h.ctx, label, h.log)
	h.rooms[label] = rm
	h.log.Debug("room opened", zap.String("label", label))
	return rm
}

func (h *Hub) drop(label string) {
	rm := h.rooms[label]
	if rm == nil {
		return
	}
	delete(h.rooms, label)
	rm.Inbox() <- room.Shutdown{}
	h.log.Debug("room closed", zap.String("label", label))
}

// shutdown cancels the hub context; every room derives from it and stops too.
func (h *Hub) shutdown() {
	clear(h.rooms)
	h.cancel()
}
