package room

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/minigame-session/pkg/types"
)

type Msg interface{ isRoomMsg() }

// Member is one connection's handle. The outbox belongs to the connection and
// may be shared by every room the connection joined, so rooms never close it.
type Member struct {
	ID     string
	Outbox chan<- types.ServerEvent
}

type Join struct {
	Member Member
}

func (Join) isRoomMsg() {}

// Start acknowledges the sender and notifies every other member.
type Start struct {
	Sender Member
}

func (Start) isRoomMsg() {}

type Leave struct {
	MemberID string
	Reply    chan int // remaining members, optional
}

func (Leave) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

type View struct {
	Label   string
	Members []string
}

type Room struct {
	label   string
	inbox   chan Msg
	members map[string]chan<- types.ServerEvent
	order   []string
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewRoom(parent context.Context, label string, log *zap.Logger) *Room {
	ctx, cancel := context.WithCancel(parent)

	r := &Room{
		label:   label,
		inbox:   make(chan Msg, 64),
		members: make(map[string]chan<- types.ServerEvent),
		log:     log.With(zap.String("label", label)),
		ctx:     ctx,
		cancel:  cancel,
	}

	go r.loop()
	return r
}

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				if _, ok := r.members[msg.Member.ID]; !ok {
					r.order = append(r.order, msg.Member.ID)
				}
				r.members[msg.Member.ID] = msg.Member.Outbox
				Deliver(r.log, msg.Member, types.ServerEvent{Event: types.RoomJoined(r.label)})
				r.log.Debug("member joined", zap.String("member", msg.Member.ID), zap.Int("members", len(r.members)))

			case Start:
				Deliver(r.log, msg.Sender, types.ServerEvent{Event: types.EventHostStartGame})
				r.broadcast(types.ServerEvent{Event: types.GameStarted(r.label)}, msg.Sender.ID)

			case Leave:
				if _, ok := r.members[msg.MemberID]; ok {
					delete(r.members, msg.MemberID)
					r.order = removeID(r.order, msg.MemberID)
					r.log.Debug("member left", zap.String("member", msg.MemberID))
				}
				if msg.Reply != nil {
					msg.Reply <- len(r.members)
				}

			case GetState:
				// test-only: reflect membership without data races
				msg.Reply <- View{Label: r.label, Members: append([]string(nil), r.order...)}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) shutdown() {
	clear(r.members)
	r.order = nil
	r.cancel()
}

// broadcast sends evt to every member except the one with id exclude, in join order.
func (r *Room) broadcast(evt types.ServerEvent, exclude string) {
	for _, id := range r.order {
		if id == exclude {
			continue
		}
		Deliver(r.log, Member{ID: id, Outbox: r.members[id]}, evt)
	}
}

// Deliver is a best-effort send: a full outbox misses the event.
func Deliver(log *zap.Logger, m Member, evt types.ServerEvent) {
	select {
	case m.Outbox <- evt:
	default:
		log.Warn("outbox full, dropping event", zap.String("member", m.ID), zap.String("event", evt.Event))
	}
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func (r *Room) Label() string { return r.label }

// Expose the inbox so the hub or tests can send messages.
func (r *Room) Inbox() chan<- Msg { return r.inbox }
