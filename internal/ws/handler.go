package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/minigame-session/internal/hub"
	"github.com/DoyleJ11/minigame-session/internal/room"
	"github.com/DoyleJ11/minigame-session/pkg/types"
)

type Options struct {
	// ReadTimeout bounds how long a connection may stay silent. Zero disables it.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	OutboxSize   int
	// OriginPatterns is passed to websocket.Accept; empty means same-origin only.
	OriginPatterns []string
}

func (o Options) withDefaults() Options {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 3 * time.Second
	}
	if o.OutboxSize <= 0 {
		o.OutboxSize = 16
	}
	return o
}

func Handler(h *hub.Hub, log *zap.Logger, opts Options) http.HandlerFunc {
	opts = opts.withDefaults()

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan types.ServerEvent, opts.OutboxSize)
		me := room.Member{ID: uuid.NewString(), Outbox: out}
		clog := log.With(zap.String("member", me.ID))
		clog.Debug("connection opened")

		ctx := r.Context()
		joined := map[string]struct{}{}
		defer func() {
			// membership is tied to the connection lifetime
			for label := range joined {
				h.Send(context.Background(), hub.LeaveRoom{Label: label, MemberID: me.ID})
			}
			clog.Debug("connection closed", zap.Int("rooms", len(joined)))
		}()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(ctx)
		defer writeCancel()
		go func() {
			for {
				select {
				case <-writeCtx.Done():
					return
				case evt := <-out:
					payload, _ := json.Marshal(evt)
					wctx, cancel := context.WithTimeout(writeCtx, opts.WriteTimeout)
					err := conn.Write(wctx, websocket.MessageText, payload)
					cancel()
					if err != nil {
						clog.Debug("write failed", zap.String("event", evt.Event), zap.Error(err))
					}
				}
			}
		}()

		// Reader loop
		for {
			_, data, err := read(ctx, conn, opts.ReadTimeout)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					clog.Debug("read failed", zap.Error(err))
				}
				return
			}

			var ce types.ClientEvent
			if err := json.Unmarshal(data, &ce); err != nil {
				room.Deliver(clog, me, types.ServerEvent{Event: types.EventError, Error: "bad json"})
				continue
			}

			switch ce.Event {
			case types.EventJoinGameRoom:
				if !h.Send(ctx, hub.JoinRoom{Label: ce.Payload, Member: me}) {
					return
				}
				joined[ce.Payload] = struct{}{}

			case types.EventStartGame:
				if !h.Send(ctx, hub.StartGame{Label: ce.Payload, Sender: me}) {
					return
				}

			default:
				room.Deliver(clog, me, types.ServerEvent{Event: types.EventError, Error: "unknown event"})
			}
		}
	}
}

func read(ctx context.Context, conn *websocket.Conn, timeout time.Duration) (websocket.MessageType, []byte, error) {
	if timeout <= 0 {
		return conn.Read(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return conn.Read(ctx)
}
