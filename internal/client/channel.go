package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/DoyleJ11/minigame-session/pkg/types"
)

// ErrChannelJoin marks a transport failure while joining a channel.
// It is not retried here; callers decide.
var ErrChannelJoin = errors.New("channel join failed")

var ErrChannelClosed = errors.New("channel connection closed")

// Channel is a player's connection to the session relay.
type Channel struct {
	conn   *websocket.Conn
	events chan types.ServerEvent
	log    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func DialChannel(ctx context.Context, url string, log *zap.Logger) (*Channel, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &Channel{
		conn:   conn,
		events: make(chan types.ServerEvent, 16),
		log:    log,
		ctx:    cctx,
		cancel: cancel,
	}
	go c.readLoop()
	return c, nil
}

func (c *Channel) readLoop() {
	defer close(c.events)
	for {
		var evt types.ServerEvent
		if err := wsjson.Read(c.ctx, c.conn, &evt); err != nil {
			if c.ctx.Err() == nil {
				c.log.Debug("channel read stopped", zap.Error(err))
			}
			return
		}
		select {
		case c.events <- evt:
		case <-c.ctx.Done():
			return
		}
	}
}

// Events yields every frame the server sends. It is closed when the
// connection ends.
func (c *Channel) Events() <-chan types.ServerEvent { return c.events }

// Join asks the relay to add this connection to the channel named label.
// The acknowledgment arrives on Events as types.RoomJoined(label).
func (c *Channel) Join(ctx context.Context, label string) error {
	if err := c.send(ctx, types.ClientEvent{Event: types.EventJoinGameRoom, Payload: label}); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrChannelJoin, label, err)
	}
	return nil
}

func (c *Channel) Start(ctx context.Context, label string) error {
	if err := c.send(ctx, types.ClientEvent{Event: types.EventStartGame, Payload: label}); err != nil {
		return fmt.Errorf("start %s: %w", label, err)
	}
	return nil
}

func (c *Channel) send(ctx context.Context, evt types.ClientEvent) error {
	if c.ctx.Err() != nil {
		return ErrChannelClosed
	}
	return wsjson.Write(ctx, c.conn, evt)
}

// Await blocks until an event named name arrives, discarding others.
func (c *Channel) Await(ctx context.Context, name string) error {
	for {
		select {
		case evt, ok := <-c.events:
			if !ok {
				return ErrChannelClosed
			}
			if evt.Event == name {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Channel) Close() error {
	var err error
	c.once.Do(func() {
		c.cancel()
		err = c.conn.Close(websocket.StatusNormalClosure, "bye")
	})
	return err
}
