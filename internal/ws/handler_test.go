package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/minigame-session/internal/client"
	"github.com/DoyleJ11/minigame-session/internal/hub"
	"github.com/DoyleJ11/minigame-session/pkg/types"
)

func newServer(t *testing.T) (*hub.Hub, string) {
	t.Helper()
	h := hub.NewHub(context.Background(), zap.NewNop())
	srv := httptest.NewServer(Handler(h, zap.NewNop(), Options{}))
	t.Cleanup(func() {
		srv.Close()
		h.Inbox() <- hub.ShutdownHub{}
	})
	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *client.Channel {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ch, err := client.DialChannel(ctx, url, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })
	return ch
}

func recv(t *testing.T, ch *client.Channel) types.ServerEvent {
	t.Helper()
	select {
	case evt, ok := <-ch.Events():
		require.True(t, ok, "channel closed")
		return evt
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
		return types.ServerEvent{}
	}
}

func recvNone(t *testing.T, ch *client.Channel) {
	t.Helper()
	select {
	case evt := <-ch.Events():
		t.Fatalf("expected no event, got %+v", evt)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestJoinAndStart_OverWebsocket(t *testing.T) {
	_, url := newServer(t)
	ctx := context.Background()

	alice := dial(t, url)
	bob := dial(t, url)

	require.NoError(t, alice.Join(ctx, "tictactoe-7"))
	require.Equal(t, "tictactoe-7_room_joined", recv(t, alice).Event)

	require.NoError(t, bob.Join(ctx, "tictactoe-7"))
	require.Equal(t, "tictactoe-7_room_joined", recv(t, bob).Event)
	recvNone(t, alice)

	require.NoError(t, alice.Start(ctx, "tictactoe-7"))
	require.Equal(t, "host_start_game", recv(t, alice).Event)
	require.Equal(t, "tictactoe-7_game_started", recv(t, bob).Event)
	recvNone(t, alice)
}

func TestBadFrames_GetErrorEvents(t *testing.T) {
	_, url := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	read := func() string {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		return string(data)
	}

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("{not json")))
	require.JSONEq(t, `{"event":"error","error":"bad json"}`, read())

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"event":"leave_game_room","payload":"x"}`)))
	require.JSONEq(t, `{"event":"error","error":"unknown event"}`, read())
}

func TestDisconnect_LeavesChannel(t *testing.T) {
	h, url := newServer(t)
	ctx := context.Background()

	alice := dial(t, url)
	require.NoError(t, alice.Join(ctx, "a"))
	require.NoError(t, alice.Join(ctx, "b"))
	_ = recv(t, alice)
	_ = recv(t, alice)

	rooms := func() int {
		reply := make(chan int, 1)
		h.Inbox() <- hub.CountRooms{Reply: reply}
		return <-reply
	}
	require.Equal(t, 2, rooms())

	require.NoError(t, alice.Close())
	require.Eventually(t, func() bool { return rooms() == 0 }, time.Second, 10*time.Millisecond)
}

func TestGuestStartsBeforeJoining_OnlySelfAcked(t *testing.T) {
	_, url := newServer(t)
	ctx := context.Background()

	alice := dial(t, url)
	bob := dial(t, url)
	require.NoError(t, alice.Join(ctx, "tictactoe-7"))
	_ = recv(t, alice)

	// bob is not a member; the relay still broadcasts to the channel
	require.NoError(t, bob.Start(ctx, "tictactoe-7"))
	require.Equal(t, "host_start_game", recv(t, bob).Event)
	require.Equal(t, "tictactoe-7_game_started", recv(t, alice).Event)
}
