package main

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/DoyleJ11/minigame-session/internal/area"
	"github.com/DoyleJ11/minigame-session/internal/client"
	"github.com/DoyleJ11/minigame-session/internal/coordinator"
	"github.com/DoyleJ11/minigame-session/internal/httpapi"
	"github.com/DoyleJ11/minigame-session/internal/hub"
	"github.com/DoyleJ11/minigame-session/internal/store"
	"github.com/DoyleJ11/minigame-session/internal/ws"
	"github.com/DoyleJ11/minigame-session/pkg/types"
)

func newServer(t *testing.T) string {
	t.Helper()
	h := hub.NewHub(context.Background(), zap.NewNop())
	srv := httptest.NewServer(httpapi.SetupRoutes(h, store.NewMemory(), zap.NewNop(), ws.Options{}))
	t.Cleanup(func() {
		srv.Close()
		h.Inbox() <- hub.ShutdownHub{}
	})
	return srv.URL
}

func TestEnter_GuestHearsStartSentRightAfterJoin(t *testing.T) {
	base := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	api := client.NewAPIClient(base, nil)
	ignore := func(coordinator.Notice) {}

	connect := func(me string, host bool) (player, *client.Channel) {
		ch, err := client.DialChannel(ctx, wsURL(base), zap.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() { _ = ch.Close() })
		return player{server: base, town: "town-1", me: me, label: "tictactoe-7", host: host, token: "tok", log: zap.NewNop()}, ch
	}

	alice, aliceCh := connect("alice", true)
	require.NoError(t, alice.enter(ctx, api, aliceCh, ignore))
	bob, bobCh := connect("bob", false)
	require.NoError(t, bob.enter(ctx, api, bobCh, ignore))

	list, err := api.ListAreas(ctx, "town-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, []string{"alice", "bob"}, list[0].PlayersByID)

	// the area is full the moment bob's REST join returns; start at once
	require.NoError(t, aliceCh.Start(ctx, "tictactoe-7"))
	require.NoError(t, aliceCh.Await(ctx, types.EventHostStartGame))
	require.NoError(t, bobCh.Await(ctx, types.GameStarted("tictactoe-7")))
}

func TestStart_LogsRefusal(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := player{label: "x", me: "alice", log: zap.New(core)}

	c := coordinator.New(area.New("x", "alice", []string{"alice"}), coordinator.Options{Me: "alice"})
	p.start(context.Background(), c)

	entries := logs.FilterMessage("start not sent").All()
	require.Len(t, entries, 1)
	require.Equal(t, zapcore.DebugLevel, entries[0].Level)
	require.Equal(t, coordinator.ErrNotReady.Error(), entries[0].ContextMap()["error"])
}

func TestWSURL(t *testing.T) {
	require.Equal(t, "ws://localhost:8080/ws", wsURL("http://localhost:8080/"))
	require.Equal(t, "wss://example.com/ws", wsURL("https://example.com"))
}
