// Command player joins a minigame area as host or guest and waits for the
// game to start.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/minigame-session/internal/area"
	"github.com/DoyleJ11/minigame-session/internal/client"
	"github.com/DoyleJ11/minigame-session/internal/config"
	"github.com/DoyleJ11/minigame-session/internal/coordinator"
	"github.com/DoyleJ11/minigame-session/internal/registry"
	"github.com/DoyleJ11/minigame-session/pkg/types"
)

var errClosed = errors.New("minigame area closed")

func main() {
	server := flag.String("server", "http://localhost:8080", "server base URL")
	town := flag.String("town", "town-1", "town ID")
	me := flag.String("me", "", "player ID")
	label := flag.String("label", "", "minigame area label")
	host := flag.Bool("host", false, "create the area and start the game once a guest joins")
	token := flag.String("token", "dev", "session token")
	interval := flag.Duration("interval", time.Second, "area list polling interval")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	if *me == "" || *label == "" {
		flag.Usage()
		os.Exit(2)
	}

	log, err := config.NewLogger(*level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	p := player{
		server: *server, town: *town, me: *me, label: *label, host: *host,
		token: *token, interval: *interval, log: log,
	}
	if err := p.run(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("player stopped", zap.Error(err))
		os.Exit(1)
	}
}

type player struct {
	server, town, me, label, token string
	host                           bool
	interval                       time.Duration
	log                            *zap.Logger
}

func (p player) run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.NewAPIClient(p.server, nil)
	ch, err := client.DialChannel(ctx, wsURL(p.server), p.log)
	if err != nil {
		return err
	}
	defer ch.Close()

	notices := func(n coordinator.Notice) {
		if n.Error {
			p.log.Warn(n.Title, zap.String("description", n.Description))
			return
		}
		p.log.Info(n.Title)
	}

	if err := p.enter(ctx, api, ch, notices); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	closed := make(chan struct{})
	var closeOnce sync.Once

	reg := registry.New()
	defer reg.Close()
	reg.OnCreate = func(a *area.Area) {
		if a.Label() != p.label {
			return
		}
		var c *coordinator.Coordinator
		c = coordinator.New(a, coordinator.Options{
			Me: p.me, Starter: ch, OnNotice: notices,
			OnView: func(v coordinator.View) {
				p.log.Info("minigame", zap.String("phase", string(v.Phase)), zap.String("message", v.Message))
				if v.CanStart {
					// listeners must not block the sync loop
					go p.start(gctx, c)
				}
			},
			OnClose: func() { closeOnce.Do(func() { close(closed) }) },
		})
		c.Attach()
	}

	syncer := registry.NewSyncer(reg, api, p.town, p.interval, p.log)
	g.Go(func() error { return syncer.Run(gctx) })
	g.Go(func() error {
		defer stop()
		return p.awaitStart(gctx, ch, closed)
	})
	return g.Wait()
}

// enter joins the channel and waits for the acknowledgment before creating or
// joining the area, so a start sent as soon as the area fills reaches us.
func (p player) enter(ctx context.Context, api *client.APIClient, ch *client.Channel, notices func(coordinator.Notice)) error {
	if err := ch.Join(ctx, p.label); err != nil {
		return err
	}
	if err := ch.Await(ctx, types.RoomJoined(p.label)); err != nil {
		return err
	}
	p.log.Info("joined channel", zap.String("label", p.label))

	if p.host {
		local := area.New(p.label, p.me, []string{p.me})
		c := coordinator.New(local, coordinator.Options{
			Me: p.me, SessionToken: p.token, TownID: p.town, Creator: api, OnNotice: notices,
		})
		return c.CreateSession(ctx)
	}
	_, err := api.JoinArea(ctx, p.town, p.label, types.JoinAreaRequest{SessionToken: p.token, PlayerID: p.me})
	return err
}

func (p player) start(ctx context.Context, c *coordinator.Coordinator) {
	if err := c.Start(ctx); err != nil {
		p.log.Debug("start not sent", zap.String("label", p.label), zap.Error(err))
	}
}

func (p player) awaitStart(ctx context.Context, ch *client.Channel, closed <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-closed:
			return errClosed
		case evt, ok := <-ch.Events():
			if !ok {
				return client.ErrChannelClosed
			}
			switch evt.Event {
			case types.EventHostStartGame:
				p.log.Info("game started", zap.String("as", "host"))
				return nil
			case types.GameStarted(p.label):
				p.log.Info("game started", zap.String("as", "guest"))
				return nil
			case types.EventError:
				p.log.Warn("server rejected frame", zap.String("error", evt.Error))
			}
		}
	}
}

func wsURL(server string) string {
	u := strings.TrimRight(server, "/") + "/ws"
	if rest, ok := strings.CutPrefix(u, "https://"); ok {
		return "wss://" + rest
	}
	return "ws://" + strings.TrimPrefix(u, "http://")
}
