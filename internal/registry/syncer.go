package registry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/minigame-session/pkg/types"
)

// Source yields the canonical area list of a town.
type Source interface {
	ListAreas(ctx context.Context, townID string) ([]types.AreaDescriptor, error)
}

// Syncer polls a Source and reconciles the registry with each answer.
// Pushed lists (Push) are applied immediately on the same goroutine as polls.
type Syncer struct {
	reg      *Registry
	src      Source
	townID   string
	interval time.Duration
	log      *zap.Logger
	pushes   chan []types.AreaDescriptor
}

func NewSyncer(reg *Registry, src Source, townID string, interval time.Duration, log *zap.Logger) *Syncer {
	if interval <= 0 {
		interval = time.Second
	}
	return &Syncer{
		reg:      reg,
		src:      src,
		townID:   townID,
		interval: interval,
		log:      log.With(zap.String("town", townID)),
		pushes:   make(chan []types.AreaDescriptor, 8),
	}
}

// Push hands a canonical list obtained elsewhere to the sync loop.
func (s *Syncer) Push(ctx context.Context, list []types.AreaDescriptor) error {
	select {
	case s.pushes <- list:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SyncOnce fetches and reconciles one time.
func (s *Syncer) SyncOnce(ctx context.Context) (Diff, error) {
	list, err := s.src.ListAreas(ctx, s.townID)
	if err != nil {
		return Diff{}, err
	}
	return s.apply(list), nil
}

func (s *Syncer) apply(list []types.AreaDescriptor) Diff {
	diff := s.reg.Reconcile(list)
	if !diff.Empty() {
		s.log.Debug("areas reconciled",
			zap.Strings("created", diff.Created),
			zap.Strings("updated", diff.Updated),
			zap.Strings("destroyed", diff.Destroyed))
	}
	return diff
}

// Run syncs until ctx ends. Fetch failures are logged and retried on the next tick.
func (s *Syncer) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case list := <-s.pushes:
			s.apply(list)
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Syncer) poll(ctx context.Context) {
	if _, err := s.SyncOnce(ctx); err != nil && ctx.Err() == nil {
		s.log.Warn("area sync failed", zap.Error(err))
	}
}
