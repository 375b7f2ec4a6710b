// Package store keeps the canonical list of minigame areas per town.
package store

import (
	"context"

	"github.com/DoyleJ11/minigame-session/internal/areas"
)

type Store interface {
	// Create fails with areas.ErrAreaExists when any town already has the label.
	Create(ctx context.Context, a areas.Area) error
	// List returns a town's areas ordered by label.
	List(ctx context.Context, townID string) ([]areas.Area, error)
	Get(ctx context.Context, townID, label string) (areas.Area, error)
	// AddPlayer appends a participant, applying areas.Area.Join.
	AddPlayer(ctx context.Context, townID, label, playerID string) (areas.Area, error)
	Delete(ctx context.Context, townID, label string) error
	Close() error
}
