package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/minigame-session/internal/areas"
)

const uniqueViolation = "23505"

type areaRow struct {
	ID          uint     `gorm:"primaryKey"`
	TownID      string   `gorm:"not null;index"`
	Label       string   `gorm:"not null;uniqueIndex"`
	HostID      string   `gorm:"not null"`
	PlayersByID []string `gorm:"serializer:json;type:text;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (areaRow) TableName() string { return "minigame_areas" }

func (r areaRow) area() areas.Area {
	return areas.Area{TownID: r.TownID, Label: r.Label, HostID: r.HostID, PlayersByID: r.PlayersByID}
}

func rowFrom(a areas.Area) areaRow {
	return areaRow{TownID: a.TownID, Label: a.Label, HostID: a.HostID, PlayersByID: a.PlayersByID}
}

// Postgres stores areas through GORM on the pgx driver.
type Postgres struct {
	db *gorm.DB
}

func OpenPostgres(dsn string, log *zap.Logger) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.New(zap.NewStdLog(log.Named("gorm")), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&areaRow{}); err != nil {
		return nil, fmt.Errorf("migrate minigame_areas: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Create(ctx context.Context, a areas.Area) error {
	row := rowFrom(a)
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return areas.ErrAreaExists
		}
		return fmt.Errorf("create area %s: %w", a.Label, err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, townID string) ([]areas.Area, error) {
	var rows []areaRow
	if err := p.db.WithContext(ctx).Where("town_id = ?", townID).Order("label").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	return lo.Map(rows, func(r areaRow, _ int) areas.Area { return r.area() }), nil
}

func (p *Postgres) Get(ctx context.Context, townID, label string) (areas.Area, error) {
	var row areaRow
	err := p.db.WithContext(ctx).Where("town_id = ? AND label = ?", townID, label).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return areas.Area{}, areas.ErrAreaNotFound
	}
	if err != nil {
		return areas.Area{}, fmt.Errorf("get area %s: %w", label, err)
	}
	return row.area(), nil
}

func (p *Postgres) AddPlayer(ctx context.Context, townID, label, playerID string) (areas.Area, error) {
	var out areas.Area
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row areaRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("town_id = ? AND label = ?", townID, label).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return areas.ErrAreaNotFound
		}
		if err != nil {
			return err
		}

		next, err := row.area().Join(playerID)
		if err != nil {
			return err
		}
		row.PlayersByID = next.PlayersByID
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return areas.Area{}, err
	}
	return out, nil
}

func (p *Postgres) Delete(ctx context.Context, townID, label string) error {
	res := p.db.WithContext(ctx).Where("town_id = ? AND label = ?", townID, label).Delete(&areaRow{})
	if res.Error != nil {
		return fmt.Errorf("delete area %s: %w", label, res.Error)
	}
	if res.RowsAffected == 0 {
		return areas.ErrAreaNotFound
	}
	return nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
