package app

import (
	"github.com/cisconnect/fleetwatch/config"
	"github.com/cisconnect/fleetwatch/lib/models"
	"github.com/cisconnect/fleetwatch/lib/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func NewDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Sugar().Panicw("failed to connect database", "err", err)
	}
	log.Info("Database started")

	log.Info("Starting migrations")
	db.AutoMigrate(
		&models.GuildConfig{},
		&models.Vehicle{},
		&models.FeedCache{},
		&models.VehicleState{},
		&models.Subscription{},
	)
	return db
}

func NewStore(db *gorm.DB) store.Store {
	return store.New(db)
}
