package store

import (
	"context"
	"errors"

	"github.com/cisconnect/fleetwatch/lib/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Transact(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// --- guild configs

func (s *gormStore) UpsertGuildConfig(ctx context.Context, cfg *models.GuildConfig) error {
	tx := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(cfg)
	return tx.Error
}

func (s *gormStore) GuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	cfg := &models.GuildConfig{}
	tx := s.db.WithContext(ctx).Where("guild_id = ?", guildID).First(cfg)
	if err := tx.Error; err != nil {
		return nil, mapNotFound(err)
	}
	return cfg, nil
}

// --- vehicles

func (s *gormStore) CreateVehicle(ctx context.Context, v *models.Vehicle) error {
	tx := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(v)
	if err := tx.Error; err != nil {
		return err
	}
	if tx.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *gormStore) DeleteVehicle(ctx context.Context, guildID, vehicleID string) error {
	return s.Transact(ctx, func(txs Store) error {
		tx := txs.(*gormStore).db

		v := &models.Vehicle{}
		if err := tx.Where("guild_id = ? AND vehicle_id = ?", guildID, vehicleID).First(v).Error; err != nil {
			return mapNotFound(err)
		}
		if err := tx.Where("guild_id = ? AND vehicle_id = ?", guildID, vehicleID).
			Delete(&models.Subscription{}).Error; err != nil {
			return err
		}
		if err := tx.Where("guild_id = ? AND feed_url = ?", guildID, v.FeedURL).
			Delete(&models.FeedCache{}).Error; err != nil {
			return err
		}
		if err := tx.Where("guild_id = ? AND vehicle_id = ?", guildID, vehicleID).
			Delete(&models.VehicleState{}).Error; err != nil {
			return err
		}
		return tx.Delete(v).Error
	})
}

func (s *gormStore) Vehicle(ctx context.Context, guildID, vehicleID string) (*models.Vehicle, error) {
	v := &models.Vehicle{}
	tx := s.db.WithContext(ctx).Where("guild_id = ? AND vehicle_id = ?", guildID, vehicleID).First(v)
	if err := tx.Error; err != nil {
		return nil, mapNotFound(err)
	}
	return v, nil
}

func (s *gormStore) VehiclesByGuild(ctx context.Context, guildID string) (models.Vehicles, error) {
	var vehicles models.Vehicles
	tx := s.db.WithContext(ctx).Where("guild_id = ?", guildID).Order("vehicle_id").Find(&vehicles)
	return vehicles, tx.Error
}

func (s *gormStore) AllVehicles(ctx context.Context) (models.Vehicles, error) {
	var vehicles models.Vehicles
	tx := s.db.WithContext(ctx).Order("guild_id, vehicle_id").Find(&vehicles)
	return vehicles, tx.Error
}

// --- fetch caches

func (s *gormStore) FetchCache(ctx context.Context, guildID, feedURL string) (*models.FeedCache, error) {
	cache := &models.FeedCache{}
	tx := s.db.WithContext(ctx).Where("guild_id = ? AND feed_url = ?", guildID, feedURL).First(cache)
	if err := tx.Error; err != nil {
		return nil, mapNotFound(err)
	}
	return cache, nil
}

func (s *gormStore) UpsertFetchCache(ctx context.Context, cache *models.FeedCache) error {
	tx := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(cache)
	return tx.Error
}

// --- vehicle states

func (s *gormStore) VehicleState(ctx context.Context, guildID, vehicleID string) (*models.VehicleState, error) {
	state := &models.VehicleState{}
	tx := s.db.WithContext(ctx).Where("guild_id = ? AND vehicle_id = ?", guildID, vehicleID).First(state)
	if err := tx.Error; err != nil {
		return nil, mapNotFound(err)
	}
	return state, nil
}

func (s *gormStore) SaveVehicleState(ctx context.Context, state *models.VehicleState) error {
	tx := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(state)
	return tx.Error
}

func (s *gormStore) SetNotifiedAvailable(ctx context.Context, guildID, vehicleID string, notified bool) error {
	tx := s.db.WithContext(ctx).Model(&models.VehicleState{}).
		Where("guild_id = ? AND vehicle_id = ?", guildID, vehicleID).
		Update("notified_available", notified)
	return tx.Error
}

// --- subscriptions

func (s *gormStore) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	tx := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(sub)
	if err := tx.Error; err != nil {
		return err
	}
	if tx.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, guildID, vehicleID, userID string) error {
	tx := s.db.WithContext(ctx).
		Where("guild_id = ? AND vehicle_id = ? AND user_id = ?", guildID, vehicleID, userID).
		Delete(&models.Subscription{})
	if err := tx.Error; err != nil {
		return err
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) SubscriptionsByVehicle(ctx context.Context, guildID, vehicleID string) (models.Subscriptions, error) {
	var subs models.Subscriptions
	tx := s.db.WithContext(ctx).Where("guild_id = ? AND vehicle_id = ?", guildID, vehicleID).Find(&subs)
	return subs, tx.Error
}

func (s *gormStore) SubscriptionsByUser(ctx context.Context, guildID, userID string) (models.Subscriptions, error) {
	var subs models.Subscriptions
	tx := s.db.WithContext(ctx).Where("guild_id = ? AND user_id = ?", guildID, userID).Order("vehicle_id").Find(&subs)
	return subs, tx.Error
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
