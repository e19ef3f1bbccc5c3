// Package store is the typed repository layer over the persistent tables.
// Pipeline stages and command-facing services share it by reference; nothing
// above this package writes SQL or touches gorm clauses.
package store

import (
	"context"
	"errors"

	"github.com/cisconnect/fleetwatch/lib/models"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

type GuildConfigRepo interface {
	UpsertGuildConfig(ctx context.Context, cfg *models.GuildConfig) error
	GuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error)
}

type VehicleRepo interface {
	CreateVehicle(ctx context.Context, v *models.Vehicle) error
	// DeleteVehicle removes the vehicle and cascades its subscriptions,
	// fetch cache and state in one transaction.
	DeleteVehicle(ctx context.Context, guildID, vehicleID string) error
	Vehicle(ctx context.Context, guildID, vehicleID string) (*models.Vehicle, error)
	VehiclesByGuild(ctx context.Context, guildID string) (models.Vehicles, error)
	AllVehicles(ctx context.Context) (models.Vehicles, error)
}

type FetchCacheRepo interface {
	FetchCache(ctx context.Context, guildID, feedURL string) (*models.FeedCache, error)
	UpsertFetchCache(ctx context.Context, cache *models.FeedCache) error
}

type VehicleStateRepo interface {
	VehicleState(ctx context.Context, guildID, vehicleID string) (*models.VehicleState, error)
	SaveVehicleState(ctx context.Context, state *models.VehicleState) error
	SetNotifiedAvailable(ctx context.Context, guildID, vehicleID string, notified bool) error
}

type SubscriptionRepo interface {
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	DeleteSubscription(ctx context.Context, guildID, vehicleID, userID string) error
	SubscriptionsByVehicle(ctx context.Context, guildID, vehicleID string) (models.Subscriptions, error)
	SubscriptionsByUser(ctx context.Context, guildID, userID string) (models.Subscriptions, error)
}

// Store is the full repository surface plus a transactional scope: Transact
// runs fn against a Store bound to one database transaction, which is how
// the transition engine keeps its state write and notification decision in a
// single unit of work.
type Store interface {
	GuildConfigRepo
	VehicleRepo
	FetchCacheRepo
	VehicleStateRepo
	SubscriptionRepo

	Transact(ctx context.Context, fn func(Store) error) error
}
