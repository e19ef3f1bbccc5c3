package lib

import (
	"context"
	"errors"

	"github.com/cisconnect/fleetwatch/config"
	"github.com/cisconnect/fleetwatch/lib/models"
	"github.com/cisconnect/fleetwatch/lib/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrSetupRequired       = errors.New("guild is not configured, run setup first")
	ErrInvalidPollInterval = errors.New("poll interval must be between 30 and 300 seconds")
	ErrInvalidFeedURL      = errors.New("feed URL must start with http:// or https://")
	ErrVehicleExists       = errors.New("a vehicle with this name already exists")
	ErrVehicleNotFound     = errors.New("vehicle not found")
	ErrAlreadySubscribed   = errors.New("already subscribed to this vehicle")
	ErrNotSubscribed       = errors.New("not subscribed to this vehicle")
)

// Service is the command-facing surface consumed by chat command handlers and
// the admin API. The poll pipeline does not go through it.
type Service struct {
	cfg   *config.Config
	log   *zap.Logger
	store store.Store

	*guildSetup
	*vehicleAdmin
	*subscriptions
}

func NewService(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, db store.Store) *Service {
	return &Service{
		cfg, log, db,
		&guildSetup{log, db},
		&vehicleAdmin{log, db},
		&subscriptions{log, db},
	}
}

// VehicleStatus returns a vehicle together with its last observed state.
// State may be nil when the feed has never been polled successfully.
func (svc *Service) VehicleStatus(ctx context.Context, guildID, vehicleName string) (*models.Vehicle, *models.VehicleState, error) {
	vehicleID := models.VehicleIDFromName(vehicleName)

	vehicle, err := svc.store.Vehicle(ctx, guildID, vehicleID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrVehicleNotFound
	} else if err != nil {
		return nil, nil, err
	}

	state, err := svc.store.VehicleState(ctx, guildID, vehicleID)
	if errors.Is(err, store.ErrNotFound) {
		return vehicle, nil, nil
	} else if err != nil {
		return nil, nil, err
	}
	return vehicle, state, nil
}

func (svc *Service) ListVehicles(ctx context.Context, guildID string) (models.Vehicles, error) {
	return svc.store.VehiclesByGuild(ctx, guildID)
}

// GuildSummary returns the guild's config alongside its vehicles, for the
// "show me my setup" surfaces.
func (svc *Service) GuildSummary(ctx context.Context, guildID string) (*models.GuildConfig, models.Vehicles, error) {
	cfg, err := svc.store.GuildConfig(ctx, guildID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrSetupRequired
	} else if err != nil {
		return nil, nil, err
	}

	vehicles, err := svc.store.VehiclesByGuild(ctx, guildID)
	if err != nil {
		return nil, nil, err
	}
	return cfg, vehicles, nil
}
