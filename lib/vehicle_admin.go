package lib

import (
	"context"
	"errors"
	"strings"

	"github.com/cisconnect/fleetwatch/lib/models"
	"github.com/cisconnect/fleetwatch/lib/store"
	"go.uber.org/zap"
)

type vehicleAdmin struct {
	log   *zap.Logger
	store store.Store
}

// AddVehicle registers a feed to watch. The URL only gets a scheme check
// here; whether it actually serves a parseable feed surfaces on the next
// poll, where a broken feed is a skip rather than an error.
func (svc *vehicleAdmin) AddVehicle(ctx context.Context, guildID, feedURL, displayName string) (*models.Vehicle, error) {
	if !strings.HasPrefix(feedURL, "http://") && !strings.HasPrefix(feedURL, "https://") {
		return nil, ErrInvalidFeedURL
	}

	if _, err := svc.store.GuildConfig(ctx, guildID); errors.Is(err, store.ErrNotFound) {
		return nil, ErrSetupRequired
	} else if err != nil {
		return nil, err
	}

	vehicle := &models.Vehicle{
		GuildID:     guildID,
		VehicleID:   models.VehicleIDFromName(displayName),
		FeedURL:     feedURL,
		DisplayName: displayName,
	}
	if err := svc.store.CreateVehicle(ctx, vehicle); errors.Is(err, store.ErrAlreadyExists) {
		return nil, ErrVehicleExists
	} else if err != nil {
		return nil, err
	}

	svc.log.Sugar().Infow("Vehicle added",
		"guild_id", guildID, "vehicle_id", vehicle.VehicleID, "feed_url", feedURL)
	return vehicle, nil
}

// RemoveVehicle deletes the vehicle and cascades its subscriptions, fetch
// cache and state, so stale rows can never resurrect a notification.
func (svc *vehicleAdmin) RemoveVehicle(ctx context.Context, guildID, vehicleName string) error {
	vehicleID := models.VehicleIDFromName(vehicleName)

	err := svc.store.DeleteVehicle(ctx, guildID, vehicleID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrVehicleNotFound
	} else if err != nil {
		return err
	}

	svc.log.Sugar().Infow("Vehicle removed", "guild_id", guildID, "vehicle_id", vehicleID)
	return nil
}
