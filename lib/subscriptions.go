package lib

import (
	"context"
	"errors"

	"github.com/cisconnect/fleetwatch/lib/models"
	"github.com/cisconnect/fleetwatch/lib/store"
	"github.com/cisconnect/fleetwatch/senders"
	"go.uber.org/zap"
)

type subscriptions struct {
	log   *zap.Logger
	store store.Store
}

// Subscribe registers a user for the one-shot "became available" DM on a
// vehicle. A user holds at most one subscription per vehicle.
func (svc *subscriptions) Subscribe(ctx context.Context, guildID, vehicleName, userID string) (*models.Subscription, error) {
	vehicleID := models.VehicleIDFromName(vehicleName)

	if _, err := svc.store.Vehicle(ctx, guildID, vehicleID); errors.Is(err, store.ErrNotFound) {
		return nil, ErrVehicleNotFound
	} else if err != nil {
		return nil, err
	}

	sub := &models.Subscription{
		GuildID:   guildID,
		VehicleID: vehicleID,
		UserID:    userID,
		Platform:  senders.PlatformDiscord,
	}
	if err := svc.store.CreateSubscription(ctx, sub); errors.Is(err, store.ErrAlreadyExists) {
		return nil, ErrAlreadySubscribed
	} else if err != nil {
		return nil, err
	}

	svc.log.Sugar().Infow("Subscription created",
		"guild_id", guildID, "vehicle_id", vehicleID, "user_id", userID)
	return sub, nil
}

func (svc *subscriptions) Unsubscribe(ctx context.Context, guildID, vehicleName, userID string) error {
	vehicleID := models.VehicleIDFromName(vehicleName)

	err := svc.store.DeleteSubscription(ctx, guildID, vehicleID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotSubscribed
	} else if err != nil {
		return err
	}

	svc.log.Sugar().Infow("Subscription removed",
		"guild_id", guildID, "vehicle_id", vehicleID, "user_id", userID)
	return nil
}

func (svc *subscriptions) MySubscriptions(ctx context.Context, guildID, userID string) (models.Subscriptions, error) {
	return svc.store.SubscriptionsByUser(ctx, guildID, userID)
}
