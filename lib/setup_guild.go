package lib

import (
	"context"

	"github.com/cisconnect/fleetwatch/lib/models"
	"github.com/cisconnect/fleetwatch/lib/store"
	"go.uber.org/zap"
)

type guildSetup struct {
	log   *zap.Logger
	store store.Store
}

// SetupGuild creates or replaces the guild's configuration. Re-running setup
// is the only way to mutate it; nothing ever deletes it.
func (svc *guildSetup) SetupGuild(ctx context.Context, guildID, channelID, maintenanceRoleID string, pollSeconds int) (*models.GuildConfig, error) {
	if pollSeconds < models.MinPollSeconds || pollSeconds > models.MaxPollSeconds {
		return nil, ErrInvalidPollInterval
	}

	cfg := &models.GuildConfig{
		GuildID:           guildID,
		ChannelID:         channelID,
		MaintenanceRoleID: maintenanceRoleID,
		PollSeconds:       pollSeconds,
	}
	if err := svc.store.UpsertGuildConfig(ctx, cfg); err != nil {
		return nil, err
	}

	svc.log.Sugar().Infow("Guild configured",
		"guild_id", guildID, "channel_id", channelID, "poll_seconds", pollSeconds)
	return cfg, nil
}
