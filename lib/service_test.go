package lib

import (
	"context"
	"testing"

	"github.com/cisconnect/fleetwatch/config"
	"github.com/cisconnect/fleetwatch/lib/models"
	"github.com/cisconnect/fleetwatch/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, store.Store) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.GuildConfig{},
		&models.Vehicle{},
		&models.FeedCache{},
		&models.VehicleState{},
		&models.Subscription{},
	))

	st := store.New(db)
	svc := NewService(fxtest.NewLifecycle(t), &config.Config{}, zap.NewNop(), st)
	return svc, st
}

func setupGuild(t *testing.T, svc *Service) {
	_, err := svc.SetupGuild(context.Background(), "g1", "chan-1", "role-1", 60)
	require.NoError(t, err)
}

func TestSetupGuild_PollIntervalBounds(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SetupGuild(ctx, "g1", "chan-1", "role-1", models.MinPollSeconds-1)
	assert.ErrorIs(t, err, ErrInvalidPollInterval)

	_, err = svc.SetupGuild(ctx, "g1", "chan-1", "role-1", models.MaxPollSeconds+1)
	assert.ErrorIs(t, err, ErrInvalidPollInterval)

	for _, secs := range []int{models.MinPollSeconds, 60, models.MaxPollSeconds} {
		cfg, err := svc.SetupGuild(ctx, "g1", "chan-1", "role-1", secs)
		require.NoError(t, err)
		assert.Equal(t, secs, cfg.PollSeconds)
	}
}

func TestSetupGuild_RerunReplacesConfig(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, err := svc.SetupGuild(ctx, "g1", "chan-1", "role-1", 60)
	require.NoError(t, err)
	_, err = svc.SetupGuild(ctx, "g1", "chan-2", "role-2", 120)
	require.NoError(t, err)

	cfg, err := st.GuildConfig(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "chan-2", cfg.ChannelID)
	assert.Equal(t, 120, cfg.PollSeconds)
}

func TestAddVehicle(t *testing.T) {
	svc, _ := newTestService(t)
	setupGuild(t, svc)

	vehicle, err := svc.AddVehicle(context.Background(), "g1", "https://example.test/feed", "VSAV 1")
	require.NoError(t, err)
	assert.Equal(t, "vsav_1", vehicle.VehicleID)
	assert.Equal(t, "VSAV 1", vehicle.DisplayName)
}

func TestAddVehicle_RequiresSetup(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AddVehicle(context.Background(), "g1", "https://example.test/feed", "VSAV 1")
	assert.ErrorIs(t, err, ErrSetupRequired)
}

func TestAddVehicle_RejectsBadScheme(t *testing.T) {
	svc, _ := newTestService(t)
	setupGuild(t, svc)

	for _, url := range []string{"ftp://example.test/feed", "example.test/feed", ""} {
		_, err := svc.AddVehicle(context.Background(), "g1", url, "VSAV 1")
		assert.ErrorIs(t, err, ErrInvalidFeedURL, "url=%q", url)
	}
}

func TestAddVehicle_DuplicateName(t *testing.T) {
	svc, _ := newTestService(t)
	setupGuild(t, svc)
	ctx := context.Background()

	_, err := svc.AddVehicle(ctx, "g1", "https://example.test/feed", "VSAV 1")
	require.NoError(t, err)

	// Names that collapse to the same identifier collide.
	_, err = svc.AddVehicle(ctx, "g1", "https://example.test/other", "vsav 1")
	assert.ErrorIs(t, err, ErrVehicleExists)
}

func TestRemoveVehicle_CascadesEverything(t *testing.T) {
	svc, st := newTestService(t)
	setupGuild(t, svc)
	ctx := context.Background()

	vehicle, err := svc.AddVehicle(ctx, "g1", "https://example.test/feed", "VSAV 1")
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, "g1", "VSAV 1", "user-1")
	require.NoError(t, err)
	require.NoError(t, st.UpsertFetchCache(ctx, &models.FeedCache{
		GuildID: "g1", FeedURL: vehicle.FeedURL, ETag: `"v1"`,
	}))
	require.NoError(t, st.SaveVehicleState(ctx, &models.VehicleState{
		GuildID: "g1", VehicleID: "vsav_1", LastStatus: "available", LastDigest: "d1",
	}))

	require.NoError(t, svc.RemoveVehicle(ctx, "g1", "VSAV 1"))

	_, err = st.Vehicle(ctx, "g1", "vsav_1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.VehicleState(ctx, "g1", "vsav_1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.FetchCache(ctx, "g1", vehicle.FeedURL)
	assert.ErrorIs(t, err, store.ErrNotFound)
	subs, err := st.SubscriptionsByVehicle(ctx, "g1", "vsav_1")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestRemoveVehicle_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	setupGuild(t, svc)

	err := svc.RemoveVehicle(context.Background(), "g1", "VSAV 9")
	assert.ErrorIs(t, err, ErrVehicleNotFound)
}

func TestSubscribe(t *testing.T) {
	svc, _ := newTestService(t)
	setupGuild(t, svc)
	ctx := context.Background()

	_, err := svc.AddVehicle(ctx, "g1", "https://example.test/feed", "VSAV 1")
	require.NoError(t, err)

	sub, err := svc.Subscribe(ctx, "g1", "VSAV 1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "vsav_1", sub.VehicleID)
	assert.Equal(t, "discord", sub.Platform)

	_, err = svc.Subscribe(ctx, "g1", "VSAV 1", "user-1")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
}

func TestSubscribe_UnknownVehicle(t *testing.T) {
	svc, _ := newTestService(t)
	setupGuild(t, svc)

	_, err := svc.Subscribe(context.Background(), "g1", "VSAV 9", "user-1")
	assert.ErrorIs(t, err, ErrVehicleNotFound)
}

func TestUnsubscribe(t *testing.T) {
	svc, _ := newTestService(t)
	setupGuild(t, svc)
	ctx := context.Background()

	_, err := svc.AddVehicle(ctx, "g1", "https://example.test/feed", "VSAV 1")
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, "g1", "VSAV 1", "user-1")
	require.NoError(t, err)

	require.NoError(t, svc.Unsubscribe(ctx, "g1", "VSAV 1", "user-1"))
	assert.ErrorIs(t, svc.Unsubscribe(ctx, "g1", "VSAV 1", "user-1"), ErrNotSubscribed)
}

func TestMySubscriptions(t *testing.T) {
	svc, _ := newTestService(t)
	setupGuild(t, svc)
	ctx := context.Background()

	for _, name := range []string{"VSAV 1", "VSAV 2"} {
		_, err := svc.AddVehicle(ctx, "g1", "https://example.test/"+models.VehicleIDFromName(name), name)
		require.NoError(t, err)
		_, err = svc.Subscribe(ctx, "g1", name, "user-1")
		require.NoError(t, err)
	}

	subs, err := svc.MySubscriptions(ctx, "g1", "user-1")
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestVehicleStatus_NoStateYet(t *testing.T) {
	svc, _ := newTestService(t)
	setupGuild(t, svc)
	ctx := context.Background()

	_, err := svc.AddVehicle(ctx, "g1", "https://example.test/feed", "VSAV 1")
	require.NoError(t, err)

	vehicle, state, err := svc.VehicleStatus(ctx, "g1", "VSAV 1")
	require.NoError(t, err)
	assert.Equal(t, "vsav_1", vehicle.VehicleID)
	assert.Nil(t, state)
}

func TestGuildSummary(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.GuildSummary(context.Background(), "g1")
	assert.ErrorIs(t, err, ErrSetupRequired)

	setupGuild(t, svc)
	_, err = svc.AddVehicle(context.Background(), "g1", "https://example.test/feed", "VSAV 1")
	require.NoError(t, err)

	cfg, vehicles, err := svc.GuildSummary(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "chan-1", cfg.ChannelID)
	assert.Len(t, vehicles, 1)
}
