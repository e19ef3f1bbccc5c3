package poller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cisconnect/fleetwatch/config"
	"github.com/cisconnect/fleetwatch/lib/feed"
	"github.com/cisconnect/fleetwatch/lib/models"
	"github.com/cisconnect/fleetwatch/lib/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

const feedBody = `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>FS1</title>` +
	`<item><title>VSAV 1</title><description>Le statut est : Disponible</description></item>` +
	`</channel></rss>`

// feedServer serves one fixed feed document with an ETag, answering 304 to a
// matching If-None-Match.
func feedServer(t *testing.T, body string) (*httptest.Server, *int) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func withFetcher(t *testing.T, p *Poller) {
	cfg := &config.Config{HTTPTimeoutSecs: 5, HTTPUserAgent: "FleetWatchBot/test"}
	p.fetcher = feed.NewFetcher(fxtest.NewLifecycle(t), cfg, zap.NewNop(), http.DefaultTransport)
}

func TestPollVehicle_FetchParseTransition(t *testing.T) {
	p, st, fake := newTestPoller(t)
	withFetcher(t, p)
	srv, _ := feedServer(t, feedBody)

	ctx := context.Background()
	cfg, _ := seedGuild(t, st)
	subscribe(t, st, "user-1")
	vehicle := models.Vehicle{GuildID: "g1", VehicleID: "vsav_1", FeedURL: srv.URL, DisplayName: "VSAV 1"}

	res := p.pollVehicle(ctx, vehicle, cfg)
	assert.True(t, res.changed)
	assert.Equal(t, []string{"user-1"}, fake.directs)

	state, err := st.VehicleState(ctx, "g1", "vsav_1")
	require.NoError(t, err)
	assert.Equal(t, string(status.Available), state.LastStatus)
}

func TestPollVehicle_NotModifiedSkipsEverything(t *testing.T) {
	p, st, fake := newTestPoller(t)
	withFetcher(t, p)
	srv, hits := feedServer(t, feedBody)

	ctx := context.Background()
	cfg, _ := seedGuild(t, st)
	subscribe(t, st, "user-1")
	vehicle := models.Vehicle{GuildID: "g1", VehicleID: "vsav_1", FeedURL: srv.URL, DisplayName: "VSAV 1"}

	p.pollVehicle(ctx, vehicle, cfg)
	res := p.pollVehicle(ctx, vehicle, cfg)

	assert.Equal(t, 2, *hits)
	assert.True(t, res.skipped)
	assert.Len(t, fake.directs, 1)

	// The 304 carried no ETag header; the cached validator survives.
	cache, err := st.FetchCache(ctx, "g1", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, `"v1"`, cache.ETag)
}

func TestPollVehicle_MalformedFeedIsSkip(t *testing.T) {
	p, st, _ := newTestPoller(t)
	withFetcher(t, p)
	srv, _ := feedServer(t, "<html>not a feed</html>")

	ctx := context.Background()
	cfg, _ := seedGuild(t, st)
	vehicle := models.Vehicle{GuildID: "g1", VehicleID: "vsav_1", FeedURL: srv.URL, DisplayName: "VSAV 1"}

	res := p.pollVehicle(ctx, vehicle, cfg)
	assert.True(t, res.skipped)

	_, err := st.VehicleState(ctx, "g1", "vsav_1")
	assert.Error(t, err)
}

func TestPollVehicle_UnreachableFeedIsSkip(t *testing.T) {
	p, st, _ := newTestPoller(t)
	withFetcher(t, p)

	cfg, _ := seedGuild(t, st)
	vehicle := models.Vehicle{GuildID: "g1", VehicleID: "vsav_1", FeedURL: "http://127.0.0.1:1/feed", DisplayName: "VSAV 1"}

	res := p.pollVehicle(context.Background(), vehicle, cfg)
	assert.True(t, res.skipped)
	assert.False(t, res.errored)
}

func TestRunPollCycle_ProcessesAllVehicles(t *testing.T) {
	p, st, fake := newTestPoller(t)
	withFetcher(t, p)
	srv, _ := feedServer(t, feedBody)

	ctx := context.Background()
	cfg := &models.GuildConfig{GuildID: "g1", ChannelID: "chan-1", MaintenanceRoleID: "role-1", PollSeconds: 60}
	require.NoError(t, st.UpsertGuildConfig(ctx, cfg))
	for _, id := range []string{"vsav_1", "vsav_2"} {
		require.NoError(t, st.CreateVehicle(ctx, &models.Vehicle{
			GuildID: "g1", VehicleID: id, FeedURL: srv.URL + "/" + id, DisplayName: id,
		}))
		require.NoError(t, st.CreateSubscription(ctx, &models.Subscription{
			GuildID: "g1", VehicleID: id, UserID: "user-1", Platform: "discord",
		}))
	}

	require.NoError(t, p.RunPollCycle(ctx))

	for _, id := range []string{"vsav_1", "vsav_2"} {
		state, err := st.VehicleState(ctx, "g1", id)
		require.NoError(t, err)
		assert.Equal(t, string(status.Available), state.LastStatus)
	}
	assert.Len(t, fake.directs, 2)
}

func TestRunPollCycle_SkipsGuildWithoutConfig(t *testing.T) {
	p, st, fake := newTestPoller(t)
	withFetcher(t, p)
	srv, hits := feedServer(t, feedBody)

	ctx := context.Background()
	require.NoError(t, st.CreateVehicle(ctx, &models.Vehicle{
		GuildID: "g-unconfigured", VehicleID: "vsav_1", FeedURL: srv.URL, DisplayName: "VSAV 1",
	}))

	require.NoError(t, p.RunPollCycle(ctx))
	assert.Zero(t, *hits)
	assert.Empty(t, fake.directs)
}

func TestRunPollCycle_EmptyDatabase(t *testing.T) {
	p, _, _ := newTestPoller(t)
	require.NoError(t, p.RunPollCycle(context.Background()))
}
