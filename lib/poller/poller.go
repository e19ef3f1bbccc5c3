// Package poller drives the watch pipeline: on every tick, fetch each
// configured vehicle's feed, parse and normalize the latest entry, detect the
// status transition and emit the notifications the transition calls for.
// One vehicle failing never stops the others.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cisconnect/fleetwatch/config"
	"github.com/cisconnect/fleetwatch/lib/feed"
	"github.com/cisconnect/fleetwatch/lib/models"
	"github.com/cisconnect/fleetwatch/lib/store"
	"github.com/cisconnect/fleetwatch/senders"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Poller struct {
	store   store.Store
	fetcher *feed.Fetcher
	senders senders.Registry
	log     *zap.Logger

	concurrency int
	alarm       *alarmClock
	keys        keyLock
}

func NewPoller(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	db store.Store,
	fetcher *feed.Fetcher,
	registry senders.Registry,
) *Poller {
	p := &Poller{
		store:       db,
		fetcher:     fetcher,
		senders:     registry,
		log:         log,
		concurrency: cfg.PollConcurrency,
		alarm:       newAlarmClock(cfg.PollInterval()),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go p.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Stop()
			log.Sugar().Info("Poller stopped")
			return nil
		},
	})

	return p
}

func (p *Poller) Start(ctx context.Context) {
	for range p.alarm.Start(ctx) {
		if err := p.RunPollCycle(ctx); err != nil {
			p.log.Sugar().Errorw("Poll cycle failed", "err", err)
		}
	}
}

func (p *Poller) Stop() {
	p.alarm.Stop()
}

// RunPollCycle processes every configured vehicle across all guilds once.
// Idempotent: re-running against unchanged feeds mutates nothing and sends
// nothing.
func (p *Poller) RunPollCycle(ctx context.Context) error {
	startedAt := time.Now().UTC()
	cycleID := uuid.NewString()

	vehicles, err := p.store.AllVehicles(ctx)
	if err != nil {
		return err
	}
	if len(vehicles) == 0 {
		return nil
	}

	configs, err := p.guildConfigs(ctx, vehicles)
	if err != nil {
		return err
	}

	metrics := &cycleMetrics{}
	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup

	for _, vehicle := range vehicles {
		cfg, ok := configs[vehicle.GuildID]
		if !ok {
			// Vehicle added before setup completed; nothing to notify into.
			metrics.add(tickResult{skipped: true})
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(v models.Vehicle) {
			defer wg.Done()
			defer func() { <-sem }()

			result := p.pollVehicle(ctx, v, cfg)
			if result.errored {
				p.log.Sugar().Warnw("Vehicle poll failed",
					"cycle_id", cycleID, "guild_id", v.GuildID, "vehicle_id", v.VehicleID, "err", result.err)
			}
			metrics.add(result)
		}(vehicle)
	}
	wg.Wait()

	cyclesTotal.Inc()
	elapsed := time.Now().UTC().Sub(startedAt)
	p.log.Sugar().Infow("Poll cycle completed",
		append([]any{"cycle_id", cycleID, "vehicles", len(vehicles), "elapsed_msecs", int(elapsed.Milliseconds())},
			metrics.logArgs()...)...)
	return nil
}

func (p *Poller) guildConfigs(ctx context.Context, vehicles models.Vehicles) (map[string]*models.GuildConfig, error) {
	configs := make(map[string]*models.GuildConfig)
	for _, v := range vehicles {
		if _, seen := configs[v.GuildID]; seen {
			continue
		}
		cfg, err := p.store.GuildConfig(ctx, v.GuildID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		} else if err != nil {
			return nil, err
		}
		configs[v.GuildID] = cfg
	}
	return configs, nil
}

// pollVehicle runs Fetch -> Parse -> Normalize -> Transition for one vehicle.
// Every early return is a skip, not an error for the cycle.
func (p *Poller) pollVehicle(ctx context.Context, v models.Vehicle, cfg *models.GuildConfig) tickResult {
	cached, err := p.store.FetchCache(ctx, v.GuildID, v.FeedURL)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return tickResult{errored: true, err: err}
	}

	etag, lastModified := "", ""
	if cached != nil {
		etag, lastModified = cached.ETag, cached.LastModified
	}

	res, err := p.fetcher.Fetch(ctx, v.FeedURL, etag, lastModified)
	if err != nil {
		fetchesTotal.WithLabelValues("error").Inc()
		return tickResult{skipped: true}
	}

	// Any response refreshes the validators, a 304 included -- but blanks
	// never overwrite values we already hold.
	next := &models.FeedCache{GuildID: v.GuildID, FeedURL: v.FeedURL, ETag: etag, LastModified: lastModified}
	if res.ETag != "" {
		next.ETag = res.ETag
	}
	if res.LastModified != "" {
		next.LastModified = res.LastModified
	}
	if err := p.store.UpsertFetchCache(ctx, next); err != nil {
		return tickResult{errored: true, err: err}
	}

	if res.NotModified() {
		fetchesTotal.WithLabelValues("not_modified").Inc()
		return tickResult{skipped: true}
	}
	fetchesTotal.WithLabelValues("ok").Inc()

	entries := feed.Parse(res.Content)
	if len(entries) == 0 {
		return tickResult{skipped: true}
	}

	digest := models.DigestContent(res.Content)
	return p.applyTransition(ctx, v, cfg, entries[0].StatusText, digest)
}

// keyLock serializes writes per (guild, vehicle) so overlapping cycles can
// never double-fire a notification for the same vehicle.
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyLock) acquire(guildID, vehicleID string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	key := guildID + "/" + vehicleID
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
