package poller

import (
	"context"
	"errors"
	"time"

	"github.com/cisconnect/fleetwatch/lib/models"
	"github.com/cisconnect/fleetwatch/lib/status"
	"github.com/cisconnect/fleetwatch/lib/store"
	"github.com/cisconnect/fleetwatch/senders"
)

// tickResult is the tagged outcome of one vehicle's tick. Exactly one of
// errored/skipped/changed applies; notified counts deliveries attempted.
type tickResult struct {
	changed  bool
	skipped  bool
	errored  bool
	notified int
	err      error
}

// applyTransition runs the transition rules for one vehicle under its key
// lock. The state write and the notification decision commit in a single
// transaction; the actual sends happen after commit, best-effort, so a slow
// or unreachable recipient cannot roll back the state.
func (p *Poller) applyTransition(ctx context.Context, v models.Vehicle, cfg *models.GuildConfig, rawStatus, digest string) tickResult {
	unlock := p.keys.acquire(v.GuildID, v.VehicleID)
	defer unlock()

	var (
		res       tickResult
		newStatus status.Status
		toNotify  models.Subscriptions
		alert     bool
	)

	err := p.store.Transact(ctx, func(tx store.Store) error {
		prev, err := tx.VehicleState(ctx, v.GuildID, v.VehicleID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		var oldStatus status.Status
		notified := false
		if prev != nil {
			oldStatus = status.Status(prev.LastStatus)
			notified = prev.NotifiedAvailable
		}

		// Unchanged content with a trustworthy stored status is a no-op. A
		// stored non-canonical label (pre-normalizer noise) forces one
		// re-normalization pass even when bytes did not change.
		if prev != nil && prev.LastDigest == digest && status.IsCanonical(oldStatus) {
			return nil
		}

		newStatus = status.Normalize(rawStatus)
		res.changed = true

		next := &models.VehicleState{
			GuildID:           v.GuildID,
			VehicleID:         v.VehicleID,
			LastStatus:        string(newStatus),
			LastDigest:        digest,
			LastSeenAt:        time.Now().UTC(),
			NotifiedAvailable: notified,
		}

		if newStatus == status.Available && !notified {
			subs, err := tx.SubscriptionsByVehicle(ctx, v.GuildID, v.VehicleID)
			if err != nil {
				return err
			}
			toNotify = subs
			next.NotifiedAvailable = true
		}

		if newStatus != oldStatus {
			if newStatus == status.UnavailableEquipment && cfg.ChannelID != "" && cfg.MaintenanceRoleID != "" {
				alert = true
			}
			if newStatus != status.Available && notified {
				next.NotifiedAvailable = false
			}
		}

		return tx.SaveVehicleState(ctx, next)
	})
	if err != nil {
		return tickResult{errored: true, err: err}
	}
	if !res.changed {
		return res
	}
	transitionsTotal.Inc()

	notification := senders.Notification{VehicleName: v.DisplayName, Status: newStatus}
	res.notified = p.notifySubscribers(ctx, toNotify, notification)
	if alert {
		p.alertChannel(ctx, cfg, notification)
		res.notified++
	}
	return res
}

// notifySubscribers attempts each delivery independently: one forbidden DM or
// bounced email is logged and never blocks the rest.
func (p *Poller) notifySubscribers(ctx context.Context, subs models.Subscriptions, n senders.Notification) int {
	attempted := 0
	for _, sub := range subs {
		platform := sub.Platform
		if platform == "" {
			platform = senders.PlatformDiscord
		}
		sender, ok := p.senders[platform]
		if !ok {
			p.log.Sugar().Warnw("Unsupported subscription platform", "platform", platform, "user_id", sub.UserID)
			continue
		}

		attempted++
		id, err := sender.SendDirect(ctx, sub.UserID, n)
		if err != nil {
			notificationsTotal.WithLabelValues("direct", "failed").Inc()
			p.log.Sugar().Infow("Failed to notify subscriber",
				"platform", platform, "user_id", sub.UserID, "vehicle", n.VehicleName, "err", err)
			continue
		}
		notificationsTotal.WithLabelValues("direct", "sent").Inc()
		p.log.Sugar().Debugw("Subscriber notified", "user_id", sub.UserID, "message_id", id)
	}
	return attempted
}

func (p *Poller) alertChannel(ctx context.Context, cfg *models.GuildConfig, n senders.Notification) {
	sender, ok := p.senders[senders.PlatformDiscord]
	if !ok {
		return
	}
	if _, err := sender.SendChannelAlert(ctx, cfg.ChannelID, cfg.MaintenanceRoleID, n); err != nil {
		notificationsTotal.WithLabelValues("channel", "failed").Inc()
		p.log.Sugar().Infow("Failed to post maintenance alert",
			"guild_id", cfg.GuildID, "channel_id", cfg.ChannelID, "err", err)
		return
	}
	notificationsTotal.WithLabelValues("channel", "sent").Inc()
}
