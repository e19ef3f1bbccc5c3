package app

import (
	"time"

	"github.com/cisconnect/fleetwatch/lib/models"
)

type GuildConfigView struct {
	GuildID           string `json:"guild_id"`
	ChannelID         string `json:"channel_id"`
	MaintenanceRoleID string `json:"maintenance_role_id"`
	PollSeconds       int    `json:"poll_seconds"`
}

func (view GuildConfigView) From(entity *models.GuildConfig) GuildConfigView {
	return GuildConfigView{
		GuildID:           entity.GuildID,
		ChannelID:         entity.ChannelID,
		MaintenanceRoleID: entity.MaintenanceRoleID,
		PollSeconds:       entity.PollSeconds,
	}
}

type VehicleView struct {
	GuildID     string `json:"guild_id"`
	VehicleID   string `json:"vehicle_id"`
	FeedURL     string `json:"feed_url"`
	DisplayName string `json:"display_name"`
}

func (view VehicleView) From(entity *models.Vehicle) VehicleView {
	return VehicleView{
		GuildID:     entity.GuildID,
		VehicleID:   entity.VehicleID,
		FeedURL:     entity.FeedURL,
		DisplayName: entity.DisplayName,
	}
}

type VehicleStatusView struct {
	Vehicle    VehicleView `json:"vehicle"`
	LastStatus *string     `json:"last_status"`
	LastSeenAt *string     `json:"last_seen_at"`
}

func (view VehicleStatusView) From(vehicle *models.Vehicle, state *models.VehicleState) VehicleStatusView {
	out := VehicleStatusView{Vehicle: VehicleView{}.From(vehicle)}
	if state != nil {
		out.LastStatus = &state.LastStatus
		out.LastSeenAt = isoformat(state.LastSeenAt)
	}
	return out
}

type SubscriptionView struct {
	GuildID   string `json:"guild_id"`
	VehicleID string `json:"vehicle_id"`
	UserID    string `json:"user_id"`
	Platform  string `json:"platform"`
}

func (view SubscriptionView) From(entity *models.Subscription) SubscriptionView {
	return SubscriptionView{
		GuildID:   entity.GuildID,
		VehicleID: entity.VehicleID,
		UserID:    entity.UserID,
		Platform:  entity.Platform,
	}
}

type Fromable[Entity any, Repr any] interface {
	From(Entity) Repr
}

func FromMany[T any, U Fromable[*T, U]](elems []T) []U {
	out := make([]U, len(elems))
	for i := range elems {
		var u U
		out[i] = u.From(&elems[i])
	}
	return out
}

func isoformat(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
