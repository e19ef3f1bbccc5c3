package senders

import (
	"context"
	"fmt"
	"time"

	"github.com/carlmjohnson/requests"
	"golang.org/x/time/rate"
)

// discordSender delivers through Discord's REST API: DMs require opening the
// recipient's DM channel first, channel alerts post directly with a role
// mention. Sends are rate-limited to one per second to stay under Discord's
// per-route limits.
type discordSender struct {
	base
	limiter *rate.Limiter
}

func newDiscordSender(b base) *discordSender {
	return &discordSender{
		base:    b,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

type discordMessage struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordChannel struct {
	ID string `json:"id"`
}

func (d *discordSender) SendDirect(ctx context.Context, recipient string, n Notification) (string, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var dm discordChannel
	err := requests.
		URL(d.cfg.Discord.APIBase+"/users/@me/channels").
		Transport(d.transport).
		Header("Authorization", "Bot "+d.cfg.Discord.Token).
		BodyJSON(map[string]string{"recipient_id": recipient}).
		ToJSON(&dm).
		Fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("opening DM channel for %s: %w", recipient, err)
	}

	msg := discordMessage{
		Embeds: []discordEmbed{{
			Title:       n.availableTitle(),
			Description: n.availableBody(),
			Color:       Color(n.Status),
		}},
	}
	return d.post(ctx, dm.ID, msg)
}

func (d *discordSender) SendChannelAlert(ctx context.Context, channelID, roleID string, n Notification) (string, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return "", err
	}

	msg := discordMessage{
		Content: fmt.Sprintf("<@&%s>", roleID),
		Embeds: []discordEmbed{{
			Title:       n.maintenanceTitle(),
			Description: n.maintenanceBody(),
			Color:       Color(n.Status),
		}},
	}
	return d.post(ctx, channelID, msg)
}

func (d *discordSender) post(ctx context.Context, channelID string, msg discordMessage) (string, error) {
	var created struct {
		ID string `json:"id"`
	}
	err := requests.
		URL(d.cfg.Discord.APIBase+"/channels/"+channelID+"/messages").
		Transport(d.transport).
		Header("Authorization", "Bot "+d.cfg.Discord.Token).
		BodyJSON(&msg).
		ToJSON(&created).
		Fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("posting to channel %s: %w", channelID, err)
	}
	return created.ID, nil
}
