package senders

import (
	"context"
	"net/http"

	"github.com/cisconnect/fleetwatch/config"
	"github.com/cisconnect/fleetwatch/lib/status"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	PlatformDiscord = "discord"
	PlatformEmail   = "email"
)

// Notification is the platform-neutral payload for a status change.
type Notification struct {
	VehicleName string
	Status      status.Status
}

// Sender delivers notifications best-effort: implementations report failure
// through the error return and never panic, so one unreachable recipient
// cannot take down a poll cycle.
type Sender interface {
	// SendDirect messages a single subscriber. Returns a platform message id
	// when available.
	SendDirect(ctx context.Context, recipient string, n Notification) (string, error)
	// SendChannelAlert posts to a shared channel, mentioning the given role.
	SendChannelAlert(ctx context.Context, channelID, roleID string, n Notification) (string, error)
}

type Registry map[string]Sender

func NewSenderRegistry(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config, transport http.RoundTripper) Registry {
	base := base{log, cfg, transport}
	return Registry{
		PlatformDiscord: newDiscordSender(base),
		PlatformEmail:   &mailgunSender{base},
	}
}

type base struct {
	log       *zap.Logger
	cfg       *config.Config
	transport http.RoundTripper
}
