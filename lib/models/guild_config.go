package models

// GuildConfig holds per-guild notification settings. One row per guild,
// written only by the setup flow.
type GuildConfig struct {
	GuildID           string `gorm:"primaryKey"`
	ChannelID         string
	MaintenanceRoleID string
	PollSeconds       int `gorm:"default:60"`
}

const (
	MinPollSeconds = 30
	MaxPollSeconds = 300
)

type GuildConfigs []GuildConfig
