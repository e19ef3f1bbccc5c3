package models

import "strings"

type Vehicle struct {
	GuildID     string `gorm:"primaryKey"`
	VehicleID   string `gorm:"primaryKey"`
	FeedURL     string `gorm:"index:idx_guild_feedurl"`
	DisplayName string
}

type Vehicles []Vehicle

// VehicleIDFromName derives the stable identifier used in all keyed tables
// from a human display name.
func VehicleIDFromName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
