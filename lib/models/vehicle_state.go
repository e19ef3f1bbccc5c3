package models

import "time"

// VehicleState is the authoritative per-vehicle record for idempotence: no
// notification may be re-sent for a status this row already reflects.
// LastStatus always holds a normalizer output, never raw scraped text.
type VehicleState struct {
	GuildID           string `gorm:"primaryKey"`
	VehicleID         string `gorm:"primaryKey"`
	LastStatus        string
	LastDigest        string
	LastSeenAt        time.Time
	NotifiedAvailable bool
}
