package models

// Subscription registers a subscriber for "became available" notifications on
// one vehicle. UserID doubles as the platform recipient: a user id for
// discord, an address for email.
type Subscription struct {
	GuildID   string `gorm:"primaryKey"`
	VehicleID string `gorm:"primaryKey"`
	UserID    string `gorm:"primaryKey"`
	Platform  string `gorm:"default:discord"`
}

type Subscriptions []Subscription
