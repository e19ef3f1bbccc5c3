package models

// FeedCache stores the HTTP validators from the last fetch of a feed, so the
// next poll can issue a conditional GET. Keyed by URL rather than vehicle:
// several vehicles may legitimately share one feed.
type FeedCache struct {
	GuildID      string `gorm:"primaryKey"`
	FeedURL      string `gorm:"primaryKey"`
	ETag         string
	LastModified string
}
