package feed

import (
	"bytes"

	"github.com/cisconnect/fleetwatch/lib/status"
	"github.com/mmcdole/gofeed"
)

// MaxEntries bounds how far back into a feed a single poll looks.
const MaxEntries = 5

// Entry is one feed item with its extracted status candidate. Published is
// kept in the feed's native format; nothing downstream orders by it.
type Entry struct {
	StatusText  string
	Title       string
	Description string
	Published   string
	Link        string
}

// Parse extracts the most recent entries from raw feed markup. It is a pure
// function of content: malformed or empty input yields nil rather than an
// error, so one broken feed never aborts a poll cycle.
func Parse(content []byte) []Entry {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(content))
	if err != nil || parsed == nil {
		return nil
	}

	items := parsed.Items
	if len(items) > MaxEntries {
		items = items[:MaxEntries]
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entries = append(entries, Entry{
			StatusText:  status.ExtractText(item.Title, item.Description),
			Title:       item.Title,
			Description: item.Description,
			Published:   item.Published,
			Link:        item.Link,
		})
	}
	return entries
}
