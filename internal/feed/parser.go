package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const untitled = "(untitled)"

// Entry is a feed item reduced to the fields the tracker stores.
type Entry struct {
	Title     string
	Link      string
	Published time.Time
}

// ParseFeed parses an RSS or Atom document. Entries without a link or
// without a parseable published/updated date are dropped here so nothing
// downstream ever sees them.
func ParseFeed(ctx context.Context, body string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	parsed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		link := extractLink(item)
		if link == "" {
			continue
		}
		pub, ok := publishedAt(item)
		if !ok {
			continue
		}
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = untitled
		}
		entries = append(entries, Entry{Title: title, Link: link, Published: pub})
	}
	return entries, nil
}

// extractLink prefers the item link and falls back to a GUID that looks
// like a URL.
func extractLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	for _, l := range item.Links {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	if guid := strings.TrimSpace(item.GUID); strings.HasPrefix(guid, "http") {
		return guid
	}
	return ""
}

func publishedAt(item *gofeed.Item) (time.Time, bool) {
	switch {
	case item.PublishedParsed != nil && !item.PublishedParsed.IsZero():
		return item.PublishedParsed.UTC(), true
	case item.UpdatedParsed != nil && !item.UpdatedParsed.IsZero():
		return item.UpdatedParsed.UTC(), true
	default:
		return time.Time{}, false
	}
}
