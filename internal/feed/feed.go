// Package feed turns blog RSS feeds and microblog RSS mirrors into content
// records.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Movie-Song/sns-contents-tracker/internal/config"
	"github.com/Movie-Song/sns-contents-tracker/internal/content"
	"github.com/Movie-Song/sns-contents-tracker/internal/fallback"
	"github.com/Movie-Song/sns-contents-tracker/internal/logger"
)

// publicMicroblogHost replaces whichever mirror served a microblog entry.
const publicMicroblogHost = "twitter.com"

// ErrInvalidSource is returned when a source cannot be built from its config.
var ErrInvalidSource = errors.New("invalid source")

// Batch is what one source produced in a run.
type Batch struct {
	// Endpoint is the feed URL that served the records.
	Endpoint string
	Records  []content.Record
}

// Source yields records for one configured blog or account.
type Source interface {
	// Name is the platform label stored with each record.
	Name() string
	Fetch(ctx context.Context, limit int) (Batch, error)
}

// Deps are the collaborators shared by all sources.
type Deps struct {
	Fetcher Fetcher
	Log     logger.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	return d
}

// NewSource builds the adapter for one source config.
func NewSource(src config.Source, deps Deps) (Source, error) {
	switch src.Kind {
	case config.KindBlog:
		return NewBlog(src.Name, src.URL, deps)
	case config.KindMicroblog:
		return NewMicroblog(src.Handle, src.Instances, deps)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q (valid: blog, microblog)", ErrInvalidSource, src.Kind)
	}
}

// Blog reads {baseURL}/rss.
type Blog struct {
	name    string
	feedURL string
	deps    Deps
}

func NewBlog(name, baseURL string, deps Deps) (*Blog, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := parseHTTPURL(base)
	if err != nil {
		return nil, fmt.Errorf("%w: blog url %q: %v", ErrInvalidSource, baseURL, err)
	}
	if name == "" {
		name = blogLabel(u.Hostname())
	}
	return &Blog{name: name, feedURL: base + "/rss", deps: deps.withDefaults()}, nil
}

func (b *Blog) Name() string { return b.name }

// FeedURL is the single endpoint this blog is read from.
func (b *Blog) FeedURL() string { return b.feedURL }

func (b *Blog) Fetch(ctx context.Context, limit int) (Batch, error) {
	b.deps.Log.Debug("fetching feed", logger.String("platform", b.name), logger.String("feed_url", b.feedURL))

	records, err := fetchRecords(ctx, b.deps.Fetcher, b.feedURL, limit, func(e Entry) content.Record {
		return content.Record{Title: e.Title, URL: e.Link, Published: e.Published, Platform: b.name}
	})
	if err != nil {
		return Batch{Endpoint: b.feedURL}, err
	}
	return Batch{Endpoint: b.feedURL, Records: records}, nil
}

// Microblog reads an account through an ordered list of RSS mirrors
// ({instance}/{handle}/rss), keeping the first mirror that yields records.
type Microblog struct {
	handle    string
	instances []string
	deps      Deps
}

func NewMicroblog(handle string, instances []string, deps Deps) (*Microblog, error) {
	h := strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if h == "" || strings.ContainsAny(h, "/?# ") {
		return nil, fmt.Errorf("%w: microblog handle %q", ErrInvalidSource, handle)
	}
	if len(instances) == 0 {
		return nil, fmt.Errorf("%w: no mirror instances for @%s", ErrInvalidSource, h)
	}
	cleaned := make([]string, 0, len(instances))
	for _, inst := range instances {
		base := strings.TrimRight(strings.TrimSpace(inst), "/")
		if _, err := parseHTTPURL(base); err != nil {
			return nil, fmt.Errorf("%w: mirror instance %q: %v", ErrInvalidSource, inst, err)
		}
		cleaned = append(cleaned, base)
	}
	return &Microblog{handle: h, instances: cleaned, deps: deps.withDefaults()}, nil
}

func (m *Microblog) Name() string { return "Twitter (@" + m.handle + ")" }

// Candidates lists the feed URLs in the order they are tried.
func (m *Microblog) Candidates() []string {
	out := make([]string, len(m.instances))
	for i, inst := range m.instances {
		out[i] = m.feedURL(inst)
	}
	return out
}

func (m *Microblog) feedURL(instance string) string {
	return instance + "/" + m.handle + "/rss"
}

func (m *Microblog) Fetch(ctx context.Context, limit int) (Batch, error) {
	platform := m.Name()
	log := m.deps.Log.With(logger.String("platform", platform))

	res, err := fallback.TryInOrder(ctx, m.Candidates(),
		func(ctx context.Context, feedURL string) ([]content.Record, error) {
			log.Debug("fetching feed", logger.String("feed_url", feedURL))
			return fetchRecords(ctx, m.deps.Fetcher, feedURL, limit, func(e Entry) content.Record {
				return content.Record{
					Title:     e.Title,
					URL:       toPublicURL(e.Link),
					Published: e.Published,
					HasTime:   true,
					Platform:  platform,
				}
			})
		},
		func(feedURL string, err error) {
			log.Warn("mirror rejected", logger.String("feed_url", feedURL), logger.Error(err))
		},
	)
	if err != nil {
		return Batch{}, fmt.Errorf("@%s: %w", m.handle, err)
	}

	log.Info("mirror accepted",
		logger.String("feed_url", res.Candidate),
		logger.Int("records", len(res.Items)),
		logger.Int("rejected", len(res.Rejected)),
	)
	return Batch{Endpoint: res.Candidate, Records: res.Items}, nil
}

// fetchRecords downloads and parses one feed, caps it at limit entries in
// feed order and maps them to records. A feed that yields no valid record
// is reported as ErrFeedEmpty.
func fetchRecords(
	ctx context.Context,
	fetcher Fetcher,
	feedURL string,
	limit int,
	toRecord func(Entry) content.Record,
) ([]content.Record, error) {
	body, err := fetcher.Fetch(ctx, feedURL)
	if err != nil {
		var fe *FeedError
		if errors.As(err, &fe) {
			return nil, err
		}
		return nil, unreachable(feedURL, err)
	}

	entries, err := ParseFeed(ctx, body)
	if err != nil {
		return nil, parseFailure(feedURL, err)
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	records := make([]content.Record, 0, len(entries))
	for _, e := range entries {
		rec := toRecord(e)
		if !rec.Valid() {
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, empty(feedURL)
	}
	return records, nil
}

// toPublicURL rewrites a mirror link such as
// https://nitter.net/alice/status/1#m to https://twitter.com/alice/status/1#m
// so stored URLs do not depend on which mirror answered.
func toPublicURL(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		if strings.HasPrefix(link, "/") {
			return "https://" + publicMicroblogHost + link
		}
		return ""
	}
	u.Scheme = "https"
	u.Host = publicMicroblogHost
	u.User = nil
	return u.String()
}

func parseHTTPURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("missing host")
	}
	return u, nil
}

func blogLabel(host string) string {
	if sub, ok := strings.CutSuffix(host, ".tistory.com"); ok && sub != "" {
		return "Tistory (" + sub + ")"
	}
	return "Blog (" + host + ")"
}
