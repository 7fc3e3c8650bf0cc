package feed_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Movie-Song/sns-contents-tracker/internal/config"
	"github.com/Movie-Song/sns-contents-tracker/internal/fallback"
	"github.com/Movie-Song/sns-contents-tracker/internal/feed"
)

const mirrorFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>alice / Twitter</title>
    <item>
      <title>hello world</title>
      <link>https://nitter.poast.org/alice/status/1745#m</link>
      <pubDate>Fri, 05 Jan 2024 09:15:30 GMT</pubDate>
    </item>
    <item>
      <title>second tweet</title>
      <link>https://nitter.poast.org/alice/status/1700#m</link>
      <pubDate>Thu, 04 Jan 2024 09:15:30 GMT</pubDate>
    </item>
  </channel>
</rss>`

// fakeFetcher serves canned bodies or errors by URL and records the call order.
type fakeFetcher struct {
	bodies map[string]string
	errs   map[string]error
	calls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	body, ok := f.bodies[url]
	if !ok {
		return "", errors.New("no such host")
	}
	return body, nil
}

func TestNewSource(t *testing.T) {
	deps := feed.Deps{Fetcher: &fakeFetcher{}}

	blog, err := feed.NewSource(config.Source{Kind: config.KindBlog, URL: "https://pro-editor.tistory.com/"}, deps)
	require.NoError(t, err)
	assert.Equal(t, "Tistory (pro-editor)", blog.Name())
	assert.Equal(t, "https://pro-editor.tistory.com/rss", blog.(*feed.Blog).FeedURL())

	named, err := feed.NewSource(config.Source{Kind: config.KindBlog, Name: "Dev Log", URL: "https://b.com"}, deps)
	require.NoError(t, err)
	assert.Equal(t, "Dev Log", named.Name())

	generic, err := feed.NewSource(config.Source{Kind: config.KindBlog, URL: "https://b.com"}, deps)
	require.NoError(t, err)
	assert.Equal(t, "Blog (b.com)", generic.Name())

	mb, err := feed.NewSource(config.Source{
		Kind:      config.KindMicroblog,
		Handle:    "@alice",
		Instances: []string{"https://nitter.net/", "https://nitter.cz"},
	}, deps)
	require.NoError(t, err)
	assert.Equal(t, "Twitter (@alice)", mb.Name())
	assert.Equal(t, []string{"https://nitter.net/alice/rss", "https://nitter.cz/alice/rss"}, mb.(*feed.Microblog).Candidates())
}

func TestNewSource_Invalid(t *testing.T) {
	deps := feed.Deps{Fetcher: &fakeFetcher{}}
	bad := []config.Source{
		{Kind: "podcast", URL: "https://b.com"},
		{Kind: config.KindBlog, URL: ""},
		{Kind: config.KindBlog, URL: "file:///etc/passwd"},
		{Kind: config.KindMicroblog, Handle: "@", Instances: []string{"https://nitter.net"}},
		{Kind: config.KindMicroblog, Handle: "alice"},
		{Kind: config.KindMicroblog, Handle: "alice", Instances: []string{"nitter.net"}},
	}
	for _, src := range bad {
		_, err := feed.NewSource(src, deps)
		assert.ErrorIs(t, err, feed.ErrInvalidSource, "source %+v", src)
	}
}

func TestBlogFetch(t *testing.T) {
	fetcher := &fakeFetcher{bodies: map[string]string{"https://pro-editor.tistory.com/rss": rssFixture}}
	blog, err := feed.NewBlog("", "https://pro-editor.tistory.com", feed.Deps{Fetcher: fetcher})
	require.NoError(t, err)

	batch, err := blog.Fetch(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, batch.Records, 2)

	rec := batch.Records[0]
	assert.Equal(t, "First Article", rec.Title)
	assert.Equal(t, "https://pro-editor.tistory.com/2", rec.URL)
	assert.Equal(t, "2024-01-05", rec.Timestamp())
	assert.Equal(t, "Tistory (pro-editor)", rec.Platform)
	assert.False(t, rec.HasTime)
	assert.Equal(t, "https://pro-editor.tistory.com/rss", batch.Endpoint)
}

func TestBlogFetch_Limit(t *testing.T) {
	fetcher := &fakeFetcher{bodies: map[string]string{"https://b.com/rss": rssFixture}}
	blog, err := feed.NewBlog("", "https://b.com", feed.Deps{Fetcher: fetcher})
	require.NoError(t, err)

	batch, err := blog.Fetch(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)
	assert.Equal(t, "First Article", batch.Records[0].Title, "newest-first order is kept")
}

func TestBlogFetch_Failures(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *fakeFetcher
		want    error
	}{
		{
			name:    "unreachable",
			fetcher: &fakeFetcher{},
			want:    feed.ErrFeedUnreachable,
		},
		{
			name:    "malformed",
			fetcher: &fakeFetcher{bodies: map[string]string{"https://b.com/rss": "not a feed"}},
			want:    feed.ErrFeedParse,
		},
		{
			name:    "empty",
			fetcher: &fakeFetcher{bodies: map[string]string{"https://b.com/rss": emptyFeedFixture}},
			want:    feed.ErrFeedEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blog, err := feed.NewBlog("", "https://b.com", feed.Deps{Fetcher: tt.fetcher})
			require.NoError(t, err)

			batch, err := blog.Fetch(context.Background(), 10)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, batch.Records)
		})
	}
}

func TestMicroblogFetch_FallsBackAndRewritesURLs(t *testing.T) {
	fetcher := &fakeFetcher{
		bodies: map[string]string{
			"https://nitter.net/alice/rss":       emptyFeedFixture,
			"https://nitter.poast.org/alice/rss": mirrorFixture,
			"https://nitter.cz/alice/rss":        mirrorFixture,
		},
		errs: map[string]error{
			"https://nitter.privacydev.net/alice/rss": errors.New("dial tcp: i/o timeout"),
		},
	}
	mb, err := feed.NewMicroblog("alice", []string{
		"https://nitter.privacydev.net",
		"https://nitter.net",
		"https://nitter.poast.org",
		"https://nitter.cz",
	}, feed.Deps{Fetcher: fetcher})
	require.NoError(t, err)

	batch, err := mb.Fetch(context.Background(), 50)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://nitter.privacydev.net/alice/rss",
		"https://nitter.net/alice/rss",
		"https://nitter.poast.org/alice/rss",
	}, fetcher.calls)
	assert.Equal(t, "https://nitter.poast.org/alice/rss", batch.Endpoint)

	require.Len(t, batch.Records, 2)
	rec := batch.Records[0]
	assert.Equal(t, "https://twitter.com/alice/status/1745#m", rec.URL)
	assert.Equal(t, "hello world", rec.Title)
	assert.Equal(t, "Twitter (@alice)", rec.Platform)
	assert.Equal(t, "2024-01-05T09:15:30", rec.Timestamp())
}

func TestMicroblogFetch_AllMirrorsFail(t *testing.T) {
	fetcher := &fakeFetcher{
		bodies: map[string]string{
			"https://nitter.net/alice/rss": emptyFeedFixture,
			"https://nitter.cz/alice/rss":  "<html>rate limited</html>",
		},
	}
	mb, err := feed.NewMicroblog("alice", []string{
		"https://nitter.privacydev.net",
		"https://nitter.net",
		"https://nitter.cz",
	}, feed.Deps{Fetcher: fetcher})
	require.NoError(t, err)

	batch, err := mb.Fetch(context.Background(), 50)
	require.Error(t, err)
	assert.Empty(t, batch.Records)
	assert.Len(t, fetcher.calls, 3)

	var exhausted *fallback.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Len(t, exhausted.Attempts, 3)
	assert.ErrorIs(t, exhausted.Attempts[0].Err, feed.ErrFeedUnreachable)
	assert.ErrorIs(t, exhausted.Attempts[1].Err, feed.ErrFeedEmpty)
	assert.ErrorIs(t, err, feed.ErrFeedParse, "last failure is surfaced")
	assert.Contains(t, err.Error(), "@alice")
}
