package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points Load at a scratch directory and clears every variable it reads.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	prev := envFile
	envFile = filepath.Join(dir, ".env")
	t.Cleanup(func() { envFile = prev })

	for _, k := range []string{
		"NOTION_API_KEY", "DATABASE_ID", "CONTENT_STORE", "SQLITE_PATH",
		"LOG_LEVEL", "NITTER_INSTANCES", "BLOG_URLS", "TWITTER_USERNAMES",
	} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadDefaults()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Limit)
	assert.Equal(t, BackendNotion, cfg.Store.Backend)
	assert.Equal(t, "2022-06-28", cfg.Store.Notion.Version)
	assert.Len(t, cfg.NitterInstances, 5)
	assert.Equal(t, "https://nitter.privacydev.net", cfg.NitterInstances[0])
	assert.Empty(t, cfg.Sources)
}

func TestHTTPTimeoutDuration(t *testing.T) {
	cfg := &Config{HTTPTimeout: "10s"}
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeoutDuration())

	cfg.HTTPTimeout = "invalid"
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeoutDuration())
}

func TestEnabledSourcesInheritsInstances(t *testing.T) {
	cfg := &Config{
		NitterInstances: []string{"https://n1", "https://n2"},
		Sources: []Source{
			{Kind: KindBlog, URL: "https://a.com"},
			{Kind: KindBlog, URL: "https://off.com", Disabled: true},
			{Kind: KindMicroblog, Handle: "alice"},
			{Kind: KindMicroblog, Handle: "bob", Instances: []string{"https://own"}},
		},
	}

	enabled := cfg.EnabledSources()
	require.Len(t, enabled, 3)
	assert.Equal(t, "https://a.com", enabled[0].URL)
	assert.Equal(t, []string{"https://n1", "https://n2"}, enabled[1].Instances)
	assert.Equal(t, []string{"https://own"}, enabled[2].Instances)

	enabled[1].Instances[0] = "mutated"
	assert.Equal(t, "https://n1", cfg.NitterInstances[0], "inherited list must be a copy")
}

func TestLoadFromEnv(t *testing.T) {
	dir := isolate(t)
	t.Setenv("NOTION_API_KEY", "secret")
	t.Setenv("DATABASE_ID", "db123")
	t.Setenv("BLOG_URLS", "https://pro-editor.tistory.com, https://other.tistory.com/,")
	t.Setenv("TWITTER_USERNAMES", "@alice,bob")
	t.Setenv("NITTER_INSTANCES", "https://mirror.one")

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Store.Notion.APIKey)
	assert.Equal(t, "db123", cfg.Store.Notion.DatabaseID)

	sources := cfg.EnabledSources()
	require.Len(t, sources, 4)
	assert.Equal(t, Source{Kind: KindBlog, URL: "https://pro-editor.tistory.com"}, sources[0])
	assert.Equal(t, "https://other.tistory.com/", sources[1].URL)
	assert.Equal(t, "@alice", sources[2].Handle)
	assert.Equal(t, []string{"https://mirror.one"}, sources[3].Instances)
	require.NoError(t, cfg.RequireSources())
}

func TestLoadFromFile(t *testing.T) {
	dir := isolate(t)
	cfgPath := filepath.Join(dir, "config.yaml")

	content := `limit: 20
fetch_concurrency: 2
store:
  notion:
    api_key: from-file
    database_id: db-file
sources:
  - kind: blog
    name: Tistory
    url: https://pro-editor.tistory.com
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	t.Setenv("TWITTER_USERNAMES", "carol")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Limit)
	assert.Equal(t, 2, cfg.FetchConcurrency)
	assert.Equal(t, "from-file", cfg.Store.Notion.APIKey)
	assert.Equal(t, "https://api.notion.com", cfg.Store.Notion.BaseURL, "defaults survive partial overlay")
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "Tistory", cfg.Sources[0].Name)
	assert.Equal(t, "carol", cfg.Sources[1].Handle)
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(envFile, []byte("NOTION_API_KEY=dotenv-key\nDATABASE_ID=dotenv-db\n"), 0o644))
	// godotenv never overrides variables that are already set, even to "".
	require.NoError(t, os.Unsetenv("NOTION_API_KEY"))
	require.NoError(t, os.Unsetenv("DATABASE_ID"))
	t.Cleanup(func() {
		os.Unsetenv("NOTION_API_KEY")
		os.Unsetenv("DATABASE_ID")
	})

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.Store.Notion.APIKey)
	assert.Equal(t, "dotenv-db", cfg.Store.Notion.DatabaseID)
}

func TestLoadMissingCredentials(t *testing.T) {
	dir := isolate(t)
	t.Setenv("DATABASE_ID", "db123")

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, ErrConfigMissing)
	assert.Contains(t, err.Error(), "NOTION_API_KEY")
	assert.NotContains(t, err.Error(), "DATABASE_ID")
}

func TestLoadSQLiteDefaultsPath(t *testing.T) {
	dir := isolate(t)
	t.Setenv("CONTENT_STORE", "SQLite")

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, DataPath(), cfg.Store.SQLitePath)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := isolate(t)
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("limit: [oops"), 0o644))

	_, err := Load(cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestRequireSources(t *testing.T) {
	cfg := &Config{Sources: []Source{{Kind: KindBlog, Disabled: true}}}
	assert.ErrorIs(t, cfg.RequireSources(), ErrConfigMissing)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Limit:            10,
			FetchConcurrency: 1,
			Store: StoreConfig{
				Backend: BackendNotion,
				Notion:  NotionConfig{APIKey: "k", DatabaseID: "d"},
			},
		}
	}

	require.NoError(t, Validate(valid()))

	cfg := valid()
	cfg.Store.Notion.DatabaseID = ""
	assert.ErrorIs(t, Validate(cfg), ErrConfigMissing)

	cfg = valid()
	cfg.Store.Backend = "mongo"
	assert.ErrorIs(t, Validate(cfg), ErrConfigInvalid)

	cfg = valid()
	cfg.Limit = 0
	assert.ErrorIs(t, Validate(cfg), ErrConfigInvalid)

	cfg = valid()
	cfg.FetchConcurrency = -1
	assert.ErrorIs(t, Validate(cfg), ErrConfigInvalid)

	cfg = valid()
	cfg.Store = StoreConfig{Backend: BackendSQLite}
	assert.ErrorIs(t, Validate(cfg), ErrConfigMissing)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,, b ,"))
	assert.Empty(t, splitList(""))
}
