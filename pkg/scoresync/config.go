package scoresync

import "github.com/himanishpuri/ScoreSync/internal/table"

type Config struct {
	CachePath    string
	Cache        Cache
	Logger       Logger
	HrefPrefixes []string
	SourceRoot   string
	SourceMount  string
}

type Option func(*Config)

// WithCachePath sets the SQLite file backing the build cache. Left empty,
// the cache goes to SCORESYNC_CACHE_PATH or .scoresync/cache.sqlite3.
func WithCachePath(path string) Option {
	return func(c *Config) {
		c.CachePath = path
	}
}

// WithCache replaces the SQLite cache, mostly for tests.
func WithCache(cache Cache) Option {
	return func(c *Config) {
		c.Cache = cache
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithHrefPrefixes sets the prefixes removed from notehead and tie hrefs
// before they are matched. An empty list keeps hrefs as they are.
func WithHrefPrefixes(prefixes ...string) Option {
	return func(c *Config) {
		c.HrefPrefixes = append([]string(nil), prefixes...)
	}
}

// WithSourceRoot sets the directory score sources are read from when
// resolving SVG links.
func WithSourceRoot(dir string) Option {
	return func(c *Config) {
		c.SourceRoot = dir
	}
}

// WithSourceMount sets the directory the renderer saw the sources under.
func WithSourceMount(prefix string) Option {
	return func(c *Config) {
		c.SourceMount = prefix
	}
}

func defaultConfig() *Config {
	return &Config{
		HrefPrefixes: append([]string(nil), table.DefaultHrefPrefixes...),
		SourceRoot:   ".",
		SourceMount:  "/work/",
	}
}
