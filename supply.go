package main

import (
	"net/http"
	"strings"

	"github.com/Seednode/wordwolf/games/wordwolf"
	"github.com/Seednode/wordwolf/words"
)

// newGenerator returns nil when generation is disabled or no key is
// configured, in which case every request is served from the fallback pool.
func newGenerator(cfg *Config) words.Generator {
	key := cfg.resolvedAPIKey()
	if cfg.provider == providerNone || strings.TrimSpace(key) == "" {
		return nil
	}

	client := &http.Client{Timeout: cfg.generateTimeout}

	switch cfg.provider {
	case providerOpenAI:
		return words.NewOpenAI(words.OpenAIConfig{
			APIKey:     key,
			Model:      cfg.model,
			HTTPClient: client,
		})
	default:
		return words.NewGemini(words.GeminiConfig{
			APIKey:     key,
			Model:      cfg.model,
			HTTPClient: client,
		})
	}
}

// newWordService builds the in-process word supply. The returned func
// releases the sqlite cache when one is configured.
func newWordService(cfg *Config) (*words.Service, func() error, error) {
	var (
		cache   words.Cache = words.NewMemoryCache()
		release             = func() error { return nil }
	)

	if cfg.cacheDB != "" {
		db, err := words.OpenSQLiteCache(cfg.cacheDB)
		if err != nil {
			return nil, nil, err
		}
		cache, release = db, db.Close

		logf(cfg, "WORDS: Caching generated batches in %s", cfg.cacheDB)
	}

	gen := newGenerator(cfg)
	if gen == nil {
		logf(cfg, "WORDS: No word generator configured, serving fallback pairs only")
	} else {
		logf(cfg, "WORDS: Generating word pairs with %s", cfg.provider)
	}

	svc := words.NewService(
		words.WithCache(cache),
		words.WithGenerator(gen),
		words.WithTimeout(cfg.generateTimeout),
		words.WithLogger(func(format string, args ...any) {
			logf(cfg, format, args...)
		}),
	)

	return svc, release, nil
}

// gameWords picks the word source for game sessions: a remote server when
// --words-url is set, the local service otherwise.
func gameWords(cfg *Config, svc *words.Service) wordwolf.WordSource {
	if cfg.wordsURL != "" {
		logf(cfg, "WORDS: Fetching word pairs from %s", cfg.wordsURL)
		return words.NewClient(cfg.wordsURL, &http.Client{Timeout: cfg.generateTimeout})
	}
	return svc
}
