package cmd

import (
	"context"
	"fmt"
	"net/url"

	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/internal/backend"
	"github.com/iksnae/context-capture/internal/bridge"
	"github.com/iksnae/context-capture/internal/extractor"
	"github.com/iksnae/context-capture/internal/session"
	"github.com/iksnae/context-capture/internal/settings"
)

// env holds the stores opened for one command run
type env struct {
	store    *internal.Storage
	sessions internal.KeyValueStore
	redis    *internal.RedisStore
}

// openEnv opens the sqlite store and, with --redis, the shared session store
func openEnv(ctx context.Context) (*env, error) {
	path := storePath
	if path == "" {
		paths, err := internal.DetectStoragePaths()
		if err != nil {
			return nil, fmt.Errorf("failed to detect storage paths: %w", err)
		}
		path = paths.StorePath
	}

	store, err := internal.OpenStorage(path)
	if err != nil {
		return nil, err
	}
	e := &env{store: store, sessions: store}

	if redisURL != "" {
		rs, err := internal.OpenRedisStore(ctx, redisURL, 0)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		e.redis = rs
		e.sessions = rs
	}
	return e, nil
}

func (e *env) Close() {
	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			internal.LogWarn("Failed to close redis: %v", err)
		}
	}
	if err := e.store.Close(); err != nil {
		internal.LogWarn("Failed to close store: %v", err)
	}
}

func (e *env) settings() *settings.Service {
	return settings.NewService(e.store)
}

// loadSettings reads the saved settings, applying --api-base
func (e *env) loadSettings(ctx context.Context) (settings.Settings, error) {
	s, err := e.settings().Load(ctx)
	if err != nil {
		return s, err
	}
	if apiBase != "" {
		s.APIBase = apiBase
	}
	return s, nil
}

func (e *env) resolver() (*session.Resolver, error) {
	scope, err := session.ParseKeyScope(keyScope)
	if err != nil {
		return nil, err
	}
	return session.NewResolver(e.sessions, session.WithKeyScope(scope)), nil
}

func (e *env) backendClient(ctx context.Context) (*backend.Client, settings.Settings, error) {
	s, err := e.loadSettings(ctx)
	if err != nil {
		return nil, s, err
	}
	return backend.NewClient(s.APIBase), s, nil
}

// pageLocation resolves the page URL and provider for a snapshot. An
// explicit provider wins; otherwise the URL decides.
func pageLocation(rawURL, providerName string) (*url.URL, internal.Provider, error) {
	provider := internal.ProviderUnknown
	if providerName != "" {
		provider = internal.ParseProvider(providerName)
		if provider == internal.ProviderUnknown {
			return nil, provider, fmt.Errorf("unknown provider %q (supported: chatgpt, claude, gemini)", providerName)
		}
	}
	if rawURL == "" {
		if provider == internal.ProviderUnknown {
			return nil, provider, fmt.Errorf("--url or --provider is required")
		}
		rawURL = provider.NewChatURL()
	}

	loc, err := url.Parse(rawURL)
	if err != nil {
		return nil, provider, fmt.Errorf("invalid page url: %w", err)
	}
	if provider == internal.ProviderUnknown {
		provider = internal.ClassifyURL(rawURL)
	}
	return loc, provider, nil
}

// fileAgent builds a page agent serving the HTML snapshot at path
func (e *env) fileAgent(path, rawURL, providerName string) (*bridge.PageAgent, error) {
	return e.documentAgent(bridge.FileDocument(path), rawURL, providerName)
}

// documentAgent builds a page agent over any document source
func (e *env) documentAgent(source bridge.DocumentSource, rawURL, providerName string) (*bridge.PageAgent, error) {
	loc, provider, err := pageLocation(rawURL, providerName)
	if err != nil {
		return nil, err
	}
	resolver, err := e.resolver()
	if err != nil {
		return nil, err
	}
	return bridge.NewPageAgent(loc, source, extractor.For(provider, resolver)), nil
}

// storedSessions lists the fallback session ids held by kv. The bool is
// false when the store cannot enumerate keys.
func storedSessions(ctx context.Context, kv internal.KeyValueStore) ([]internal.KeyValuePair, bool, error) {
	lister, ok := kv.(internal.KeyLister)
	if !ok {
		return nil, false, nil
	}
	pairs, err := lister.List(ctx, session.DefaultKey)
	return pairs, true, err
}
