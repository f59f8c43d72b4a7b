// Package session resolves the session identifier attached to every
// extracted conversation.
package session

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iksnae/context-capture/internal"
)

// DefaultKey is the storage key holding the fallback session id
const DefaultKey = "agenticMemorySession"

// KeyScope selects how the fallback storage key is derived
type KeyScope int

const (
	// KeyScopeShared uses DefaultKey for every provider. Tabs on different
	// providers in the same browsing context share one fallback id.
	KeyScopeShared KeyScope = iota
	// KeyScopeProvider keys the fallback id by provider and page host
	KeyScopeProvider
)

func (s KeyScope) String() string {
	switch s {
	case KeyScopeProvider:
		return "provider"
	default:
		return "shared"
	}
}

// ParseKeyScope parses "shared" or "provider"
func ParseKeyScope(s string) (KeyScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "shared":
		return KeyScopeShared, nil
	case "provider":
		return KeyScopeProvider, nil
	default:
		return KeyScopeShared, fmt.Errorf("unknown key scope %q (want shared or provider)", s)
	}
}

var (
	chatGPTPath = regexp.MustCompile(`/c/([^/]+)`)
	nativeID    = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Resolver derives or persists the session id for a page
type Resolver struct {
	store  internal.KeyValueStore
	scope  KeyScope
	now    func() time.Time
	suffix func() string
}

// Option configures a Resolver
type Option func(*Resolver)

// WithKeyScope selects the fallback key scope
func WithKeyScope(scope KeyScope) Option {
	return func(r *Resolver) { r.scope = scope }
}

// WithClock overrides the clock used for generated ids
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithSuffix overrides the random suffix source for generated ids
func WithSuffix(suffix func() string) Option {
	return func(r *Resolver) { r.suffix = suffix }
}

// NewResolver creates a Resolver over store
func NewResolver(store internal.KeyValueStore, opts ...Option) *Resolver {
	r := &Resolver{
		store:  store,
		scope:  KeyScopeShared,
		now:    time.Now,
		suffix: randomSuffix,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the session id for a page. A provider-native id in the
// URL wins; otherwise the stored fallback id is returned, generating and
// persisting one on first use. Storage failures are logged and yield an
// id that is not persisted.
func (r *Resolver) Resolve(ctx context.Context, provider internal.Provider, loc *url.URL) string {
	if id, ok := NativeID(provider, loc); ok {
		return id
	}

	key := r.Key(provider, loc)
	stored, ok, err := r.store.Get(ctx, key)
	if err != nil {
		internal.LogWarn("Failed to read session id %s: %v", key, err)
		return r.Generate(provider)
	}
	if ok && stored != "" {
		return stored
	}

	id := r.Generate(provider)
	if err := r.store.Set(ctx, key, id); err != nil {
		internal.LogWarn("Failed to persist session id %s: %v", key, err)
	} else {
		internal.LogDebug("Generated session id %s", id)
	}
	return id
}

// Key returns the storage key used for the fallback id
func (r *Resolver) Key(provider internal.Provider, loc *url.URL) string {
	if r.scope != KeyScopeProvider {
		return DefaultKey
	}
	host := ""
	if loc != nil {
		host = loc.Hostname()
	}
	return fmt.Sprintf("%s:%s:%s", DefaultKey, provider, host)
}

// Generate creates a new id of the form <provider>-<unix millis>-<suffix>
func (r *Resolver) Generate(provider internal.Provider) string {
	return fmt.Sprintf("%s-%d-%s", provider, r.now().UnixMilli(), r.suffix())
}

// NativeID extracts the provider's own conversation id from the URL.
// Only ChatGPT exposes one, as the /c/<id> path segment.
func NativeID(provider internal.Provider, loc *url.URL) (string, bool) {
	if provider != internal.ProviderChatGPT || loc == nil {
		return "", false
	}
	m := chatGPTPath.FindStringSubmatch(loc.Path)
	if m == nil || !nativeID.MatchString(m[1]) {
		return "", false
	}
	return m[1], true
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}
