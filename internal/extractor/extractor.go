// Package extractor turns a chat page into a Conversation. Each provider
// is a profile of selectors and a role heuristic over the shared dom.Node
// capability; the walk itself is common to all of them.
package extractor

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/internal/dom"
)

// NoConversationFound is the Conversation error when the page has no
// conversation container
const NoConversationFound = "No conversation found"

// UnsupportedProvider is the Conversation error for pages no profile handles
const UnsupportedProvider = "Unsupported provider"

// Extractor produces a Conversation from a parsed page
type Extractor interface {
	Provider() internal.Provider
	Extract(ctx context.Context, doc dom.Node, loc *url.URL) (*internal.Conversation, error)
}

// SessionResolver supplies the session id for a page
type SessionResolver interface {
	Resolve(ctx context.Context, provider internal.Provider, loc *url.URL) string
}

// Option configures an extractor
type Option func(*extractor)

// WithClock overrides the capture timestamp source
func WithClock(now func() time.Time) Option {
	return func(e *extractor) { e.now = now }
}

// profile describes where a provider keeps its conversation
type profile struct {
	provider   internal.Provider
	containers []string
	// scanDocument lets the turn selectors run over the whole document
	// when no container matches. Used only where turns are unambiguous.
	scanDocument bool
	turns        []string
	content      []string
	role         func(turn dom.Node) internal.Role
}

type extractor struct {
	profile    profile
	sessions   SessionResolver
	normalizer *internal.Normalizer
	now        func() time.Time
}

func newExtractor(p profile, sessions SessionResolver, opts ...Option) *extractor {
	e := &extractor{
		profile:    p,
		sessions:   sessions,
		normalizer: internal.NewNormalizer(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// For returns the extractor for provider
func For(provider internal.Provider, sessions SessionResolver, opts ...Option) Extractor {
	switch provider {
	case internal.ProviderChatGPT:
		return NewChatGPT(sessions, opts...)
	case internal.ProviderClaude:
		return NewClaude(sessions, opts...)
	case internal.ProviderGemini:
		return NewGemini(sessions, opts...)
	default:
		return newUnknown(opts...)
	}
}

func (e *extractor) Provider() internal.Provider {
	return e.profile.provider
}

// Extract walks the page. A panic anywhere in the walk is returned as an
// ExtractionError instead of escaping.
func (e *extractor) Extract(ctx context.Context, doc dom.Node, loc *url.URL) (conv *internal.Conversation, err error) {
	provider := e.profile.provider
	defer func() {
		if r := recover(); r != nil {
			conv = nil
			err = &internal.ExtractionError{Provider: provider, Err: fmt.Errorf("panic during extraction: %v", r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, &internal.ExtractionError{Provider: provider, Err: err}
	}

	source := ""
	if loc != nil {
		source = loc.String()
	}

	var turns []dom.Node
	if container, ok := e.container(doc); ok {
		turns = e.turnElements(container)
	} else if turns = e.documentTurns(doc); len(turns) == 0 {
		internal.LogDebug("%s: no conversation container on %s", provider, source)
		return internal.EmptyConversation(provider, NoConversationFound, e.now(), source), nil
	}

	raw := make([]internal.RawTurn, 0, len(turns))
	for _, turn := range turns {
		raw = append(raw, internal.RawTurn{
			Role:    e.profile.role(turn),
			Content: e.content(turn),
		})
	}
	messages := e.normalizer.NormalizeTurns(raw)
	internal.LogDebug("%s: %d turn elements, %d messages", provider, len(turns), len(messages))

	sessionID := e.sessions.Resolve(ctx, provider, loc)
	return internal.NewConversation(provider, sessionID, messages, e.now(), source), nil
}

// container returns the first node matching a container selector
func (e *extractor) container(doc dom.Node) (dom.Node, bool) {
	for _, sel := range e.profile.containers {
		if node, ok := doc.First(sel); ok {
			return node, true
		}
	}
	return nil, false
}

// turnElements tries the turn selectors in order until one matches
func (e *extractor) turnElements(container dom.Node) []dom.Node {
	for _, sel := range e.profile.turns {
		if nodes := container.FindOutermost(sel); len(nodes) > 0 {
			return nodes
		}
	}
	return nil
}

// documentTurns scans the whole document for turns when the profile allows it
func (e *extractor) documentTurns(doc dom.Node) []dom.Node {
	if !e.profile.scanDocument {
		return nil
	}
	return e.turnElements(doc)
}

// content reads the first matching content sub-element, else the whole turn
func (e *extractor) content(turn dom.Node) string {
	for _, sel := range e.profile.content {
		if node, ok := turn.First(sel); ok {
			return node.Text()
		}
	}
	return turn.Text()
}

// classContains reports whether the node's class attribute contains any fragment
func classContains(node dom.Node, fragments ...string) bool {
	class, ok := node.Attr("class")
	if !ok {
		return false
	}
	class = strings.ToLower(class)
	for _, f := range fragments {
		if strings.Contains(class, f) {
			return true
		}
	}
	return false
}

// unknownExtractor answers for pages outside every provider profile
type unknownExtractor struct {
	now func() time.Time
}

func newUnknown(opts ...Option) Extractor {
	e := &extractor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return &unknownExtractor{now: e.now}
}

func (u *unknownExtractor) Provider() internal.Provider {
	return internal.ProviderUnknown
}

func (u *unknownExtractor) Extract(_ context.Context, _ dom.Node, loc *url.URL) (*internal.Conversation, error) {
	source := ""
	if loc != nil {
		source = loc.String()
	}
	return internal.EmptyConversation(internal.ProviderUnknown, UnsupportedProvider, u.now(), source), nil
}
