package bridge

import (
	"context"
	"fmt"
	"net/url"

	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/internal/dom"
	"github.com/iksnae/context-capture/internal/extractor"
)

// DocumentSource yields the current page document. It is called per
// request so a live page is read as it is at capture time.
type DocumentSource func(ctx context.Context) (dom.Node, error)

// StaticDocument serves one already-parsed document
func StaticDocument(doc dom.Node) DocumentSource {
	return func(context.Context) (dom.Node, error) {
		return doc, nil
	}
}

// FileDocument re-reads an HTML snapshot on every request
func FileDocument(path string) DocumentSource {
	return func(context.Context) (dom.Node, error) {
		return dom.Load(path)
	}
}

// PageAgent answers extraction requests for one page
type PageAgent struct {
	loc       *url.URL
	source    DocumentSource
	extractor extractor.Extractor
}

// NewPageAgent creates a page agent for the page at loc
func NewPageAgent(loc *url.URL, source DocumentSource, ext extractor.Extractor) *PageAgent {
	return &PageAgent{loc: loc, source: source, extractor: ext}
}

// URL returns the page location
func (a *PageAgent) URL() *url.URL {
	return a.loc
}

// Provider returns the provider the agent extracts for
func (a *PageAgent) Provider() internal.Provider {
	return a.extractor.Provider()
}

// Handle answers a request. It always returns exactly one Response and
// never panics: extraction failures become error replies.
func (a *PageAgent) Handle(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			internal.LogError("page agent panic: %v", r)
			resp = Response{Error: fmt.Sprintf("page agent failed: %v", r)}
		}
	}()

	switch req.Action {
	case ActionGetConversation:
		return a.getConversation(ctx)
	default:
		return Response{Error: fmt.Sprintf("unknown action %q", req.Action)}
	}
}

func (a *PageAgent) getConversation(ctx context.Context) Response {
	doc, err := a.source(ctx)
	if err != nil {
		internal.LogWarn("page agent could not read document: %v", err)
		return Response{Error: fmt.Sprintf("failed to read page: %v", err)}
	}

	conv, err := a.extractor.Extract(ctx, doc, a.loc)
	if err != nil {
		internal.LogWarn("extraction failed: %v", err)
		return Response{Error: err.Error()}
	}
	return Response{Conversation: conv}
}
