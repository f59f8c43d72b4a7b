// Package bridge carries extraction requests from the orchestrating side
// into the page context that owns a document, and the reply back.
package bridge

import (
	"context"
	"encoding/json"

	"github.com/iksnae/context-capture/internal"
	"github.com/pkg/errors"
)

// ActionGetConversation asks the page agent to extract its conversation
const ActionGetConversation = "getConversation"

var (
	// ErrNoAgent means no page agent is listening for the tab
	ErrNoAgent = errors.New("no page agent for tab")
	// ErrDetached means the page agent went away before replying
	ErrDetached = errors.New("page agent detached before replying")
)

// Request is a message sent to a page agent
type Request struct {
	Action string `json:"action"`
}

// Response is a page agent's reply: a Conversation, or an error when the
// extraction could not run at all
type Response struct {
	Conversation *internal.Conversation
	Error        string
}

// Tab is an addressable page context
type Tab struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type errorReply struct {
	Error string `json:"error"`
}

// MarshalJSON encodes the conversation, or {"error": ...}
func (r Response) MarshalJSON() ([]byte, error) {
	if r.Conversation == nil {
		return json.Marshal(errorReply{Error: r.Error})
	}
	return json.Marshal(r.Conversation)
}

// UnmarshalJSON tells the two reply shapes apart. A conversation may carry
// its own "error" field, so the presence of conversation keys decides.
func (r *Response) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return errors.Wrap(err, "decode reply")
	}

	_, hasProvider := fields["provider"]
	_, hasMessages := fields["messages"]
	if !hasProvider && !hasMessages {
		var reply errorReply
		if err := json.Unmarshal(data, &reply); err != nil {
			return errors.Wrap(err, "decode error reply")
		}
		if reply.Error == "" {
			reply.Error = "empty reply"
		}
		*r = Response{Error: reply.Error}
		return nil
	}

	var conv internal.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return errors.Wrap(err, "decode conversation")
	}
	if conv.Messages == nil {
		conv.Messages = []internal.Message{}
	}
	*r = Response{Conversation: &conv}
	return nil
}

// Bridge delivers an extraction request to a tab. It enforces no timeout
// of its own; only ctx bounds the wait.
type Bridge interface {
	RequestExtraction(ctx context.Context, tab Tab) (*Response, error)
}
