package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/iksnae/context-capture/internal"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

// DefaultSubjectPrefix roots every bridge subject
const DefaultSubjectPrefix = "context-capture"

// ErrInvalidSubject is returned for tab ids or prefixes that would change
// the shape of a bridge subject
var ErrInvalidSubject = errors.New("invalid bridge subject")

// Subject returns the request subject for a tab. The tab id must be a
// single subject token; the prefix may span several tokens but carries no
// wildcards.
func Subject(prefix, tabID string) (string, error) {
	if !validToken(tabID) {
		return "", errors.Wrapf(ErrInvalidSubject, "tab id %q", tabID)
	}
	for _, token := range strings.Split(prefix, ".") {
		if !validToken(token) {
			return "", errors.Wrapf(ErrInvalidSubject, "prefix %q", prefix)
		}
	}
	return fmt.Sprintf("%s.tab.%s.%s", prefix, tabID, ActionGetConversation), nil
}

// validToken reports whether s is a non-empty literal subject token
func validToken(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsFunc(s, func(r rune) bool {
		return r == '.' || r == '*' || r == '>' || unicode.IsSpace(r)
	})
}

// Connect opens a NATS connection with reconnect logging
func Connect(natsURL string, opts ...nats.Option) (*nats.Conn, error) {
	base := []nats.Option{
		nats.Name("context-capture"),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				internal.LogWarn("nats disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			internal.LogInfo("nats reconnected")
		}),
	}
	nc, err := nats.Connect(natsURL, append(base, opts...)...)
	if err != nil {
		return nil, errors.Wrap(err, "nats connect")
	}
	return nc, nil
}

// NATSBridge reaches page agents in other processes over NATS request/reply
type NATSBridge struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSBridge creates a bridge publishing under prefix
func NewNATSBridge(nc *nats.Conn, prefix string) *NATSBridge {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSBridge{nc: nc, prefix: prefix}
}

// RequestExtraction sends getConversation to the tab's agent
func (b *NATSBridge) RequestExtraction(ctx context.Context, tab Tab) (*Response, error) {
	return b.Send(ctx, tab, Request{Action: ActionGetConversation})
}

// Send delivers req to the tab's agent. Only ctx bounds the wait.
func (b *NATSBridge) Send(ctx context.Context, tab Tab, req Request) (*Response, error) {
	subject, err := Subject(b.prefix, tab.ID)
	if err != nil {
		return nil, &internal.TransportError{TabID: tab.ID, Err: err}
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	msg, err := b.nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) {
			return nil, &internal.TransportError{TabID: tab.ID, Err: ErrNoAgent}
		}
		return nil, &internal.TransportError{TabID: tab.ID, Err: errors.Wrapf(err, "request %s", subject)}
	}

	var resp Response
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return nil, &internal.ParseError{Source: "bridge", Key: subject, Err: err}
	}
	return &resp, nil
}

// ServeNATS answers requests for tabID with agent until the subscription
// is drained or the connection closes
func ServeNATS(nc *nats.Conn, prefix, tabID string, agent *PageAgent) (*nats.Subscription, error) {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	subject, err := Subject(prefix, tabID)
	if err != nil {
		return nil, err
	}

	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		var resp Response
		var req Request
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			resp = Response{Error: fmt.Sprintf("invalid request: %v", err)}
		} else {
			resp = agent.Handle(context.Background(), req)
		}

		data, err := json.Marshal(resp)
		if err != nil {
			internal.LogError("failed to encode reply on %s: %v", subject, err)
			data, _ = json.Marshal(Response{Error: "failed to encode reply"})
		}
		if err := msg.Respond(data); err != nil {
			internal.LogWarn("failed to reply on %s: %v", subject, err)
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "subscribe %s", subject)
	}
	internal.LogInfo("page agent serving %s", subject)
	return sub, nil
}
