package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/iksnae/context-capture/internal"
)

// attachment is one registered page agent
type attachment struct {
	agent    *PageAgent
	detached chan struct{}
}

// LocalBridge routes requests to page agents in the same process
type LocalBridge struct {
	mu     sync.RWMutex
	agents map[string]*attachment
}

// NewLocalBridge creates an empty bridge
func NewLocalBridge() *LocalBridge {
	return &LocalBridge{agents: make(map[string]*attachment)}
}

// Attach registers the agent serving tabID, replacing any previous one
func (b *LocalBridge) Attach(tabID string, agent *PageAgent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.agents[tabID]; ok {
		close(old.detached)
	}
	b.agents[tabID] = &attachment{agent: agent, detached: make(chan struct{})}
}

// Detach removes the agent for tabID. In-flight requests fail with a
// transport error.
func (b *LocalBridge) Detach(tabID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.agents[tabID]; ok {
		close(old.detached)
		delete(b.agents, tabID)
	}
}

// RequestExtraction sends getConversation to the tab's agent
func (b *LocalBridge) RequestExtraction(ctx context.Context, tab Tab) (*Response, error) {
	return b.Send(ctx, tab, Request{Action: ActionGetConversation})
}

// Send delivers req to the tab's agent and waits for its single reply
func (b *LocalBridge) Send(ctx context.Context, tab Tab, req Request) (*Response, error) {
	b.mu.RLock()
	att, ok := b.agents[tab.ID]
	b.mu.RUnlock()
	if !ok {
		return nil, &internal.TransportError{TabID: tab.ID, Err: ErrNoAgent}
	}

	slot := newReplySlot()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slot.reply(Response{Error: fmt.Sprintf("page agent failed: %v", r)})
			}
		}()
		slot.reply(att.agent.Handle(ctx, req))
	}()

	select {
	case resp := <-slot.ch:
		return &resp, nil
	case <-att.detached:
		return nil, &internal.TransportError{TabID: tab.ID, Err: ErrDetached}
	case <-ctx.Done():
		return nil, &internal.TransportError{TabID: tab.ID, Err: ctx.Err()}
	}
}

// replySlot accepts exactly one reply; later replies are dropped
type replySlot struct {
	once sync.Once
	ch   chan Response
}

func newReplySlot() *replySlot {
	return &replySlot{ch: make(chan Response, 1)}
}

func (s *replySlot) reply(resp Response) bool {
	sent := false
	s.once.Do(func() {
		s.ch <- resp
		sent = true
	})
	return sent
}
