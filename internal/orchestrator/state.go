// Package orchestrator sequences extraction, processing and the actions
// on a processed context. Transitions are a pure function of the current
// State and an Event; side effects are described by the returned Effect
// and carried out by a Dispatcher.
package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/internal/backend"
	"github.com/iksnae/context-capture/internal/bridge"
)

// Phase is the orchestrator's position in the capture workflow
type Phase int

const (
	Idle Phase = iota
	Extracting
	Extracted
	Processing
	Processed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Extracting:
		return "extracting"
	case Extracted:
		return "extracted"
	case Processing:
		return "processing"
	case Processed:
		return "processed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Busy reports whether an extraction or processing run is in flight
func (p Phase) Busy() bool {
	return p == Extracting || p == Processing
}

// User-visible messages
const (
	MsgNoConversation  = "No conversation found. Please ensure you have an active chat open."
	MsgNoContent       = "No content to copy"
	MsgNoSystemPrompt  = "No system prompt available"
	MsgCopyFailed      = "Failed to copy to clipboard"
	MsgCopied          = "Copied!"
	MsgExtractTimedOut = "Extraction timed out. Reload the page and try again."
)

// Options tune the orchestrator
type Options struct {
	// APIBase is shown in processing errors
	APIBase string
	// Watchdog recovers a stuck Extracting or Processing phase after this
	// long. Zero disables it.
	Watchdog time.Duration
}

// State is everything the popup renders. It is a value: Next returns a
// new State and never modifies the receiver's conversation or context.
type State struct {
	Phase        Phase
	Tab          bridge.Tab
	Provider     internal.Provider
	Conversation *internal.Conversation
	Processed    *internal.ProcessedContext
	Error        string
	Notice       string
	// Seq identifies the most recent extraction or processing run.
	// Completions carrying another Seq are stale and ignored.
	Seq     uint64
	Options Options
}

// NewState returns the initial Idle state
func NewState(opts Options) State {
	if opts.APIBase == "" {
		opts.APIBase = backend.DefaultBaseURL
	}
	return State{Phase: Idle, Provider: internal.ProviderUnknown, Options: opts}
}

// Next applies ev and returns the following state and the effect to run,
// or a nil Effect when there is nothing to do
func (s State) Next(ev Event) (State, Effect) {
	switch e := ev.(type) {
	case StartExtraction:
		return s.startExtraction()
	case ExtractionCompleted:
		return s.extractionCompleted(e), nil
	case StartProcessing:
		return s.startProcessing()
	case ProcessingCompleted:
		return s.processingCompleted(e), nil
	case Copy:
		return s.copy(e)
	case CopyCompleted:
		return s.copyCompleted(e), nil
	case OpenChat:
		return s.openChat()
	case OpenCompleted:
		return s.openCompleted(e), nil
	case TimedOut:
		return s.timedOut(e), nil
	default:
		return s, nil
	}
}

func (s State) startExtraction() (State, Effect) {
	if s.Phase.Busy() {
		internal.LogDebug("extraction rejected while %s", s.Phase)
		return s, nil
	}
	s.Phase = Extracting
	s.Seq++
	s.Error = ""
	s.Notice = ""
	return s, ExtractEffect{Seq: s.Seq}
}

func (s State) extractionCompleted(e ExtractionCompleted) State {
	if s.Phase != Extracting || e.Seq != s.Seq {
		return s
	}
	s.Tab = e.Tab
	s.Provider = e.Provider

	switch {
	case e.Err != nil:
		s.Phase = Idle
		s.Conversation = nil
		s.Processed = nil
		s.Error = fmt.Sprintf("Failed to extract: %v", e.Err)
	case e.Conversation.IsEmpty():
		s.Phase = Idle
		s.Conversation = nil
		s.Processed = nil
		s.Error = MsgNoConversation
	default:
		s.Phase = Extracted
		s.Conversation = e.Conversation
		s.Processed = nil
		s.Error = ""
	}
	return s
}

func (s State) startProcessing() (State, Effect) {
	if s.Phase != Extracted {
		return s, nil
	}
	req, err := backend.NewRequest(s.Conversation)
	if err != nil {
		s.Error = MsgNoConversation
		return s, nil
	}
	s.Phase = Processing
	s.Seq++
	s.Error = ""
	s.Notice = ""
	return s, ProcessEffect{Seq: s.Seq, Request: req}
}

func (s State) processingCompleted(e ProcessingCompleted) State {
	if s.Phase != Processing || e.Seq != s.Seq {
		return s
	}
	if e.Err != nil {
		s.Phase = Extracted
		s.Error = fmt.Sprintf("Failed to process: %v. Is backend running on %s?", e.Err, s.Options.APIBase)
		return s
	}
	s.Phase = Processed
	s.Processed = e.Context
	s.Error = ""
	return s
}

func (s State) copy(e Copy) (State, Effect) {
	if s.Phase != Processed || s.Processed == nil {
		return s, nil
	}
	s.Notice = ""

	var text string
	switch e.Target {
	case CopySystemPrompt:
		text = s.Processed.RenderedContext.SystemPrompt
		if strings.TrimSpace(text) == "" {
			s.Error = MsgNoSystemPrompt
			return s, nil
		}
	case CopyFullContext:
		text = s.Processed.FullContext()
	case CopyJSON:
		out, err := s.Processed.JSON()
		if err != nil {
			s.Error = err.Error()
			return s, nil
		}
		text = out
	}

	if strings.TrimSpace(text) == "" {
		s.Error = MsgNoContent
		return s, nil
	}
	s.Error = ""
	return s, CopyEffect{Target: e.Target, Text: text}
}

func (s State) copyCompleted(e CopyCompleted) State {
	if e.Err != nil {
		internal.LogWarn("copy %s failed: %v", e.Target, e.Err)
		s.Error = MsgCopyFailed
		s.Notice = ""
		return s
	}
	s.Error = ""
	s.Notice = MsgCopied
	return s
}

func (s State) openChat() (State, Effect) {
	if s.Phase != Processed || s.Conversation == nil {
		return s, nil
	}
	s.Notice = ""
	return s, OpenEffect{URL: s.Conversation.Provider.NewChatURL()}
}

func (s State) openCompleted(e OpenCompleted) State {
	if e.Err != nil {
		s.Error = fmt.Sprintf("Failed to open chat: %v", e.Err)
		return s
	}
	s.Error = ""
	return s
}

func (s State) timedOut(e TimedOut) State {
	if e.Seq != s.Seq {
		return s
	}
	switch s.Phase {
	case Extracting:
		s.Phase = Idle
		s.Conversation = nil
		s.Processed = nil
		s.Error = MsgExtractTimedOut
	case Processing:
		s.Phase = Extracted
		s.Error = fmt.Sprintf("Failed to process: timed out after %s. Is backend running on %s?", s.Options.Watchdog, s.Options.APIBase)
	}
	return s
}
