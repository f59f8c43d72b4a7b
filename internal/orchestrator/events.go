package orchestrator

import (
	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/internal/backend"
	"github.com/iksnae/context-capture/internal/bridge"
)

// Event is an input to State.Next
type Event interface {
	event()
}

// StartExtraction is the user asking to capture the active tab
type StartExtraction struct{}

// ExtractionCompleted reports the result of an ExtractEffect
type ExtractionCompleted struct {
	Seq          uint64
	Tab          bridge.Tab
	Provider     internal.Provider
	Conversation *internal.Conversation
	Err          error
}

// StartProcessing is the user asking to submit the extracted conversation
type StartProcessing struct{}

// ProcessingCompleted reports the result of a ProcessEffect
type ProcessingCompleted struct {
	Seq     uint64
	Context *internal.ProcessedContext
	Err     error
}

// Copy is the user asking to copy part of the processed context
type Copy struct {
	Target CopyTarget
}

// CopyCompleted reports the result of a CopyEffect
type CopyCompleted struct {
	Target CopyTarget
	Err    error
}

// OpenChat is the user asking to open a new chat with the provider
type OpenChat struct{}

// OpenCompleted reports the result of an OpenEffect
type OpenCompleted struct {
	URL string
	Err error
}

// TimedOut is raised by the watchdog for the run identified by Seq
type TimedOut struct {
	Seq uint64
}

func (StartExtraction) event()     {}
func (ExtractionCompleted) event() {}
func (StartProcessing) event()     {}
func (ProcessingCompleted) event() {}
func (Copy) event()                {}
func (CopyCompleted) event()       {}
func (OpenChat) event()            {}
func (OpenCompleted) event()       {}
func (TimedOut) event()            {}

// CopyTarget selects what a copy action puts on the clipboard
type CopyTarget int

const (
	CopySystemPrompt CopyTarget = iota
	CopyFullContext
	CopyJSON
)

func (t CopyTarget) String() string {
	switch t {
	case CopySystemPrompt:
		return "system prompt"
	case CopyFullContext:
		return "full context"
	case CopyJSON:
		return "JSON"
	default:
		return "unknown"
	}
}

// Effect is a side effect requested by a transition
type Effect interface {
	effect()
}

// ExtractEffect asks for the active tab's conversation
type ExtractEffect struct {
	Seq uint64
}

// ProcessEffect submits Request to the backend
type ProcessEffect struct {
	Seq     uint64
	Request backend.Request
}

// CopyEffect writes Text to the clipboard
type CopyEffect struct {
	Target CopyTarget
	Text   string
}

// OpenEffect opens URL in the browser
type OpenEffect struct {
	URL string
}

func (ExtractEffect) effect() {}
func (ProcessEffect) effect() {}
func (CopyEffect) effect()    {}
func (OpenEffect) effect()    {}

// Seq returns the run sequence an effect belongs to, or 0 for effects
// that are not watched
func Seq(eff Effect) uint64 {
	switch e := eff.(type) {
	case ExtractEffect:
		return e.Seq
	case ProcessEffect:
		return e.Seq
	default:
		return 0
	}
}
