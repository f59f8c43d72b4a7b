package orchestrator

import (
	"context"

	"github.com/atotto/clipboard"
	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/internal/backend"
	"github.com/iksnae/context-capture/internal/bridge"
	"github.com/pkg/browser"
	"github.com/pkg/errors"
)

// TabSource identifies the tab the user is looking at
type TabSource interface {
	ActiveTab(ctx context.Context) (bridge.Tab, error)
}

// Clipboard receives copied text
type Clipboard interface {
	WriteText(text string) error
}

// Opener opens a URL for the user
type Opener interface {
	Open(url string) error
}

// StaticTab is a TabSource that always returns the same tab
type StaticTab bridge.Tab

// ActiveTab returns the tab
func (t StaticTab) ActiveTab(context.Context) (bridge.Tab, error) {
	if t.ID == "" {
		return bridge.Tab{}, errors.New("no active tab")
	}
	return bridge.Tab(t), nil
}

// SystemClipboard writes to the OS clipboard
type SystemClipboard struct{}

// WriteText copies text to the OS clipboard
func (SystemClipboard) WriteText(text string) error {
	return clipboard.WriteAll(text)
}

// BrowserOpener opens URLs in the default browser
type BrowserOpener struct{}

// Open opens url in the default browser
func (BrowserOpener) Open(url string) error {
	return browser.OpenURL(url)
}

// Dispatcher carries out effects against its collaborators and reports
// each outcome as the Event that completes it
type Dispatcher struct {
	Tabs      TabSource
	Bridge    bridge.Bridge
	Backend   backend.Processor
	Clipboard Clipboard
	Opener    Opener
}

// Run executes eff. It never returns nil for a non-nil effect: failures
// travel inside the completion event.
func (d *Dispatcher) Run(ctx context.Context, eff Effect) Event {
	switch e := eff.(type) {
	case ExtractEffect:
		return d.extract(ctx, e)
	case ProcessEffect:
		pc, err := d.Backend.Process(ctx, e.Request)
		return ProcessingCompleted{Seq: e.Seq, Context: pc, Err: err}
	case CopyEffect:
		var err error
		if d.Clipboard == nil {
			err = errors.New("no clipboard available")
		} else {
			err = d.Clipboard.WriteText(e.Text)
		}
		if err != nil {
			err = &internal.ClipboardError{Target: e.Target.String(), Err: err}
		}
		return CopyCompleted{Target: e.Target, Err: err}
	case OpenEffect:
		var err error
		if d.Opener == nil {
			err = errors.New("no browser available")
		} else {
			err = d.Opener.Open(e.URL)
		}
		return OpenCompleted{URL: e.URL, Err: err}
	default:
		return nil
	}
}

func (d *Dispatcher) extract(ctx context.Context, e ExtractEffect) Event {
	tab, err := d.Tabs.ActiveTab(ctx)
	if err != nil {
		return ExtractionCompleted{Seq: e.Seq, Provider: internal.ProviderUnknown, Err: errors.Wrap(err, "query active tab")}
	}
	provider := internal.ClassifyURL(tab.URL)
	internal.LogDebug("extracting tab %s (%s)", tab.ID, provider)

	resp, err := d.Bridge.RequestExtraction(ctx, tab)
	if err != nil {
		return ExtractionCompleted{Seq: e.Seq, Tab: tab, Provider: provider, Err: err}
	}
	if resp.Conversation == nil {
		msg := resp.Error
		if msg == "" {
			msg = "empty reply"
		}
		return ExtractionCompleted{Seq: e.Seq, Tab: tab, Provider: provider,
			Err: &internal.ExtractionError{Provider: provider, Err: errors.New(msg)}}
	}
	return ExtractionCompleted{Seq: e.Seq, Tab: tab, Provider: provider, Conversation: resp.Conversation}
}
