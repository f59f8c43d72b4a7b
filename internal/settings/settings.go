// Package settings stores the user's popup settings and answers the
// runtime settings protocol.
package settings

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/internal/backend"
	"github.com/pkg/errors"
)

// Storage keys. Values are JSON encoded.
const (
	KeyPrefix      = "settings:"
	KeyAPIBase     = KeyPrefix + "apiBase"
	KeyAutoExtract = KeyPrefix + "autoExtract"
)

// Runtime message actions
const (
	ActionGetSettings  = "getSettings"
	ActionSaveSettings = "saveSettings"
)

// ErrUnknownAction is returned for runtime messages the service does not handle
var ErrUnknownAction = errors.New("unknown action")

// Settings are the user-tunable options
type Settings struct {
	APIBase     string `json:"apiBase" yaml:"api_base"`
	AutoExtract bool   `json:"autoExtract" yaml:"auto_extract"`
}

// Defaults returns the settings used before the user saves any
func Defaults() Settings {
	return Settings{APIBase: backend.DefaultBaseURL, AutoExtract: false}
}

// Patch is a partial update. Nil fields are left as stored.
type Patch struct {
	APIBase     *string `json:"apiBase,omitempty" yaml:"api_base,omitempty"`
	AutoExtract *bool   `json:"autoExtract,omitempty" yaml:"auto_extract,omitempty"`
}

// Full returns a patch that sets every field of s
func Full(s Settings) Patch {
	return Patch{APIBase: &s.APIBase, AutoExtract: &s.AutoExtract}
}

// Message is a runtime message
type Message struct {
	Action   string `json:"action"`
	Settings *Patch `json:"settings,omitempty"`
}

// SaveResult answers saveSettings
type SaveResult struct {
	Success bool `json:"success"`
}

// Service reads and writes settings in a key-value store
type Service struct {
	store internal.KeyValueStore
}

// NewService creates a settings service over store
func NewService(store internal.KeyValueStore) *Service {
	return &Service{store: store}
}

// Load returns the stored settings, falling back to defaults per field
func (s *Service) Load(ctx context.Context) (Settings, error) {
	out := Defaults()
	if err := s.load(ctx, KeyAPIBase, &out.APIBase); err != nil {
		return Defaults(), err
	}
	if err := s.load(ctx, KeyAutoExtract, &out.AutoExtract); err != nil {
		return Defaults(), err
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, key string, dst any) error {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return errors.Wrapf(err, "load %s", key)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return &internal.ParseError{Source: "settings", Key: key, Err: err}
	}
	return nil
}

// Apply writes the fields set in p
func (s *Service) Apply(ctx context.Context, p Patch) error {
	if p.APIBase != nil {
		base := strings.TrimRight(strings.TrimSpace(*p.APIBase), "/")
		if base == "" {
			return errors.New("apiBase must not be empty")
		}
		if err := s.save(ctx, KeyAPIBase, base); err != nil {
			return err
		}
	}
	if p.AutoExtract != nil {
		if err := s.save(ctx, KeyAutoExtract, *p.AutoExtract); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return errors.Wrapf(s.store.Set(ctx, key, string(data)), "save %s", key)
}

// Install writes the defaults for any setting not yet stored
func (s *Service) Install(ctx context.Context) error {
	defaults := Defaults()
	for key, v := range map[string]any{KeyAPIBase: defaults.APIBase, KeyAutoExtract: defaults.AutoExtract} {
		_, ok, err := s.store.Get(ctx, key)
		if err != nil {
			return errors.Wrapf(err, "check %s", key)
		}
		if ok {
			continue
		}
		if err := s.save(ctx, key, v); err != nil {
			return err
		}
	}
	return nil
}

// Handle answers one runtime message
func (s *Service) Handle(ctx context.Context, msg Message) (any, error) {
	switch msg.Action {
	case ActionGetSettings:
		return s.Load(ctx)
	case ActionSaveSettings:
		if msg.Settings != nil {
			if err := s.Apply(ctx, *msg.Settings); err != nil {
				return nil, err
			}
		}
		return SaveResult{Success: true}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownAction, "%q", msg.Action)
	}
}

// HandleMessage decodes a JSON runtime message and encodes the reply
func (s *Service) HandleMessage(ctx context.Context, raw []byte) ([]byte, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, &internal.ParseError{Source: "settings", Key: "message", Err: err}
	}
	reply, err := s.Handle(ctx, msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(reply)
}
