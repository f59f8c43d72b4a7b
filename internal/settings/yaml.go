package settings

import (
	"context"
	"io"

	"github.com/iksnae/context-capture/internal"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Export writes the stored settings as YAML
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	current, err := s.Load(ctx)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(current); err != nil {
		return &internal.ExportError{Format: "yaml", Err: err}
	}
	return enc.Close()
}

// Import applies the settings present in a YAML document. Keys missing
// from the document keep their stored values.
func (s *Service) Import(ctx context.Context, r io.Reader) (Settings, error) {
	var p Patch
	if err := yaml.NewDecoder(r).Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, &internal.ParseError{Source: "settings", Key: "yaml", Err: err}
	}
	if err := s.Apply(ctx, p); err != nil {
		return Settings{}, err
	}
	return s.Load(ctx)
}
