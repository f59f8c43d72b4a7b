package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/context-capture/internal"
)

// JSONLExporter exports conversations in JSONL format (one message per line)
type JSONLExporter struct{}

type jsonlLine struct {
	Provider  internal.Provider `json:"provider"`
	SessionID string            `json:"sessionId"`
	Index     int               `json:"index"`
	Role      internal.Role     `json:"role"`
	Content   string            `json:"content"`
}

// Export exports a conversation to JSONL format
func (e *JSONLExporter) Export(conv *internal.Conversation, w io.Writer) error {
	enc := json.NewEncoder(w)

	for i, msg := range conv.Messages {
		line := jsonlLine{
			Provider:  conv.Provider,
			SessionID: conv.SessionID,
			Index:     i,
			Role:      msg.Role,
			Content:   msg.Content,
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
