package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/rag-chat/internal"
)

// JSONLExporter exports transcripts in JSONL format (one message per line)
type JSONLExporter struct{}

// Export exports a transcript to JSONL format
func (e *JSONLExporter) Export(t *internal.Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range t.Messages {
		obj := map[string]interface{}{
			"session_id": t.SessionID,
			"role":       msg.Role,
			"content":    msg.Content,
		}
		if msg.Timestamp != "" {
			obj["timestamp"] = msg.Timestamp
		}
		if msg.Metadata != nil {
			obj["metadata"] = msg.Metadata
		}

		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
