package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/rag-chat/internal"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(t *internal.Transcript, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Session %s\n\n", t.SessionID)

	if title := t.Title(); title != "" {
		_, _ = fmt.Fprintf(w, "**Title:** %s  \n", escapeMarkdown(title))
	}
	if t.BaseURL != "" {
		_, _ = fmt.Fprintf(w, "**Server:** %s  \n", t.BaseURL)
	}
	if t.CreatedAt != "" {
		_, _ = fmt.Fprintf(w, "**Started:** %s  \n", t.CreatedAt)
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(t.Messages))

	if len(t.UploadedFiles) > 0 {
		_, _ = fmt.Fprintf(w, "## Uploaded Files\n\n")
		for _, name := range t.UploadedFiles {
			_, _ = fmt.Fprintf(w, "- %s\n", name)
		}
		_, _ = fmt.Fprintf(w, "\n")
	}

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, msg := range t.Messages {
		timestamp := ""
		if msg.Timestamp != "" {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp)
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", msg.Role, timestamp, escapeMarkdown(msg.Content))

		if msg.Metadata != nil && len(msg.Metadata.RetrievedChunks) > 0 {
			_, _ = fmt.Fprintf(w, "<details><summary>Sources (%d)</summary>\n\n", len(msg.Metadata.RetrievedChunks))
			for _, chunk := range msg.Metadata.RetrievedChunks {
				_, _ = fmt.Fprintf(w, "> %s\n\n", strings.ReplaceAll(strings.TrimSpace(chunk), "\n", "\n> "))
			}
			_, _ = fmt.Fprintf(w, "</details>\n\n")
		}

		if i < len(t.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	// Basic escaping - preserve code blocks
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
