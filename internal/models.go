package internal

import (
	"strings"
	"time"
)

// Role identifies who produced a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Fallback texts appended when a request fails
const (
	ChatFallbackMessage   = "Sorry, I encountered an error. Please try again."
	UploadFallbackMessage = "Failed to upload files. Please try again."
)

// Message is a single entry of the conversation log
type Message struct {
	Role      Role            `json:"role" yaml:"role"`
	Content   string          `json:"content" yaml:"content"`
	Timestamp string          `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Metadata  *AnswerMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// AnswerMetadata is the optional context the backend returns with an answer
type AnswerMetadata struct {
	Language        string   `json:"language,omitempty" yaml:"language,omitempty"`
	RetrievedChunks []string `json:"retrieved_chunks,omitempty" yaml:"retrieved_chunks,omitempty"`
}

// Transcript is a saved snapshot of a chat session
type Transcript struct {
	ID            string    `json:"id" yaml:"id"`
	SessionID     string    `json:"session_id" yaml:"session_id"`
	BaseURL       string    `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	CreatedAt     string    `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt     string    `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Messages      []Message `json:"messages" yaml:"messages"`
	UploadedFiles []string  `json:"uploaded_files,omitempty" yaml:"uploaded_files,omitempty"`
}

// TranscriptSummary is a row of the history listing
type TranscriptSummary struct {
	ID           string
	SessionID    string
	Title        string
	CreatedAt    string
	UpdatedAt    string
	MessageCount int
	FileCount    int
}

// Title returns the first user message, shortened for listings
func (t *Transcript) Title() string {
	for _, msg := range t.Messages {
		if msg.Role == RoleUser {
			return shorten(msg.Content, 60)
		}
	}
	return ""
}

func shorten(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// formatTimestamp formats t the way messages and transcripts store it
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseTimestamp parses a stored RFC3339 timestamp, returning the zero time on failure
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
