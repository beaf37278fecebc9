package internal

import (
	"strconv"
	"sync"
	"time"
)

// Session holds the state of one conversation: its id, the append-only
// message log, the uploaded file names and the in-flight chat counter.
// It is safe for concurrent use.
type Session struct {
	mu        sync.RWMutex
	id        string
	createdAt time.Time
	messages  []Message
	uploaded  []string
	inFlight  int
	now       func() time.Time
}

// NewSessionID returns the current time in milliseconds, stringified
func NewSessionID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// NewSession creates an empty session with a fresh id
func NewSession() *Session {
	now := time.Now()
	return &Session{
		id:        NewSessionID(now),
		createdAt: now,
		now:       time.Now,
	}
}

// ResumeSession rebuilds a session from a saved transcript, keeping its id
func ResumeSession(t *Transcript) *Session {
	created := ParseTimestamp(t.CreatedAt)
	if created.IsZero() {
		created = time.Now()
	}
	s := &Session{
		id:        t.SessionID,
		createdAt: created,
		messages:  append([]Message(nil), t.Messages...),
		uploaded:  append([]string(nil), t.UploadedFiles...),
		now:       time.Now,
	}
	if s.id == "" {
		s.id = NewSessionID(created)
	}
	return s
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns when the session started
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Messages returns a copy of the message log in insertion order
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Message(nil), s.messages...)
}

// Len returns the number of messages
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// UploadedFiles returns a copy of the uploaded file names
func (s *Session) UploadedFiles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.uploaded...)
}

// Loading reports whether a chat request is in flight
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight > 0
}

func (s *Session) append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.Timestamp == "" {
		msg.Timestamp = formatTimestamp(s.now())
	}
	s.messages = append(s.messages, msg)
}

func (s *Session) appendUploads(names []string, summary Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if summary.Timestamp == "" {
		summary.Timestamp = formatTimestamp(s.now())
	}
	s.uploaded = append(s.uploaded, names...)
	s.messages = append(s.messages, summary)
}

func (s *Session) beginRequest() {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
}

func (s *Session) endRequest() {
	s.mu.Lock()
	if s.inFlight > 0 {
		s.inFlight--
	}
	s.mu.Unlock()
}

// Snapshot copies the session into a transcript with the given id
func (s *Session) Snapshot(id, baseURL string) *Transcript {
	s.mu.RLock()
	defer s.mu.RUnlock()

	updated := s.createdAt
	if n := len(s.messages); n > 0 {
		if t := ParseTimestamp(s.messages[n-1].Timestamp); !t.IsZero() {
			updated = t
		}
	}

	return &Transcript{
		ID:            id,
		SessionID:     s.id,
		BaseURL:       baseURL,
		CreatedAt:     formatTimestamp(s.createdAt),
		UpdatedAt:     formatTimestamp(updated),
		Messages:      append([]Message(nil), s.messages...),
		UploadedFiles: append([]string(nil), s.uploaded...),
	}
}
