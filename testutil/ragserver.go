package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// ChatCall is one request received on /chat
type ChatCall struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

// UploadedFile is one multipart part received on /upload
type UploadedFile struct {
	Name    string
	Content string
}

// RAGServer is a fake RAG service for tests
type RAGServer struct {
	*httptest.Server

	mu           sync.Mutex
	chats        []ChatCall
	uploads      [][]UploadedFile
	answer       func(query string) string
	chatStatus   int
	chatBody     string
	uploadStatus int
	uploadNames  []string
	uploadBody   string
	healthStatus int
	healthBody   string
	gate         chan struct{}
	received     chan struct{}
}

// ServerOption configures a RAGServer
type ServerOption func(*RAGServer)

// WithAnswer sets how the server answers a query
func WithAnswer(fn func(query string) string) ServerOption {
	return func(s *RAGServer) { s.answer = fn }
}

// WithChatStatus makes /chat fail with code
func WithChatStatus(code int) ServerOption {
	return func(s *RAGServer) { s.chatStatus = code }
}

// WithChatBody makes /chat reply 200 with a raw body
func WithChatBody(body string) ServerOption {
	return func(s *RAGServer) { s.chatBody = body }
}

// WithUploadStatus makes /upload fail with code
func WithUploadStatus(code int) ServerOption {
	return func(s *RAGServer) { s.uploadStatus = code }
}

// WithUploadNames overrides the names /upload reports as accepted
func WithUploadNames(names ...string) ServerOption {
	return func(s *RAGServer) { s.uploadNames = names }
}

// WithUploadBody makes /upload reply 200 with a raw body
func WithUploadBody(body string) ServerOption {
	return func(s *RAGServer) { s.uploadBody = body }
}

// WithHealth makes /health reply with code and a raw body
func WithHealth(code int, body string) ServerOption {
	return func(s *RAGServer) {
		s.healthStatus = code
		s.healthBody = body
	}
}

// WithChatGate holds every /chat reply until the returned release func is called.
// The received channel gets a value once a chat request has been read.
func WithChatGate() (ServerOption, func(), <-chan struct{}) {
	gate := make(chan struct{})
	received := make(chan struct{}, 16)
	var once sync.Once
	opt := func(s *RAGServer) {
		s.gate = gate
		s.received = received
	}
	return opt, func() { once.Do(func() { close(gate) }) }, received
}

// NewRAGServer starts a fake RAG service that is closed when the test ends
func NewRAGServer(t *testing.T, opts ...ServerOption) *RAGServer {
	t.Helper()
	s := &RAGServer{
		answer:       func(q string) string { return "answer to: " + q },
		chatStatus:   http.StatusOK,
		uploadStatus: http.StatusOK,
		healthStatus: http.StatusOK,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if s.healthBody != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(s.healthStatus)
			_, _ = io.WriteString(w, s.healthBody)
			return
		}
		writeJSON(w, s.healthStatus, map[string]string{"status": "healthy"})
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *RAGServer) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var call ChatCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.chats = append(s.chats, call)
	gate, received := s.gate, s.received
	s.mu.Unlock()

	if gate != nil {
		received <- struct{}{}
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	if s.chatStatus != http.StatusOK {
		writeJSON(w, s.chatStatus, map[string]string{"error": "chat failed"})
		return
	}
	if s.chatBody != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, s.chatBody)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"answer": s.answer(call.Query),
		"metadata": map[string]interface{}{
			"language":         "en",
			"retrieved_chunks": []string{"chunk for " + call.Query},
		},
	})
}

func (s *RAGServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var batch []UploadedFile
	var names []string
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		data, _ := io.ReadAll(f)
		_ = f.Close()
		batch = append(batch, UploadedFile{Name: fh.Filename, Content: string(data)})
		names = append(names, fh.Filename)
	}

	s.mu.Lock()
	s.uploads = append(s.uploads, batch)
	if s.uploadNames != nil {
		names = s.uploadNames
	}
	s.mu.Unlock()

	if s.uploadStatus != http.StatusOK {
		writeJSON(w, s.uploadStatus, map[string]string{"error": "Failed to load document"})
		return
	}
	if len(names) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "no files"})
		return
	}

	if s.uploadBody != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, s.uploadBody)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Files uploaded and processed",
		"files":   names,
	})
}

// ChatCalls returns the chat requests received so far
func (s *RAGServer) ChatCalls() []ChatCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChatCall(nil), s.chats...)
}

// Uploads returns the upload batches received so far
func (s *RAGServer) Uploads() [][]UploadedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]UploadedFile(nil), s.uploads...)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
