package internal

import (
	"context"
	"strings"
	"sync"
)

// Controller drives a Session: it appends user input, talks to the RAG
// service and appends the outcome. Failures never propagate to the caller
// as errors; they become fallback messages in the log.
type Controller struct {
	session *Session
	client  RAGClient
}

// NewController creates a controller for session backed by client
func NewController(session *Session, client RAGClient) *Controller {
	return &Controller{
		session: session,
		client:  client,
	}
}

// Session returns the controlled session
func (c *Controller) Session() *Session {
	return c.session
}

// ChatResult is the outcome of one chat request
type ChatResult struct {
	Answer   string
	Metadata *AnswerMetadata
	Err      error
}

// OK reports whether the request succeeded
func (r ChatResult) OK() bool {
	return r.Err == nil
}

// UploadResult is the outcome of one upload batch
type UploadResult struct {
	Files []string
	Err   error
}

// OK reports whether the upload succeeded
func (r UploadResult) OK() bool {
	return r.Err == nil
}

// ChatTask is a chat request that has been dispatched to the log but not
// yet sent. Run must be called exactly once to release the loading flag.
type ChatTask struct {
	ctrl  *Controller
	query string
	once  sync.Once
	res   ChatResult
}

// Query returns the text being sent
func (t *ChatTask) Query() string {
	return t.query
}

// BeginSend appends the user message and raises the loading flag.
// It returns false without touching the session when text is blank.
func (c *Controller) BeginSend(text string) (*ChatTask, bool) {
	if strings.TrimSpace(text) == "" {
		return nil, false
	}
	c.session.append(Message{Role: RoleUser, Content: text})
	c.session.beginRequest()
	return &ChatTask{ctrl: c, query: text}, true
}

// Run sends the request and appends the assistant reply or the fallback.
// Subsequent calls return the first result.
func (t *ChatTask) Run(ctx context.Context) ChatResult {
	t.once.Do(func() {
		t.res = t.ctrl.runChat(ctx, t.query)
	})
	return t.res
}

func (c *Controller) runChat(ctx context.Context, query string) ChatResult {
	defer c.session.endRequest()

	resp, err := c.client.Chat(ctx, ChatRequest{Query: query, SessionID: c.session.ID()})
	if err != nil {
		LogError("Chat request failed: %v", err)
		c.session.append(Message{Role: RoleAssistant, Content: ChatFallbackMessage})
		return ChatResult{Err: err}
	}

	c.session.append(Message{Role: RoleAssistant, Content: resp.Answer, Metadata: resp.Metadata})
	return ChatResult{Answer: resp.Answer, Metadata: resp.Metadata}
}

// SendMessage appends text, sends it and appends the reply. The boolean is
// false when text was blank and nothing happened.
func (c *Controller) SendMessage(ctx context.Context, text string) (ChatResult, bool) {
	task, ok := c.BeginSend(text)
	if !ok {
		return ChatResult{}, false
	}
	return task.Run(ctx), true
}

// UploadFiles sends files as one batch. On success the server's file names
// are recorded and one summary system message is appended; on failure a
// fallback system message is appended. The boolean is false for an empty batch.
func (c *Controller) UploadFiles(ctx context.Context, files []UploadFile) (UploadResult, bool) {
	if len(files) == 0 {
		return UploadResult{}, false
	}

	resp, err := c.client.Upload(ctx, files)
	if err != nil {
		LogError("Upload failed: %v", err)
		c.session.append(Message{Role: RoleSystem, Content: UploadFallbackMessage})
		return UploadResult{Err: err}, true
	}

	names := append([]string(nil), resp.Files...)
	c.session.appendUploads(names, Message{
		Role:    RoleSystem,
		Content: "Uploaded files: " + strings.Join(names, ", "),
	})
	LogDebug("Uploaded %d file(s)", len(names))
	return UploadResult{Files: names}, true
}
