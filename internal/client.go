package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is where the RAG service listens unless configured otherwise
const DefaultBaseURL = "http://localhost:8000"

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

// ChatResponse is the body of a successful POST /chat
type ChatResponse struct {
	Answer   string          `json:"answer"`
	Metadata *AnswerMetadata `json:"metadata,omitempty"`
}

// UploadResponse is the body of a successful POST /upload
type UploadResponse struct {
	Message string   `json:"message,omitempty"`
	Files   []string `json:"files"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string `json:"status"`
}

// UploadFile is one document to send in an upload batch
type UploadFile struct {
	Name    string
	Content io.Reader
}

// RAGClient is the part of the RAG service the controller talks to
type RAGClient interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Upload(ctx context.Context, files []UploadFile) (*UploadResponse, error)
}

// Client talks to the RAG service over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets a per-request timeout; zero means none
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a client for the service at baseURL
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat sends a query for the given session
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	const endpoint = "/chat"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Op: "encode", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Op: "encode", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var resp ChatResponse
	if err := c.do(httpReq, endpoint, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Upload sends all files in one multipart body under the repeated field "files"
func (c *Client) Upload(ctx context.Context, files []UploadFile) (*UploadResponse, error) {
	const endpoint = "/upload"

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(mw, files))
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, pr)
	if err != nil {
		_ = pr.Close()
		return nil, &TransportError{Endpoint: endpoint, Op: "encode", Err: err}
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var resp UploadResponse
	err = c.do(httpReq, endpoint, &resp)
	_ = pr.Close()
	if err != nil {
		return nil, err
	}
	if resp.Files == nil {
		return nil, &TransportError{Endpoint: endpoint, Op: "decode", Err: errors.New("response has no files list")}
	}
	return &resp, nil
}

func writeMultipart(mw *multipart.Writer, files []UploadFile) error {
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return fmt.Errorf("failed to create form part for %s: %w", f.Name, err)
		}
		if f.Content != nil {
			if _, err := io.Copy(part, f.Content); err != nil {
				return fmt.Errorf("failed to write %s: %w", f.Name, err)
			}
		}
	}
	return mw.Close()
}

// Health queries GET /health
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	const endpoint = "/health"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Op: "encode", Err: err}
	}

	var resp HealthResponse
	if err := c.do(httpReq, endpoint, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(req *http.Request, endpoint string, out interface{}) error {
	LogDebug("%s %s", req.Method, req.URL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Op: "send", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Endpoint: endpoint, Op: "decode", Err: err}
	}
	return nil
}

// readErrorMessage extracts {"error": "..."} from a failed response, if present
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		return body.Detail
	}
	return ""
}
