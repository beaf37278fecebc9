package internal

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/rag-chat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("")
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Zero(t, c.httpClient.Timeout)

	c = NewClient("http://rag.local:9000/", WithTimeout(5*time.Second))
	assert.Equal(t, "http://rag.local:9000", c.BaseURL())
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
}

func TestClient_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"query":"What is RAG?","session_id":"123"}`, string(body))

		_, _ = w.Write([]byte(`{"answer":"Retrieval-augmented generation.","metadata":{"language":"en","retrieved_chunks":["a","b"]}}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).Chat(context.Background(), ChatRequest{Query: "What is RAG?", SessionID: "123"})

	require.NoError(t, err)
	assert.Equal(t, "Retrieval-augmented generation.", resp.Answer)
	require.NotNil(t, resp.Metadata)
	assert.Equal(t, []string{"a", "b"}, resp.Metadata.RetrievedChunks)
}

func TestClient_Chat_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantOp  string
		wantMsg string
		wantReq bool
	}{
		{name: "500 with error body", status: 500, body: `{"error":"llm offline"}`, wantReq: true, wantMsg: "llm offline"},
		{name: "422 detail", status: 422, body: `{"detail":"field required"}`, wantReq: true, wantMsg: "field required"},
		{name: "502 plain text", status: 502, body: `bad gateway`, wantReq: true},
		{name: "invalid json", status: 200, body: `<html>`, wantOp: "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).Chat(context.Background(), ChatRequest{Query: "q", SessionID: "s"})
			require.Error(t, err)

			if tt.wantReq {
				var re *RequestError
				require.True(t, errors.As(err, &re), "want RequestError, got %T", err)
				assert.Equal(t, tt.status, re.StatusCode)
				assert.Equal(t, "/chat", re.Endpoint)
				assert.Equal(t, tt.wantMsg, re.Message)
				return
			}
			var te *TransportError
			require.True(t, errors.As(err, &te), "want TransportError, got %T", err)
			assert.Equal(t, tt.wantOp, te.Op)
		})
	}
}

func TestClient_Chat_ContextCancelled(t *testing.T) {
	srv := testutil.NewRAGServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.URL).Chat(ctx, ChatRequest{Query: "q", SessionID: "s"})

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_Upload_Multipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload", r.URL.Path)

		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		assert.Equal(t, "multipart/form-data", mediaType)

		mr := multipart.NewReader(r.Body, params["boundary"])
		var names, contents []string
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			assert.Equal(t, "files", part.FormName())
			data, _ := io.ReadAll(part)
			names = append(names, part.FileName())
			contents = append(contents, string(data))
		}
		assert.Equal(t, []string{"one.pdf", "two.txt"}, names)
		assert.Equal(t, []string{"first", "second"}, contents)

		_, _ = w.Write([]byte(`{"message":"Files uploaded and processed","files":["one.pdf","two.txt"]}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).Upload(context.Background(), []UploadFile{
		{Name: "one.pdf", Content: strings.NewReader("first")},
		{Name: "two.txt", Content: strings.NewReader("second")},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"one.pdf", "two.txt"}, resp.Files)
	assert.Equal(t, "Files uploaded and processed", resp.Message)
}

func TestClient_Upload_EarlyRejection(t *testing.T) {
	// The server answers before reading the body; the writer must not hang.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	}))
	defer srv.Close()

	big := strings.NewReader(strings.Repeat("x", 8<<20))
	_, err := NewClient(srv.URL).Upload(context.Background(), []UploadFile{{Name: "big.bin", Content: big}})

	require.Error(t, err)
}

func TestClient_Health(t *testing.T) {
	srv := testutil.NewRAGServer(t)

	resp, err := NewClient(srv.URL).Health(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "healthy", resp.Status)
}

func TestReadErrorMessage(t *testing.T) {
	assert.Equal(t, "boom", readErrorMessage(strings.NewReader(`{"error":"boom"}`)))
	assert.Equal(t, "", readErrorMessage(strings.NewReader(``)))
	assert.Equal(t, "", readErrorMessage(strings.NewReader(`{"detail":[{"loc":["body"]}]}`)))
}
