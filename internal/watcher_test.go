package internal

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/iksnae/rag-chat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type uploadEvent struct {
	paths []string
	res   UploadResult
}

func newWatchHarness(t *testing.T, opts ...testutil.ServerOption) (*Controller, *testutil.RAGServer, *http.Transport) {
	t.Helper()
	srv := testutil.NewRAGServer(t, opts...)
	tr := &http.Transport{}
	client := NewClient(srv.URL, WithHTTPClient(&http.Client{Transport: tr}))
	return NewController(NewSession(), client), srv, tr
}

func startWatcher(t *testing.T, w *Watcher) (events <-chan uploadEvent, stop func() error) {
	t.Helper()
	ch := make(chan uploadEvent, 8)
	w.opts.OnUpload = func(paths []string, res UploadResult) {
		ch <- uploadEvent{paths: paths, res: res}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	return ch, func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop")
			return nil
		}
	}
}

func waitUpload(t *testing.T, events <-chan uploadEvent) uploadEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for upload")
		return uploadEvent{}
	}
}

func TestWatcher_UploadsNewMatchingFiles(t *testing.T) {
	ctrl, srv, tr := newWatchHarness(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	defer tr.CloseIdleConnections()

	dir := testutil.CreateTempDir(t)
	w, err := NewWatcher(ctrl, dir, WatchOptions{Extensions: []string{"TXT"}, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	events, stop := startWatcher(t, w)

	testutil.WriteFile(t, dir, "notes.txt", "remember the milk")
	testutil.WriteFile(t, dir, "scan.pdf", "%PDF")

	ev := waitUpload(t, events)
	require.NoError(t, stop())

	assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, ev.paths)
	require.True(t, ev.res.OK())
	assert.Equal(t, []string{"notes.txt"}, ctrl.Session().UploadedFiles())

	uploads := srv.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "remember the milk", uploads[0][0].Content)
}

func TestWatcher_IncludeExisting(t *testing.T) {
	ctrl, srv, tr := newWatchHarness(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	defer tr.CloseIdleConnections()

	dir := testutil.CreateTempDir(t)
	testutil.WriteFile(t, dir, "b.md", "b")
	testutil.WriteFile(t, dir, "a.md", "a")
	testutil.WriteFile(t, dir, "sub/c.md", "nested files are not watched")

	w, err := NewWatcher(ctrl, dir, WatchOptions{Extensions: []string{".md"}, Debounce: 20 * time.Millisecond, IncludeExisting: true})
	require.NoError(t, err)
	events, stop := startWatcher(t, w)

	ev := waitUpload(t, events)
	require.NoError(t, stop())

	assert.Equal(t, []string{filepath.Join(dir, "a.md"), filepath.Join(dir, "b.md")}, ev.paths)
	assert.Equal(t, []string{"a.md", "b.md"}, ctrl.Session().UploadedFiles())
	assert.Len(t, srv.Uploads(), 1)
}

func TestWatcher_UploadFailure(t *testing.T) {
	ctrl, _, tr := newWatchHarness(t, testutil.WithUploadStatus(http.StatusInternalServerError))
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	defer tr.CloseIdleConnections()

	dir := testutil.CreateTempDir(t)
	testutil.WriteFile(t, dir, "report.txt", "q3")

	w, err := NewWatcher(ctrl, dir, WatchOptions{Debounce: 20 * time.Millisecond, IncludeExisting: true})
	require.NoError(t, err)
	events, stop := startWatcher(t, w)

	ev := waitUpload(t, events)
	require.NoError(t, stop())

	assert.Error(t, ev.res.Err)
	assert.Empty(t, ctrl.Session().UploadedFiles())
	msgs := ctrl.Session().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, UploadFallbackMessage, msgs[0].Content)
}

func TestWatcher_StopsCleanly(t *testing.T) {
	ctrl, srv, _ := newWatchHarness(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w, err := NewWatcher(ctrl, testutil.CreateTempDir(t), WatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.opts.Debounce)

	_, stop := startWatcher(t, w)
	assert.NoError(t, stop())
	assert.Empty(t, srv.Uploads())
}

func TestNewWatcher_Errors(t *testing.T) {
	ctrl, _, _ := newWatchHarness(t)
	dir := testutil.CreateTempDir(t)
	file := testutil.WriteFile(t, dir, "plain.txt", "x")

	_, err := NewWatcher(ctrl, filepath.Join(dir, "missing"), WatchOptions{})
	assert.ErrorContains(t, err, "failed to stat")

	_, err = NewWatcher(ctrl, file, WatchOptions{})
	assert.ErrorContains(t, err, "is not a directory")
}

func TestWatcher_Matches(t *testing.T) {
	ctrl, _, _ := newWatchHarness(t)
	exts := []string{" PDF", ".Md", ""}
	w, err := NewWatcher(ctrl, testutil.CreateTempDir(t), WatchOptions{Extensions: exts})
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, []string{".pdf", ".md"}, w.opts.Extensions)
	assert.Equal(t, []string{" PDF", ".Md", ""}, exts)
	assert.True(t, w.matches("/tmp/Report.PDF"))
	assert.True(t, w.matches("readme.md"))
	assert.False(t, w.matches("notes.txt"))
}
