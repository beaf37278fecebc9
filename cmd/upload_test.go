package cmd

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/iksnae/rag-chat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadCommand(t *testing.T) {
	srv, _ := setupCmdEnv(t)
	dir := testutil.CreateTempDir(t)
	a := testutil.WriteFile(t, dir, "handbook.pdf", "%PDF-1.4")
	b := testutil.WriteFile(t, dir, "faq.txt", "Q: refunds?")

	out, err := executeCmd(t, "upload", a, b)
	require.NoError(t, err)

	assert.Contains(t, out, "Uploaded files: handbook.pdf, faq.txt")
	uploads := srv.Uploads()
	require.Len(t, uploads, 1)
	require.Len(t, uploads[0], 2)
	assert.Equal(t, "Q: refunds?", uploads[0][1].Content)
}

func TestUploadCommand_Rejected(t *testing.T) {
	setupCmdEnv(t, testutil.WithUploadStatus(http.StatusBadRequest))
	path := testutil.WriteFile(t, testutil.CreateTempDir(t), "doc.txt", "d")

	out, err := executeCmd(t, "upload", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload rejected: Failed to load document")
	assert.Contains(t, out, "Failed to upload files. Please try again.")
}

func TestUploadCommand_MissingFile(t *testing.T) {
	srv, _ := setupCmdEnv(t)

	_, err := executeCmd(t, "upload", filepath.Join(t.TempDir(), "nope.pdf"))

	assert.Error(t, err)
	assert.Empty(t, srv.Uploads())
}
