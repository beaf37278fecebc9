package internal

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/iksnae/rag-chat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenUploadFiles(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	a := testutil.WriteFile(t, dir, "docs/a.txt", "alpha")
	b := testutil.WriteFile(t, dir, "b.md", "bravo!")

	opened, err := OpenUploadFiles([]string{a, b})
	require.NoError(t, err)
	defer opened.Close()

	require.Len(t, opened.Files, 2)
	assert.Equal(t, "a.txt", opened.Files[0].Name)
	assert.Equal(t, "b.md", opened.Files[1].Name)
	assert.EqualValues(t, 11, opened.TotalSize)

	data, err := io.ReadAll(opened.Files[1].Content)
	require.NoError(t, err)
	assert.Equal(t, "bravo!", string(data))

	require.NoError(t, opened.Close())
	assert.NoError(t, opened.Close())
}

func TestOpenUploadFiles_Errors(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	ok := testutil.WriteFile(t, dir, "ok.txt", "fine")

	_, err := OpenUploadFiles([]string{ok, filepath.Join(dir, "missing.pdf")})
	assert.ErrorContains(t, err, "failed to stat")

	_, err = OpenUploadFiles([]string{dir})
	assert.ErrorContains(t, err, "is a directory")

	_, err = OpenUploadFiles(nil)
	assert.ErrorIs(t, err, ErrNoFiles)
}
