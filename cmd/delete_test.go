package cmd

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/iksnae/rag-chat/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteCommand(t *testing.T) {
	_, history := setupCmdEnv(t)
	seedHistory(t, history,
		internal.CreateTestTranscript("delete-me-1"),
		internal.CreateTestTranscript("keep-me-2"),
	)

	out, err := executeCmd(t, "delete", "--yes", "delete")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted chat delete-me-1")

	store, err := internal.OpenStore(history)
	require.NoError(t, err)
	defer store.Close()
	list, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "keep-me-2", list[0].ID)
}

func TestDeleteCommand_Errors(t *testing.T) {
	_, history := setupCmdEnv(t)
	seedHistory(t, history, internal.CreateTestTranscript("only-one"))

	_, err := executeCmd(t, "delete", "--yes", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, internal.ErrTranscriptNotFound)

	if internal.IsTerminal(os.Stdin) {
		t.Skip("stdin is a terminal; delete would prompt")
	}
	resetFlags(rootCmd)
	_, err = executeCmd(t, "delete", "only")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "without --yes"))
}
