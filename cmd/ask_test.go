package cmd

import (
	"context"
	"net/http"
	"testing"

	"github.com/iksnae/rag-chat/internal"
	"github.com/iksnae/rag-chat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskCommand(t *testing.T) {
	srv, history := setupCmdEnv(t, testutil.WithAnswer(func(string) string {
		return "Refunds are processed within 14 days."
	}))

	out, err := executeCmd(t, "ask", "What", "is", "the", "refund", "policy?")
	require.NoError(t, err)

	assert.Contains(t, out, "What is the refund policy?")
	assert.Contains(t, out, "Refunds are processed within 14 days.")

	calls := srv.ChatCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "What is the refund policy?", calls[0].Query)
	assert.NotEmpty(t, calls[0].SessionID)

	store, err := internal.OpenStore(history)
	require.NoError(t, err)
	defer store.Close()
	list, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].MessageCount)
	assert.Equal(t, calls[0].SessionID, list[0].SessionID)
}

func TestAskCommand_Flags(t *testing.T) {
	srv, history := setupCmdEnv(t)

	out, err := executeCmd(t, "ask", "--session", "42", "--sources", "--language", "--no-history", "hello")
	require.NoError(t, err)

	assert.Contains(t, out, "Language: en")
	assert.Contains(t, out, "[1] chunk for hello")
	assert.Equal(t, "42", srv.ChatCalls()[0].SessionID)
	assert.NoFileExists(t, history)
}

func TestAskCommand_Failure(t *testing.T) {
	setupCmdEnv(t, testutil.WithChatStatus(http.StatusInternalServerError))

	out, err := executeCmd(t, "ask", "--no-history", "X")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat request failed")
	assert.Contains(t, out, internal.ChatFallbackMessage)
}

func TestAskCommand_RequiresQuestion(t *testing.T) {
	srv, _ := setupCmdEnv(t)

	_, err := executeCmd(t, "ask")
	assert.Error(t, err)

	_, err = executeCmd(t, "ask", "  ")
	assert.Error(t, err)
	assert.Empty(t, srv.ChatCalls())
}
