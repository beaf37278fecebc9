package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/iksnae/rag-chat/internal"
	"github.com/iksnae/rag-chat/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// setupCmdEnv points the CLI at a fake RAG service and a private history
// database, and resets flags left over from earlier runs.
func setupCmdEnv(t *testing.T, opts ...testutil.ServerOption) (*testutil.RAGServer, string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	srv := testutil.NewRAGServer(t, opts...)
	t.Setenv("RAGCHAT_BASE_URL", srv.URL)

	history := filepath.Join(home, "history.db")
	t.Setenv("RAGCHAT_HISTORY", history)

	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })
	return srv, history
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeCmdContext(t, context.Background(), args...)
}

func executeCmdContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

// seedHistory saves transcripts directly into the history database at path
func seedHistory(t *testing.T, path string, transcripts ...*internal.Transcript) {
	t.Helper()
	store, err := internal.OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	defer store.Close()
	for _, tr := range transcripts {
		if err := store.Save(context.Background(), tr); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
}
