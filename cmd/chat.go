package cmd

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/iksnae/rag-chat/internal"
	"github.com/iksnae/rag-chat/internal/tui"
	"github.com/spf13/cobra"
)

var (
	resumeID      string
	chatNoHistory bool
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat (default)",
	Long: `Open the interactive chat screen.

Enter sends the message; Alt+Enter or Ctrl+J inserts a newline.
Type /upload <files...> or press Ctrl+O to upload documents.
Press Esc or Ctrl+C to leave. The chat is saved to history as it goes
unless --no-history is given or save_history is false.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	if !internal.IsTerminal(os.Stdin) || !internal.IsTerminal(os.Stdout) {
		return errors.New("the interactive chat needs a terminal; use 'rag-chat ask' in scripts")
	}

	// Log lines would corrupt the screen
	if err := internal.SetLogFile(cfg.LogFile); err != nil {
		internal.LogWarn("Logging to stderr: %v", err)
	}
	defer internal.CloseLog()

	ctx := cmd.Context()
	saveHistory := cfg.SaveHistory && !chatNoHistory

	var store *internal.Store
	if saveHistory || resumeID != "" {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	session := internal.NewSession()
	transcriptID := internal.NewTranscriptID()
	if resumeID != "" {
		t, err := store.Load(ctx, resumeID)
		if err != nil {
			return fmt.Errorf("failed to resume chat %s: %w", resumeID, err)
		}
		session = internal.ResumeSession(t)
		transcriptID = t.ID
		internal.LogInfo("Resumed chat %s (session %s)", t.ID, t.SessionID)
	}

	ctrl := internal.NewController(session, cfg.NewClient())

	saved := false
	save := func() {
		if !saveHistory || session.Len() == 0 {
			return
		}
		if err := store.Save(ctx, session.Snapshot(transcriptID, cfg.BaseURL)); err != nil {
			internal.LogError("Failed to save chat: %v", err)
			return
		}
		saved = true
	}

	model := tui.New(ctrl, tui.Options{
		Context:    ctx,
		Theme:      cfg.Theme,
		Extensions: cfg.WatchExtensions,
		OnChange:   save,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("chat failed: %w", err)
	}

	save()
	if saved {
		internal.PrintInfo(fmt.Sprintf("Chat saved as %s (resume with: rag-chat chat --resume %s)", transcriptID, shortID(transcriptID)))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&resumeID, "resume", "", "Continue a saved chat by id")
	chatCmd.Flags().BoolVar(&chatNoHistory, "no-history", false, "Do not save this chat")

	// Running rag-chat with no subcommand starts the chat, so it takes the same flags
	rootCmd.Flags().AddFlag(chatCmd.Flags().Lookup("resume"))
	rootCmd.Flags().AddFlag(chatCmd.Flags().Lookup("no-history"))
}
