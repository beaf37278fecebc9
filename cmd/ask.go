package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iksnae/rag-chat/internal"
	"github.com/spf13/cobra"
)

var (
	askSession   string
	askSources   bool
	askLanguage  bool
	askNoHistory bool
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask one question and print the answer",
	Long: `Send a single question to the RAG service and print the exchange.

Use --session to continue a conversation the service already knows about.
The exchange is saved to history unless --no-history is given. A failed
request prints the fallback answer and exits non-zero.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		if strings.TrimSpace(question) == "" {
			return errors.New("question is empty")
		}

		session := internal.NewSession()
		if askSession != "" {
			session = internal.ResumeSession(&internal.Transcript{SessionID: askSession})
		}
		ctrl := internal.NewController(session, cfg.NewClient())

		ctx := cmd.Context()
		var res internal.ChatResult
		progressErr := internal.ShowProgress(ctx, "Asking the RAG service", func() error {
			res, _ = ctrl.SendMessage(ctx, question)
			return res.Err
		})
		if progressErr != nil && res.Err == nil {
			// Interrupted before the request finished
			return progressErr
		}

		out := cmd.OutOrStdout()
		for _, msg := range session.Messages() {
			displayMessage(out, 0, msg, 0, false)
		}
		if res.Metadata != nil {
			if askLanguage && res.Metadata.Language != "" {
				fmt.Fprintln(out, sourceStyle.Render("Language: "+res.Metadata.Language))
			}
			if askSources {
				displaySources(out, &internal.AnswerMetadata{RetrievedChunks: res.Metadata.RetrievedChunks})
			}
		}

		if !askNoHistory {
			saveTranscript(ctx, session, internal.NewTranscriptID())
		}

		if res.Err != nil {
			return fmt.Errorf("chat request failed: %w", res.Err)
		}
		return nil
	},
}

// saveTranscript stores the session under id when history is enabled.
// Failures are logged; history is never worth failing a command over.
func saveTranscript(ctx context.Context, session *internal.Session, id string) bool {
	if !cfg.SaveHistory || session.Len() == 0 {
		return false
	}
	store, err := openStore()
	if err != nil {
		internal.LogWarn("History not saved: %v", err)
		return false
	}
	defer store.Close()

	if err := store.Save(ctx, session.Snapshot(id, cfg.BaseURL)); err != nil {
		internal.LogWarn("History not saved: %v", err)
		return false
	}
	internal.LogDebug("Saved chat %s", id)
	return true
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&askSession, "session", "", "Session id to send with the question")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "Print the retrieved source chunks")
	askCmd.Flags().BoolVar(&askLanguage, "language", false, "Print the detected question language")
	askCmd.Flags().BoolVar(&askNoHistory, "no-history", false, "Do not save the exchange")
}
