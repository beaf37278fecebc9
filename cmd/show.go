package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/rag-chat/internal"
	"github.com/spf13/cobra"
)

var (
	limit       int
	since       string
	showSources bool
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the messages of a saved chat",
	Long: `Display a saved chat transcript.

The id may be any unique prefix of a transcript id shown by 'rag-chat list'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var sinceTime time.Time
		if since != "" {
			parsed, err := time.Parse(time.RFC3339, since)
			if err != nil {
				return fmt.Errorf("invalid --since timestamp format (expected RFC3339): %w", err)
			}
			sinceTime = parsed
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		transcript, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load chat %s: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		displayTranscriptHeader(out, transcript)

		messagesToShow := transcript.Messages
		if !sinceTime.IsZero() {
			filtered := make([]internal.Message, 0, len(messagesToShow))
			for _, msg := range messagesToShow {
				if t := internal.ParseTimestamp(msg.Timestamp); !t.IsZero() && !t.Before(sinceTime) {
					filtered = append(filtered, msg)
				}
			}
			messagesToShow = filtered
		}

		totalFiltered := len(messagesToShow)
		if limit > 0 && limit < len(messagesToShow) {
			messagesToShow = messagesToShow[:limit]
		}

		for i, msg := range messagesToShow {
			displayMessage(out, i+1, msg, totalFiltered, showSources)
		}

		if limit > 0 && limit < totalFiltered {
			fmt.Fprintln(out, lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Italic(true).
				Render(fmt.Sprintf("... (%d more message(s))", totalFiltered-limit)))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit number of messages to show")
	showCmd.Flags().StringVar(&since, "since", "", "Show messages since timestamp (ISO8601)")
	showCmd.Flags().BoolVar(&showSources, "sources", false, "Show retrieved source chunks under answers")
}
