package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/rag-chat/internal"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved chats",
	Long:  `List saved chat transcripts, most recent first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		summaries, err := store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list transcripts: %w", err)
		}

		displayTranscripts(cmd.OutOrStdout(), summaries, time.Now())
		return nil
	},
}

func displayTranscripts(out io.Writer, summaries []internal.TranscriptSummary, now time.Time) {
	if len(summaries) == 0 {
		fmt.Fprintln(out, headerStyle.Render("📋 No saved chats"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 Found %d chat(s)", len(summaries))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Files")+"\t"+titleStyle.Render("Updated")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 100))

	for _, sum := range summaries {
		title := sum.Title
		if title == "" {
			title = "Untitled"
		}
		if r := []rune(title); len(r) > 50 {
			title = string(r[:47]) + "..."
		}
		title = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Render(title)

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(shortID(sum.ID)),
			title,
			countStyle.Render(strconv.Itoa(sum.MessageCount)),
			countStyle.Render(strconv.Itoa(sum.FileCount)),
			dateStyle.Render(formatWhen(sum.UpdatedAt, now)),
		)
	}

	_ = w.Flush()
	fmt.Fprintln(out)
	fmt.Fprintln(out, idStyle.Render("💡 Tip: Use the ID (e.g., ")+
		lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render(shortID(summaries[0].ID))+
		idStyle.Render(") with `rag-chat show <id>` or `rag-chat chat --resume <id>`"))
}

func init() {
	rootCmd.AddCommand(listCmd)
}
