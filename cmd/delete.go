package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/iksnae/rag-chat/internal"
	"github.com/spf13/cobra"
)

var deleteYes bool

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved chat",
	Long: `Delete a saved chat transcript from the history database.

The id may be any unique prefix of a transcript id. Without --yes the
command asks for confirmation, and refuses when it cannot ask.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		id, err := store.Resolve(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to find chat %s: %w", args[0], err)
		}

		if !deleteYes {
			if !internal.IsTerminal(os.Stdin) {
				return fmt.Errorf("refusing to delete %s without --yes", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Delete chat %s? [y/N] ", id)
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
		}

		if _, err := store.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete chat %s: %w", id, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓")+" Deleted chat "+id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete without asking")
}
