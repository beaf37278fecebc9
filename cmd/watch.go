package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/iksnae/rag-chat/internal"
	"github.com/spf13/cobra"
)

var (
	watchExtensions []string
	watchExisting   bool
	watchDebounce   time.Duration
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Upload documents as they appear in a directory",
	Long: `Watch a directory and upload new or changed documents.

Changes are collected until the directory has been quiet for the debounce
interval, then uploaded together in one request. Only files directly in
the directory are watched. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exts := cfg.WatchExtensions
		if cmd.Flags().Changed("ext") {
			exts = watchExtensions
		}

		ctrl := internal.NewController(internal.NewSession(), cfg.NewClient())
		out := cmd.OutOrStdout()

		w, err := internal.NewWatcher(ctrl, args[0], internal.WatchOptions{
			Extensions:      exts,
			Debounce:        watchDebounce,
			IncludeExisting: watchExisting,
			OnUpload: func(paths []string, res internal.UploadResult) {
				if res.OK() {
					fmt.Fprintln(out, successStyle.Render("✓")+" Uploaded "+strings.Join(res.Files, ", "))
					return
				}
				fmt.Fprintln(out, errorStyle.Render("✗")+fmt.Sprintf(" Failed to upload %d file(s): %v", len(paths), res.Err))
			},
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		filter := "all files"
		if len(exts) > 0 {
			filter = strings.Join(exts, ", ")
		}
		fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("Watching %s for %s (Ctrl+C to stop)", args[0], filter)))

		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("watch failed: %w", err)
		}

		uploaded := ctrl.Session().UploadedFiles()
		fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("Stopped. %d file(s) uploaded this run.", len(uploaded))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringSliceVar(&watchExtensions, "ext", nil, "File extensions to upload (default from config)")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "Also upload files already in the directory")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", internal.DefaultDebounce, "Quiet period before uploading a batch")
}
