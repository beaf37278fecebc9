package cmd

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/iksnae/rag-chat/internal"
	"github.com/spf13/cobra"
)

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload <file...>",
	Short: "Upload documents to the RAG service",
	Long: `Upload one or more documents in a single request.

All files are sent together; if the service rejects the request, none of
them count as uploaded.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opened, err := internal.OpenUploadFiles(args)
		if err != nil {
			return err
		}
		defer func() { _ = opened.Close() }()

		session := internal.NewSession()
		ctrl := internal.NewController(session, cfg.NewClient())

		ctx := cmd.Context()
		var res internal.UploadResult
		message := fmt.Sprintf("Uploading %d file(s), %s", len(opened.Files), humanize.Bytes(uint64(opened.TotalSize)))
		progressErr := internal.ShowProgress(ctx, message, func() error {
			res, _ = ctrl.UploadFiles(ctx, opened.Files)
			return res.Err
		})
		if progressErr != nil && res.Err == nil {
			return progressErr
		}

		out := cmd.OutOrStdout()
		if msgs := session.Messages(); len(msgs) > 0 {
			displayMessage(out, 0, msgs[len(msgs)-1], 0, false)
		}

		if res.Err != nil {
			var reqErr *internal.RequestError
			if errors.As(res.Err, &reqErr) && reqErr.Message != "" {
				return fmt.Errorf("upload rejected: %s", reqErr.Message)
			}
			return fmt.Errorf("upload failed: %w", res.Err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
