package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/rag-chat/internal"
	"github.com/iksnae/rag-chat/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
	exportID  string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved chats to files",
	Long: `Export saved chat transcripts to various formats (jsonl, md, yaml, json).

You can export every saved chat or a single one by id (any unique prefix).
Use 'rag-chat list' to see available ids.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()

		var transcripts []*internal.Transcript
		if exportID != "" {
			t, err := store.Load(ctx, exportID)
			if err != nil {
				return fmt.Errorf("chat not found: %s (use 'rag-chat list' to see saved chats): %w", exportID, err)
			}
			transcripts = []*internal.Transcript{t}
		} else {
			transcripts, err = store.LoadAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to load chats: %w", err)
			}
		}

		if len(transcripts) == 0 {
			internal.PrintInfo("No saved chats to export")
			return nil
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		exported := 0
		err = internal.ShowProgress(ctx, fmt.Sprintf("Exporting %d chat(s) to %s", len(transcripts), outputDir), func() error {
			for _, t := range transcripts {
				if err := exportTranscript(exporter, t, outputDir); err != nil {
					internal.LogError("%v", err)
					continue
				}
				exported++
			}
			return nil
		})
		if err != nil {
			return err
		}
		if exported < len(transcripts) {
			return fmt.Errorf("exported %d of %d chat(s); see the log for failures", exported, len(transcripts))
		}

		internal.PrintSuccess(fmt.Sprintf("Export complete: %d chat(s) exported to %s", exported, outputDir))
		return nil
	},
}

func exportTranscript(exporter export.Exporter, t *internal.Transcript, dir string) error {
	path := filepath.Join(dir, fmt.Sprintf("chat_%s.%s", t.ID, exporter.Extension()))

	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}

	if err := exporter.Export(t, file); err != nil {
		_ = file.Close()
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: fmt.Errorf("chat %s: %w", t.ID, err)}
	}

	if err := file.Close(); err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().StringVar(&exportID, "id", "", "Export a single chat by id")
}
