package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/rag-chat/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose     bool
	configPath  string
	baseURL     string
	historyPath string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"

	// cfg is loaded before every command runs
	cfg *internal.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rag-chat",
	Short: "Chat with your documents through a RAG service",
	Long: `A terminal client for a retrieval-augmented-generation service.

Upload documents, then ask questions about them. Answers come from the
RAG service's /chat endpoint; documents go to its /upload endpoint.

Features:
  • Interactive chat with markdown answers and a file sidebar
  • One-shot questions and uploads for scripts
  • Watch a folder and upload new documents automatically
  • Saved chat history you can list, show, resume and export

Quick Start:
  rag-chat                               # Start the interactive chat
  rag-chat upload handbook.pdf           # Upload a document
  rag-chat ask "What is the refund policy?"
  rag-chat list                          # List saved chats

Configuration is read from ~/.rag-chat/config.yaml and RAGCHAT_* variables.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		internal.SetVerbose(verbose)
		return loadConfig(cmd.Root().PersistentFlags())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves settings from defaults, file, environment and flags
func loadConfig(flags *pflag.FlagSet) error {
	loaded, err := internal.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if flags.Changed("base-url") {
		loaded.BaseURL = baseURL
	}
	if flags.Changed("history") {
		loaded.HistoryPath = historyPath
	}

	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = loaded
	internal.LogDebug("Using RAG service at %s", cfg.BaseURL)
	return nil
}

// openStore opens the history database named by the config
func openStore() (*internal.Store, error) {
	store, err := internal.OpenStore(cfg.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.rag-chat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "RAG service address (default http://localhost:8000)")
	rootCmd.PersistentFlags().StringVar(&historyPath, "history", "", "History database (default ~/.rag-chat/history.db)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
