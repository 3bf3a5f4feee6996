// Package cli provides the command-line interface for ragchat.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ragchat/internal/config"
	"ragchat/internal/logging"
	"ragchat/internal/service"
	"ragchat/internal/state"
	"ragchat/internal/token"
	"ragchat/internal/transport"
	"ragchat/internal/tui"
)

// Version is set at build time.
var Version = "0.1.0"

var (
	flagAPIURL string
	flagAPIKey string

	cfg        *config.Config
	logCleanup func() error

	tokens       *token.Store
	sessionSvc   *service.SessionService
	chatSvc      *service.ChatService
	chatStore    *state.ChatStore
	sessionStore *state.SessionStore
)

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Terminal client for the RAG chat backend",
	Long: `Ragchat is a terminal client for the RAG chat backend: a session
sidebar, a message view, and a streaming input line.

Run without arguments to open the interactive UI, or use the subcommands
for one-shot session and chat operations.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.Run(chatStore, sessionStore)
	},
}

func init() {
	// Assigned here rather than in the composite literal because the
	// closure references rootCmd, which would be an initialization cycle.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		if flagAPIURL != "" {
			cfg.APIURL = flagAPIURL
		}
		if flagAPIKey != "" {
			cfg.APIKey = flagAPIKey
		}

		// The interactive UI owns the terminal; everything else may log
		// to stderr as well as the file.
		interactive := cmd == rootCmd
		_, logCleanup = logging.Setup(cfg.LogFile, cfg.LogLevel, !interactive)

		tokens = token.NewStore(cfg.TokenFile, cfg.AuthToken)
		client := transport.NewClient(cfg.APIURL, cfg.APIKey, tokens, time.Duration(cfg.TimeoutSeconds)*time.Second)
		sessionSvc = service.NewSessionService(client)
		chatSvc = service.NewChatService(client)
		chatStore = state.NewChatStore(chatSvc)
		sessionStore = state.NewSessionStore(sessionSvc)
		return nil
	}

	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "backend base URL (overrides RAGCHAT_API_URL)")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "API key (overrides RAGCHAT_API_KEY)")

	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(stubCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

// Execute runs the CLI and returns a process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
