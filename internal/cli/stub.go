package cli

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"ragchat/internal/stub"
)

var (
	stubAddr        string
	stubRequireAuth bool
)

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Run a local in-memory stub of the chat backend",
	Long: `Runs an in-memory implementation of the backend's HTTP surface for
local development. It honors the configured API key and can optionally
demand a bearer token to exercise the 401 handling of the client.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		router := stub.NewRouter(stub.NewHandler(), stub.Options{
			APIKey:      cfg.APIKey,
			RequireAuth: stubRequireAuth,
		})

		server := &http.Server{
			Addr:              stubAddr,
			Handler:           router,
			ReadHeaderTimeout: 20 * time.Second,
			WriteTimeout:      0, // streaming endpoint holds connections open
			IdleTimeout:       120 * time.Second,
		}

		slog.Info("Starting stub backend", "addr", stubAddr, "require_auth", stubRequireAuth)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	stubCmd.Flags().StringVar(&stubAddr, "addr", ":8080", "listen address")
	stubCmd.Flags().BoolVar(&stubRequireAuth, "require-auth", false, "reject requests without a bearer token")
}
