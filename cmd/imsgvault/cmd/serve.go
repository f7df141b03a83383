package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/wesm/imsgvault/internal/api"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the message history over a read-only HTTP API",
	Long: `Run an HTTP JSON API over chat.db in the foreground.

Endpoints (under /api/v1):
  GET /access                    store and contacts accessibility
  GET /stats                     totals, ?after=&before=
  GET /contacts                  handles with message counts
  GET /contacts/{id}/messages    full history with one contact
  GET /chats                     conversations
  GET /messages                  newest first, ?after=&before=&contact_id=&limit=

Set [server] api_key in config.toml to require a key. Binding beyond
loopback without a key is refused unless allow_insecure = true.

Use Ctrl+C to stop the server gracefully.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default: [server] api_port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort > 0 {
		cfg.Server.APIPort = servePort
	}
	if err := cfg.Server.ValidateSecure(); err != nil {
		return err
	}

	a := openArchive()
	if status := a.CheckStoreAccessible(cmd.Context()); !status.Accessible {
		logger.Warn("message store not accessible; requests will fail until access is granted",
			"path", status.Path, "error", deref(status.Error, ""))
	}

	apiServer := api.NewServer(cfg, a, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	bindAddr := cfg.Server.BindAddr
	if bindAddr == "" {
		bindAddr = "127.0.0.1"
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "imsgvault API server started\n")
	fmt.Fprintf(out, "  API server: http://%s\n", net.JoinHostPort(bindAddr, strconv.Itoa(cfg.Server.APIPort)))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Press Ctrl+C to stop.")

	var runErr error
	select {
	case <-cmd.Context().Done():
		logger.Info("received shutdown signal")
	case err := <-serverErr:
		logger.Error("API server error", "error", err)
		runErr = fmt.Errorf("API server: %w", err)
	}

	fmt.Fprintln(out, "Shutting down API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server shutdown error", "error", err)
	}
	return runErr
}
