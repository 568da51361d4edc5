package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/xolan/outreach/internal/config"
	"github.com/xolan/outreach/internal/logging"
	"github.com/xolan/outreach/internal/remote/wsremote"
	"github.com/xolan/outreach/internal/service"
)

const shutdownTimeout = 5 * time.Second

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Share the configured collection over websockets",
	Long: `Serve the configured backend (memory, file or postgres) at
ws://<listen_addr>/v1/collection for clients using the remote backend.

Clients authenticate with a bearer token signed with token_secret; mint
one with 'outreach token <user>'. Each client only sees and changes the
entries of its token subject.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		serve(cmd.Context(), serveListen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "Listen address (overrides listen_addr)")
}

func serve(ctx context.Context, listen string) {
	_, cfg, ok := loadConfig()
	if !ok {
		return
	}
	if listen != "" {
		cfg.ListenAddr = listen
	}
	if err := cfg.RequireServer(); err != nil {
		_, _ = fmt.Fprintln(deps.Stderr, "Error: Cannot start the server")
		_, _ = fmt.Fprintf(deps.Stderr, "Details: %v\n", err)
		_, _ = fmt.Fprintln(deps.Stderr, "Hint: Set token_secret in the config file or export OUTREACH_TOKEN_SECRET")
		deps.Exit(1)
		return
	}
	if cfg.Backend == config.BackendRemote {
		_, _ = fmt.Fprintln(deps.Stderr, "Error: Cannot serve the remote backend")
		_, _ = fmt.Fprintln(deps.Stderr, "Hint: Set backend to memory, file or postgres on the serving host")
		deps.Exit(1)
		return
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		_, _ = fmt.Fprintf(deps.Stderr, "Error: Failed to listen on %s\n", cfg.ListenAddr)
		_, _ = fmt.Fprintf(deps.Stderr, "Details: %v\n", err)
		deps.Exit(1)
		return
	}
	_, _ = fmt.Fprintf(deps.Stdout, "Serving %s backend at ws://%s%s\n", cfg.Backend, ln.Addr(), wsremote.Path)

	if err := runServer(ctx, cfg, ln, newLogger(cfg)); err != nil {
		_, _ = fmt.Fprintln(deps.Stderr, "Error: Server failed")
		_, _ = fmt.Fprintf(deps.Stderr, "Details: %v\n", err)
		_, _ = fmt.Fprintln(deps.Stderr, backendHint(cfg))
		deps.Exit(1)
	}
}

// runServer serves the backend of cfg on ln until ctx is done, then shuts
// down and disconnects every client.
func runServer(ctx context.Context, cfg config.Config, ln net.Listener, log logging.Logger) error {
	coll, err := service.OpenCollection(ctx, cfg, log)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() { _ = coll.Close() }()

	ws := wsremote.NewServer(coll, []byte(cfg.TokenSecret), log)
	srv := &http.Server{
		Handler:           ws.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	log.Info(ctx, "server started", "addr", ln.Addr().String(), "backend", cfg.Backend)

	select {
	case err := <-errc:
		ws.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	ws.Close()
	return err
}
