package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsight/internal/logger"
)

const (
	defaultServeAddr = "127.0.0.1:8080"
	serverAddrKey    = "server.addr"
	shutdownTimeout  = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serves the JSON HTTP API for projects, documents, key points, chat and
search, plus /healthz and Prometheus /metrics.

The address comes from --addr, then the server.addr setting, then
` + defaultServeAddr + `.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (host:port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	b, err := needBackend()
	if err != nil {
		return err
	}
	if b.Handler == nil {
		return errors.New("HTTP API not available")
	}

	addr := serveAddr
	if addr == "" && configStore != nil {
		addr = configStore.GetString(serverAddrKey)
	}
	if addr == "" {
		addr = defaultServeAddr
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	cmd.PrintErrf("docsight API listening on http://%s\n", ln.Addr())
	return serveHTTP(cmd.Context(), ln, b.Handler)
}

// serveHTTP serves handler on ln until ctx is cancelled, then shuts down
// gracefully.
func serveHTTP(ctx context.Context, ln net.Listener, handler http.Handler) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("http: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
