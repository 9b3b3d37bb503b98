package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	httpctrl "github.com/secmon-lab/termfolio/pkg/controller/http"
	"github.com/secmon-lab/termfolio/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var contentPath string
	var appCfg appConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("TERMFOLIO_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "content",
			Usage:       "TOML file with portfolio content for the training endpoint (built-in sample if empty)",
			Sources:     cli.EnvVars("TERMFOLIO_CONTENT"),
			Destination: &contentPath,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			logger.Info("Serve configuration", appCfg.LogAttrs()...)

			uc, closer, err := appCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer closer()

			portfolio, err := loadPortfolio(contentPath)
			if err != nil {
				return err
			}

			var opts []httpctrl.Options
			if uc.Embedding.Enabled() {
				opts = append(opts,
					httpctrl.WithEmbedding(uc.Embedding),
					httpctrl.WithPortfolio(portfolio),
				)
			} else {
				logger.Warn("Embedding disabled, similar content retrieval and embedding endpoints are off")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc.Chat, opts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}
