package cli

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/cli/config"
	"github.com/secmon-lab/termfolio/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const envFileEnv = "TERMFOLIO_ENV_FILE"

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var envFile string
	var closers []func()

	// Flag sources read the environment while parsing, so the dotenv file is
	// loaded before the app runs.
	if err := loadEnvFile(args); err != nil {
		return err
	}

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "env-file",
			Usage:       "Load environment variables from a dotenv file",
			Sources:     cli.EnvVars(envFileEnv),
			Destination: &envFile,
		},
	}
	flags = append(flags, loggerCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	app := &cli.Command{
		Name:    "termfolio",
		Usage:   "Portfolio chat assistant with retrieval over portfolio content",
		Version: version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closers = append(closers, f)

			flush, err := sentryCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closers = append(closers, flush)

			logging.Default().Info("Starting termfolio",
				"logger", loggerCfg,
				"env_file", envFile,
				slog.Any("sentry", slog.GroupValue(sentryCfg.LogAttrs()...)))
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdMigrate(),
			cmdIngest(),
			cmdChat(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}

// envFilePath finds the --env-file value in args, falling back to the environment
func envFilePath(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--":
			return os.Getenv(envFileEnv)
		case arg == "--env-file" || arg == "-env-file":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(arg, "--env-file="):
			return strings.TrimPrefix(arg, "--env-file=")
		case strings.HasPrefix(arg, "-env-file="):
			return strings.TrimPrefix(arg, "-env-file=")
		}
	}
	return os.Getenv(envFileEnv)
}

// loadEnvFile applies the dotenv file, if any. Variables already set in the
// environment take precedence.
func loadEnvFile(args []string) error {
	path := envFilePath(args)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return goerr.Wrap(err, "failed to load env file", goerr.V(config.ConfigPathKey, path))
	}
	return nil
}
