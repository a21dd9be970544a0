// Package cli implements devicectl, the command-line surface over the same
// service the HTTP server uses.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/user"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/devicebulk/internal/application"
	"github.com/JonMunkholm/devicebulk/internal/config"
	"github.com/JonMunkholm/devicebulk/internal/core"
	"github.com/JonMunkholm/devicebulk/internal/logging"
)

type options struct {
	envFile string
	json    bool
}

var opts options

// openService builds the service from the loaded configuration. Tests replace it.
var openService = application.Open

var rootCmd = &cobra.Command{
	Use:   "devicectl [command]",
	Short: "Bulk insert, update and delete devices across the device tables",
	Long: `Apply CSV or XLSX batches to the root device table and its linked child tables,
and manage the defaults, child-row templates and visibility settings used by the server.

Configuration comes from the same environment variables as the server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Environment file to load before reading configuration")
	rootCmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Print results as JSON")
}

// Execute runs devicectl and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		return 1
	}
	return 0
}

// describe prefers the operator-facing message for known errors.
func describe(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}

// withService loads configuration, opens the service, runs fn and closes the
// service again.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *core.Service) error) error {
	if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", opts.envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format))

	ctx := core.WithRequestMeta(cmd.Context(), core.RequestMeta{
		UserAgent: "devicectl",
		Actor:     currentUser(),
	})

	svc, err := openService(ctx, cfg)
	if err != nil {
		return err
	}

	runErr := fn(ctx, svc)
	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return errors.Join(runErr, svc.Close(closeCtx))
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}

func stdout(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }
