package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/keyfmt/format"
	"github.com/gnolang/keyfmt/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Reformat matching files in place whenever they change",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		engine, err := format.New(config, logger)
		if err != nil {
			return err
		}
		defer engine.Close()

		accept := func(path string) bool {
			return !strings.HasPrefix(filepath.Base(path), ".keyfmt-") &&
				format.HasDesiredExtension(path, config.Extensions)
		}
		w, err := watch.New(args, accept, formatInPlace(engine, logger), logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("watching", zap.Strings("paths", args))
		return w.Run(ctx)
	},
}

// formatInPlace returns a watch handler that rewrites a file when its grids
// are not aligned.
func formatInPlace(engine format.FormatEngine, logger *zap.Logger) watch.Handler {
	return func(ctx context.Context, path string) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		res, err := format.ProcessFile(ctx, engine, path)
		if err != nil {
			return err
		}
		if !res.Changed() {
			return nil
		}
		if err := format.WriteResult(res); err != nil {
			return err
		}
		logger.Info("formatted", zap.String("file", path))
		return nil
	}
}
