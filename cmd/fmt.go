package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/keyfmt/format"
	"github.com/gnolang/keyfmt/formatter"
	"github.com/gnolang/keyfmt/internal/cache"
	"github.com/gnolang/keyfmt/internal/types"
)

type fmtOptions struct {
	write    bool
	check    bool
	diff     bool
	cacheDir    string
	cacheMaxAge time.Duration
	clearCache  bool
}

var fmtOpts fmtOptions

var fmtCmd = &cobra.Command{
	Use:   "fmt [paths...]",
	Short: "Align layout grids; reads stdin when no paths are given",
	RunE:  runFmt,
}

func init() {
	registerFmtFlags(fmtCmd)
}

func registerFmtFlags(c *cobra.Command) {
	c.Flags().BoolVarP(&fmtOpts.write, "write", "w", false, "Write result to the source files instead of stdout")
	c.Flags().BoolVar(&fmtOpts.check, "check", false, "Exit with status 1 if any file would be reformatted")
	c.Flags().BoolVarP(&fmtOpts.diff, "diff", "d", false, "Print a unified diff instead of the formatted source")
	c.Flags().StringVar(&fmtOpts.cacheDir, "cache", "", "Directory of the formatted-file cache (disabled when empty)")
	c.Flags().DurationVar(&fmtOpts.cacheMaxAge, "cache-max-age", 0, "Expire cache entries older than this (0 keeps them)")
	c.Flags().BoolVar(&fmtOpts.clearCache, "clear-cache", false, "Discard the cache before formatting")
}

func runFmt(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	engine, err := format.New(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize format engine: %w", err)
	}
	defer engine.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if len(args) == 0 {
		return runStdin(ctx, engine, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), fmtOpts)
	}
	return runPaths(ctx, logger, engine, config, args, cmd.OutOrStdout(), cmd.ErrOrStderr(), fmtOpts)
}

func runStdin(ctx context.Context, engine format.FormatEngine, in io.Reader, out, errOut io.Writer, opts fmtOptions) error {
	source, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	res, err := format.ProcessSource(ctx, engine, source)
	if err != nil {
		return err
	}
	res.Path = "<stdin>"
	// There is no file to write back to.
	opts.write = false
	return emit(out, errOut, []format.Result{res}, opts)
}

func runPaths(
	ctx context.Context,
	logger *zap.Logger,
	engine format.FormatEngine,
	config types.Config,
	paths []string,
	out, errOut io.Writer,
	opts fmtOptions,
) error {
	processor := format.ProcessFile
	var c *cache.Cache
	if opts.cacheDir != "" {
		fingerprint, err := cache.Fingerprint(config)
		if err != nil {
			return err
		}
		c, err = cache.New(opts.cacheDir, fingerprint)
		if err != nil {
			return err
		}
		c.SetMaxAge(opts.cacheMaxAge)
		if opts.clearCache {
			c.InvalidateAll()
		}
		processor = format.CachedProcessor(c, processor)
	}

	results, procErr := format.ProcessFiles(ctx, logger, engine, paths, config.Extensions, processor)
	if errors.Is(procErr, context.Canceled) || errors.Is(procErr, context.DeadlineExceeded) {
		return procErr
	}

	var errs []error
	if procErr != nil {
		errs = append(errs, procErr)
	}
	if opts.write {
		for _, res := range results {
			if !res.Changed() {
				continue
			}
			if err := format.WriteResult(res); err != nil {
				logger.Error("Error writing file", zap.String("file", res.Path), zap.Error(err))
				errs = append(errs, err)
				continue
			}
			logger.Info("formatted", zap.String("file", res.Path))
			if c != nil {
				c.Mark(res.Path, res.After)
			}
		}
	}
	if c != nil {
		if err := c.Save(); err != nil {
			logger.Warn("Error saving cache", zap.Error(err))
		}
	}

	if err := emit(out, errOut, results, opts); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// emit prints results in the selected output mode. --check additionally
// reports unformatted files on errOut.
func emit(out, errOut io.Writer, results []format.Result, opts fmtOptions) error {
	switch {
	case opts.diff:
		for _, res := range results {
			d, err := formatter.GenerateDiff(res)
			if err != nil {
				return err
			}
			fmt.Fprint(out, d)
		}
	case opts.check:
	case opts.write:
		fmt.Fprintln(out, formatter.Summary(results))
	default:
		for _, res := range results {
			if _, err := out.Write(res.After); err != nil {
				return err
			}
		}
	}

	if opts.check {
		if report := formatter.CheckReport(results); report != "" {
			fmt.Fprint(errOut, report)
			return ErrCheckFailed
		}
	}
	return nil
}
