package format

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnolang/keyfmt/internal/grammar/treesitter"
	"github.com/gnolang/keyfmt/internal/reformat"
	"github.com/gnolang/keyfmt/internal/splice"
	"github.com/gnolang/keyfmt/internal/types"
)

type FormatEngine interface {
	Render(ctx context.Context, src []byte) ([]byte, error)
}

// Processor formats a single file.
type Processor func(ctx context.Context, engine FormatEngine, path string) (Result, error)

// Result is the outcome of formatting one document.
type Result struct {
	Path   string
	Before []byte
	After  []byte
}

// Changed reports whether formatting altered the document.
func (r Result) Changed() bool {
	return !bytes.Equal(r.Before, r.After)
}

// New builds the formatting engine described by config.
func New(config types.Config, logger *zap.Logger) (*splice.Engine, error) {
	provider, err := treesitter.New(config.Language)
	if err != nil {
		return nil, err
	}
	return splice.New(config, provider, reformat.New(config.Reformatter, logger), logger)
}

func ProcessSource(ctx context.Context, engine FormatEngine, source []byte) (Result, error) {
	out, err := engine.Render(ctx, source)
	if err != nil {
		return Result{}, err
	}
	return Result{Before: source, After: out}, nil
}

func ProcessFile(ctx context.Context, engine FormatEngine, path string) (Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}
	res, err := ProcessSource(ctx, engine, content)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}
	res.Path = path
	return res, nil
}

// ProcessFiles runs ProcessPath for every path. Results are sorted by path.
func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine FormatEngine,
	paths []string,
	extensions []string,
	processor Processor,
) ([]Result, error) {
	var (
		results []Result
		errs    []error
	)
	for _, path := range paths {
		res, err := ProcessPath(ctx, logger, engine, path, extensions, processor)
		results = append(results, res...)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			errs = append(errs, err)
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, errors.Join(errs...)
}

// ProcessPath formats a file, or every file with a wanted extension below a
// directory. Files are processed concurrently; a failing file does not stop
// the others and its error is returned joined with the rest.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine FormatEngine,
	path string,
	extensions []string,
	processor Processor,
) ([]Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		res, err := processor(ctx, engine, path)
		if err != nil {
			return nil, err
		}
		return []Result{res}, nil
	}

	files, err := collectFiles(path, extensions)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		logger.Info("no matching files", zap.String("path", path), zap.Strings("extensions", extensions))
		return nil, nil
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetVisibility(isatty.IsTerminal(os.Stderr.Fd())),
		progressbar.OptionSetDescription(path),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	var (
		mu      sync.Mutex
		results []Result
		errs    []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := processor(gctx, engine, file)
			_ = bar.Add(1)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Error("Error processing file", zap.String("file", file), zap.Error(err))
				errs = append(errs, err)
				return nil
			}
			results = append(results, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	_ = bar.Finish()

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, errors.Join(errs...)
}

func collectFiles(root string, extensions []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && HasDesiredExtension(path, extensions) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking %s: %w", root, err)
	}
	return files, nil
}

// HasDesiredExtension reports whether path ends in one of extensions.
func HasDesiredExtension(path string, extensions []string) bool {
	ext := filepath.Ext(path)
	for _, want := range extensions {
		if ext == want {
			return true
		}
	}
	return false
}
