// Package reformat runs an external whole-document formatter such as
// clang-format over the text surrounding the layout grids.
package reformat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/gnolang/keyfmt/internal/types"
)

// Status tells how a reformatting request was served.
type Status int

const (
	// StatusFormatted means the collaborator ran and its output is returned.
	StatusFormatted Status = iota
	// StatusUnavailable means the collaborator could not be located and the
	// input is returned unchanged.
	StatusUnavailable
	// StatusDisabled means reformatting is switched off.
	StatusDisabled
)

func (s Status) String() string {
	switch s {
	case StatusFormatted:
		return "formatted"
	case StatusUnavailable:
		return "unavailable"
	case StatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Result is the output of a reformatting request.
type Result struct {
	Output []byte
	Status Status
}

// Reformatter normalizes the style of a whole document or region.
// A failing collaborator is reported as an error wrapping
// types.ErrReformatFailed.
type Reformatter interface {
	Reformat(ctx context.Context, src []byte) (Result, error)
}

// Nop returns its input unchanged.
type Nop struct{}

func (Nop) Reformat(_ context.Context, src []byte) (Result, error) {
	return Result{Output: src, Status: StatusDisabled}, nil
}

// Func adapts an ordinary function to the Reformatter interface.
type Func func(ctx context.Context, src []byte) ([]byte, error)

func (f Func) Reformat(ctx context.Context, src []byte) (Result, error) {
	out, err := f(ctx, src)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", types.ErrReformatFailed, err)
	}
	return Result{Output: out, Status: StatusFormatted}, nil
}

// Command pipes the document through an executable.
type Command struct {
	Name   string
	Args   []string
	logger *zap.Logger
}

// NewCommand creates a Command running name with args.
func NewCommand(name string, args []string, logger *zap.Logger) *Command {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Command{Name: name, Args: args, logger: logger}
}

// New builds the reformatter described by cfg.
func New(cfg types.ReformatterConfig, logger *zap.Logger) Reformatter {
	if !cfg.Enabled {
		return Nop{}
	}
	return NewCommand(cfg.Command, cfg.Args, logger)
}

// Reformat writes src to the process's stdin, closes it, waits for the
// process to exit and returns its stdout. A missing executable is not an
// error: the input is passed through and the condition is logged.
func (c *Command) Reformat(ctx context.Context, src []byte) (Result, error) {
	path, err := exec.LookPath(c.Name)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			c.logger.Warn("reformatter not found, passing input through",
				zap.String("command", c.Name))
			return Result{Output: src, Status: StatusUnavailable}, nil
		}
		return Result{}, fmt.Errorf("%w: locate %s: %v", types.ErrReformatFailed, c.Name, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, c.Args...)
	cmd.Stdin = bytes.NewReader(src)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("%w: %s exited with status %d: %s",
				types.ErrReformatFailed, c.Name, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return Result{}, fmt.Errorf("%w: run %s: %v", types.ErrReformatFailed, c.Name, err)
	}

	c.logger.Debug("reformatted document",
		zap.String("command", c.Name),
		zap.Int("in", len(src)),
		zap.Int("out", stdout.Len()))

	return Result{Output: stdout.Bytes(), Status: StatusFormatted}, nil
}
