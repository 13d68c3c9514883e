package types

import (
	"fmt"
	"strings"
)

// SpliceMode decides which span of a layout invocation is replaced.
type SpliceMode string

const (
	// SpliceArguments replaces the argument list, parentheses included.
	SpliceArguments SpliceMode = "arguments"
	// SpliceCall replaces the whole call and re-emits the identifier.
	SpliceCall SpliceMode = "call"
)

// DefaultPattern captures the identifier, argument list and whole call of
// every call expression whose callee is a plain identifier.
const DefaultPattern = `(call_expression
  function: (identifier) @id
  arguments: (argument_list) @args) @call`

// ReformatterConfig configures the external whole-document formatter.
type ReformatterConfig struct {
	Enabled bool     `yaml:"enabled"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
}

// Config is threaded through every component of a formatting run.
type Config struct {
	NamePrefix     string            `yaml:"name_prefix"`
	IndentFallback string            `yaml:"indent_fallback"`
	GapWidth       int               `yaml:"gap_width"`
	Language       string            `yaml:"language"`
	Pattern        string            `yaml:"pattern,omitempty"`
	SpliceMode     SpliceMode        `yaml:"splice_mode"`
	AnchorName     string            `yaml:"anchor_name,omitempty"`
	Extensions     []string          `yaml:"extensions"`
	Reformatter    ReformatterConfig `yaml:"reformatter"`
}

func DefaultConfig() Config {
	return Config{
		NamePrefix:     "LAYOUT",
		IndentFallback: "    ",
		GapWidth:       0,
		Language:       "c",
		SpliceMode:     SpliceArguments,
		Extensions:     []string{".c", ".h"},
		Reformatter: ReformatterConfig{
			Enabled: false,
			Command: "clang-format",
		},
	}
}

// QueryPattern returns the configured pattern or DefaultPattern.
func (c Config) QueryPattern() string {
	if strings.TrimSpace(c.Pattern) == "" {
		return DefaultPattern
	}
	return c.Pattern
}

// Validate checks the configuration for values no component can work with.
func (c Config) Validate() error {
	if c.NamePrefix == "" {
		return fmt.Errorf("%w: name_prefix must not be empty", ErrInvalidConfig)
	}
	if c.GapWidth < 0 {
		return fmt.Errorf("%w: gap_width must be >= 0, got %d", ErrInvalidConfig, c.GapWidth)
	}
	if strings.Trim(c.IndentFallback, " \t") != "" {
		return fmt.Errorf("%w: indent_fallback must contain only spaces and tabs", ErrInvalidConfig)
	}
	switch c.SpliceMode {
	case SpliceArguments, SpliceCall:
	default:
		return fmt.Errorf("%w: unknown splice_mode %q", ErrInvalidConfig, c.SpliceMode)
	}
	if c.Reformatter.Enabled && c.Reformatter.Command == "" {
		return fmt.Errorf("%w: reformatter enabled without a command", ErrInvalidConfig)
	}
	return nil
}
