package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gnolang/keyfmt/format"
	"github.com/gnolang/keyfmt/internal/types"
)

// configFlags override values read from the configuration file.
var configFlags struct {
	prefix          string
	gap             int
	indent          string
	anchor          string
	reformat        bool
	reformatter     string
	reformatterArgs []string
	spliceMode      string
	language        string
}

func registerConfigFlags(c *cobra.Command) {
	defaults := types.DefaultConfig()
	flags := c.PersistentFlags()
	flags.StringVar(&configFlags.prefix, "prefix", defaults.NamePrefix, "Identifier prefix of layout invocations")
	flags.IntVar(&configFlags.gap, "gap", defaults.GapWidth, "Extra spaces before the middle column")
	flags.StringVar(&configFlags.indent, "indent", defaults.IndentFallback, "Indent used when the invocation line has none")
	flags.StringVar(&configFlags.anchor, "anchor", "", "Only format inside the declaration with this name")
	flags.BoolVar(&configFlags.reformat, "reformat", false, "Run the external reformatter before splicing")
	flags.StringVar(&configFlags.reformatter, "reformatter", defaults.Reformatter.Command, "External reformatter executable")
	flags.StringSliceVar(&configFlags.reformatterArgs, "reformatter-args", nil, "Arguments passed to the external reformatter")
	flags.StringVar(&configFlags.spliceMode, "splice-mode", string(defaults.SpliceMode), "Span replaced by a grid: arguments or call")
	flags.StringVar(&configFlags.language, "language", defaults.Language, "Grammar used to parse sources: c or cpp")
}

// loadConfig reads the configuration file and applies the flags the user set
// explicitly.
func loadConfig(c *cobra.Command) (types.Config, error) {
	config, err := format.LoadConfig(cfgFile)
	if err != nil {
		return config, err
	}

	flags := c.Flags()
	if flags.Changed("prefix") {
		config.NamePrefix = configFlags.prefix
	}
	if flags.Changed("gap") {
		config.GapWidth = configFlags.gap
	}
	if flags.Changed("indent") {
		config.IndentFallback = configFlags.indent
	}
	if flags.Changed("anchor") {
		config.AnchorName = configFlags.anchor
	}
	if flags.Changed("reformat") {
		config.Reformatter.Enabled = configFlags.reformat
	}
	if flags.Changed("reformatter") {
		config.Reformatter.Command = configFlags.reformatter
	}
	if flags.Changed("reformatter-args") {
		config.Reformatter.Args = configFlags.reformatterArgs
	}
	if flags.Changed("splice-mode") {
		config.SpliceMode = types.SpliceMode(configFlags.spliceMode)
	}
	if flags.Changed("language") {
		config.Language = configFlags.language
	}

	return config, config.Validate()
}
