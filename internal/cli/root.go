package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yildizm/glancelog/internal/analyzer"
	"github.com/yildizm/glancelog/internal/config"
	"github.com/yildizm/glancelog/internal/emoji"
	"github.com/yildizm/glancelog/internal/logger"
)

var (
	cfgFile     string
	verbose     bool
	noColor     bool
	noEmoji     bool
	outputFmt   string
	outputFile  string
	inputFormat string
	fromFlag    string
	toFlag      string
	filterDir   string
	noFilter    bool

	globalConfig *config.Config
	cliLog       *logger.Logger
)

// NewRootCommand creates the root command. Without a subcommand it runs the
// hash mode.
func NewRootCommand(version, commit, date string) *cobra.Command {
	pf := &patternFlags{}

	rootCmd := &cobra.Command{
		Use:   "glancelog [file]",
		Short: "Summarize log files at a glance",
		Long: `glancelog condenses large log files into a short report.

It collapses lines that differ only in variable data into patterns,
counts daemons, hosts and words, and draws activity graphs over time.
Syslog, journalctl, Apache, AWS load balancer, MySQL, PostgreSQL,
secure and Windows EVTX logs are detected automatically.

Without a subcommand the hash report is printed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Auto-disable emojis on Windows if not explicitly set
			if runtime.GOOS == "windows" && !cmd.Flags().Changed("no-emoji") {
				noEmoji = true
			}
			emoji.SetEmojiDisabled(noEmoji)

			return loadGlobalConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatterns(cmd, args, analyzer.ModeHash, pf)
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file path")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output with a summary header")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&noEmoji, "no-emoji", false, "disable emoji output (useful for Windows terminals)")
	flags.StringVarP(&outputFmt, "output", "o", "text", "output format (text, json, markdown, csv, msgpack)")
	flags.StringVar(&outputFile, "output-file", "", "save output to file instead of stdout")
	flags.StringVarP(&inputFormat, "format", "f", "auto", "input log format (auto or see 'glancelog formats')")
	flags.StringVar(&fromFlag, "from", "", "ignore entries before this time (YYYY-MM-DD[ HH:MM[:SS]])")
	flags.StringVar(&toFlag, "to", "", "ignore entries after this time (YYYY-MM-DD[ HH:MM[:SS]])")
	flags.StringVar(&filterDir, "filter-dir", "", "directory searched first for stopword filters")
	flags.BoolVar(&noFilter, "nofilter", false, "skip stopword filters")

	addPatternFlags(rootCmd, pf)

	// Add subcommands
	for _, cmd := range newPatternCommands() {
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range newGraphCommands() {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(newPrintCommand())
	rootCmd.AddCommand(newBrowseCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newFiltersCommand())
	rootCmd.AddCommand(newFormatsCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

// loadGlobalConfig loads the configuration and fills in every persistent
// flag the user did not set explicitly
func loadGlobalConfig(cmd *cobra.Command) error {
	cliLog = logger.NewWithWriter("cli", verboseFlag{}, cmd.ErrOrStderr())

	loader := config.NewLoader().WithWarnings(func(format string, args ...interface{}) {
		cliLog.Warn(format, args...)
	})
	cfg, err := loader.LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	globalConfig = cfg

	flags := cmd.Flags()
	if !flags.Changed("verbose") {
		verbose = cfg.Output.Verbose
	}
	if !flags.Changed("output") && cfg.Output.DefaultFormat != "" {
		outputFmt = cfg.Output.DefaultFormat
	}
	if !flags.Changed("format") && cfg.Input.Format != "" {
		inputFormat = cfg.Input.Format
	}
	if !flags.Changed("filter-dir") {
		filterDir = cfg.Filters.Directory
	}
	if !flags.Changed("nofilter") {
		noFilter = cfg.Filters.Disabled
	}

	return nil
}

// GetGlobalConfig returns the loaded configuration, or the defaults when no
// command has loaded one yet
func GetGlobalConfig() *config.Config {
	if globalConfig == nil {
		return config.DefaultConfig()
	}
	return globalConfig
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version number, build commit, date, and runtime information",
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "glancelog %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// Global helpers
func isVerbose() bool {
	return verbose
}

// verboseFlag lets loggers follow --verbose after flags are parsed
type verboseFlag struct{}

func (verboseFlag) IsVerbose() bool {
	return verbose
}

func getOutputFormat() string {
	return outputFmt
}

// useColor combines --no-color, NO_COLOR and the configured color mode
func useColor() bool {
	if noColor {
		return false
	}
	switch GetGlobalConfig().Output.ColorMode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isTerminal(os.Stdout)
}

// isTerminal reports whether f is attached to a character device
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// cliLogger returns the command logger, creating a stderr one for code paths that
// run outside a command
func cliLogger() *logger.Logger {
	if cliLog == nil {
		cliLog = logger.NewWithCallback("cli", isVerbose)
	}
	return cliLog
}
