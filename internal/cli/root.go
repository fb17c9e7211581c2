// Package cli implements the cobra-based CLI commands for inventory-tool.
//
// Each command family (host, group, ippool, ansible) is defined in its own
// file within this package. This file defines the root command that serves
// as the parent for all subcommands and handles global flags, configuration
// and error reporting.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shinji-kodama/inventory-tool/internal/config"
	"github.com/shinji-kodama/inventory-tool/internal/logging"
	"github.com/shinji-kodama/inventory-tool/internal/model"
	"github.com/shinji-kodama/inventory-tool/internal/ui"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	jsonOutput bool

	// verbose enables debug logging and [verbose] trace lines on stderr.
	verbose bool

	// cfgFile names an explicit config file instead of the search path.
	cfgFile string
)

// Settings resolved in the root command's PersistentPreRunE.
var (
	settings *config.Config
	logger   = zap.NewNop()
)

// Version, Commit and Date are set at build time via ldflags.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// The root command itself does not perform any action. It loads the
// configuration before any subcommand runs and provides the global flags.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "inventory-tool",
		Short: "Host, group and IP pool inventory for Ansible",
		Long: `inventory-tool maintains a single YAML inventory of hosts, groups and IP
address pools and serves it to Ansible as a dynamic inventory.

Group membership, host name normalization and IP address allocation are kept
consistent on every change. Address variables bound to a pool through a group
get free addresses assigned automatically.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		SilenceUsage: true,

		// SilenceErrors lets Execute format errors as text or JSON.
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadSettings(cmd)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./inventory-tool.yml or ~/.config/inventory-tool/inventory-tool.yml)")
	rootCmd.PersistentFlags().StringP("inventory", "i", "",
		"inventory file (default: "+config.DefaultInventory+")")

	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewHostCommand())
	rootCmd.AddCommand(NewGroupCommand())
	rootCmd.AddCommand(NewIPPoolCommand())
	rootCmd.AddCommand(NewAnsibleCommand())
	rootCmd.AddCommand(NewRecalculateCommand())

	return rootCmd
}

// loadSettings reads the configuration and builds the logger. The
// --inventory flag takes precedence over the config file and environment.
func loadSettings(cmd *cobra.Command) error {
	home, _ := os.UserHomeDir()
	v := config.New(cfgFile, home)
	if err := v.BindPFlag("inventory", cmd.Root().PersistentFlags().Lookup("inventory")); err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, err := logging.New(level)
	if err != nil {
		return model.WrapMalformedInput(err, "invalid log_level setting")
	}

	settings = cfg
	logger = log
	VerboseLog("Using settings: %s", cfg)
	return nil
}

// Execute runs the root command and handles exit codes.
//
// CLIError types carry their own exit codes; inventory errors map onto
// the exit code of their kind and anything else exits with 1.
func Execute(rootCmd *cobra.Command) {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err == nil {
		return
	}

	code := model.ExitCodeFor(err)
	printError(os.Stderr, err, code)
	os.Exit(int(code))
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(w io.Writer, err error, code model.ExitCode) {
	message, detail := err.Error(), ""
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		message = cliErr.Message
		if cliErr.Err != nil {
			detail = cliErr.Err.Error()
		}
	}

	if jsonOutput {
		errMap := map[string]interface{}{
			"message": message,
			"code":    int(code),
		}
		if detail != "" {
			errMap["detail"] = detail
		}
		if kind, ok := model.KindOf(err); ok {
			errMap["kind"] = kind.String()
		}
		data, _ := json.MarshalIndent(map[string]interface{}{"error": errMap}, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	fmt.Fprint(w, ui.FormatError(message, detail, hintFor(code)))
}

// hintFor suggests the next step for an exit code.
func hintFor(code model.ExitCode) string {
	switch code {
	case model.ExitMalformedInput:
		return "check the names and values given on the command line"
	case model.ExitBadData:
		return "fix the inventory file"
	case model.ExitUserCancelled:
		return "pass --force to skip the confirmation"
	default:
		return ""
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}
