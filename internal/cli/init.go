// Package cli: init.go implements the "inventory-tool init" command.
//
// The init command writes an empty inventory to the configured path. An
// existing inventory is only replaced after confirmation or with --force.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/inventory-tool/internal/inventory"
	"github.com/shinji-kodama/inventory-tool/internal/model"
)

// initFlags holds the flag values for the init command.
type initFlags struct {
	// force replaces an existing inventory without asking.
	force bool
}

// NewInitCommand creates the "init" cobra command.
func NewInitCommand() *cobra.Command {
	flags := &initFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty inventory",
		Long: `Create an empty inventory at the configured path.

Examples:
  inventory-tool init
  inventory-tool init -i hosts-staging.yml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false,
		"Replace an existing inventory without confirmation")

	return cmd
}

// runInit writes the empty inventory.
func runInit(cmd *cobra.Command, flags *initFlags) error {
	path := settings.Inventory

	// Step 1: Ask before overwriting an existing file.
	_, err := os.Stat(path)
	switch {
	case err == nil:
		if !flags.force {
			confirmed, err := promptConfirmation(cmd.InOrStdin(), cmd.ErrOrStderr(), path)
			if err != nil {
				return model.WrapCLIError(model.ExitGeneralError, "failed to read user input", err)
			}
			if !confirmed {
				return model.NewCLIError(model.ExitUserCancelled, "operation cancelled by user")
			}
		}
	case !errors.Is(err, fs.ErrNotExist):
		return model.WrapMalformedInput(err, "cannot access %s", path)
	}

	// Step 2: Write the empty inventory.
	inv, err := inventory.Open(inventoryConfig(true))
	if err != nil {
		return err
	}
	if err := inv.Save(); err != nil {
		return err
	}

	printDone(cmd, "Created empty inventory %s", path)
	return nil
}

// promptConfirmation asks the user to confirm replacing the inventory at
// path. It reads a single line and checks for "y" or "yes".
func promptConfirmation(in io.Reader, out io.Writer, path string) (bool, error) {
	fmt.Fprintf(out, "Inventory %s already exists and will be replaced.\n", path)
	fmt.Fprint(out, "\nContinue? [y/N] ")

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return answer == "y" || answer == "yes", nil
	}

	// EOF without input is treated as "no".
	return false, scanner.Err()
}
