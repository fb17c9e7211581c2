// Package cli: ansible.go implements the "inventory-tool ansible" command,
// the dynamic inventory script interface Ansible calls with --list or
// --host NAME.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/inventory-tool/internal/inventory"
	"github.com/shinji-kodama/inventory-tool/internal/model"
)

// ansibleFlags holds the flag values for the ansible command.
type ansibleFlags struct {
	// list prints every group plus the variables of every host.
	list bool

	// host prints the variables of a single host.
	host string
}

// NewAnsibleCommand creates the "ansible" cobra command.
func NewAnsibleCommand() *cobra.Command {
	flags := &ansibleFlags{}

	cmd := &cobra.Command{
		Use:   "ansible (--list | --host NAME)",
		Short: "Print the inventory in Ansible dynamic inventory format",
		Long: `Print the inventory in Ansible dynamic inventory format. Output is always JSON.

The inventory file is never modified by this command, even when it has to be
recalculated in memory. A group member lacking a variable the group binds to
a pool makes the command fail.

Examples:
  inventory-tool ansible --list
  inventory-tool ansible --host web1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnsible(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.list, "list", false, "Print all groups and host variables")
	cmd.Flags().StringVar(&flags.host, "host", "", "Print the variables of one host")
	cmd.MarkFlagsMutuallyExclusive("list", "host")
	cmd.MarkFlagsOneRequired("list", "host")

	return cmd
}

// runAnsible prints the requested view without saving.
func runAnsible(cmd *cobra.Command, flags *ansibleFlags) error {
	if !flags.list && flags.host == "" {
		return model.MalformedInput("one of --list or --host NAME is required")
	}

	return withInventory(saveNever, func(inv *inventory.Inventory) error {
		if flags.list {
			view, err := inv.AnsibleView()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), view)
		}

		vars, err := inv.AnsibleHostVars(flags.host)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), vars)
	})
}
