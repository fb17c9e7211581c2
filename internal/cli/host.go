// Package cli: host.go implements the "inventory-tool host" command family.
//
// Host names given on the command line are normalized with the configured
// domains, so "web1.example.com" and "web1" address the same host when
// example.com is a configured domain.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/inventory-tool/internal/inventory"
	"github.com/shinji-kodama/inventory-tool/internal/model"
	"github.com/shinji-kodama/inventory-tool/internal/ui"
)

// NewHostCommand creates the "host" cobra command and its subcommands.
func NewHostCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Manage hosts, their variables and aliases",
	}

	cmd.AddCommand(
		newHostListCommand(),
		newHostShowCommand(),
		newHostAddCommand(),
		newHostDelCommand(),
		newHostRenameCommand(),
		newHostGroupsCommand(),
		newHostSetVarsCommand(),
		newHostDelVarsCommand(),
		newHostAliasAddCommand(),
		newHostAliasDelCommand(),
	)
	return cmd
}

func newHostListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List host names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(saveIfRecalculated, func(inv *inventory.Inventory) error {
				return printNames(cmd, inv.HostNames())
			})
		},
	}
}

// hostJSON is the JSON output structure of "host show".
type hostJSON struct {
	Name    string            `json:"name"`
	Aliases []string          `json:"aliases"`
	Vars    map[string]string `json:"vars"`
	Pending []string          `json:"pending"`
	Groups  []string          `json:"groups"`
}

func newHostShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show the variables, aliases and groups of a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(saveIfRecalculated, func(inv *inventory.Inventory) error {
				h, err := inv.Host(args[0])
				if err != nil {
					return err
				}
				groups, err := inv.HostToGroups(args[0])
				if err != nil {
					return err
				}
				return printHost(cmd, args[0], h, groups)
			})
		},
	}
}

// printHost outputs a host in text or JSON format.
func printHost(cmd *cobra.Command, name string, h *inventory.Host, groups []string) error {
	if IsJSONOutput() {
		return printJSON(cmd.OutOrStdout(), hostJSON{
			Name:    name,
			Aliases: h.Aliases(),
			Vars:    h.Vars(),
			Pending: h.Pending(),
			Groups:  groups,
		})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, ui.Bold(name))
	ui.Field(w, "Aliases", joinOrNone(h.Aliases()))
	ui.Field(w, "Groups", joinOrNone(groups))
	for _, key := range h.Keys() {
		value, ok := h.Var(key)
		if !ok {
			value = ui.Dim("(pending allocation)")
		}
		ui.Field(w, key, value)
	}
	return nil
}

func newHostAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME",
		Short: "Add a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(saveAlways, func(inv *inventory.Inventory) error {
				if err := inv.HostAdd(args[0]); err != nil {
					return err
				}
				printDone(cmd, "Added host %s", args[0])
				return nil
			})
		},
	}
}

func newHostDelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "del NAME",
		Short: "Delete a host and release its addresses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(saveAlways, func(inv *inventory.Inventory) error {
				if err := inv.HostDel(args[0]); err != nil {
					return err
				}
				printDone(cmd, "Deleted host %s", args[0])
				return nil
			})
		},
	}
}

func newHostRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename FROM TO",
		Short: "Rename a host, keeping its variables and memberships",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(saveAlways, func(inv *inventory.Inventory) error {
				if err := inv.HostRename(args[0], args[1]); err != nil {
					return err
				}
				printDone(cmd, "Renamed host %s to %s", args[0], args[1])
				return nil
			})
		},
	}
}

func newHostGroupsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "groups NAME",
		Short: "List the groups a host belongs to, directly or through child groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(saveIfRecalculated, func(inv *inventory.Inventory) error {
				groups, err := inv.HostToGroups(args[0])
				if err != nil {
					return err
				}
				return printNames(cmd, groups)
			})
		},
	}
}

// setVarsFlags holds the flag values for "host set-vars".
type setVarsFlags struct {
	// fromFile names a JSON (with comments) object of variables.
	fromFile string
}

func newHostSetVarsCommand() *cobra.Command {
	flags := &setVarsFlags{}

	cmd := &cobra.Command{
		Use:   "set-vars NAME [KEY=VALUE | KEY]...",
		Short: "Set host variables",
		Long: `Set host variables in one step. Either all of them are applied or none.

A KEY without a value requests the next free address from the IP pool bound
to KEY through one of the host's groups. In a variables file, null does the
same.

Examples:
  inventory-tool host set-vars web1 ansible_ssh_host=10.0.0.5 role=frontend
  inventory-tool host set-vars web1 tunnel_ip
  inventory-tool host set-vars web1 --from-file web1.jsonc`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHostSetVars(cmd, flags, args[0], args[1:])
		},
	}

	cmd.Flags().StringVarP(&flags.fromFile, "from-file", "f", "",
		"Read variables from a JSON object file (comments allowed)")

	return cmd
}

// runHostSetVars collects variables from the arguments and the optional
// file, then applies them together.
func runHostSetVars(cmd *cobra.Command, flags *setVarsFlags, name string, assignments []string) error {
	pairs, err := parseAssignments(assignments)
	if err != nil {
		return err
	}
	if flags.fromFile != "" {
		fromFile, err := loadVarsFile(flags.fromFile)
		if err != nil {
			return err
		}
		pairs = append(fromFile, pairs...)
	}
	if len(pairs) == 0 {
		return model.MalformedInput("no variables given")
	}

	return withInventory(saveAlways, func(inv *inventory.Inventory) error {
		if err := inv.HostSetVars(name, pairs); err != nil {
			return err
		}
		h, err := inv.Host(name)
		if err != nil {
			return err
		}
		if IsJSONOutput() {
			return printJSON(cmd.OutOrStdout(), h.Vars())
		}
		printDone(cmd, "Updated %d variable(s) of host %s", len(pairs), name)
		for _, kv := range pairs {
			if kv.Auto {
				value, _ := h.Var(kv.Key)
				ui.Field(cmd.OutOrStdout(), kv.Key, value)
			}
		}
		return nil
	})
}

func newHostDelVarsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "del-vars NAME KEY...",
		Short: "Delete host variables and release their addresses",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(saveAlways, func(inv *inventory.Inventory) error {
				if err := inv.HostDelVars(args[0], args[1:]); err != nil {
					return err
				}
				printDone(cmd, "Deleted %d variable(s) of host %s", len(args)-1, args[0])
				return nil
			})
		},
	}
}

func newHostAliasAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "alias-add NAME ALIAS",
		Short: "Add an alias to a host",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(saveAlways, func(inv *inventory.Inventory) error {
				if err := inv.HostAliasAdd(args[0], args[1]); err != nil {
					return err
				}
				printDone(cmd, "Added alias %s to host %s", args[1], args[0])
				return nil
			})
		},
	}
}

func newHostAliasDelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "alias-del NAME ALIAS",
		Short: "Remove an alias from a host",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(saveAlways, func(inv *inventory.Inventory) error {
				if err := inv.HostAliasDel(args[0], args[1]); err != nil {
					return err
				}
				printDone(cmd, "Removed alias %s from host %s", args[1], args[0])
				return nil
			})
		},
	}
}

// joinOrNone renders a name list for text output.
func joinOrNone(names []string) string {
	if len(names) == 0 {
		return ui.Dim("(none)")
	}
	return strings.Join(names, ", ")
}
