// Package cli: group.go implements the "inventory-tool group" command family.
package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/inventory-tool/internal/inventory"
	"github.com/shinji-kodama/inventory-tool/internal/ui"
)

// NewGroupCommand creates the "group" cobra command and its subcommands.
func NewGroupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage groups, their hosts and child groups",
	}

	cmd.AddCommand(
		newGroupListCommand(),
		newGroupShowCommand(),
		newGroupAddCommand(),
		newGroupDelCommand(),
		newGroupEditCommand("child-add GROUP CHILD", "Make CHILD a child group of GROUP",
			"Added child group %[2]s to %[1]s", (*inventory.Inventory).GroupChildAdd),
		newGroupEditCommand("child-del GROUP CHILD", "Remove the child group link",
			"Removed child group %[2]s from %[1]s", (*inventory.Inventory).GroupChildDel),
		newGroupEditCommand("host-add GROUP HOST", "Add a host to a group",
			"Added host %[2]s to group %[1]s", (*inventory.Inventory).GroupHostAdd),
		newGroupEditCommand("host-del GROUP HOST", "Remove a host from a group",
			"Removed host %[2]s from group %[1]s", (*inventory.Inventory).GroupHostDel),
	)
	return cmd
}

func newGroupListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List group names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(saveIfRecalculated, func(inv *inventory.Inventory) error {
				return printNames(cmd, inv.GroupNames())
			})
		},
	}
}

// groupJSON is the JSON output structure of "group show".
type groupJSON struct {
	Name     string            `json:"name"`
	Hosts    []string          `json:"hosts"`
	Children []string          `json:"children"`
	IPPools  map[string]string `json:"ippools"`
}

func newGroupShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show the hosts, child groups and pool bindings of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(saveIfRecalculated, func(inv *inventory.Inventory) error {
				g, err := inv.Group(args[0])
				if err != nil {
					return err
				}
				return printGroup(cmd, args[0], g)
			})
		},
	}
}

// printGroup outputs a group in text or JSON format.
func printGroup(cmd *cobra.Command, name string, g *inventory.Group) error {
	if IsJSONOutput() {
		return printJSON(cmd.OutOrStdout(), groupJSON{
			Name:     name,
			Hosts:    g.Hosts(),
			Children: g.Children(),
			IPPools:  g.IPPools(),
		})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, ui.Bold(name))
	ui.Field(w, "Hosts", joinOrNone(g.Hosts()))
	ui.Field(w, "Children", joinOrNone(g.Children()))

	bindings := g.IPPools()
	keys := make([]string, 0, len(bindings))
	for key := range bindings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		ui.Field(w, key, "from pool "+bindings[key])
	}
	return nil
}

func newGroupAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME",
		Short: "Add an empty group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(saveAlways, func(inv *inventory.Inventory) error {
				if err := inv.GroupAdd(args[0]); err != nil {
					return err
				}
				printDone(cmd, "Added group %s", args[0])
				return nil
			})
		},
	}
}

func newGroupDelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "del NAME",
		Short: "Delete a group; its child groups move to its parents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(saveAlways, func(inv *inventory.Inventory) error {
				if err := inv.GroupDel(args[0]); err != nil {
					return err
				}
				printDone(cmd, "Deleted group %s", args[0])
				return nil
			})
		},
	}
}

// newGroupEditCommand builds a two-argument group subcommand that applies
// op and reports done, formatted with both arguments.
func newGroupEditCommand(use, short, done string, op func(*inventory.Inventory, string, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(saveAlways, func(inv *inventory.Inventory) error {
				if err := op(inv, args[0], args[1]); err != nil {
					return err
				}
				printDone(cmd, done, args[0], args[1])
				return nil
			})
		},
	}
}
