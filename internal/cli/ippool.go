// Package cli: ippool.go implements the "inventory-tool ippool" command family.
//
// An IP pool is a CIDR network whose addresses are handed out to host
// variables. A pool is bound to a variable key through a group; members of
// the group draw that variable's addresses from the pool.
package cli

import (
	"fmt"
	"net/netip"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/inventory-tool/internal/inventory"
	"github.com/shinji-kodama/inventory-tool/internal/ippool"
	"github.com/shinji-kodama/inventory-tool/internal/ui"
)

// NewIPPoolCommand creates the "ippool" cobra command and its subcommands.
func NewIPPoolCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ippool",
		Aliases: []string{"pool"},
		Short:   "Manage IP pools and their bindings to groups",
	}

	cmd.AddCommand(
		newIPPoolListCommand(),
		newIPPoolShowCommand(),
		newIPPoolAddCommand(),
		newIPPoolDelCommand(),
		newIPPoolBindingCommand("assign POOL GROUP KEY",
			"Draw the values of KEY for members of GROUP from POOL",
			"Bound %[3]s of group %[2]s to pool %[1]s", (*inventory.Inventory).IPPoolAssign),
		newIPPoolBindingCommand("revoke POOL GROUP KEY",
			"Remove the binding of KEY in GROUP to POOL",
			"Unbound %[3]s of group %[2]s from pool %[1]s", (*inventory.Inventory).IPPoolRevoke),
		newIPPoolAddrCommand("book POOL ADDR", "Reserve an address so it is never allocated",
			"Reserved %[2]s in pool %[1]s", (*inventory.Inventory).IPPoolBookAddr),
		newIPPoolAddrCommand("cancel POOL ADDR", "Release a reserved address",
			"Released %[2]s in pool %[1]s", (*inventory.Inventory).IPPoolCancelAddr),
	)
	return cmd
}

func newIPPoolListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List IP pool names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(saveIfRecalculated, func(inv *inventory.Inventory) error {
				return printNames(cmd, inv.IPPoolNames())
			})
		},
	}
}

// ippoolJSON is the JSON output structure of "ippool show".
type ippoolJSON struct {
	Name      string   `json:"name"`
	Network   string   `json:"network"`
	Allocated []string `json:"allocated"`
	Reserved  []string `json:"reserved"`
}

func newIPPoolShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show the network and the used addresses of a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(saveIfRecalculated, func(inv *inventory.Inventory) error {
				p, err := inv.IPPool(args[0])
				if err != nil {
					return err
				}
				return printIPPool(cmd, args[0], p)
			})
		},
	}
}

// printIPPool outputs a pool in text or JSON format.
func printIPPool(cmd *cobra.Command, name string, p *ippool.Pool) error {
	allocated := addrList(p.Allocated())
	reserved := addrList(p.Reserved())

	if IsJSONOutput() {
		return printJSON(cmd.OutOrStdout(), ippoolJSON{
			Name:      name,
			Network:   p.Network().String(),
			Allocated: allocated,
			Reserved:  reserved,
		})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, ui.Bold(name))
	ui.Field(w, "Network", p.Network().String())
	ui.Field(w, "Allocated", joinOrNone(allocated))
	ui.Field(w, "Reserved", joinOrNone(reserved))
	return nil
}

func newIPPoolAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME CIDR",
		Short: "Add an IP pool for a network",
		Long: `Add an IP pool for a network. Networks of different pools must not overlap.

Examples:
  inventory-tool ippool add tunnels 192.168.255.0/24`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ippool.New(args[1])
			if err != nil {
				return err
			}
			return withInventory(saveAlways, func(inv *inventory.Inventory) error {
				if err := inv.IPPoolAdd(args[0], p); err != nil {
					return err
				}
				printDone(cmd, "Added IP pool %s for %s", args[0], p.Network())
				return nil
			})
		},
	}
}

func newIPPoolDelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "del NAME",
		Short: "Delete an IP pool and every binding to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(saveAlways, func(inv *inventory.Inventory) error {
				if err := inv.IPPoolDel(args[0]); err != nil {
					return err
				}
				printDone(cmd, "Deleted IP pool %s", args[0])
				return nil
			})
		},
	}
}

// newIPPoolBindingCommand builds a POOL GROUP KEY subcommand applying op.
func newIPPoolBindingCommand(use, short, done string, op func(*inventory.Inventory, string, string, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(saveAlways, func(inv *inventory.Inventory) error {
				if err := op(inv, args[0], args[1], args[2]); err != nil {
					return err
				}
				printDone(cmd, done, args[0], args[1], args[2])
				return nil
			})
		},
	}
}

// newIPPoolAddrCommand builds a POOL ADDR subcommand applying op.
func newIPPoolAddrCommand(use, short, done string, op func(*inventory.Inventory, string, netip.Addr) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := ippool.ParseAddr(args[1])
			if err != nil {
				return err
			}
			return withInventory(saveAlways, func(inv *inventory.Inventory) error {
				if err := op(inv, args[0], addr); err != nil {
					return err
				}
				printDone(cmd, done, args[0], addr)
				return nil
			})
		},
	}
}

// addrList renders addresses as strings; never nil.
func addrList(addrs []netip.Addr) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.String())
	}
	return out
}
