// Package cli: recalculate.go implements the "inventory-tool recalculate"
// command.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/inventory-tool/internal/inventory"
)

// NewRecalculateCommand creates the "recalculate" cobra command.
func NewRecalculateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recalculate",
		Short: "Normalize names, prune stale references and rebuild allocations",
		Long: `Rebuild the derived parts of the inventory from the hosts and groups.

Host names and aliases are normalized, references to missing hosts are
dropped, pool allocations are rebuilt from the address variables and pending
address requests are served. Run it after editing the inventory by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(saveAlways, func(inv *inventory.Inventory) error {
				if err := inv.Recalculate(); err != nil {
					return err
				}
				printDone(cmd, "Recalculated inventory %s", inv.Path())
				return nil
			})
		},
	}
}
