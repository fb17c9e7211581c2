// Package cli: session.go loads the inventory for a command, runs the
// command against it and decides whether the result is written back.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/inventory-tool/internal/inventory"
	"github.com/shinji-kodama/inventory-tool/internal/model"
	"github.com/shinji-kodama/inventory-tool/internal/ui"
)

// saveMode tells withInventory when to write the inventory back.
type saveMode int

const (
	// saveNever leaves the file untouched, even if loading recalculated it.
	saveNever saveMode = iota

	// saveIfRecalculated writes the file only when Open had to repair it.
	saveIfRecalculated

	// saveAlways writes the file after a successful change.
	saveAlways
)

// inventoryConfig builds the inventory.Config from the loaded settings.
func inventoryConfig(initialize bool) inventory.Config {
	return inventory.Config{
		Path:       settings.Inventory,
		Initialize: initialize,
		Normalizer: settings.Normalizer(),
		Classifier: settings.Keywords(),
		Logger:     logger,
	}
}

// withInventory opens the configured inventory, runs fn and saves the
// result according to mode. Nothing is written when fn fails.
func withInventory(mode saveMode, fn func(inv *inventory.Inventory) error) error {
	VerboseLog("Loading inventory %s", settings.Inventory)
	inv, err := inventory.Open(inventoryConfig(false))
	if err != nil {
		return err
	}
	if inv.IsRecalculated() {
		VerboseLog("Inventory checksum did not match, recalculated")
	}

	if err := fn(inv); err != nil {
		return err
	}

	if mode == saveAlways || (mode == saveIfRecalculated && inv.IsRecalculated()) {
		VerboseLog("Saving inventory %s", inv.Path())
		return inv.Save()
	}
	return nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to encode JSON output", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// printNames writes a name list, one per line, or as a JSON array.
func printNames(cmd *cobra.Command, names []string) error {
	if IsJSONOutput() {
		return printJSON(cmd.OutOrStdout(), names)
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

// printDone reports a successful change. JSON mode stays silent on stdout
// so scripts only see data they asked for.
func printDone(cmd *cobra.Command, format string, args ...interface{}) {
	if IsJSONOutput() {
		return
	}
	ui.Success(cmd.OutOrStdout(), fmt.Sprintf(format, args...))
}
