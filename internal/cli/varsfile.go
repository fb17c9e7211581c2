// Package cli: varsfile.go parses host variables given on the command
// line ("KEY=VALUE", or "KEY" alone to request an address) or in a
// JSON-with-comments file passed to "host set-vars --from-file".
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/shinji-kodama/inventory-tool/internal/inventory"
	"github.com/shinji-kodama/inventory-tool/internal/model"
)

// parseAssignments turns "KEY=VALUE" arguments into KeyVals. A bare "KEY"
// asks for an address from the pool bound to KEY.
func parseAssignments(args []string) ([]inventory.KeyVal, error) {
	pairs := make([]inventory.KeyVal, 0, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if key == "" {
			return nil, model.MalformedInput("invalid variable assignment %q: expected KEY=VALUE or KEY", arg)
		}
		if !found {
			pairs = append(pairs, inventory.KeyVal{Key: key, Auto: true})
			continue
		}
		pairs = append(pairs, inventory.KeyVal{Key: key, Value: value})
	}
	return pairs, nil
}

// loadVarsFile reads host variables from a JSON object. Comments and
// trailing commas are allowed. Strings, numbers and booleans are stored
// as text and null requests an address.
func loadVarsFile(path string) ([]inventory.KeyVal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapMalformedInput(err, "failed to read variables file %s", path)
	}
	pairs, err := parseVars(data)
	if err != nil {
		return nil, model.WrapMalformedInput(err, "invalid variables file %s", path)
	}
	return pairs, nil
}

// parseVars decodes a JSONC object into KeyVals sorted by key.
func parseVars(data []byte) ([]inventory.KeyVal, error) {
	// jsonc.ToJSON strips comments and trailing commas so that
	// encoding/json can decode the result.
	cleanJSON := jsonc.ToJSON(data)

	// UseNumber keeps numbers as written instead of going through float64.
	dec := json.NewDecoder(bytes.NewReader(cleanJSON))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("expected a JSON object: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("expected a JSON object, got null")
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]inventory.KeyVal, 0, len(keys))
	for _, key := range keys {
		switch v := raw[key].(type) {
		case nil:
			pairs = append(pairs, inventory.KeyVal{Key: key, Auto: true})
		case string:
			pairs = append(pairs, inventory.KeyVal{Key: key, Value: v})
		case json.Number:
			pairs = append(pairs, inventory.KeyVal{Key: key, Value: v.String()})
		case bool:
			pairs = append(pairs, inventory.KeyVal{Key: key, Value: fmt.Sprint(v)})
		default:
			return nil, fmt.Errorf("value of %q must be a string, number, boolean or null", key)
		}
	}
	return pairs, nil
}
