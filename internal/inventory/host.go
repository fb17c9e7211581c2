package inventory

import (
	"maps"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/shinji-kodama/inventory-tool/internal/model"
)

// Host is a machine in the inventory: a set of variables plus alias names.
//
// Only the Inventory mutates hosts; values handed out by Inventory.Host are
// copies.
type Host struct {
	// keyvals holds concrete variable values.
	keyvals map[string]string

	// pending holds keys waiting for an address from their bound pool.
	// A key is never in keyvals and pending at the same time.
	pending mapset.Set[string]

	// aliases holds alternative canonical names of the host.
	aliases mapset.Set[string]
}

func newHost() *Host {
	return &Host{
		keyvals: map[string]string{},
		pending: mapset.NewThreadUnsafeSet[string](),
		aliases: mapset.NewThreadUnsafeSet[string](),
	}
}

// Var returns the concrete value of key.
func (h *Host) Var(key string) (string, bool) {
	v, ok := h.keyvals[key]
	return v, ok
}

// HasConcreteVar reports whether key holds a concrete value.
func (h *Host) HasConcreteVar(key string) bool {
	_, ok := h.keyvals[key]
	return ok
}

// Vars returns a copy of the concrete variables.
func (h *Host) Vars() map[string]string {
	return maps.Clone(h.keyvals)
}

// Keys returns the names of all variables, concrete or pending, sorted.
func (h *Host) Keys() []string {
	keys := slices.Collect(maps.Keys(h.keyvals))
	keys = append(keys, h.pending.ToSlice()...)
	slices.Sort(keys)
	return keys
}

// Pending returns the keys still waiting for auto-allocation, sorted.
func (h *Host) Pending() []string {
	return sortedSet(h.pending)
}

// HasVar reports whether key is set, either concretely or pending.
func (h *Host) HasVar(key string) bool {
	_, ok := h.keyvals[key]
	return ok || h.pending.Contains(key)
}

// Aliases returns the host's aliases, sorted.
func (h *Host) Aliases() []string {
	return sortedSet(h.aliases)
}

// HasAlias reports whether alias belongs to the host.
func (h *Host) HasAlias(alias string) bool {
	return h.aliases.Contains(alias)
}

func (h *Host) setVar(key, value string) {
	h.pending.Remove(key)
	h.keyvals[key] = value
}

// requestAllocation replaces key's value with the auto-allocation sentinel.
func (h *Host) requestAllocation(key string) {
	delete(h.keyvals, key)
	h.pending.Add(key)
}

// deleteVars removes all keys or none of them.
func (h *Host) deleteVars(keys []string) error {
	for _, key := range keys {
		if !h.HasVar(key) {
			return model.MalformedInput("variable %q is not set", key)
		}
	}
	for _, key := range keys {
		delete(h.keyvals, key)
		h.pending.Remove(key)
	}
	return nil
}

func (h *Host) addAlias(alias string) error {
	if h.aliases.Contains(alias) {
		return model.MalformedInput("alias %q already exists", alias)
	}
	h.aliases.Add(alias)
	return nil
}

func (h *Host) deleteAlias(alias string) error {
	if !h.aliases.Contains(alias) {
		return model.MalformedInput("alias %q does not exist", alias)
	}
	h.aliases.Remove(alias)
	return nil
}

func (h *Host) clone() *Host {
	return &Host{
		keyvals: maps.Clone(h.keyvals),
		pending: h.pending.Clone(),
		aliases: h.aliases.Clone(),
	}
}

func sortedSet(s mapset.Set[string]) []string {
	out := s.ToSlice()
	slices.Sort(out)
	return out
}
