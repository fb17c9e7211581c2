package inventory

import (
	"net/netip"

	"github.com/shinji-kodama/inventory-tool/internal/ippool"
	"github.com/shinji-kodama/inventory-tool/internal/model"
)

// aliasesKey is the host variable name the Ansible view reserves for the
// alias list.
const aliasesKey = "aliases"

// KeyVal is one variable assignment for HostSetVars. With Auto set, Value
// is ignored and the variable receives the next free address of the pool
// bound to Key.
type KeyVal struct {
	Key   string
	Value string
	Auto  bool
}

// HostNames returns the canonical names of all hosts, sorted.
func (inv *Inventory) HostNames() []string {
	return inv.st.hostNames()
}

// Host returns a copy of the named host.
func (inv *Inventory) Host(name string) (*Host, error) {
	_, h, err := inv.lookupHost(inv.st, name)
	if err != nil {
		return nil, err
	}
	return h.clone(), nil
}

// HostAdd creates an empty host. The name must not be used by any host,
// either as its name or as an alias.
func (inv *Inventory) HostAdd(name string) error {
	canonical := inv.normalizer.Normalize(name)
	if canonical == "" {
		return model.MalformedInput("host name must not be empty")
	}
	return inv.mutate(func(s *state) error {
		if owner, ok := s.owner(canonical); ok {
			return model.MalformedInput("host name %q is already used by host %q", canonical, owner)
		}
		s.hosts[canonical] = newHost()
		return nil
	})
}

// HostDel removes a host from the inventory and from every group. Addresses
// its variables held are released.
func (inv *Inventory) HostDel(name string) error {
	return inv.mutate(func(s *state) error {
		canonical, _, err := inv.lookupHost(s, name)
		if err != nil {
			return err
		}
		delete(s.hosts, canonical)
		for _, g := range s.groups {
			g.hosts.Remove(canonical)
		}
		return nil
	})
}

// HostRename gives a host a new name, normalized first. Group references
// follow the host. The new name may be one of the host's own aliases, which
// is then dropped.
func (inv *Inventory) HostRename(from, to string) error {
	target := inv.normalizer.Normalize(to)
	if target == "" {
		return model.MalformedInput("host name must not be empty")
	}
	return inv.mutate(func(s *state) error {
		canonical, _, err := inv.lookupHost(s, from)
		if err != nil {
			return err
		}
		if target == canonical {
			return nil
		}
		if owner, ok := s.owner(target); ok && owner != canonical {
			return model.MalformedInput("host name %q is already used by host %q", target, owner)
		}
		s.renameHost(canonical, target)
		return nil
	})
}

// HostToGroups returns the groups whose effective membership includes the
// host, sorted. An unknown host belongs to no group.
func (inv *Inventory) HostToGroups(name string) ([]string, error) {
	canonical := inv.normalizer.Normalize(name)
	if _, ok := inv.st.hosts[canonical]; !ok {
		return []string{}, nil
	}
	index, err := inv.st.memberships()
	if err != nil {
		return nil, err
	}
	groups := groupsByHost(index)[canonical]
	if groups == nil {
		groups = []string{}
	}
	return groups, nil
}

// HostSetVars assigns variables of a host in one step.
//
// Values of address variables must be IP literals and values of network
// variables CIDR blocks. An address variable bound to a pool must hold an
// address of that pool; the previous address is released. Auto requests
// the next free address and is only valid for address variables with a
// binding. Either every pair is applied or none.
func (inv *Inventory) HostSetVars(name string, pairs []KeyVal) error {
	if len(pairs) == 0 {
		return model.MalformedInput("no variables given")
	}
	values := make([]KeyVal, 0, len(pairs))
	for _, kv := range pairs {
		checked, err := inv.checkKeyVal(kv)
		if err != nil {
			return err
		}
		values = append(values, checked)
	}

	return inv.mutate(func(s *state) error {
		_, h, err := inv.lookupHost(s, name)
		if err != nil {
			return err
		}
		for _, kv := range values {
			if kv.Auto {
				h.requestAllocation(kv.Key)
				continue
			}
			h.setVar(kv.Key, kv.Value)
		}
		return nil
	})
}

// checkKeyVal validates one assignment and returns it with the value in
// canonical form.
func (inv *Inventory) checkKeyVal(kv KeyVal) (KeyVal, error) {
	switch {
	case kv.Key == "":
		return kv, model.MalformedInput("variable name must not be empty")
	case kv.Key == aliasesKey:
		return kv, model.MalformedInput("variable name %q is reserved", aliasesKey)
	case kv.Auto:
		if !inv.classifier.IsAddressKeyword(kv.Key) {
			return kv, model.MalformedInput("variable %q is not an address variable and cannot be auto-allocated", kv.Key)
		}
		return kv, nil
	case inv.classifier.IsAddressKeyword(kv.Key):
		addr, err := ippool.ParseAddr(kv.Value)
		if err != nil {
			return kv, model.WrapMalformedInput(err, "variable %q", kv.Key)
		}
		kv.Value = addr.String()
	case inv.classifier.IsNetworkKeyword(kv.Key):
		prefix, err := netip.ParsePrefix(kv.Value)
		if err != nil {
			return kv, model.WrapMalformedInput(err, "variable %q: invalid network %q", kv.Key, kv.Value)
		}
		kv.Value = prefix.String()
	}
	return kv, nil
}

// HostDelVars removes variables from a host. If any key is not set,
// nothing is removed. Addresses held by removed variables are released.
func (inv *Inventory) HostDelVars(name string, keys []string) error {
	if len(keys) == 0 {
		return model.MalformedInput("no variables given")
	}
	return inv.mutate(func(s *state) error {
		_, h, err := inv.lookupHost(s, name)
		if err != nil {
			return err
		}
		return h.deleteVars(keys)
	})
}

// HostAliasAdd adds an alias to a host. The normalized alias must not be
// used by any host, either as its name or as an alias.
func (inv *Inventory) HostAliasAdd(name, alias string) error {
	canonical := inv.normalizer.Normalize(alias)
	if canonical == "" {
		return model.MalformedInput("alias must not be empty")
	}
	return inv.mutate(func(s *state) error {
		_, h, err := inv.lookupHost(s, name)
		if err != nil {
			return err
		}
		if owner, ok := s.owner(canonical); ok {
			return model.MalformedInput("alias %q is already used by host %q", canonical, owner)
		}
		return h.addAlias(canonical)
	})
}

// HostAliasDel removes an alias from a host.
func (inv *Inventory) HostAliasDel(name, alias string) error {
	canonical := inv.normalizer.Normalize(alias)
	return inv.mutate(func(s *state) error {
		_, h, err := inv.lookupHost(s, name)
		if err != nil {
			return err
		}
		return h.deleteAlias(canonical)
	})
}

// lookupHost normalizes name and returns the host registered under it.
func (inv *Inventory) lookupHost(s *state, name string) (string, *Host, error) {
	canonical := inv.normalizer.Normalize(name)
	h, ok := s.hosts[canonical]
	if !ok {
		return "", nil, model.MalformedInput("host %q does not exist", name)
	}
	return canonical, h, nil
}
